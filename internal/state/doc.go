// Package state persists per-page content state between builds.
//
// Each published URL maps to the fingerprint of its source document and the time
// that fingerprint was first seen. Lastmod resolution compares fingerprints to
// decide whether a page changed since the previous build.
package state
