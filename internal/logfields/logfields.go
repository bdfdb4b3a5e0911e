package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyFeatureID  = "feature_id"
	KeyPattern    = "pattern"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeySubject    = "subject"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func FeatureID(id string) slog.Attr    { return slog.String(KeyFeatureID, id) }
func Pattern(p string) slog.Attr       { return slog.String(KeyPattern, p) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func Addr(a string) slog.Attr          { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
