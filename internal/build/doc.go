// Package build runs the docportal site build.
//
// A build is an ordered list of named stages sharing a BuildState:
//
//	prepare_output -> discover_content -> render_homepage -> check_links ->
//	generate_sitemap -> persist_state -> publish_events
//
// Stage failures are classified as fatal, warning or canceled. Fatal and
// canceled stages abort the build; warnings are recorded and the build goes on.
// Every build produces a BuildReport persisted as build-report.json in the
// output directory, stage metrics, trace spans and build events.
package build
