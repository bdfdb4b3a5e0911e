package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportFile is the machine readable report written into the output directory.
const ReportFile = "build-report.json"

// BuildOutcome is the final build result.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// ReportIssueCode enumerates machine-parseable issue identifiers.
type ReportIssueCode string

const (
	IssueDiscoveryFailure  ReportIssueCode = "DISCOVERY_FAILURE"
	IssueRenderFailure     ReportIssueCode = "RENDER_FAILURE"
	IssueBrokenLinks       ReportIssueCode = "BROKEN_LINKS"
	IssueSitemapFailure    ReportIssueCode = "SITEMAP_FAILURE"
	IssueStateFailure      ReportIssueCode = "STATE_FAILURE"
	IssuePublishFailure    ReportIssueCode = "PUBLISH_FAILURE"
	IssueCanceled          ReportIssueCode = "BUILD_CANCELED"
	IssueGenericStageError ReportIssueCode = "GENERIC_STAGE_ERROR"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is one problem encountered during the build.
type ReportIssue struct {
	Code      ReportIssueCode `json:"code"`
	Stage     StageName       `json:"stage"`
	Severity  IssueSeverity   `json:"severity"`
	Message   string          `json:"message"`
	Transient bool            `json:"transient"`
}

// StageReport is the outcome of one stage.
type StageReport struct {
	Name       StageName   `json:"name"`
	Result     StageResult `json:"result"`
	DurationMS int64       `json:"duration_ms"`
}

// BuildReport captures the metrics of one build.
type BuildReport struct {
	SchemaVersion int           `json:"schema_version"`
	BuildID       string        `json:"build_id"`
	Trigger       string        `json:"trigger"`
	Start         time.Time     `json:"start"`
	End           time.Time     `json:"end"`
	Outcome       BuildOutcome  `json:"outcome"`
	Stages        []StageReport `json:"stages"`
	Issues        []ReportIssue `json:"issues"`

	Docs         int            `json:"docs"`
	Listings     int            `json:"listings"`
	Features     int            `json:"features"`
	Links        int            `json:"links"`
	BrokenLinks  []string       `json:"broken_links,omitempty"`
	SitemapURLs  int            `json:"sitemap_urls"`
	Excluded     map[string]int `json:"excluded,omitempty"` // reason -> count
	ChangedURLs  []string       `json:"changed_urls,omitempty"`
	StateWritten int            `json:"state_written"`
	Outputs      []string       `json:"outputs,omitempty"` // paths relative to the output dir
}

func newBuildReport(buildID, trigger string, start time.Time) *BuildReport {
	return &BuildReport{
		SchemaVersion: 1,
		BuildID:       buildID,
		Trigger:       trigger,
		Start:         start,
		Stages:        []StageReport{},
		Issues:        []ReportIssue{},
		Excluded:      map[string]int{},
	}
}

// AddIssue appends a structured issue.
func (r *BuildReport) AddIssue(code ReportIssueCode, stage StageName, severity IssueSeverity, msg string, transient bool) {
	r.Issues = append(r.Issues, ReportIssue{Code: code, Stage: stage, Severity: severity, Message: msg, Transient: transient})
}

// Duration returns the build wall time.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// StageResult returns the recorded result of a stage and whether it ran.
func (r *BuildReport) StageResult(name StageName) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s.Result, true
		}
	}
	return "", false
}

// deriveOutcome sets Outcome from the recorded stage results.
func (r *BuildReport) deriveOutcome() {
	outcome := OutcomeSuccess
	for _, s := range r.Stages {
		switch s.Result {
		case StageResultCanceled:
			r.Outcome = OutcomeCanceled
			return
		case StageResultFatal:
			outcome = OutcomeFailed
		case StageResultWarning:
			if outcome == OutcomeSuccess {
				outcome = OutcomeWarning
			}
		}
	}
	r.Outcome = outcome
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("build=%s docs=%d listings=%d features=%d sitemap_urls=%d broken_links=%d issues=%d duration=%s outcome=%s",
		r.BuildID, r.Docs, r.Listings, r.Features, r.SitemapURLs, len(r.BrokenLinks), len(r.Issues),
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Persist writes build-report.json atomically into root.
func (r *BuildReport) Persist(root string) error {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	path := filepath.Join(root, ReportFile)
	tmp := path + ".tmp"
	// #nosec G306 -- the report is published with the site
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}

// LoadReport reads a persisted report.
func LoadReport(root string) (*BuildReport, error) {
	// #nosec G304 -- root is the configured output directory
	data, err := os.ReadFile(filepath.Join(root, ReportFile))
	if err != nil {
		return nil, err
	}
	var r BuildReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report json: %w", err)
	}
	return &r, nil
}
