package build

import (
	"context"
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StagePrepareOutput   StageName = "prepare_output"
	StageDiscoverContent StageName = "discover_content"
	StageRenderHomepage  StageName = "render_homepage"
	StageCheckLinks      StageName = "check_links"
	StageGenerateSitemap StageName = "generate_sitemap"
	StagePersistState    StageName = "persist_state"
	StagePublishEvents   StageName = "publish_events"
)

// StageErrorKind classifies the outcome of a failed stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether retrying the build may succeed.
func (e *StageError) Transient() bool {
	if e == nil || e.Kind == StageErrorCanceled {
		return false
	}
	if ce, ok := errors.AsClassified(e.Err); ok {
		return ce.CanRetry()
	}
	return false
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// errSkipped is returned by stages with nothing to do.
var errSkipped = stderrors.New("stage skipped")

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageOutcome is the normalized result of a stage execution.
type StageOutcome struct {
	Stage     StageName
	Error     *StageError
	Result    StageResult
	IssueCode ReportIssueCode
	Severity  IssueSeverity
	Transient bool
	Abort     bool
}

// classifyStageResult converts a raw stage error into a StageOutcome. Errors
// that are not StageErrors are fatal, and cancellation always aborts.
func classifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}
	if stderrors.Is(err, errSkipped) {
		return StageOutcome{Stage: stage, Result: StageResultSkipped}
	}

	var se *StageError
	if !stderrors.As(err, &se) {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			se = newCanceledStageError(stage, err)
		} else {
			se = newFatalStageError(stage, err)
		}
	}

	out := StageOutcome{Stage: stage, Error: se, IssueCode: issueCodeFor(se), Transient: se.Transient()}
	switch se.Kind {
	case StageErrorWarning:
		out.Result, out.Severity = StageResultWarning, SeverityWarning
	case StageErrorCanceled:
		out.Result, out.Severity, out.Abort = StageResultCanceled, SeverityError, true
	default:
		out.Result, out.Severity, out.Abort = StageResultFatal, SeverityError, true
	}
	return out
}

func issueCodeFor(se *StageError) ReportIssueCode {
	if se.Kind == StageErrorCanceled {
		return IssueCanceled
	}
	switch se.Stage {
	case StageDiscoverContent:
		return IssueDiscoveryFailure
	case StageRenderHomepage:
		return IssueRenderFailure
	case StageCheckLinks:
		return IssueBrokenLinks
	case StageGenerateSitemap:
		return IssueSitemapFailure
	case StagePersistState:
		return IssueStateFailure
	case StagePublishEvents:
		return IssuePublishFailure
	default:
		return IssueGenericStageError
	}
}

func resultLabel(r StageResult) metrics.ResultLabel {
	switch r {
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultFatal:
		return metrics.ResultFatal
	case StageResultCanceled:
		return metrics.ResultCanceled
	case StageResultSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultSuccess
	}
}
