package server

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/docportal/internal/build"
)

// BuildStatus tracks the latest build for the health endpoint and the error page.
type BuildStatus struct {
	mu           sync.RWMutex
	last         *build.BuildReport
	lastErr      error
	hasGoodBuild bool
	observedAt   time.Time
}

// Observe records the result of a build.
func (s *BuildStatus) Observe(report *build.BuildReport, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = report
	s.lastErr = err
	s.observedAt = time.Now()
	if err == nil && report != nil {
		s.hasGoodBuild = true
	}
}

// Snapshot returns the latest report, its error and whether any build has
// produced a usable site.
func (s *BuildStatus) Snapshot() (*build.BuildReport, error, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastErr, s.hasGoodBuild
}

// broken reports whether there is nothing usable to serve.
func (s *BuildStatus) broken() bool {
	_, err, good := s.Snapshot()
	return err != nil && !good
}

// LastBuild is the build summary exposed by /health.
type LastBuild struct {
	BuildID  string    `json:"build_id"`
	Trigger  string    `json:"trigger"`
	Outcome  string    `json:"outcome"`
	Finished time.Time `json:"finished"`
	Duration string    `json:"duration"`
	Error    string    `json:"error,omitempty"`
}

func (s *BuildStatus) lastBuild() *LastBuild {
	report, err, _ := s.Snapshot()
	if report == nil {
		return nil
	}
	lb := &LastBuild{
		BuildID:  report.BuildID,
		Trigger:  report.Trigger,
		Outcome:  string(report.Outcome),
		Finished: report.End,
		Duration: report.Duration().String(),
	}
	if err != nil {
		lb.Error = err.Error()
	}
	return lb
}
