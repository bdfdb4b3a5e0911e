package eventstore

import (
	"context"
	"sort"
	"time"
)

// BuildSummary is a read model of one build reconstructed from its events.
type BuildSummary struct {
	BuildID      string        `json:"build_id"`
	Trigger      string        `json:"trigger,omitempty"`
	Status       string        `json:"status"` // running, or the completed outcome
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  time.Time     `json:"completed_at,omitzero"`
	Duration     time.Duration `json:"duration,omitempty"`
	Stages       []string      `json:"stages,omitempty"`
	Pages        int           `json:"pages"`
	SitemapURLs  int           `json:"sitemap_urls"`
	BrokenLinks  int           `json:"broken_links"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

const statusRunning = "running"

// History folds events into build summaries, newest first, at most limit entries
// (zero means no limit). Events with undecodable payloads are skipped.
func History(events []Event, limit int) []BuildSummary {
	byID := make(map[string]*BuildSummary)
	var order []string

	for _, e := range events {
		if e.BuildID == "" {
			continue
		}
		s, ok := byID[e.BuildID]
		if !ok {
			s = &BuildSummary{BuildID: e.BuildID, Status: statusRunning, StartedAt: e.Timestamp}
			byID[e.BuildID] = s
			order = append(order, e.BuildID)
		}
		switch e.Type {
		case TypeBuildStarted:
			if p, err := Decode[BuildStarted](e); err == nil {
				s.Trigger = p.Trigger
			}
			s.StartedAt = e.Timestamp
		case TypeStageCompleted:
			if p, err := Decode[StageCompleted](e); err == nil {
				s.Stages = append(s.Stages, p.Stage+":"+p.Result)
			}
		case TypeBuildCompleted:
			p, err := Decode[BuildCompleted](e)
			if err != nil {
				continue
			}
			s.Status = p.Outcome
			s.CompletedAt = e.Timestamp
			s.Duration = time.Duration(p.DurationMS) * time.Millisecond
			s.Pages = p.Pages
			s.SitemapURLs = p.SitemapURLs
			s.BrokenLinks = p.BrokenLinks
			s.ErrorMessage = p.ErrorMessage
		}
	}

	out := make([]BuildSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// RecentBuilds loads every event from the store and returns the newest summaries.
func RecentBuilds(ctx context.Context, store Store, limit int) ([]BuildSummary, error) {
	events, err := store.GetRange(ctx, time.Unix(0, 0), time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}
	return History(events, limit), nil
}
