// Package eventstore keeps an append-only log of build events.
package eventstore

import (
	"encoding/json"
	"time"
)

// Event types.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeStageCompleted = "StageCompleted"
	TypeBuildCompleted = "BuildCompleted"
)

// Event is one stored build event.
type Event struct {
	ID        int64             `json:"id"`
	BuildID   string            `json:"build_id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// BuildStarted is the payload of TypeBuildStarted.
type BuildStarted struct {
	Trigger string `json:"trigger"` // cli, watch, schedule
	DocsDir string `json:"docs_dir"`
	OutDir  string `json:"out_dir"`
}

// StageCompleted is the payload of TypeStageCompleted.
type StageCompleted struct {
	Stage      string `json:"stage"`
	Result     string `json:"result"` // success, warning, fatal, canceled, skipped
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// BuildCompleted is the payload of TypeBuildCompleted.
type BuildCompleted struct {
	Outcome      string `json:"outcome"`
	DurationMS   int64  `json:"duration_ms"`
	Pages        int    `json:"pages"`
	SitemapURLs  int    `json:"sitemap_urls"`
	Features     int    `json:"features"`
	BrokenLinks  int    `json:"broken_links"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// New builds an event with a JSON payload.
func New(buildID, eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{BuildID: buildID, Type: eventType, Timestamp: time.Now().UTC(), Payload: raw}, nil
}

// Decode unmarshals an event payload into T.
func Decode[T any](e Event) (T, error) {
	var v T
	err := json.Unmarshal(e.Payload, &v)
	return v, err
}
