package notifiers

import "time"

// Event is the payload sent after a campaign has been published and the marker committed.
type Event struct {
	RunID          string    `json:"run_id"`
	DetailURL      string    `json:"detail_url"`
	PublishedKeys  []string  `json:"published_keys"`
	InvalidationID string    `json:"invalidation_id,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
}

// NewEvent constructs an Event for the given run.
func NewEvent(runID, detailURL string, keys []string, invalidationID string) Event {
	return Event{
		RunID:          runID,
		DetailURL:      detailURL,
		PublishedKeys:  append([]string(nil), keys...),
		InvalidationID: invalidationID,
		PublishedAt:    time.Now().UTC(),
	}
}
