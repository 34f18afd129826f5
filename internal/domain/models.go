package domain

import "time"

// Domain contains core models shared by the mirror pipeline.

// Campaign is the newest entry found on the campaign archive index.
// DetailURL is the idempotence key persisted as the marker.
type Campaign struct {
	DetailURL   string
	ContentHTML string
}

// PayloadKind distinguishes text from binary upload bodies.
type PayloadKind int

const (
	PayloadText PayloadKind = iota
	PayloadBytes
)

func (k PayloadKind) String() string {
	if k == PayloadBytes {
		return "bytes"
	}
	return "text"
}

// Payload is either a text document or a raw byte sequence.
type Payload struct {
	kind PayloadKind
	text string
	data []byte
}

// TextPayload wraps rendered HTML or plain text.
func TextPayload(s string) Payload {
	return Payload{kind: PayloadText, text: s}
}

// BytesPayload wraps binary content such as a downloaded image.
func BytesPayload(b []byte) Payload {
	return Payload{kind: PayloadBytes, data: b}
}

func (p Payload) Kind() PayloadKind { return p.kind }

// Bytes returns the payload body regardless of kind.
func (p Payload) Bytes() []byte {
	if p.kind == PayloadBytes {
		return p.data
	}
	return []byte(p.text)
}

// PublishItem is one upload to the object store.
type PublishItem struct {
	Payload     Payload
	Key         string
	ContentType string
}

// Outcome is the terminal state of one run.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomePublished Outcome = "published"
	OutcomeDryRun    Outcome = "dry_run"
	OutcomeFailed    Outcome = "failed"
)

// RunRecord is the journal entry written for every run.
type RunRecord struct {
	RunID          string    `json:"run_id"`
	Outcome        Outcome   `json:"outcome"`
	DetailURL      string    `json:"detail_url,omitempty"`
	PreviousMarker string    `json:"previous_marker,omitempty"`
	PublishedKeys  []string  `json:"published_keys,omitempty"`
	InvalidationID string    `json:"invalidation_id,omitempty"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}
