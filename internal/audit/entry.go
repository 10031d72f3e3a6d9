package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// Entry is one line in the hash-chained JSONL safety event log.
// All fields are scalars or structs (no map[string]any) to guarantee
// deterministic json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string `json:"ts"`
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Command    string `json:"command,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Level      string `json:"level"`
	PolicyHash string `json:"policy_hash,omitempty"`
	PrevHash   string `json:"prev_hash"`
}

// FromEvent flattens a SafetyEvent into an Entry.
func FromEvent(ev model.SafetyEvent, policyHash string) Entry {
	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return Entry{
		Timestamp:  ts.UTC().Format("2006-01-02T15:04:05.000Z"),
		ID:         id,
		Kind:       string(ev.Kind),
		Command:    ev.Command,
		Reason:     ev.Reason,
		Level:      ev.Level.String(),
		PolicyHash: policyHash,
	}
}

// Event reconstructs the SafetyEvent carried by this entry.
func (e Entry) Event() model.SafetyEvent {
	ts, _ := time.Parse("2006-01-02T15:04:05.000Z", e.Timestamp)
	return model.SafetyEvent{
		ID:        e.ID,
		Kind:      model.EventKind(e.Kind),
		Command:   e.Command,
		Reason:    e.Reason,
		Level:     model.ParseLevel(e.Level),
		Timestamp: ts,
	}
}
