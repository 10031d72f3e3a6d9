package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// Filter selects entries from the event log. Zero-valued fields match
// everything.
type Filter struct {
	Kinds []model.EventKind
	Since time.Time
	Until time.Time
	Limit int
}

func (f Filter) matches(ev model.SafetyEvent) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if ev.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Since.IsZero() && ev.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && ev.Timestamp.After(f.Until) {
		return false
	}
	return true
}

// Query scans a JSONL event log and returns the events matching the
// filter, oldest first. Malformed lines are skipped, not fatal;
// diagnostics must work on a partially damaged log.
func Query(path string, f Filter) ([]model.SafetyEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open log: %w", err)
	}
	defer file.Close()

	var out []model.SafetyEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		ev := entry.Event()
		if !f.matches(ev) {
			continue
		}
		out = append(out, ev)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("audit: scan log: %w", err)
	}
	return out, nil
}
