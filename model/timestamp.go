package model

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp tolerates the server's LocalDateTime JSON rendering
// ("2006-01-02T15:04:05", optional fraction, no zone) next to plain
// RFC3339. Zone-less values are taken as UTC per the server clock.
type Timestamp struct {
	time.Time
}

var tsLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range tsLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format("2006-01-02T15:04:05") + `"`), nil
}

// Before reports chronological order; used by the directory sort.
func (t Timestamp) Before(o Timestamp) bool { return t.Time.Before(o.Time) }
func (t Timestamp) After(o Timestamp) bool  { return t.Time.After(o.Time) }
