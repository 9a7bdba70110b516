package models

import (
	"encoding/json"
	"strings"
)

// rawSlot is the historical wire shape for a slot label. Older clients
// stored the label JSON-encoded, either as a bare string or wrapped in
// an object with an "hora" (or later "label") field.
type rawSlot struct {
	Hora  string `json:"hora"`
	Label string `json:"label"`
}

// ResolveSlotLabel canonicalizes a raw time-slot label. It accepts a
// plain label, a JSON-encoded string, or a JSON object carrying the
// label, and returns the trimmed canonical label. The function is pure
// and idempotent: resolving an already-canonical label returns it
// unchanged.
func ResolveSlotLabel(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	switch s[0] {
	case '{':
		var w rawSlot
		if err := json.Unmarshal([]byte(s), &w); err == nil {
			if w.Hora != "" {
				return strings.TrimSpace(w.Hora)
			}
			if w.Label != "" {
				return strings.TrimSpace(w.Label)
			}
		}
		// Undecodable object: fall through and treat as literal.
	case '"':
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			return strings.TrimSpace(inner)
		}
	}

	return s
}

// KnownSlot reports whether label matches one of the configured
// pedagogical hours. An empty hour list accepts any label, so the
// calendar keeps working while reference data is still loading.
func KnownSlot(label string, hours []PedagogicalHour) bool {
	if len(hours) == 0 {
		return true
	}
	for _, h := range hours {
		if h.Label == label {
			return true
		}
	}
	return false
}
