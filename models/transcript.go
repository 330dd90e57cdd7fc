package models

import "strings"

// Transcript markers. Consumers match on these, so they must not change.
const (
	TranscriptStart = "[START OF PREVIOUS CONTEXT]\n(Auto-scrolled to beginning)\n\n"
	TranscriptEnd   = "\n[END OF CONTEXT]"
)

// Entry is one labelled chat turn.
type Entry struct {
	Role SpeakerRole `json:"role" yaml:"role"`
	Text string      `json:"text" yaml:"text"`
}

// Transcript is the ordered list of turns found on a page, oldest first.
type Transcript struct {
	Entries []Entry `json:"entries" yaml:"entries"`
}

// String renders the transcript in the copy format.
func (t Transcript) String() string {
	var sb strings.Builder
	sb.WriteString(TranscriptStart)
	for _, e := range t.Entries {
		sb.WriteString("\n")
		sb.WriteString(e.Role.Header())
		sb.WriteString("\n")
		sb.WriteString(e.Text)
		sb.WriteString("\n\n")
	}
	sb.WriteString(TranscriptEnd)
	return sb.String()
}

// IsEmpty reports whether no message blocks were found.
func (t Transcript) IsEmpty() bool {
	return len(t.Entries) == 0
}

// Count returns the number of entries with the given role.
func (t Transcript) Count(role SpeakerRole) int {
	n := 0
	for _, e := range t.Entries {
		if e.Role == role {
			n++
		}
	}
	return n
}
