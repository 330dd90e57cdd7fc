package models

import "testing"

func TestTranscriptString(t *testing.T) {
	tests := []struct {
		name string
		tr   Transcript
		want string
	}{
		{
			name: "empty",
			tr:   Transcript{},
			want: "[START OF PREVIOUS CONTEXT]\n(Auto-scrolled to beginning)\n\n\n[END OF CONTEXT]",
		},
		{
			name: "user and model",
			tr: Transcript{Entries: []Entry{
				{Role: RoleUser, Text: "Hello"},
				{Role: RoleModel, Text: "Hi there"},
			}},
			want: "[START OF PREVIOUS CONTEXT]\n(Auto-scrolled to beginning)\n\n\n### USER:\nHello\n\n\n### MODEL:\nHi there\n\n\n[END OF CONTEXT]",
		},
		{
			name: "unknown speaker",
			tr:   Transcript{Entries: []Entry{{Role: RoleUnknown, Text: "banner"}}},
			want: "[START OF PREVIOUS CONTEXT]\n(Auto-scrolled to beginning)\n\n\n---\nbanner\n\n\n[END OF CONTEXT]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranscriptCount(t *testing.T) {
	tr := Transcript{Entries: []Entry{
		{Role: RoleUser, Text: "a"},
		{Role: RoleModel, Text: "b"},
		{Role: RoleUser, Text: "c"},
	}}

	if got := tr.Count(RoleUser); got != 2 {
		t.Errorf("Count(RoleUser) = %d, want 2", got)
	}
	if got := tr.Count(RoleUnknown); got != 0 {
		t.Errorf("Count(RoleUnknown) = %d, want 0", got)
	}
	if tr.IsEmpty() {
		t.Error("IsEmpty() = true, want false")
	}
}

func TestParseSpeakerRole(t *testing.T) {
	tests := []struct {
		in      string
		want    SpeakerRole
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"Assistant", RoleModel, false},
		{" model ", RoleModel, false},
		{"", RoleUnknown, false},
		{"robot", RoleUnknown, true},
	}

	for _, tt := range tests {
		got, err := ParseSpeakerRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSpeakerRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSpeakerRole(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
