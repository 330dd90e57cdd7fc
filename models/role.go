package models

import (
	"fmt"
	"strings"
)

// SpeakerRole classifies the author of a message block.
type SpeakerRole int

const (
	RoleUnknown SpeakerRole = iota
	RoleUser
	RoleModel
)

// Header returns the transcript header line for the role.
func (r SpeakerRole) Header() string {
	switch r {
	case RoleUser:
		return "### USER:"
	case RoleModel:
		return "### MODEL:"
	default:
		return "---"
	}
}

func (r SpeakerRole) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleModel:
		return "model"
	default:
		return "unknown"
	}
}

// ParseSpeakerRole maps a role name to a SpeakerRole.
// "assistant" is accepted as an alias of "model".
func ParseSpeakerRole(s string) (SpeakerRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "model", "assistant":
		return RoleModel, nil
	case "unknown", "":
		return RoleUnknown, nil
	}
	return RoleUnknown, fmt.Errorf("unknown speaker role %q", s)
}

func (r SpeakerRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *SpeakerRole) UnmarshalText(text []byte) error {
	role, err := ParseSpeakerRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
