// Package clipboard copies a transcript with a two-tier fallback: the system
// clipboard first, then an OSC 52 escape sequence written to the terminal.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Method names the tier that performed the copy.
type Method string

const (
	MethodSystem Method = "system"
	MethodOSC52  Method = "osc52"
)

var (
	ErrNothingToCopy = errors.New("no content to copy")
	ErrCopyFailed    = errors.New("copy failed completely")
	errUnsupported   = errors.New("system clipboard unavailable")
)

// Copier tries Primary and falls back to Fallback.
type Copier struct {
	Primary  func(text string) error
	Fallback func(text string) error
}

// New returns a Copier using the system clipboard and OSC 52 on out.
func New(out io.Writer) *Copier {
	return &Copier{
		Primary:  systemCopy,
		Fallback: func(text string) error { return osc52Copy(out, text) },
	}
}

// Copy writes text with the first tier that succeeds.
func (c *Copier) Copy(text string) (Method, error) {
	if text == "" {
		return "", ErrNothingToCopy
	}

	primaryErr := c.Primary(text)
	if primaryErr == nil {
		return MethodSystem, nil
	}

	fallbackErr := c.Fallback(text)
	if fallbackErr == nil {
		return MethodOSC52, nil
	}

	return "", fmt.Errorf("%w: %w; fallback: %w", ErrCopyFailed, primaryErr, fallbackErr)
}

func systemCopy(text string) error {
	if clipboard.Unsupported {
		return errUnsupported
	}
	return clipboard.WriteAll(text)
}

func osc52Copy(out io.Writer, text string) error {
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if os.Getenv("STY") != "" {
		seq = seq.Screen()
	}
	if _, err := seq.WriteTo(out); err != nil {
		return fmt.Errorf("osc52: %w", err)
	}
	return nil
}
