package output

import (
	"fmt"
	"io"

	"github.com/manifest-network/blockfeed/internal/feed"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type OutputHandler interface {
	// WriteView renders a snapshot of the displayed page.
	WriteView(view feed.View) error

	// WriteMessage writes a one-line status message, e.g. a command error.
	WriteMessage(msg string) error

	// Close flushes and releases the output.
	Close() error
}

// New returns the handler for format writing to w.
func New(format string, w io.Writer) (OutputHandler, error) {
	switch format {
	case "", FormatText:
		return NewTextHandler(w), nil
	case FormatJSON:
		return NewJSONHandler(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
