package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/arbovm/levenshtein"

	apperrors "go-dirtycam/internal/errors"
)

// Format selects the scan output style
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Formats lists the supported output formats
var Formats = []Format{FormatText, FormatJSON}

// maxSuggestionDistance bounds how far a typo may be from a known format
// before no suggestion is offered
const maxSuggestionDistance = 2

// ParseFormat resolves a format name, suggesting the closest known name on
// a miss
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}

	msg := fmt.Sprintf("unknown output format %q", name)
	if s, ok := suggest(name); ok {
		msg += fmt.Sprintf(", did you mean %q?", s)
	}
	return "", apperrors.NewValidationError(msg, nil)
}

func suggest(name string) (Format, bool) {
	best, bestDist := Format(""), maxSuggestionDistance+1
	for _, f := range Formats {
		if d := levenshtein.Distance(name, string(f)); d < bestDist {
			best, bestDist = f, d
		}
	}
	return best, best != ""
}

// New creates the reporter for format writing to w
func New(format Format, w io.Writer) (Reporter, error) {
	switch format {
	case FormatText:
		return NewTextReporter(w), nil
	case FormatJSON:
		return NewJSONReporter(w), nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown output format %q", format), nil)
	}
}
