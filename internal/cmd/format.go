package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/opencode-portal/portal/internal/cmd/output"
)

// OutputFormat is the format a command renders its results in.
// It implements pflag.Value so it can be bound to a --format flag.
type OutputFormat string

// OutputFormats is a list of formats.
type OutputFormats []OutputFormat

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatText OutputFormat = "text"
)

// AllowedOutputFormats returns the supported formats in lexicographical order.
func AllowedOutputFormats() OutputFormats {
	formats := OutputFormats{
		FormatJSON,
		FormatText,
		FormatYAML,
	}

	slices.Sort(formats)

	return formats
}

// String joins the formats with commas.
func (f *OutputFormats) String() string {
	out := make([]string, len(*f))
	for i, v := range *f {
		out[i] = v.String()
	}
	return strings.Join(out, ", ")
}

func (f *OutputFormat) String() string {
	return strings.ToLower(string(*f))
}

// Set parses v, case-insensitively, as one of the allowed formats.
func (f *OutputFormat) Set(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	allowed := AllowedOutputFormats()

	if slices.Contains(allowed, OutputFormat(v)) {
		*f = OutputFormat(v)
		return nil
	}

	return fmt.Errorf("invalid format '%s', must be one of %v", v, allowed.String())
}

func (f *OutputFormat) Type() string {
	return "format"
}

// NewHandler returns the output handler for format, writing to w.
// The printer is only used for text output.
func NewHandler[T any](format OutputFormat, w io.Writer, printer output.Printer[T]) (output.Handler[T], error) {
	switch format {
	case FormatJSON:
		return output.NewJSONHandler[T](w, 2), nil
	case FormatYAML:
		return output.NewYAMLHandler[T](w, 2), nil
	case FormatText, "":
		if printer == nil {
			return nil, fmt.Errorf("text output requires a printer")
		}
		return output.NewTextHandler[T](w, printer), nil
	default:
		return nil, fmt.Errorf("unsupported output format '%s'", format)
	}
}
