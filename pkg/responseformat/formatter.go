package responseformat

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format names an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgPack Format = "msgpack"
)

// ParseFormat returns the format named by s. An empty name selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMsgPack):
		return FormatMsgPack, nil
	default:
		return "", fmt.Errorf("unsupported output format [%s]", s)
	}
}

// Formatter encodes results in JSON or MessagePack
type Formatter struct {
	format Format
	indent bool
}

// NewFormatter creates a formatter for format. JSON output is indented when
// indent is set.
func NewFormatter(format Format, indent bool) *Formatter {
	return &Formatter{format: format, indent: indent}
}

// ContentType returns the MIME type of the formatter's output
func (f *Formatter) ContentType() string {
	if f.format == FormatMsgPack {
		return "application/x-msgpack"
	}
	return "application/json"
}

// Write encodes data to w
func (f *Formatter) Write(w io.Writer, data any) error {
	if f.format == FormatMsgPack {
		return f.writeMsgPack(w, data)
	}
	return f.writeJSON(w, data)
}

func (f *Formatter) writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

func (f *Formatter) writeMsgPack(w io.Writer, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}

// DecodeMsgPack decodes MessagePack produced by Write into v
func DecodeMsgPack(r io.Reader, v any) error {
	decoder := msgpack.NewDecoder(r)
	decoder.SetCustomStructTag("json")
	return decoder.Decode(v)
}
