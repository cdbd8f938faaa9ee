package responseformat

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string    `json:"name"`
	Radii []float64 `json:"radii"`
	Skip  string    `json:"-"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{" MsgPack ", FormatMsgPack, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatJSON, true)
	require.NoError(t, f.Write(&buf, sample{Name: "job-1", Radii: []float64{3.8, 4.8}, Skip: "x"}))

	assert.Equal(t, "application/json", f.ContentType())
	assert.Contains(t, buf.String(), "\n  \"name\": \"job-1\"")
	assert.NotContains(t, buf.String(), "Skip")

	var got sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []float64{3.8, 4.8}, got.Radii)
}

func TestWriteMsgPackUsesJSONTags(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatMsgPack, false)
	require.NoError(t, f.Write(&buf, sample{Name: "job-2", Radii: []float64{0.1}, Skip: "x"}))
	assert.Equal(t, "application/x-msgpack", f.ContentType())

	var generic map[string]any
	require.NoError(t, DecodeMsgPack(bytes.NewReader(buf.Bytes()), &generic))
	assert.Contains(t, generic, "name")
	assert.Contains(t, generic, "radii")
	assert.Len(t, generic, 2)

	var got sample
	require.NoError(t, DecodeMsgPack(bytes.NewReader(buf.Bytes()), &got))
	assert.Equal(t, sample{Name: "job-2", Radii: []float64{0.1}}, got)
}
