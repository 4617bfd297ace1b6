package render

import (
	"encoding/json"
	"io"

	"github.com/revelaction/diachron/analysis"
)

// JSONRenderer writes reports as JSON to a writer.
type JSONRenderer struct {
	W io.Writer

	Indent bool
}

// NewJSONRenderer creates a JSONRenderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{W: w}
}

// Render serializes the report as one JSON object.
func (r *JSONRenderer) Render(rep *analysis.Report) error {
	enc := json.NewEncoder(r.W)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rep)
}
