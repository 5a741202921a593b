// ABOUTME: JSON snapshot parser and writer
// ABOUTME: Detects a top-level object carrying an "objects" array

package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser reads JSON documents
type JSONParser struct{}

// Name returns "json"
func (p *JSONParser) Name() string {
	return "json"
}

// CanParse walks the top-level keys of the preview looking for "objects"
func (p *JSONParser) CanParse(r io.Reader) bool {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return false
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if key, ok := tok.(string); ok && key == "objects" {
			return true
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return false
		}
	}
	return false
}

// Parse decodes the document and builds the snapshot
func (p *JSONParser) Parse(r io.Reader) (*Snapshot, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding JSON: %v", ErrMalformed, err)
	}
	return FromDocument(&doc)
}

// WriteJSON encodes doc as indented JSON
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

func init() {
	Register(&JSONParser{})
}
