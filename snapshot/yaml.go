// ABOUTME: YAML snapshot parser and writer
// ABOUTME: Same document schema as JSON, hand-editable for fixtures

package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLParser reads YAML documents
type YAMLParser struct{}

// Name returns "yaml"
func (p *YAMLParser) Name() string {
	return "yaml"
}

// CanParse looks for a top-level "objects:" key in the preview
func (p *YAMLParser) CanParse(r io.Reader) bool {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "objects:") {
			return true
		}
	}
	return false
}

// Parse decodes the document and builds the snapshot
func (p *YAMLParser) Parse(r io.Reader) (*Snapshot, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding YAML: %v", ErrMalformed, err)
	}
	return FromDocument(&doc)
}

// WriteYAML encodes doc as YAML
func WriteYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return enc.Close()
}

func init() {
	Register(&YAMLParser{})
}
