// ABOUTME: Viewer document writer and reader for extracted graphs
// ABOUTME: Plain JSON or zstd-compressed JSON, detected on read

package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/prateek/refgraph/graph"
)

// DefaultFile is the output file name used when none is given
const DefaultFile = "object_graph.json"

// CompressedSuffix selects zstd compression in WriteFile
const CompressedSuffix = ".zst"

// ErrInvalidGraph is returned by Read for documents whose ids are not
// dense or whose edges point outside the node list
var ErrInvalidGraph = errors.New("invalid graph document")

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Options controls the encoding
type Options struct {
	// Indent pretty-prints the JSON with two spaces
	Indent bool
	// Compress wraps the JSON in a zstd frame
	Compress bool
}

// Write encodes g as the viewer document. A nil graph is written as the
// empty graph.
func Write(w io.Writer, g *graph.Graph, opts Options) error {
	doc := normalize(g)

	if !opts.Compress {
		return encode(w, doc, opts.Indent)
	}

	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	if err := encode(encoder, doc, opts.Indent); err != nil {
		encoder.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("closing encoder: %w", err)
	}
	return nil
}

// WriteFile writes g to path, compressing when the path ends in ".zst"
func WriteFile(path string, g *graph.Graph, opts Options) error {
	if strings.HasSuffix(path, CompressedSuffix) {
		opts.Compress = true
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, g, opts); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Read decodes a viewer document, plain or compressed. Edge classes are
// not part of the document and read back as graph.Named. When no node is
// flagged as root, node 0 is.
func Read(r io.Reader) (*graph.Graph, error) {
	src, err := NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading graph: %w", err)
	}
	defer src.Close()

	var g graph.Graph
	if err := json.NewDecoder(src).Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}
	if err := validate(&g); err != nil {
		return nil, err
	}
	if len(g.Nodes) > 0 && g.RootID() < 0 {
		g.Nodes[0].Root = true
	}
	return normalize(&g), nil
}

// NewReader returns a reader over r that decompresses zstd input and
// passes anything else through. Close releases the decoder and leaves r
// open.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if !bytes.Equal(head, zstdMagic) {
		return io.NopCloser(br), nil
	}
	decoder, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return decoder.IOReadCloser(), nil
}

// ReadFile reads the viewer document at path
func ReadFile(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func encode(w io.Writer, g *graph.Graph, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	return nil
}

// normalize replaces nil slices so both arrays are always present
func normalize(g *graph.Graph) *graph.Graph {
	if g == nil {
		return graph.Empty()
	}
	out := *g
	if out.Nodes == nil {
		out.Nodes = []graph.Node{}
	}
	if out.Edges == nil {
		out.Edges = []graph.Edge{}
	}
	return &out
}

func validate(g *graph.Graph) error {
	for i, n := range g.Nodes {
		if n.ID != i {
			return fmt.Errorf("%w: node %d has id %d", ErrInvalidGraph, i, n.ID)
		}
	}
	for i, e := range g.Edges {
		if e.Source < 0 || e.Source >= len(g.Nodes) || e.Target < 0 || e.Target >= len(g.Nodes) {
			return fmt.Errorf("%w: edge %d (%d -> %d) outside %d nodes", ErrInvalidGraph, i, e.Source, e.Target, len(g.Nodes))
		}
	}
	return nil
}
