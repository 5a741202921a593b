// ABOUTME: Registry for snapshot parsers
// ABOUTME: Manages parser plugins and selects the parser for an input

package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

var (
	// ErrNoParser is returned when no parser can handle the input format
	ErrNoParser = errors.New("no parser found for snapshot format")

	// ErrMalformed is returned when an input is recognised but invalid
	ErrMalformed = errors.New("malformed snapshot")
)

// detectSize is how many bytes are sniffed for format detection
const detectSize = 4096

type parserRegistry struct {
	mu      sync.RWMutex
	parsers []Parser
}

var registry = &parserRegistry{
	parsers: make([]Parser, 0),
}

// Register adds a parser to the registry. Parsers are tried in
// registration order.
func Register(p Parser) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.parsers = append(registry.parsers, p)
}

// Parsers returns the registered parsers
func Parsers() []Parser {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return append([]Parser(nil), registry.parsers...)
}

// Open reads a serialized population and returns its snapshot, trying
// each registered parser until one recognises the format
func Open(r io.Reader) (*Snapshot, error) {
	head := make([]byte, detectSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	head = head[:n]

	for _, parser := range Parsers() {
		if !parser.CanParse(bytes.NewReader(head)) {
			continue
		}
		s, err := parser.Parse(io.MultiReader(bytes.NewReader(head), r))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", parser.Name(), err)
		}
		return s, nil
	}

	return nil, ErrNoParser
}
