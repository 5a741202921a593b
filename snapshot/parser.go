// ABOUTME: Parser interface for serialized object populations
// ABOUTME: Defines the contract for pluggable snapshot formats

package snapshot

import "io"

// Parser is the interface for snapshot formats
type Parser interface {
	// Name identifies the format in logs and errors
	Name() string

	// CanParse checks if this parser can handle the given input.
	// The reader is a preview: implementations read a small amount to
	// detect the format and must not expect the entire stream.
	CanParse(r io.Reader) bool

	// Parse reads the input and builds a snapshot.
	// The reader is positioned at the start of the input.
	Parse(r io.Reader) (*Snapshot, error)
}
