// ABOUTME: Fuzz tests for the Go heap dump reader
// ABOUTME: The reader must reject or accept any input without panicking

package goheap

import (
	"bytes"
	"testing"
)

func FuzzParser(f *testing.F) {
	f.Add(linkedDump().Bytes())
	f.Add([]byte(header))
	f.Add(append([]byte(header), tagObject, 0x80))
	f.Add([]byte("go1.7 heap dumb\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := (&GoHeapParser{}).Parse(bytes.NewReader(data))
		if err != nil {
			return
		}
		if s.Len() < 1 {
			t.Fatalf("parsed snapshot lacks the roots object")
		}
		for _, obj := range s.Population() {
			for _, ref := range s.References(obj) {
				if _, ok := s.Lookup(s.Key(ref)); !ok {
					t.Fatalf("reference to unknown key %d", s.Key(ref))
				}
			}
		}
	})
}
