// ABOUTME: Tests for the Go heap dump reader
// ABOUTME: Builds dumps record by record and checks the resulting population

package goheap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/prateek/refgraph/graph"
	"github.com/prateek/refgraph/snapshot"
)

func TestCanParse(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{name: "valid go heap dump header", data: []byte(header), expected: true},
		{name: "invalid header", data: []byte("not a heap dump\n"), expected: false},
		{name: "empty data", data: []byte{}, expected: false},
		{name: "partial header", data: []byte("go1.7"), expected: false},
	}

	parser := &GoHeapParser{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parser.CanParse(bytes.NewReader(tt.data)); got != tt.expected {
				t.Errorf("CanParse() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseMinimalDump(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(header)
	writeParams(&buf, 8)
	writeVarint(&buf, tagEOF)

	s, err := (&GoHeapParser{}).Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected only the roots object, got %d objects", s.Len())
	}
	roots, ok := s.Lookup(graph.Key(RootsKey))
	if !ok {
		t.Fatal("roots object missing")
	}
	if got := s.Describe(roots).Name; got != "<gc roots>" {
		t.Errorf("roots name = %q", got)
	}
}

// linkedDump writes roots -> 0x2000 -> 0x2100 with an interior pointer
// from 0x2100 back into 0x2000, interleaved with records the reader skips
func linkedDump() *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString(header)
	writeParams(&buf, 8)

	writeVarint(&buf, tagType)
	writeVarint(&buf, 0x1000)
	writeVarint(&buf, 24)
	writeString(&buf, "main.Node")
	writeVarint(&buf, 1)

	writeObject(&buf, 0x2000, 24, map[uint64]uint64{16: 0x2100})
	writeObject(&buf, 0x2100, 24, map[uint64]uint64{0: 0x2008, 16: 0})

	writeVarint(&buf, tagMemStats)
	for i := 0; i < memStatsFields; i++ {
		writeVarint(&buf, uint64(i))
	}

	writeVarint(&buf, tagGoroutine)
	for i := 0; i < 8; i++ {
		writeVarint(&buf, 1)
	}
	writeString(&buf, "chan receive")
	for i := 0; i < 4; i++ {
		writeVarint(&buf, 0)
	}

	writeVarint(&buf, tagStackFrame)
	writeVarint(&buf, 0xc000)
	writeVarint(&buf, 0)
	writeVarint(&buf, 0)
	frame := make([]byte, 8)
	binary.LittleEndian.PutUint64(frame, 0x2000)
	writeBytes(&buf, frame)
	writeVarint(&buf, 0x400000)
	writeVarint(&buf, 0x400010)
	writeVarint(&buf, 0x400010)
	writeString(&buf, "main.main")
	writeVarint(&buf, fieldKindPtr)
	writeVarint(&buf, 0)
	writeVarint(&buf, fieldKindEol)

	writeVarint(&buf, tagMemProf)
	writeVarint(&buf, 0x5000)
	writeVarint(&buf, 64)
	writeVarint(&buf, 1)
	writeString(&buf, "main.alloc")
	writeString(&buf, "main.go")
	writeVarint(&buf, 12)
	writeVarint(&buf, 3)
	writeVarint(&buf, 1)

	writeVarint(&buf, tagOtherRoot)
	writeString(&buf, "finalizer")
	writeVarint(&buf, 0)

	writeVarint(&buf, tagEOF)
	return &buf
}

func TestParseLinkedObjects(t *testing.T) {
	s, err := (&GoHeapParser{}).Parse(linkedDump())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 objects, got %d", s.Len())
	}

	keys := func(objs []graph.Object) []graph.Key {
		var out []graph.Key
		for _, o := range objs {
			out = append(out, s.Key(o))
		}
		return out
	}

	roots, _ := s.Lookup(graph.Key(RootsKey))
	if got := keys(s.References(roots)); len(got) != 1 || got[0] != 0x2000 {
		t.Errorf("roots references = %v, want [0x2000]", got)
	}

	first, _ := s.Lookup(0x2000)
	if got := keys(s.References(first)); len(got) != 1 || got[0] != 0x2100 {
		t.Errorf("0x2000 references = %v, want [0x2100]", got)
	}

	second, _ := s.Lookup(0x2100)
	if got := keys(s.References(second)); len(got) != 1 || got[0] != 0x2000 {
		t.Errorf("interior pointer not resolved: %v", got)
	}

	if got := s.Describe(first).Kind; got != "object[24]" {
		t.Errorf("kind = %q, want object[24]", got)
	}
	if got := keys(s.Referrers(first)); len(got) != 2 {
		t.Errorf("0x2000 referrers = %v, want roots and 0x2100", got)
	}
}

func TestParseBigEndian32(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(header)
	writeVarint(&buf, tagParams)
	writeVarint(&buf, 1)
	writeVarint(&buf, 4)
	writeVarint(&buf, 0)
	writeVarint(&buf, 0)
	writeString(&buf, "mips")
	writeString(&buf, "")
	writeVarint(&buf, 1)

	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data[4:], 0x3000)
	writeVarint(&buf, tagObject)
	writeVarint(&buf, 0x3000)
	writeBytes(&buf, data)
	writeVarint(&buf, fieldKindPtr)
	writeVarint(&buf, 4)
	writeVarint(&buf, fieldKindEol)
	writeVarint(&buf, tagEOF)

	s, err := (&GoHeapParser{}).Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	obj, ok := s.Lookup(0x3000)
	if !ok {
		t.Fatal("object 0x3000 missing")
	}
	refs := s.References(obj)
	if len(refs) != 1 || s.Key(refs[0]) != 0x3000 {
		t.Errorf("self pointer not resolved: %v", refs)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{
			name:    "invalid header",
			data:    []byte("invalid header\n\n"),
			wantErr: "invalid header",
		},
		{
			name:    "truncated after header",
			data:    []byte(header),
			wantErr: "",
		},
		{
			name: "invalid tag",
			data: func() []byte {
				var buf bytes.Buffer
				buf.WriteString(header)
				writeVarint(&buf, 99)
				return buf.Bytes()
			}(),
			wantErr: "unknown tag",
		},
		{
			name: "truncated object",
			data: func() []byte {
				var buf bytes.Buffer
				buf.WriteString(header)
				writeVarint(&buf, tagObject)
				writeVarint(&buf, 0x2000)
				writeVarint(&buf, 64)
				buf.Write([]byte{1, 2, 3})
				return buf.Bytes()
			}(),
			wantErr: "truncated record",
		},
		{
			name: "bad pointer size",
			data: func() []byte {
				var buf bytes.Buffer
				buf.WriteString(header)
				writeParams(&buf, 3)
				return buf.Bytes()
			}(),
			wantErr: "unsupported pointer size",
		},
	}

	parser := &GoHeapParser{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(bytes.NewReader(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Parse() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Parse() error = nil, want error containing %q", tt.wantErr)
			}
			if !errors.Is(err, snapshot.ErrMalformed) {
				t.Errorf("error %v does not wrap ErrMalformed", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestOpenSelectsGoHeap(t *testing.T) {
	s, err := snapshot.Open(linkedDump())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 objects, got %d", s.Len())
	}
}

func TestParseRealDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.dump")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create dump file: %v", err)
	}

	type node struct {
		value int
		next  *node
	}
	list := &node{value: 1}
	list.next = &node{value: 2}

	debug.WriteHeapDump(file.Fd())
	file.Close()
	_ = list.next

	file, err = os.Open(path)
	if err != nil {
		t.Fatalf("open dump file: %v", err)
	}
	defer file.Close()

	s, err := (&GoHeapParser{}).Parse(file)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.Len() < 2 {
		t.Errorf("expected heap objects in a real dump, got %d", s.Len())
	}
	t.Logf("parsed %d objects from real dump", s.Len())
}

// Helpers for building test dumps

func writeParams(w io.Writer, ptrSize uint64) {
	writeVarint(w, tagParams)
	writeVarint(w, 0)
	writeVarint(w, ptrSize)
	writeVarint(w, 0x1000)
	writeVarint(w, 0x10000)
	writeString(w, "amd64")
	writeString(w, "")
	writeVarint(w, 4)
}

func writeObject(w io.Writer, addr uint64, size int, ptrs map[uint64]uint64) {
	data := make([]byte, size)
	offsets := make([]uint64, 0, len(ptrs))
	for off, ptr := range ptrs {
		binary.LittleEndian.PutUint64(data[off:], ptr)
		offsets = append(offsets, off)
	}
	writeVarint(w, tagObject)
	writeVarint(w, addr)
	writeBytes(w, data)
	for _, off := range offsets {
		writeVarint(w, fieldKindPtr)
		writeVarint(w, off)
	}
	writeVarint(w, fieldKindEol)
}

func writeVarint(w io.Writer, v uint64) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	w.Write(buf[:n])
}

func writeString(w io.Writer, s string) {
	writeVarint(w, uint64(len(s)))
	w.Write([]byte(s))
}

func writeBytes(w io.Writer, b []byte) {
	writeVarint(w, uint64(len(b)))
	w.Write(b)
}

func BenchmarkParse(b *testing.B) {
	var buf bytes.Buffer
	buf.WriteString(header)
	writeParams(&buf, 8)
	for i := uint64(0); i < 10000; i++ {
		writeObject(&buf, 0x100000+i*32, 32, map[uint64]uint64{8: 0x100000 + ((i+1)%10000)*32})
	}
	writeVarint(&buf, tagEOF)
	data := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := (&GoHeapParser{}).Parse(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}
