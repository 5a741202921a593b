// ABOUTME: Go heap dump reader implementing the snapshot parser interface
// ABOUTME: Turns debug.WriteHeapDump output into a population of heap objects

package goheap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/prateek/refgraph/snapshot"
)

const header = "go1.7 heap dump\n"

// RootsKey is the key of the synthetic object holding every GC root.
// Address zero never belongs to a heap object.
const RootsKey uint64 = 0

// GoHeapParser implements snapshot.Parser for Go heap dumps
type GoHeapParser struct{}

var _ snapshot.Parser = (*GoHeapParser)(nil)

// Name returns "goheap"
func (p *GoHeapParser) Name() string {
	return "goheap"
}

// CanParse checks for the heap dump header
func (p *GoHeapParser) CanParse(r io.Reader) bool {
	buf := make([]byte, len(header))
	if _, err := io.ReadFull(r, buf); err != nil {
		return false
	}
	return string(buf) == header
}

// Parse reads the dump. Heap objects become snapshot objects keyed by
// address whose pointer fields are tracked references; heap dumps carry no
// field names so there are no named members. A synthetic first object
// references every root (other roots, data, bss and stack frame pointers),
// so it becomes the root node of a full extraction.
func (p *GoHeapParser) Parse(r io.Reader) (*snapshot.Snapshot, error) {
	d := &decoder{
		r: bufio.NewReaderSize(r, 1024*1024),
	}
	if err := d.decode(); err != nil {
		return nil, fmt.Errorf("%w: %v", snapshot.ErrMalformed, err)
	}
	return snapshot.FromDocument(d.document())
}

func init() {
	snapshot.Register(&GoHeapParser{})
}

// Record tags from runtime/heapdump.go
const (
	tagEOF             = 0
	tagObject          = 1
	tagOtherRoot       = 2
	tagType            = 3
	tagGoroutine       = 4
	tagStackFrame      = 5
	tagParams          = 6
	tagFinalizer       = 7
	tagItab            = 8
	tagOSThread        = 9
	tagMemStats        = 10
	tagQueuedFinalizer = 11
	tagData            = 12
	tagBSS             = 13
	tagDefer           = 14
	tagPanic           = 15
	tagMemProf         = 16
	tagAllocSample     = 17
)

// Field kinds
const (
	fieldKindEol   = 0
	fieldKindPtr   = 1
	fieldKindIface = 2
	fieldKindEface = 3
)

// memStatsFields is the number of varints in a memstats record:
// 24 counters, 256 pause times and the GC count
const memStatsFields = 24 + 256 + 1

var errTruncated = errors.New("truncated record")

type heapObject struct {
	addr uint64
	size uint64
	ptrs []uint64
}

type decoder struct {
	r *bufio.Reader

	bigEndian   bool
	pointerSize uint64

	objects []heapObject
	roots   []uint64
}

func (d *decoder) decode() error {
	buf := make([]byte, len(header))
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if string(buf) != header {
		return fmt.Errorf("invalid header: %q", buf)
	}
	d.pointerSize = 8

	for {
		tag, err := d.varint()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading tag: %w", err)
		}

		switch tag {
		case tagEOF:
			return nil
		case tagParams:
			err = d.params()
		case tagObject:
			err = d.object()
		case tagOtherRoot:
			err = d.otherRoot()
		case tagData, tagBSS:
			err = d.segment()
		case tagStackFrame:
			err = d.stackFrame()
		case tagType:
			err = d.typeRecord()
		case tagGoroutine:
			err = d.goroutine()
		case tagFinalizer, tagQueuedFinalizer:
			err = d.skip(5, 0, 0)
		case tagItab:
			err = d.skip(2, 0, 0)
		case tagOSThread:
			err = d.skip(3, 0, 0)
		case tagMemStats:
			err = d.skip(memStatsFields, 0, 0)
		case tagDefer:
			err = d.skip(7, 0, 0)
		case tagPanic:
			err = d.skip(6, 0, 0)
		case tagMemProf:
			err = d.memProf()
		case tagAllocSample:
			err = d.skip(2, 0, 0)
		default:
			return fmt.Errorf("unknown tag: %d", tag)
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", tag, err)
		}
	}
}

func (d *decoder) varint() (uint64, error) {
	return binary.ReadUvarint(d.r)
}

// strict turns EOF inside a record into errTruncated
func strict(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errTruncated
	}
	return err
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.varint()
	if err != nil {
		return nil, strict(err)
	}
	if n > 1<<30 {
		return nil, fmt.Errorf("byte slice too long: %d", n)
	}
	data, err := io.ReadAll(io.LimitReader(d.r, int64(n)))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != n {
		return nil, errTruncated
	}
	return data, nil
}

// skip consumes varints, then length-prefixed strings, then field lists
func (d *decoder) skip(varints, strings, fieldLists int) error {
	for i := 0; i < varints; i++ {
		if _, err := d.varint(); err != nil {
			return strict(err)
		}
	}
	for i := 0; i < strings; i++ {
		if _, err := d.bytes(); err != nil {
			return err
		}
	}
	for i := 0; i < fieldLists; i++ {
		if _, err := d.fields(nil); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) params() error {
	bigEndian, err := d.varint()
	if err != nil {
		return strict(err)
	}
	d.bigEndian = bigEndian != 0

	d.pointerSize, err = d.varint()
	if err != nil {
		return strict(err)
	}
	if d.pointerSize != 4 && d.pointerSize != 8 {
		return fmt.Errorf("unsupported pointer size %d", d.pointerSize)
	}
	// heap start, heap end, arch, GOEXPERIMENT, ncpu
	if err := d.skip(2, 2, 0); err != nil {
		return err
	}
	return d.skip(1, 0, 0)
}

// fields reads a field list and returns the non-nil pointers it locates
// in data. A nil data only consumes the list.
func (d *decoder) fields(data []byte) ([]uint64, error) {
	var ptrs []uint64
	for {
		kind, err := d.varint()
		if err != nil {
			return nil, strict(err)
		}
		if kind == fieldKindEol {
			return ptrs, nil
		}
		offset, err := d.varint()
		if err != nil {
			return nil, strict(err)
		}
		if kind != fieldKindPtr || data == nil {
			continue
		}
		if ptr, ok := d.pointerAt(data, offset); ok && ptr != 0 {
			ptrs = append(ptrs, ptr)
		}
	}
}

func (d *decoder) pointerAt(data []byte, offset uint64) (uint64, bool) {
	if offset > uint64(len(data)) || uint64(len(data))-offset < d.pointerSize {
		return 0, false
	}
	word := data[offset : offset+d.pointerSize]
	var order binary.ByteOrder = binary.LittleEndian
	if d.bigEndian {
		order = binary.BigEndian
	}
	if d.pointerSize == 4 {
		return uint64(order.Uint32(word)), true
	}
	return order.Uint64(word), true
}

func (d *decoder) object() error {
	addr, err := d.varint()
	if err != nil {
		return strict(err)
	}
	data, err := d.bytes()
	if err != nil {
		return err
	}
	ptrs, err := d.fields(data)
	if err != nil {
		return err
	}
	d.objects = append(d.objects, heapObject{addr: addr, size: uint64(len(data)), ptrs: ptrs})
	return nil
}

func (d *decoder) otherRoot() error {
	if _, err := d.bytes(); err != nil {
		return err
	}
	ptr, err := d.varint()
	if err != nil {
		return strict(err)
	}
	if ptr != 0 {
		d.roots = append(d.roots, ptr)
	}
	return nil
}

// segment reads a data or bss record whose pointers are roots
func (d *decoder) segment() error {
	if _, err := d.varint(); err != nil {
		return strict(err)
	}
	data, err := d.bytes()
	if err != nil {
		return err
	}
	ptrs, err := d.fields(data)
	if err != nil {
		return err
	}
	d.roots = append(d.roots, ptrs...)
	return nil
}

func (d *decoder) stackFrame() error {
	// sp, depth, child sp
	if err := d.skip(3, 0, 0); err != nil {
		return err
	}
	data, err := d.bytes()
	if err != nil {
		return err
	}
	// entry pc, pc, continuation pc, name
	if err := d.skip(3, 1, 0); err != nil {
		return err
	}
	ptrs, err := d.fields(data)
	if err != nil {
		return err
	}
	d.roots = append(d.roots, ptrs...)
	return nil
}

func (d *decoder) typeRecord() error {
	// address, size, name, indirect
	if err := d.skip(2, 1, 0); err != nil {
		return err
	}
	return d.skip(1, 0, 0)
}

func (d *decoder) goroutine() error {
	// address, stack, id, go pc, status, system, background, wait since,
	// wait reason, context, m, defer, panic
	if err := d.skip(8, 1, 0); err != nil {
		return err
	}
	return d.skip(4, 0, 0)
}

func (d *decoder) memProf() error {
	// bucket, size
	if err := d.skip(2, 0, 0); err != nil {
		return err
	}
	frames, err := d.varint()
	if err != nil {
		return strict(err)
	}
	for i := uint64(0); i < frames; i++ {
		// function, file, line
		if err := d.skip(0, 2, 0); err != nil {
			return err
		}
		if err := d.skip(1, 0, 0); err != nil {
			return err
		}
	}
	// allocs, frees
	return d.skip(2, 0, 0)
}

// document resolves pointers, including interior pointers, to object
// addresses and lays out the population: the roots object first, then
// heap objects in dump order
func (d *decoder) document() *snapshot.Document {
	sorted := make([]heapObject, len(d.objects))
	copy(sorted, d.objects)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].addr < sorted[j].addr })

	resolve := func(ptr uint64) (uint64, bool) {
		i := sort.Search(len(sorted), func(i int) bool { return sorted[i].addr > ptr }) - 1
		if i < 0 {
			return 0, false
		}
		o := sorted[i]
		if ptr == o.addr || ptr-o.addr < o.size {
			return o.addr, true
		}
		return 0, false
	}
	resolveAll := func(ptrs []uint64) []uint64 {
		var out []uint64
		seen := make(map[uint64]struct{}, len(ptrs))
		for _, ptr := range ptrs {
			addr, ok := resolve(ptr)
			if !ok {
				continue
			}
			if _, dup := seen[addr]; dup {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
		return out
	}

	doc := &snapshot.Document{Objects: make([]snapshot.DocObject, 0, len(d.objects)+1)}
	doc.Objects = append(doc.Objects, snapshot.DocObject{
		Key:  RootsKey,
		Kind: "gc roots",
		Name: "<gc roots>",
		Refs: resolveAll(d.roots),
	})
	for _, o := range d.objects {
		if o.addr == RootsKey {
			continue
		}
		doc.Objects = append(doc.Objects, snapshot.DocObject{
			Key:  o.addr,
			Kind: fmt.Sprintf("object[%d]", o.size),
			Name: fmt.Sprintf("object@%#x (%d bytes)", o.addr, o.size),
			Refs: resolveAll(o.ptrs),
		})
	}
	return doc
}
