// ABOUTME: Tests for the viewer document writer and reader
// ABOUTME: Covers compression detection and invalid documents

package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateek/refgraph/graph"
)

func sampleGraph() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: 0, Label: "Node", Kind: "Node", Root: true},
			{ID: 1, Label: "42", Kind: "int"},
		},
		Edges: []graph.Edge{
			{Source: 0, Target: 1, Label: "next", Class: graph.Named},
		},
	}
}

func TestWriteViewerFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleGraph(), Options{}))

	want := `{"nodes":[{"id":0,"label":"Node","type":"Node","root":true},{"id":1,"label":"42","type":"int"}],` +
		`"edges":[{"source":0,"target":1,"label":"next"}]}` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteEmptyGraph(t *testing.T) {
	for _, g := range []*graph.Graph{nil, {}, graph.Empty()} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, g, Options{}))
		assert.Equal(t, `{"nodes":[],"edges":[]}`+"\n", buf.String())
	}
}

func TestWriteIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, graph.Empty(), Options{Indent: true}))
	assert.Equal(t, "{\n  \"nodes\": [],\n  \"edges\": []\n}\n", buf.String())
}

func TestCompressedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleGraph(), Options{Compress: true}))
	assert.Equal(t, zstdMagic, buf.Bytes()[:4])

	g, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleGraph(), g)
}

func TestWriteFileSuffix(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, DefaultFile)
	require.NoError(t, WriteFile(plain, sampleGraph(), Options{Indent: true}))
	data, err := os.ReadFile(plain)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n"))

	packed := filepath.Join(dir, DefaultFile+CompressedSuffix)
	require.NoError(t, WriteFile(packed, sampleGraph(), Options{}))
	data, err = os.ReadFile(packed)
	require.NoError(t, err)
	assert.Equal(t, zstdMagic, data[:4])

	for _, path := range []string{plain, packed} {
		g, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, sampleGraph(), g)
	}
}

func TestNewReader(t *testing.T) {
	payload := []byte(`{"objects":[]}`)
	encoder, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := encoder.EncodeAll(payload, nil)
	require.NoError(t, encoder.Close())

	for name, input := range map[string][]byte{
		"plain":      payload,
		"compressed": compressed,
		"empty":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(input))
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			if input == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, payload, got)
		})
	}
}

func TestReadDefaultsRoot(t *testing.T) {
	doc := `{"nodes":[{"id":0,"label":"a","type":"A"},{"id":1,"label":"b","type":"B"}],"edges":[]}`
	g, err := Read(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 0, g.RootID())
}

func TestReadInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: "nodes: []"},
		{name: "sparse ids", doc: `{"nodes":[{"id":1,"label":"a","type":"A"}],"edges":[]}`},
		{name: "dangling edge", doc: `{"nodes":[{"id":0,"label":"a","type":"A"}],"edges":[{"source":0,"target":3,"label":"x"}]}`},
		{name: "empty input", doc: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
