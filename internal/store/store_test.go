package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingestd/internal/chunker"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleChunks(n, offset int) []chunker.Chunk {
	chunks := make([]chunker.Chunk, n)
	for i := range chunks {
		chunks[i] = chunker.Chunk{
			ID:   "id",
			Text: "text",
			Metadata: chunker.Metadata{
				SequenceNumber: offset + i,
			},
		}
	}
	return chunks
}

func TestBatchRoundTrip(t *testing.T) {
	s := newMemoryStore(t)

	batches := [][]chunker.Chunk{
		sampleChunks(3, 0),
		sampleChunks(2, 3),
	}
	require.NoError(t, s.PutBatches("r1", batches))

	got, err := s.GetBatch("r1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Metadata.SequenceNumber)

	got, err = s.GetBatch("r1", 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 4, got[1].Metadata.SequenceNumber)
}

func TestGetBatch_Missing(t *testing.T) {
	s := newMemoryStore(t)

	_, err := s.GetBatch("nope", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBatchKeyTemplate(t *testing.T) {
	assert.Equal(t, "results_abc_[BATCH_INDEX]", BatchKeyTemplate("abc"))
	assert.Equal(t, []byte("results_abc_4"), BatchKey("abc", 4))
}

func TestChunkDocumentRoundTrip(t *testing.T) {
	s := newMemoryStore(t)

	doc := ChunkDocument{
		Metadata:        map[string]any{"filename": "a.md"},
		TotalChunks:     3,
		TotalCharacters: 42,
		Chunks:          sampleChunks(3, 0),
	}
	require.NoError(t, s.PutChunkDocument("ns1", "doc1", doc))

	got, err := s.GetChunkDocument("ns1", "doc1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalChunks)
	assert.Equal(t, 42, got.TotalCharacters)
	assert.Len(t, got.Chunks, 3)
	assert.Equal(t, "a.md", got.Metadata["filename"])
}

func TestChunkDocument_MissingAndDelete(t *testing.T) {
	s := newMemoryStore(t)

	_, err := s.GetChunkDocument("ns1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.PutChunkDocument("ns1", "doc1", ChunkDocument{}))
	require.NoError(t, s.DeleteDocument("ns1", "doc1"))

	_, err = s.GetChunkDocument("ns1", "doc1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDocuments(t *testing.T) {
	s := newMemoryStore(t)

	require.NoError(t, s.PutChunkDocument("ns1", "doc1", ChunkDocument{}))
	require.NoError(t, s.PutChunkDocument("ns1", "doc2", ChunkDocument{}))
	require.NoError(t, s.PutChunkDocument("ns2", "other", ChunkDocument{}))

	ids, err := s.ListDocuments("ns1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc1", "doc2"}, ids)
}
