package chunker

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

// Document is one unit of markdown input. Page is the 1-based source page
// number, or 0 when the source has no page structure.
type Document struct {
	Text string `json:"text"`
	Page int    `json:"page,omitempty"`
}

// Metadata is attached to every emitted chunk.
type Metadata struct {
	SequenceNumber int `json:"sequence_number"`
	PageNumber     int `json:"page_number,omitempty"`
}

// Chunk is the unit handed to downstream storage.
type Chunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Result aggregates the output of one ChunkDocuments call. Exactly one of
// Chunks (batching disabled) or Batches (batching enabled) is populated.
type Result struct {
	Chunks  []Chunk   `json:"chunks,omitempty"`
	Batches [][]Chunk `json:"batches,omitempty"`

	TotalCharacters int `json:"total_characters"`
	TotalChunks     int `json:"total_chunks"`
	TotalBatches    int `json:"total_batches"`
}

// ChunkDocuments chunks every document and groups the emitted chunks into
// batches of batchSize. A batchSize <= 0 disables batching and yields a flat
// chunk list. Sequence numbers are global across all documents of one call:
// 0..TotalChunks-1 with no gaps.
func ChunkDocuments(docs []Document, batchSize int, opts Options) (Result, error) {
	opts = opts.withDefaults()
	var res Result

	for _, doc := range docs {
		pieces, err := ChunkMarkdown(doc.Text, opts)
		if err != nil {
			return Result{}, err
		}

		for _, text := range pieces {
			chunk := Chunk{
				ID:   uuid.NewString(),
				Text: text,
				Metadata: Metadata{
					SequenceNumber: res.TotalChunks,
					PageNumber:     doc.Page,
				},
			}
			res.TotalChunks++
			res.TotalCharacters += utf8.RuneCountInString(text)

			if batchSize <= 0 {
				res.Chunks = append(res.Chunks, chunk)
				continue
			}

			// A new batch opens when the last one holds an exact multiple of
			// batchSize chunks; with every batch closing at batchSize, only
			// sizes 0 (never stored) and batchSize qualify.
			if len(res.Batches) == 0 || len(res.Batches[len(res.Batches)-1])%batchSize == 0 {
				res.Batches = append(res.Batches, []Chunk{chunk})
				res.TotalBatches++
			} else {
				last := len(res.Batches) - 1
				res.Batches[last] = append(res.Batches[last], chunk)
			}
		}
	}

	return res, nil
}

// Flatten returns all chunks in sequence order regardless of batching mode.
func (r Result) Flatten() []Chunk {
	if r.Batches == nil {
		return r.Chunks
	}
	out := make([]Chunk, 0, r.TotalChunks)
	for _, b := range r.Batches {
		out = append(out, b...)
	}
	return out
}
