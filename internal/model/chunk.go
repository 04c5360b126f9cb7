package model

// Chunk is a contiguous slice of a transcript used as the unit of retrieval.
// Offsets are rune offsets into the transcript text, end-exclusive.
type Chunk struct {
	ID          int       `json:"id"`
	Text        string    `json:"text"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	Vector      []float32 `json:"-"`
}

// Embedded reports whether the chunk carries a vector.
func (c Chunk) Embedded() bool {
	return len(c.Vector) > 0
}
