package chunker

// Chunk is one model request's worth of segments, identified by their
// 0-based positions in the input.
type Chunk struct {
	Index   int
	Indices []int
}

// Lines returns the 1-based line numbers of the chunk's segments.
func (c Chunk) Lines() []int {
	lines := make([]int, len(c.Indices))
	for i, idx := range c.Indices {
		lines[i] = idx + 1
	}
	return lines
}

// Partition splits indices, in order, into consecutive chunks of at most
// size entries. Only the last chunk may be shorter. size must be positive;
// a non-positive size yields no chunks.
func Partition(indices []int, size int) []Chunk {
	if size <= 0 || len(indices) == 0 {
		return nil
	}
	n := len(indices)
	chunks := make([]Chunk, 0, (n+size-1)/size)
	for i := 0; i < n; i += size {
		end := min(i+size, n)
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Indices: indices[i:end:end],
		})
	}
	return chunks
}
