// Package decode implements the in-process decoders for the text-based
// mesh formats: ASCII PLY, ASCII STL and Wavefront OBJ.
//
// Each decoder is a synchronous line-oriented scan over the raw bytes. All
// three share the same two-tier strictness policy: Fast mode assumes
// well-formed input and fails on the first malformed token, Exact mode
// applies tolerance and repair (malformed faces are skipped, out-of-range
// indices dropped) so that a damaged but salvageable file still yields a
// usable mesh on the fallback attempt.
package decode

import (
	"bytes"
	"fmt"
	"strconv"
)

// Mode selects the decode strictness tier.
type Mode string

const (
	// ModeFast assumes well-formed input; any malformed numeric token is
	// a decode failure, never silently coerced.
	ModeFast Mode = "fast"

	// ModeExact applies additional tolerance/repair logic at the cost of
	// a slower scan.
	ModeExact Mode = "exact"
)

// Result is the output of one in-process decode.
type Result struct {
	// Vertices holds xyz position triples as 64-bit floats.
	Vertices []float64

	// Indices holds triangle corner indices, three per triangle.
	Indices []uint32

	// VertexCount is the number of decoded vertices.
	VertexCount int

	// FaceCount is the number of source faces read. For formats with
	// polygonal faces this counts faces before fan triangulation.
	FaceCount int
}

// lineScanner iterates over newline-delimited lines of a byte slice
// without copying. Keeps decode allocation proportional to the output, not
// the input.
type lineScanner struct {
	data []byte
	pos  int
	line int
}

func newLineScanner(data []byte) *lineScanner {
	return &lineScanner{data: data}
}

// next returns the next line with the trailing newline trimmed, and false
// at end of input.
func (s *lineScanner) next() ([]byte, bool) {
	if s.pos >= len(s.data) {
		return nil, false
	}
	s.line++
	end := bytes.IndexByte(s.data[s.pos:], '\n')
	if end < 0 {
		line := s.data[s.pos:]
		s.pos = len(s.data)
		return bytes.TrimRight(line, "\r"), true
	}
	line := s.data[s.pos : s.pos+end]
	s.pos += end + 1
	return bytes.TrimRight(line, "\r"), true
}

// splitFields splits a line around runs of whitespace.
func splitFields(line []byte) [][]byte {
	return bytes.Fields(line)
}

// parseFloat parses one coordinate token.
func parseFloat(tok []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(tok), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed numeric token %q", tok)
	}
	return v, nil
}

// parseInt parses one integer token.
func parseInt(tok []byte) (int, error) {
	v, err := strconv.Atoi(string(tok))
	if err != nil {
		return 0, fmt.Errorf("malformed integer token %q", tok)
	}
	return v, nil
}

// fanTriangulate appends the fan triangulation of an n-gon's corner
// indices: all triangles share the first listed vertex
// (0,1,2 / 0,2,3 / ... / 0,n-2,n-1).
func fanTriangulate(indices []uint32, corners []uint32) []uint32 {
	for i := 1; i+1 < len(corners); i++ {
		indices = append(indices, corners[0], corners[i], corners[i+1])
	}
	return indices
}
