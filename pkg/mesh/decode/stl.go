package decode

import (
	"fmt"
)

// STLASCII decodes an ASCII STL file by scanning for "vertex x y z" lines
// grouped in triples, each triple closed by an "endfacet" delimiter.
// Vertices are not deduplicated: triangle k's corners are implicitly
// indices 3k, 3k+1 and 3k+2.
func STLASCII(data []byte, mode Mode) (*Result, error) {
	s := newLineScanner(data)

	vertices := make([]float64, 0, 1024)
	pending := 0 // vertices seen since the last endfacet
	faces := 0

	for {
		line, ok := s.next()
		if !ok {
			break
		}
		fields := splitFields(line)
		if len(fields) == 0 {
			continue
		}

		switch string(fields[0]) {
		case "vertex":
			if len(fields) < 4 {
				if mode == ModeExact {
					continue
				}
				return nil, fmt.Errorf("stl: vertex line %d has %d fields, want 4", s.line, len(fields))
			}
			var triple [3]float64
			bad := false
			for i := 0; i < 3; i++ {
				v, err := parseFloat(fields[1+i])
				if err != nil {
					if mode == ModeExact {
						bad = true
						break
					}
					return nil, fmt.Errorf("stl: vertex line %d: %w", s.line, err)
				}
				triple[i] = v
			}
			if bad {
				continue
			}
			vertices = append(vertices, triple[0], triple[1], triple[2])
			pending++

		case "endfacet":
			if pending != 3 {
				if mode == ModeExact {
					// Drop the malformed facet's partial corners.
					vertices = vertices[:len(vertices)-pending*3]
					pending = 0
					continue
				}
				return nil, fmt.Errorf("stl: facet closed at line %d with %d vertices, want 3", s.line, pending)
			}
			pending = 0
			faces++
		}
	}

	if pending != 0 {
		if mode == ModeExact {
			vertices = vertices[:len(vertices)-pending*3]
		} else {
			return nil, fmt.Errorf("stl: input ended with %d vertices not closed by endfacet", pending)
		}
	}

	vertexCount := len(vertices) / 3
	indices := make([]uint32, vertexCount)
	for i := range indices {
		indices[i] = uint32(i)
	}

	return &Result{
		Vertices:    vertices,
		Indices:     indices,
		VertexCount: vertexCount,
		FaceCount:   faces,
	}, nil
}
