package decode

import (
	"bytes"
	"fmt"
)

// OBJ decodes a Wavefront OBJ file. "v" lines accumulate the position
// pool; "f" lines list one index per corner, 1-based, with any
// "/texture/normal" suffixes ignored and negative indices resolved against
// the current pool size. Faces with more than three corners are fan
// triangulated around their first listed vertex.
func OBJ(data []byte, mode Mode) (*Result, error) {
	s := newLineScanner(data)

	vertices := make([]float64, 0, 1024)
	indices := make([]uint32, 0, 1024)
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
		case "v":
			if len(fields) < 4 {
				if mode == ModeExact {
					continue
				}
				return nil, fmt.Errorf("obj: v line %d has %d fields, want at least 4", s.line, len(fields))
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
					return nil, fmt.Errorf("obj: v line %d: %w", s.line, err)
				}
				triple[i] = v
			}
			if bad {
				continue
			}
			vertices = append(vertices, triple[0], triple[1], triple[2])

		case "f":
			poolSize := len(vertices) / 3
			corners, err := parseOBJFace(fields[1:], poolSize)
			if err != nil {
				if mode == ModeExact {
					continue
				}
				return nil, fmt.Errorf("obj: f line %d: %w", s.line, err)
			}
			indices = fanTriangulate(indices, corners)
			faces++
		}
		// vn, vt, g, o, s, usemtl, mtllib and comments carry no geometry.
	}

	return &Result{
		Vertices:    vertices,
		Indices:     indices,
		VertexCount: len(vertices) / 3,
		FaceCount:   faces,
	}, nil
}

// parseOBJFace resolves the corner tokens of one face against the current
// position pool. poolSize is the number of positions accumulated so far,
// which is what relative (negative) indices count back from.
func parseOBJFace(tokens [][]byte, poolSize int) ([]uint32, error) {
	if len(tokens) < 3 {
		return nil, fmt.Errorf("face has %d corners, want at least 3", len(tokens))
	}
	corners := make([]uint32, len(tokens))
	for i, tok := range tokens {
		// Only the position index matters; strip /texture/normal refs.
		if slash := bytes.IndexByte(tok, '/'); slash >= 0 {
			tok = tok[:slash]
		}
		idx, err := parseInt(tok)
		if err != nil {
			return nil, err
		}
		switch {
		case idx > 0:
			idx--
		case idx < 0:
			idx = poolSize + idx
		default:
			return nil, fmt.Errorf("obj indices are 1-based, got 0")
		}
		if idx < 0 || idx >= poolSize {
			return nil, fmt.Errorf("corner index out of range [0,%d)", poolSize)
		}
		corners[i] = uint32(idx)
	}
	return corners, nil
}
