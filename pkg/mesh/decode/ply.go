package decode

import (
	"fmt"
)

// plyHeader holds the element counts parsed from an ASCII PLY header.
type plyHeader struct {
	vertexCount int
	faceCount   int
}

// PLYASCII decodes an ASCII PLY file: header, then exactly vertexCount
// vertex lines of three floats, then exactly faceCount face lines. Each
// face line's first token is its corner count; n-gons are fan
// triangulated around their first listed vertex.
func PLYASCII(data []byte, mode Mode) (*Result, error) {
	s := newLineScanner(data)

	header, err := parsePLYHeader(s)
	if err != nil {
		return nil, err
	}

	vertices := make([]float64, 0, header.vertexCount*3)
	for v := 0; v < header.vertexCount; v++ {
		line, ok := s.next()
		if !ok {
			if mode == ModeExact {
				break
			}
			return nil, fmt.Errorf("ply: expected %d vertex lines, input ended after %d", header.vertexCount, v)
		}
		fields := splitFields(line)
		if len(fields) < 3 {
			if mode == ModeExact {
				vertices = append(vertices, 0, 0, 0)
				continue
			}
			return nil, fmt.Errorf("ply: vertex line %d has %d fields, want at least 3", s.line, len(fields))
		}
		var triple [3]float64
		for i := 0; i < 3; i++ {
			triple[i], err = parseFloat(fields[i])
			if err != nil {
				if mode == ModeExact {
					triple[i] = 0
					continue
				}
				return nil, fmt.Errorf("ply: vertex line %d: %w", s.line, err)
			}
		}
		vertices = append(vertices, triple[0], triple[1], triple[2])
	}

	vertexCount := len(vertices) / 3
	indices := make([]uint32, 0, header.faceCount*3)
	faces := 0
	for f := 0; f < header.faceCount; f++ {
		line, ok := s.next()
		if !ok {
			if mode == ModeExact {
				break
			}
			return nil, fmt.Errorf("ply: expected %d face lines, input ended after %d", header.faceCount, f)
		}
		corners, err := parsePLYFace(line, vertexCount)
		if err != nil {
			if mode == ModeExact {
				continue
			}
			return nil, fmt.Errorf("ply: face line %d: %w", s.line, err)
		}
		indices = fanTriangulate(indices, corners)
		faces++
	}

	return &Result{
		Vertices:    vertices,
		Indices:     indices,
		VertexCount: vertexCount,
		FaceCount:   faces,
	}, nil
}

// parsePLYHeader consumes header lines through end_header and extracts the
// vertex and face element counts.
func parsePLYHeader(s *lineScanner) (*plyHeader, error) {
	magic, ok := s.next()
	if !ok || string(magic) != "ply" {
		return nil, fmt.Errorf("ply: missing magic line")
	}

	header := &plyHeader{}
	element := ""
	for {
		line, ok := s.next()
		if !ok {
			return nil, fmt.Errorf("ply: header not terminated by end_header")
		}
		fields := splitFields(line)
		if len(fields) == 0 {
			continue
		}
		switch string(fields[0]) {
		case "end_header":
			return header, nil
		case "format":
			if len(fields) < 2 || string(fields[1]) != "ascii" {
				return nil, fmt.Errorf("ply: format directive %q is not ascii", line)
			}
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("ply: malformed element line %q", line)
			}
			count, err := parseInt(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("ply: bad element count in %q", line)
			}
			element = string(fields[1])
			switch element {
			case "vertex":
				header.vertexCount = count
			case "face":
				header.faceCount = count
			}
		case "property", "comment", "obj_info":
			// Property layouts beyond the leading xyz floats are ignored;
			// vertex lines are read positionally.
		}
	}
}

// parsePLYFace parses one face line: a corner count followed by that many
// vertex indices.
func parsePLYFace(line []byte, vertexCount int) ([]uint32, error) {
	fields := splitFields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty face line")
	}
	n, err := parseInt(fields[0])
	if err != nil {
		return nil, err
	}
	if n < 3 || len(fields) < 1+n {
		return nil, fmt.Errorf("face lists %d corners with %d fields", n, len(fields)-1)
	}
	corners := make([]uint32, n)
	for i := 0; i < n; i++ {
		idx, err := parseInt(fields[1+i])
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= vertexCount {
			return nil, fmt.Errorf("corner index %d out of range [0,%d)", idx, vertexCount)
		}
		corners[i] = uint32(idx)
	}
	return corners, nil
}
