package mesh

import (
	"errors"
	"fmt"
	"testing"
)

func TestLoaderErrorCodes(t *testing.T) {
	tests := []struct {
		name  string
		err   *LoaderError
		code  ErrorCode
		check func(error) bool
	}{
		{"empty file", NewEmptyFileError("a.stl"), ErrCodeEmptyFile, IsEmptyFile},
		{"file too large", NewFileTooLargeError(700<<20, 600<<20), ErrCodeFileTooLarge, IsFileTooLarge},
		{"read failed", NewFileReadFailedError("a.stl", errors.New("io")), ErrCodeFileReadFailed, IsFileReadFailed},
		{"parse failed", NewParseFailedError(FormatObj, []string{"bad token"}, nil), ErrCodeParseFailed, IsParseFailed},
		{"unsupported", NewUnsupportedFormatError("a.bin", ""), ErrCodeUnsupportedFormat, IsUnsupportedFormat},
		{"memory limit", NewMemoryLimitError(errors.New("oom")), ErrCodeMemoryLimit, IsMemoryLimit},
		{"too many triangles", NewTooManyTrianglesError(40_000_000, 30_000_000), ErrCodeTooManyTriangles, IsTooManyTriangles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, tt.err.Code)
			}
			if !tt.check(tt.err) {
				t.Errorf("Code check helper rejected %s", tt.code)
			}
			if tt.err.Timestamp.IsZero() {
				t.Error("Expected a non-zero timestamp")
			}
			if tt.err.Error() == "" {
				t.Error("Expected a non-empty message")
			}
		})
	}
}

func TestLoaderErrorWrapping(t *testing.T) {
	cause := errors.New("short read")
	err := NewFileReadFailedError("cube.ply", cause)

	wrapped := fmt.Errorf("load: %w", err)

	if !IsFileReadFailed(wrapped) {
		t.Error("Expected IsFileReadFailed to see through wrapping")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Expected the underlying cause to be reachable via errors.Is")
	}
}

func TestLoaderErrorContexts(t *testing.T) {
	sizeErr := NewFileTooLargeError(1000, 600)
	sc, ok := sizeErr.Context.(SizeContext)
	if !ok {
		t.Fatalf("Expected SizeContext, got %T", sizeErr.Context)
	}
	if sc.FileSizeBytes != 1000 || sc.MaxFileBytes != 600 {
		t.Errorf("Unexpected size context: %+v", sc)
	}

	triErr := NewTooManyTrianglesError(50, 10)
	tc, ok := triErr.Context.(TriangleContext)
	if !ok {
		t.Fatalf("Expected TriangleContext, got %T", triErr.Context)
	}
	if tc.Triangles != 50 || tc.MaxTriangles != 10 {
		t.Errorf("Unexpected triangle context: %+v", tc)
	}

	parseErr := NewParseFailedError(FormatStlBinary, []string{"fast: zero vertices", "exact: bad header"}, nil)
	pc, ok := parseErr.Context.(ParseContext)
	if !ok {
		t.Fatalf("Expected ParseContext, got %T", parseErr.Context)
	}
	if len(pc.Attempts) != 2 {
		t.Errorf("Expected 2 recorded attempts, got %d", len(pc.Attempts))
	}
}

func TestFormatFamily(t *testing.T) {
	tests := []struct {
		format Format
		family Family
		binary bool
	}{
		{FormatStlASCII, FamilySTL, false},
		{FormatStlBinary, FamilySTL, true},
		{FormatPlyASCII, FamilyPLY, false},
		{FormatPlyBinaryLE, FamilyPLY, true},
		{FormatPlyBinaryBE, FamilyPLY, true},
		{FormatObj, FamilyOBJ, false},
		{FormatUnknown, FamilyUnknown, false},
	}

	for _, tt := range tests {
		if got := tt.format.Family(); got != tt.family {
			t.Errorf("%q.Family() = %q, want %q", tt.format, got, tt.family)
		}
		if got := tt.format.Binary(); got != tt.binary {
			t.Errorf("%q.Binary() = %v, want %v", tt.format, got, tt.binary)
		}
	}
}
