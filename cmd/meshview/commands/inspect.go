package commands

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/detect"
)

// inspectHeaderBytes is how much of the file the inspection reads. It
// covers the binary STL header and any realistic PLY header.
const inspectHeaderBytes = 4096

type inspectReport struct {
	File           string      `json:"file"`
	SizeBytes      int64       `json:"size_bytes"`
	Format         mesh.Format `json:"format"`
	Method         string      `json:"method"`
	Family         string      `json:"family"`
	Concrete       mesh.Format `json:"concrete"`
	Mismatch       bool        `json:"mismatch"`
	ExpectedFormat mesh.Format `json:"expected_format,omitempty"`
	DeclaredCount  *uint32     `json:"declared_triangles,omitempty"`
}

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Detect a mesh file's format without decoding it",
		Long: `Inspect a mesh file's header and report the detected format.

The report shows:
  - The detected format and which signal identified it (magic bytes,
    extension, or MIME type)
  - Whether the extension disagrees with the file's contents
  - Which decoder family would handle the file
  - For binary STL, the declared triangle count from the header`,
		Example: `  # Inspect a file
  meshview inspect model.stl

  # Machine-readable output
  meshview inspect --json model.ply`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}

	return cmd
}

func runInspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", path, err)
	}

	header := make([]byte, inspectHeaderBytes)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read %q: %w", path, err)
	}
	header = header[:n]

	fileName := filepath.Base(path)
	result := detect.Detect(fileName, "", header)
	decision := detect.Route(result.Format, header)

	report := inspectReport{
		File:           fileName,
		SizeBytes:      info.Size(),
		Format:         result.Format,
		Method:         string(result.Method),
		Family:         string(decision.Family),
		Concrete:       decision.Concrete,
		Mismatch:       result.Mismatch,
		ExpectedFormat: result.ExpectedFormat,
	}

	if decision.Concrete == mesh.FormatStlBinary && len(header) >= 84 {
		declared := binary.LittleEndian.Uint32(header[80:84])
		report.DeclaredCount = &declared
	}

	if jsonOutput {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("File:     %s (%d bytes)\n", report.File, report.SizeBytes)
	fmt.Printf("Format:   %s (detected by %s)\n", report.Format, report.Method)
	fmt.Printf("Decoder:  %s (%s)\n", report.Family, report.Concrete)
	if report.Mismatch {
		log.Warn().
			Str("expected", string(report.ExpectedFormat)).
			Str("actual", string(report.Format)).
			Msg("File extension does not match the file's contents")
		fmt.Printf("Warning:  extension implies %s, contents are %s\n",
			report.ExpectedFormat, report.Format)
	}
	if report.DeclaredCount != nil {
		fmt.Printf("Header:   %d declared triangles\n", *report.DeclaredCount)
	}

	return nil
}
