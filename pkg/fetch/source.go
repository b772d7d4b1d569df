package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/meshview/meshview/pkg/mesh"
)

// Source supplies the bytes of a single mesh file.
type Source interface {
	// Open reads the complete file and returns its bytes and the file
	// name to use for format detection.
	Open(ctx context.Context) ([]byte, string, error)
}

// LocalSource reads a mesh file from the local filesystem.
type LocalSource struct {
	// Path is the path to the mesh file.
	Path string
}

// NewLocalSource creates a source for a local file.
func NewLocalSource(path string) *LocalSource {
	return &LocalSource{Path: path}
}

// Open reads the file. Read failures map to FileReadFailed.
func (s *LocalSource) Open(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", mesh.NewFileReadFailedError(s.Path, err)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, "", mesh.NewFileReadFailedError(s.Path, err)
	}
	return data, filepath.Base(s.Path), nil
}

// ParseSource maps a path or URL to a source. sftp:// URLs become
// SFTPSource; everything else is treated as a local path.
func ParseSource(raw string) (Source, error) {
	if !strings.Contains(raw, "://") {
		return NewLocalSource(raw), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, mesh.NewFileReadFailedError(raw, err)
	}

	switch u.Scheme {
	case "file":
		return NewLocalSource(u.Path), nil
	case "sftp":
		cfg := DefaultSSHConfig(u.Hostname(), u.User.Username())
		if port := u.Port(); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return nil, mesh.NewFileReadFailedError(raw, err)
			}
			cfg.Port = p
		}
		if password, ok := u.User.Password(); ok {
			cfg.AuthMethod = AuthMethodPassword
			cfg.Password = password
		}
		return NewSFTPSource(cfg, u.Path), nil
	default:
		return nil, fmt.Errorf("unsupported source scheme: %s", u.Scheme)
	}
}
