// Package fetch provides byte sources for mesh files.
//
// A Source hands the loader a complete in-memory copy of a mesh file
// plus the file name used for format detection. Two implementations are
// provided: LocalSource for files on disk and SFTPSource for remote
// files reached over SSH.
//
// ParseSource maps a command-line argument to the right implementation:
// an sftp:// URL becomes an SFTPSource, anything else a LocalSource.
package fetch
