// Package loader reads Scribe configuration sources into generic maps.
//
// File loaders parse TOML and YAML; the environment loader turns SCRIBE_*
// variables into nested keys. Sources are combined with DeepMerge, later
// sources winning.
package loader

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader produces one configuration layer as a nested map.
type Loader interface {
	// Load returns nil, nil when the source is absent.
	Load() (map[string]any, error)
}

// FileLoader reads a layer from a path.
type FileLoader interface {
	Loader
	// LoadFrom reads the file at path; a missing file yields nil, nil.
	LoadFrom(path string) (map[string]any, error)
}

// ReaderLoader decodes a layer from a stream.
type ReaderLoader interface {
	LoadFromReader(r io.Reader) (map[string]any, error)
}

// FileSystem is the subset of file access the loaders need, so tests can
// substitute an in-memory tree.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS reads from the host file system.
type OSFS struct{}

func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns OSFS.
func DefaultFS() FileSystem {
	return OSFS{}
}

// Format names a configuration file syntax.
type Format string

// Supported file formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("config file %s: unsupported extension", path)
	}
}

// ForFile returns the loader matching the extension of path.
func ForFile(fsys FileSystem, path string) (FileLoader, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		return NewYAMLLoaderWithFS(fsys, path), nil
	}
	return NewTOMLLoaderWithFS(fsys, path), nil
}
