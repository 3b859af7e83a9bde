// Package yamlfile is the serialization boundary between in-memory record
// mappings and the on-disk snapshot files.
//
// Output is deterministic: map keys are emitted in sorted order and the
// indent is fixed, so writing the same logical data twice produces
// byte-identical files. Snapshots are meant to live under version control;
// stable bytes keep diffs honest.
package yamlfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNotFound reports that the requested file does not exist.
var ErrNotFound = errors.New("file not found")

// ParseError reports malformed YAML content in an existing file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// indent keeps sequence items aligned two spaces under their mapping key.
const indent = 2

// Write serializes data to path, creating intermediate directories.
//
// The file is written to a temporary sibling and renamed into place, so a
// failed write leaves any prior file intact.
func Write(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	out, err := marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Read deserializes the file at path into out.
//
// Returns ErrNotFound (wrapped) when the file does not exist and a
// *ParseError when the content is not well-formed YAML.
func Read(path string, out any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, out); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// Exists reports whether a regular file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// marshal encodes data with a fixed indent. The yaml encoder emits map keys
// in sorted order, which is what makes the output byte-stable.
func marshal(data any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(data); err != nil {
		enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
