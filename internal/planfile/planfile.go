// Package planfile reads and writes plan documents: a plan's tree as a
// TOML or YAML file, for export, review and bulk import.
package planfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

// Supported document formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat indicates a format name or file extension that is not
// TOML or YAML.
var ErrUnknownFormat = errors.New("unknown plan file format")

// ErrInvalidDocument indicates data that does not decode as a plan document.
var ErrInvalidDocument = errors.New("invalid plan document")

// ErrFileExists indicates Write was asked not to replace an existing file.
var ErrFileExists = errors.New("plan file already exists")

// Document is a whole plan as written to disk.
type Document struct {
	Plan    string `toml:"plan" yaml:"plan"`
	Summary string `toml:"summary,omitempty" yaml:"summary,omitempty"`
	Items   []Item `toml:"items,omitempty" yaml:"items,omitempty"`
}

// Item is one node of a Document with its nested items.
type Item struct {
	Title       string `toml:"title" yaml:"title"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty"`
	Done        bool   `toml:"done,omitempty" yaml:"done,omitempty"`
	Items       []Item `toml:"items,omitempty" yaml:"items,omitempty"`
}

// ParseFormat accepts "toml", "yaml" or "yml", case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Decode parses data in format f. Unknown keys are rejected so typos in
// hand-written files surface instead of silently dropping fields.
func Decode(data []byte, f Format) (*Document, error) {
	var doc Document
	switch f {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing TOML plan: %w: %w", ErrInvalidDocument, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing YAML plan: %w: %w", ErrInvalidDocument, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return &doc, nil
}

// Encode serializes doc in format f, always ending with a newline.
func Encode(doc *Document, f Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatTOML:
		data, err = toml.Marshal(doc)
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
		data = buf.Bytes()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("marshaling %s plan: %w", f, err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data, nil
}

// Load reads and decodes the file at path, choosing the format from its
// extension.
func Load(path string) (*Document, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return Decode(data, f)
}

// Write encodes doc to path. The file is written next to its destination
// first and renamed into place, so readers never see a partial document.
// An existing file is only replaced when overwrite is set.
func Write(path string, doc *Document, overwrite bool) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s; use --force to overwrite", ErrFileExists, path)
	}
	data, err := Encode(doc, f)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing plan file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming plan file into place: %w", err)
	}
	return nil
}
