package content

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/livefield/internal/errors"
)

// Format is the encoding of a content file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the format from the file extension. Anything other than
// .toml is read as YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// File is the on-disk content format. In YAML:
//
//	types:
//	  - name: post
//	    public: true
//	    edit_capability: edit_posts
//	records:
//	  - type: post
//	    id: 1
//	    status: publish
//	    fields:
//	      title: Hello
//
// TOML files use [[types]] and [[records]] tables with the same keys.
type File struct {
	Types   []Type    `yaml:"types" toml:"types"`
	Records []*Record `yaml:"records" toml:"records"`
}

// LoadFile reads and validates a content file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound, "content file not found", err).WithFile(path)
		}
		return nil, errors.NewIOError(errors.ErrCodeInternalError, "reading content file", err).WithFile(path)
	}

	file, perr := decode(bytes.NewReader(data), FormatForPath(path))
	if perr != nil {
		return nil, perr.WithFile(path)
	}
	return file, nil
}

// Decode parses content YAML from r.
func Decode(r io.Reader) (*File, error) {
	return DecodeFormat(r, FormatYAML)
}

// DecodeFormat parses content in the given format from r.
func DecodeFormat(r io.Reader, format Format) (*File, error) {
	file, perr := decode(r, format)
	if perr != nil {
		return nil, perr
	}
	return file, nil
}

func decode(r io.Reader, format Format) (*File, *errors.PreviewError) {
	var file File
	var err error
	switch format {
	case FormatTOML:
		err = toml.NewDecoder(r).Decode(&file)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&file)
		if err == io.EOF {
			err = nil
		}
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeContentInvalid, "invalid content file", err)
	}

	if err := file.validate(); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeContentInvalid, "invalid content file", err)
	}
	return &file, nil
}

func (f *File) validate() error {
	seenTypes := make(map[string]bool, len(f.Types))
	for i, t := range f.Types {
		if t.Name == "" {
			return fmt.Errorf("types[%d]: name is required", i)
		}
		if seenTypes[t.Name] {
			return fmt.Errorf("types[%d]: duplicate type %q", i, t.Name)
		}
		seenTypes[t.Name] = true
	}

	seenIDs := make(map[int64]bool, len(f.Records))
	for i, rec := range f.Records {
		if rec == nil {
			return fmt.Errorf("records[%d]: empty record", i)
		}
		if rec.ID <= 0 {
			return fmt.Errorf("records[%d]: id must be positive", i)
		}
		if rec.Type == "" {
			return fmt.Errorf("records[%d]: type is required", i)
		}
		if seenIDs[rec.ID] {
			return fmt.Errorf("records[%d]: duplicate id %d", i, rec.ID)
		}
		seenIDs[rec.ID] = true
		if rec.Status == "" {
			rec.Status = StatusPublish
		}
	}
	return nil
}

// Apply registers the file's types and replaces the store's records.
func (f *File) Apply(types *TypeRegistry, store *Store) {
	for _, t := range f.Types {
		types.Register(t)
	}
	store.Replace(f.Records)
}
