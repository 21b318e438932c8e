// Package roster reads roster snapshot files. A file holds either a list of
// athlete documents or an object keyed by athlete key, as JSON or YAML.
package roster

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/klv/internal/adapters/repository"
	"github.com/okian/klv/internal/domain/model"
)

// Format selects the file syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Sentinel kinds for roster file errors.
var (
	ErrUnknownFormat = errors.New("unknown roster format")
	ErrDecode        = errors.New("decode roster")
	ErrDuplicateKey  = errors.New("duplicate athlete key")
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads the roster file at path.
func Load(path string) ([]model.Athlete, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path) //nolint:gosec // path is operator input
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = fh.Close() }()
	return Read(fh, f)
}

// Read decodes a roster and returns it in roster order (ascending key).
// List entries without a key get their one-based position, zero padded, so
// file order is kept.
func Read(r io.Reader, f Format) ([]model.Athlete, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	docs, err := decode(bytes.TrimSpace(raw), f)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(docs))
	out := make([]model.Athlete, 0, len(docs))
	for i := range docs {
		if docs[i].Key == "" {
			docs[i].Key = fmt.Sprintf("%06d", i+1)
		}
		if seen[docs[i].Key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, docs[i].Key)
		}
		seen[docs[i].Key] = true
		out = append(out, repository.DecodeDocument(docs[i]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func decode(raw []byte, f Format) ([]repository.Document, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	unmarshal := json.Unmarshal
	switch f {
	case FormatJSON:
	case FormatYAML:
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}

	var list []repository.Document
	listErr := unmarshal(raw, &list)
	if listErr == nil {
		return list, nil
	}
	var byKey map[string]repository.Document
	if err := unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, errors.Join(listErr, err))
	}
	docs := make([]repository.Document, 0, len(byKey))
	for k, d := range byKey {
		if d.Key == "" {
			d.Key = k
		}
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

// Write encodes roster in format f.
func Write(w io.Writer, roster []model.Athlete, f Format) error {
	docs := make([]repository.Document, len(roster))
	for i := range roster {
		docs[i] = repository.EncodeDocument(roster[i])
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}
