// Package manifest supplies the records a Web Connector run should push,
// either from a TOML file or from a fixed in-memory set.
package manifest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/gosuda/qbsync/internal/domain"
)

// FileSource reads a TOML manifest each time a session is opened, so edits
// to the file apply to the next connector run without a restart.
type FileSource struct {
	path string
}

// NewFileSource returns a source for the manifest at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the manifest location.
func (s *FileSource) Path() string { return s.path }

// Load reads, decodes and validates the manifest.
func (s *FileSource) Load(ctx context.Context) (domain.Batches, error) {
	if err := ctx.Err(); err != nil {
		return domain.Batches{}, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Batches{}, fmt.Errorf("manifest.FileSource.Load: %w", err)
	}

	b, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return domain.Batches{}, fmt.Errorf("manifest.FileSource.Load: %s: %w", s.path, err)
	}
	return b, nil
}

// Decode parses and validates a TOML manifest. Unknown keys are rejected.
func Decode(r io.Reader) (domain.Batches, error) {
	var file fileSchema
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return domain.Batches{}, fmt.Errorf("decode manifest: %w", err)
	}
	file.applyDefaults()
	if err := file.validateVersion(); err != nil {
		return domain.Batches{}, err
	}

	b := file.toBatches()
	if err := Validate(b); err != nil {
		return domain.Batches{}, err
	}
	return b, nil
}

// Encode writes b as a TOML manifest that Decode accepts.
func Encode(w io.Writer, b domain.Batches) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(fromBatches(b)); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// Static always returns the same batches. Each Load returns a deep copy so
// sessions never share line slices.
type Static struct {
	batches domain.Batches
}

// NewStatic wraps b.
func NewStatic(b domain.Batches) Static {
	return Static{batches: b}
}

func (s Static) Load(ctx context.Context) (domain.Batches, error) {
	if err := ctx.Err(); err != nil {
		return domain.Batches{}, err
	}
	return fromBatches(s.batches).toBatches(), nil
}
