// Package sources lists and reads engine output files from a local
// directory or an S3 prefix.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/beam-cloud/hazardkit/pkg/types"
)

// ErrNotFound is returned when a named output does not exist
var ErrNotFound = errors.New("output not found")

// Source is a flat listing of output file names
type Source interface {
	// List returns file names (no directories) sorted lexicographically
	List(ctx context.Context) ([]string, error)
	// Open returns the content of a listed file
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Location describes where files come from, for logs
	Location() string
}

// New builds the source described by cfg
func New(ctx context.Context, cfg types.SourceConfig) (Source, error) {
	switch cfg.Kind {
	case "", types.SourceLocal:
		return NewLocalSource(cfg.Dir)
	case types.SourceS3:
		return NewS3Source(ctx, cfg.S3)
	default:
		return nil, &types.ConfigurationError{Setting: "source.kind", Value: cfg.Kind}
	}
}

// ReadAll opens name and reads it fully
func ReadAll(ctx context.Context, src Source, name string) ([]byte, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// validName rejects names that would escape the listing
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Base(name) != name {
		return fmt.Errorf("invalid output name %q", name)
	}
	return nil
}
