package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/techninja/techninja/pkg/document"
	"github.com/techninja/techninja/pkg/domain"
)

// Source implements ports.GraphSource over a directory tree.
// Document references are paths relative to Root; JSON and YAML are both accepted.
type Source struct {
	Root      string
	IndexPath string
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithIndexPath overrides the index location (relative to the root).
func WithIndexPath(path string) SourceOption {
	return func(s *Source) {
		s.IndexPath = path
	}
}

// NewSource creates a Source rooted at dir.
func NewSource(dir string, opts ...SourceOption) *Source {
	s := &Source{
		Root:      dir,
		IndexPath: domain.DefaultIndexPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) read(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.FromSlash(ref)
	if !filepath.IsLocal(clean) {
		return nil, fmt.Errorf("document reference %q escapes the data directory", ref)
	}
	data, err := os.ReadFile(filepath.Join(s.Root, clean))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return data, nil
}

// LoadIndex reads and decodes the index document.
func (s *Source) LoadIndex(ctx context.Context) (*domain.Index, error) {
	data, err := s.read(ctx, s.IndexPath)
	if err != nil {
		return nil, err
	}
	return document.ParseIndex(data, document.FormatFromPath(s.IndexPath))
}

// LoadGraph reads and decodes the graph document at ref.
func (s *Source) LoadGraph(ctx context.Context, ref string) (*domain.MachineGraph, error) {
	data, err := s.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	return document.ParseGraph(data, document.FormatFromPath(ref))
}
