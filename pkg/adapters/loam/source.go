// Package loam serves machine documents from a Loam repository.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/techninja/techninja/pkg/document"
	"github.com/techninja/techninja/pkg/domain"
)

// Document is the metadata shape shared by index and graph documents.
// Fields stay untyped so the document package can apply its own decoding rules.
type Document struct {
	Machines any `json:"machines,omitempty" mapstructure:"machines"`
	Symptoms any `json:"symptoms,omitempty" mapstructure:"symptoms"`
	Steps    any `json:"steps,omitempty" mapstructure:"steps"`
}

// Source adapts a Loam repository to ports.GraphSource.
// References are resolved by Loam ID, i.e. the path with its extension stripped.
type Source struct {
	Repo      *loam.TypedRepository[Document]
	IndexPath string
}

// New creates a Source over an existing typed repository.
func New(repo *loam.TypedRepository[Document]) *Source {
	return &Source{
		Repo:      repo,
		IndexPath: domain.DefaultIndexPath,
	}
}

// Open initializes a strict, read-only Loam repository at dir.
func Open(dir string) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Document](repo)), nil
}

func (s *Source) get(ctx context.Context, ref string) (Document, error) {
	doc, err := s.Repo.Get(ctx, trimExtension(ref))
	if err != nil {
		return Document{}, fmt.Errorf("loam get failed for %s: %w", ref, err)
	}
	return doc.Data, nil
}

// LoadIndex reads the index document.
func (s *Source) LoadIndex(ctx context.Context) (*domain.Index, error) {
	doc, err := s.get(ctx, s.IndexPath)
	if err != nil {
		return nil, err
	}
	return document.DecodeIndex(map[string]any{"machines": doc.Machines})
}

// LoadGraph reads the graph document at ref.
func (s *Source) LoadGraph(ctx context.Context, ref string) (*domain.MachineGraph, error) {
	doc, err := s.get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return document.DecodeGraph(map[string]any{
		"symptoms": doc.Symptoms,
		"steps":    doc.Steps,
	})
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	if ext := filepath.Ext(id); ext != "" {
		return strings.TrimSuffix(id, ext)
	}
	return id
}
