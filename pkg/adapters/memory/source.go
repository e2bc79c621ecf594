package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/techninja/techninja/pkg/document"
	"github.com/techninja/techninja/pkg/domain"
)

// Source implements ports.GraphSource over in-memory documents.
// Documents are kept raw and decoded on every load, like a fetch would.
// Safe for concurrent use.
type Source struct {
	mu        sync.Mutex
	indexPath string
	docs      map[string][]byte
	fetches   map[string]int
}

// NewSource creates a Source from raw documents keyed by reference.
// The index is read from domain.DefaultIndexPath.
func NewSource(docs map[string]string) *Source {
	raw := make(map[string][]byte, len(docs))
	for k, v := range docs {
		raw[k] = []byte(v)
	}
	return &Source{
		indexPath: domain.DefaultIndexPath,
		docs:      raw,
		fetches:   make(map[string]int),
	}
}

// NewFromGraphs creates a Source from domain objects.
// Each machine's ConfigRef must have a matching entry in graphs.
// This handles serialization automatically, improving DX for tests.
func NewFromGraphs(machines []domain.Machine, graphs map[string]*domain.MachineGraph) (*Source, error) {
	docs := make(map[string]string, len(graphs)+1)

	index, err := json.Marshal(domain.Index{Machines: machines})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal index: %w", err)
	}
	docs[domain.DefaultIndexPath] = string(index)

	for ref, g := range graphs {
		data, err := json.Marshal(g)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal graph %s: %w", ref, err)
		}
		docs[ref] = string(data)
	}
	return NewSource(docs), nil
}

// Put replaces (or adds) a raw document.
func (s *Source) Put(ref, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[ref] = []byte(content)
}

// Remove deletes a document, making later loads of it fail.
func (s *Source) Remove(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, ref)
}

// Fetches returns how many times ref was requested.
func (s *Source) Fetches(ref string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[ref]
}

func (s *Source) get(ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[ref]++
	data, ok := s.docs[ref]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", ref)
	}
	return data, nil
}

// LoadIndex decodes the index document.
func (s *Source) LoadIndex(ctx context.Context) (*domain.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.get(s.indexPath)
	if err != nil {
		return nil, err
	}
	return document.ParseIndex(data, document.FormatFromPath(s.indexPath))
}

// LoadGraph decodes the graph document stored under ref.
func (s *Source) LoadGraph(ctx context.Context, ref string) (*domain.MachineGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.get(ref)
	if err != nil {
		return nil, err
	}
	return document.ParseGraph(data, document.FormatFromPath(ref))
}
