// Package remote fetches machine documents over HTTP from a static host.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/techninja/techninja/pkg/document"
	"github.com/techninja/techninja/pkg/domain"
)

// MaxDocumentSize bounds a single fetched document.
const MaxDocumentSize = 4 << 20

// ErrDocumentTooLarge is returned for documents over MaxDocumentSize.
var ErrDocumentTooLarge = errors.New("document too large")

// Source implements ports.GraphSource against a base URL.
// References are resolved relative to the base, the same way a browser resolves links.
type Source struct {
	base      *url.URL
	client    *http.Client
	indexPath string
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		s.client = c
	}
}

// WithIndexPath overrides the index location relative to the base URL.
func WithIndexPath(path string) Option {
	return func(s *Source) {
		s.indexPath = path
	}
}

// New creates a Source for baseURL. A trailing slash is added when missing
// so relative references land inside the base path.
func New(baseURL string, opts ...Option) (*Source, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme %q", base.Scheme)
	}
	if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}

	s := &Source{
		base:      base,
		client:    &http.Client{Timeout: 15 * time.Second},
		indexPath: domain.DefaultIndexPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Source) fetch(ctx context.Context, ref string) ([]byte, document.Format, error) {
	rel, err := url.Parse(ref)
	if err != nil {
		return nil, "", fmt.Errorf("invalid document reference %q: %w", ref, err)
	}
	target := s.base.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: unexpected status %s", target, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", target, err)
	}
	if len(data) > MaxDocumentSize {
		return nil, "", fmt.Errorf("read %s: %w (limit %d bytes)", target, ErrDocumentTooLarge, MaxDocumentSize)
	}
	return data, formatOf(resp.Header.Get("Content-Type"), target.Path), nil
}

func formatOf(contentType, path string) document.Format {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return document.FormatYAML
	case "application/json":
		return document.FormatJSON
	}
	return document.FormatFromPath(path)
}

// LoadIndex fetches and decodes the index document.
func (s *Source) LoadIndex(ctx context.Context) (*domain.Index, error) {
	data, format, err := s.fetch(ctx, s.indexPath)
	if err != nil {
		return nil, err
	}
	return document.ParseIndex(data, format)
}

// LoadGraph fetches and decodes the graph document at ref.
func (s *Source) LoadGraph(ctx context.Context, ref string) (*domain.MachineGraph, error) {
	data, format, err := s.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return document.ParseGraph(data, format)
}
