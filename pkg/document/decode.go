package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/techninja/techninja/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format identifies the serialization of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. JSON is the default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// machineDescriptor accepts the legacy "config" key next to "configRef".
type machineDescriptor struct {
	domain.Machine `mapstructure:",squash"`
	Config         string `mapstructure:"config"`
}

var confidenceType = reflect.TypeOf(domain.Confidence{})

// Parse reads a JSON or YAML document into a generic tree.
// The top level must be an object.
func Parse(data []byte, format Format) (map[string]any, error) {
	var tree map[string]any

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse yaml document: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&tree); err != nil {
			return nil, fmt.Errorf("failed to parse json document: %w", err)
		}
	}

	if tree == nil {
		return nil, fmt.Errorf("document is empty or not an object")
	}
	return tree, nil
}

// ParseIndex parses and decodes a machine index document.
func ParseIndex(data []byte, format Format) (*domain.Index, error) {
	tree, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedIndex, err)
	}
	return DecodeIndex(tree)
}

// DecodeIndex decodes a generic tree into an Index.
// A missing or non-sequence "machines" field yields domain.ErrMalformedIndex.
func DecodeIndex(tree map[string]any) (*domain.Index, error) {
	raw, ok := tree["machines"]
	if !ok {
		return nil, fmt.Errorf("%w: missing machines field", domain.ErrMalformedIndex)
	}
	if raw == nil || reflect.TypeOf(raw).Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: machines is not a sequence", domain.ErrMalformedIndex)
	}

	var descriptors []machineDescriptor
	if err := decode(raw, &descriptors); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedIndex, err)
	}

	index := &domain.Index{Machines: make([]domain.Machine, 0, len(descriptors))}
	for _, d := range descriptors {
		m := d.Machine
		if m.ConfigRef == "" {
			m.ConfigRef = d.Config
		}
		index.Machines = append(index.Machines, m)
	}
	return index, nil
}

// ParseGraph parses and decodes a machine graph document.
func ParseGraph(data []byte, format Format) (*domain.MachineGraph, error) {
	tree, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return DecodeGraph(tree)
}

// DecodeGraph decodes a generic tree into a MachineGraph and normalizes confidence metadata.
func DecodeGraph(tree map[string]any) (*domain.MachineGraph, error) {
	var graph domain.MachineGraph
	if err := decode(tree, &graph); err != nil {
		return nil, fmt.Errorf("failed to decode machine graph: %w", err)
	}
	if graph.Steps == nil {
		graph.Steps = map[string]domain.Step{}
	}
	normalize(&graph)
	return &graph, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(legacyConfidenceHook),
			mapstructure.DecodeHookFuncType(roundNumberHook),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// legacyConfidenceHook lifts `"confidence": "high"` into a Confidence object.
func legacyConfidenceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != confidenceType || from.Kind() != reflect.String {
		return data, nil
	}
	return map[string]any{"level": data}, nil
}

// roundNumberHook rounds fractional numbers decoded into int fields, so a
// score of 85.5 reads as 86 whether the document is JSON or YAML.
func roundNumberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}

	var f float64
	switch v := data.(type) {
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return data, nil
		}
		parsed, err := v.Float64()
		if err != nil {
			return data, nil
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return data, nil
	}

	if math.IsNaN(f) {
		f = 0
	}
	f = min(max(f, math.MinInt32), math.MaxInt32)
	return int(math.Round(f)), nil
}

func normalize(graph *domain.MachineGraph) {
	for id, step := range graph.Steps {
		if step.Result == nil || step.Result.Confidence == nil {
			continue
		}
		c := *step.Result.Confidence
		c.Level = domain.ParseConfidenceLevel(string(c.Level))
		if c.Score != nil {
			score := min(max(*c.Score, 0), 100)
			c.Score = &score
		}
		result := *step.Result
		result.Confidence = &c
		step.Result = &result
		graph.Steps[id] = step
	}
}
