package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techninja/techninja/pkg/domain"
)

const sampleGraphJSON = `{
  "symptoms": [
    {"id": "s1", "name": "No steam", "start": "stepA"}
  ],
  "steps": {
    "stepA": {
      "text": "Is the boiler heating?",
      "options": [
        {"label": "Yes", "next": "stepB", "primary": true},
        {"label": "No", "next": "stepC"}
      ]
    },
    "stepB": {
      "text": "Done",
      "result": {
        "title": "Steam wand clogged",
        "likelyCause": "Milk residue",
        "fieldFix": ["Purge wand", "Soak tip"],
        "confidence": {"level": "High", "score": 140},
        "provenance": {"sources": ["service manual"], "lastConfirmed": "2025-03-01"}
      }
    },
    "stepC": {
      "text": "Check heater",
      "result": {"title": "Heater failure", "confidence": "medium"}
    }
  }
}`

func TestParseGraph_JSON(t *testing.T) {
	graph, err := ParseGraph([]byte(sampleGraphJSON), FormatJSON)
	require.NoError(t, err)

	require.Len(t, graph.Symptoms, 1)
	assert.Equal(t, "stepA", graph.Symptoms[0].Start)

	stepA, ok := graph.Step("stepA")
	require.True(t, ok)
	require.Len(t, stepA.Options, 2)
	assert.True(t, stepA.Options[0].Primary)
	assert.False(t, stepA.IsResult())

	stepB, ok := graph.Step("stepB")
	require.True(t, ok)
	require.True(t, stepB.IsResult())
	assert.Equal(t, []string{"Purge wand", "Soak tip"}, stepB.Result.FieldFix)
	require.NotNil(t, stepB.Result.Confidence)
	assert.Equal(t, domain.ConfidenceHigh, stepB.Result.Confidence.Level)
	require.NotNil(t, stepB.Result.Confidence.Score)
	assert.Equal(t, 100, *stepB.Result.Confidence.Score, "score is clamped to 0..100")
	assert.Equal(t, "2025-03-01", stepB.Result.Provenance.LastConfirmed)
}

func TestParseGraph_LegacyStringConfidence(t *testing.T) {
	graph, err := ParseGraph([]byte(sampleGraphJSON), FormatJSON)
	require.NoError(t, err)

	stepC, _ := graph.Step("stepC")
	require.NotNil(t, stepC.Result.Confidence)
	assert.Equal(t, domain.ConfidenceMedium, stepC.Result.Confidence.Level)
	assert.Nil(t, stepC.Result.Confidence.Score)
}

func TestParseGraph_FractionalScore(t *testing.T) {
	docs := map[Format]string{
		FormatJSON: `{"symptoms": [{"id": "s", "name": "S", "start": "a"}],
  "steps": {
    "a": {"text": "A", "result": {"title": "T", "confidence": {"level": "high", "score": 85.5}}},
    "b": {"text": "B", "result": {"title": "U", "confidence": {"level": "low", "score": 120.4}}}
  }}`,
		FormatYAML: `symptoms:
  - {id: s, name: S, start: a}
steps:
  a:
    text: A
    result: {title: T, confidence: {level: high, score: 85.5}}
  b:
    text: B
    result: {title: U, confidence: {level: low, score: 120.4}}
`,
	}

	for format, doc := range docs {
		t.Run(string(format), func(t *testing.T) {
			graph, err := ParseGraph([]byte(doc), format)
			require.NoError(t, err)

			a, _ := graph.Step("a")
			require.NotNil(t, a.Result.Confidence.Score)
			assert.Equal(t, 86, *a.Result.Confidence.Score)

			b, _ := graph.Step("b")
			require.NotNil(t, b.Result.Confidence.Score)
			assert.Equal(t, 100, *b.Result.Confidence.Score)
		})
	}
}

func TestParseGraph_YAML(t *testing.T) {
	src := `
symptoms:
  - id: s1
    name: Leaking
    start: a
steps:
  a:
    text: Where is the leak?
    next: b
  b:
    text: Tighten
    result:
      title: Loose fitting
      confidence:
        level: low
        score: 40
`
	graph, err := ParseGraph([]byte(src), FormatYAML)
	require.NoError(t, err)

	a, ok := graph.Step("a")
	require.True(t, ok)
	assert.Equal(t, "b", a.Next)

	b, _ := graph.Step("b")
	assert.Equal(t, domain.ConfidenceLow, b.Result.Confidence.Level)
	assert.Equal(t, 40, *b.Result.Confidence.Score)
}

func TestParseGraph_EmptyStepsIsNotNil(t *testing.T) {
	graph, err := ParseGraph([]byte(`{"symptoms": []}`), FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, graph.Steps)
}

func TestParseGraph_Garbage(t *testing.T) {
	_, err := ParseGraph([]byte(`not json`), FormatJSON)
	assert.Error(t, err)

	_, err = ParseGraph([]byte(`null`), FormatJSON)
	assert.Error(t, err)
}

func TestParseIndex(t *testing.T) {
	src := `{"machines": [
		{"id": "m1", "name": "One", "configRef": "m1.json"},
		{"id": "m2", "name": "Two", "subtitle": "Legacy", "tag": "Coffee", "config": "machines/m2.json"}
	]}`

	index, err := ParseIndex([]byte(src), FormatJSON)
	require.NoError(t, err)
	require.Len(t, index.Machines, 2)
	assert.Equal(t, "m1.json", index.Machines[0].ConfigRef)
	assert.Equal(t, "machines/m2.json", index.Machines[1].ConfigRef, "legacy config key is honored")
	assert.Equal(t, "Coffee", index.Machines[1].Tag)
}

func TestParseIndex_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing machines": `{"items": []}`,
		"not a sequence":   `{"machines": {"id": "m1"}}`,
		"null machines":    `{"machines": null}`,
		"not json":         `<html>`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseIndex([]byte(src), FormatJSON)
			assert.ErrorIs(t, err, domain.ErrMalformedIndex)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("machines/m1.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("m1.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("m1.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("m1"))
}
