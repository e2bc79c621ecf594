package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteTree writes files (keyed by slash-separated relative path) under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// SampleTree is a small, valid data directory: one machine whose graph
// has a decision step, a bare next link and two results.
func SampleTree() map[string]string {
	return map[string]string{
		"machines/index.json": `{"machines": [
  {"id": "mastrena2", "name": "Mastrena II", "subtitle": "Superauto espresso", "tag": "Coffee", "config": "machines/mastrena2.json"}
]}`,
		"machines/mastrena2.json": `{
  "symptoms": [
    {"id": "no-steam", "name": "No steam from wand", "start": "check-wand"}
  ],
  "steps": {
    "check-wand": {
      "text": "Is the steam wand tip clogged?",
      "options": [
        {"label": "Yes", "next": "clean-tip", "primary": true},
        {"label": "No", "next": "check-boiler"}
      ]
    },
    "clean-tip": {
      "text": "Soak the tip in cleaner",
      "result": {"title": "Clogged wand tip", "fieldFix": ["Soak tip for 10 minutes"], "confidence": {"level": "high", "score": 90}}
    },
    "check-boiler": {
      "text": "Wait for the boiler to reach pressure",
      "next": "call-service"
    },
    "call-service": {
      "text": "Escalate",
      "result": {"title": "Boiler fault", "official": ["Call service"], "confidence": "low"}
    }
  }
}`,
	}
}
