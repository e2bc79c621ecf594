package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techninja/techninja/internal/testutils"
	"github.com/techninja/techninja/pkg/adapters/remote"
	"github.com/techninja/techninja/pkg/domain"
	contract "github.com/techninja/techninja/pkg/ports/tests"
)

func serveTree(t *testing.T, prefix string, files map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for rel, content := range files {
		body := content
		mux.HandleFunc(prefix+rel, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteSource_Contract(t *testing.T) {
	srv := serveTree(t, "/data/", testutils.SampleTree())

	source, err := remote.New(srv.URL + "/data")
	require.NoError(t, err)

	contract.GraphSourceContractTest(t, source, map[string][]string{
		"mastrena2": {"no-steam"},
	})
}

func TestRemoteSource_YAMLContentType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/machines/index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte("machines:\n  - id: m1\n    name: One\n    config: m1.json\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	source, err := remote.New(srv.URL)
	require.NoError(t, err)

	index, err := source.LoadIndex(context.Background())
	require.NoError(t, err)
	require.Len(t, index.Machines, 1)
	assert.Equal(t, "m1.json", index.Machines[0].ConfigRef)
}

func TestRemoteSource_Errors(t *testing.T) {
	srv := serveTree(t, "/", map[string]string{
		"machines/index.json": `{"devices": []}`,
	})

	source, err := remote.New(srv.URL)
	require.NoError(t, err)

	_, err = source.LoadIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedIndex)

	_, err = source.LoadGraph(context.Background(), "missing.json")
	assert.ErrorContains(t, err, "404")

	_, err = remote.New("ftp://example.com")
	assert.Error(t, err)
}

func TestRemoteSource_DocumentTooLarge(t *testing.T) {
	padding := strings.Repeat(" ", remote.MaxDocumentSize)
	srv := serveTree(t, "/", map[string]string{
		"machines/big.json":  `{"symptoms": [], "steps": {}}` + padding,
		"machines/edge.json": padding[:remote.MaxDocumentSize-len(`{"steps": {}}`)] + `{"steps": {}}`,
	})

	source, err := remote.New(srv.URL)
	require.NoError(t, err)

	_, err = source.LoadGraph(context.Background(), "machines/big.json")
	assert.ErrorIs(t, err, remote.ErrDocumentTooLarge)

	_, err = source.LoadGraph(context.Background(), "machines/edge.json")
	assert.NoError(t, err)
}
