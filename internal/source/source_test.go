package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZephyrDeng/react-profiler-analyzer-mcp/profiler"
)

const fixture = "../../profiler/testdata/profile.json"

func TestFetchLocalPath(t *testing.T) {
	path, cleanup, err := Fetch(context.Background(), fixture)
	require.NoError(t, err)
	defer cleanup()

	want, err := filepath.Abs(fixture)
	require.NoError(t, err)
	assert.Equal(t, want, path)
}

func TestFetchFileURI(t *testing.T) {
	abs, err := filepath.Abs(fixture)
	require.NoError(t, err)

	path, cleanup, err := Fetch(context.Background(), "file://"+filepath.ToSlash(abs))
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, filepath.ToSlash(abs), path)
}

func TestFetchHTTP(t *testing.T) {
	data, err := os.ReadFile(fixture)
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	path, cleanup, err := Fetch(context.Background(), srv.URL+"/profile.json")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, _, err := Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchHTTPCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchUnsupportedScheme(t *testing.T) {
	_, _, err := Fetch(context.Background(), "s3://bucket/profile.json")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestLoad(t *testing.T) {
	doc, err := Load(context.Background(), fixture)
	require.NoError(t, err)
	assert.Equal(t, "18.2.0", doc.ReactVersion)
	assert.Len(t, doc.DataForRoots, 2)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dataForRoots": [`), 0o644))

	_, err := Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode profiler document")

	path = filepath.Join(t.TempDir(), "encoding.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dataForRoots": [{"snapshots": 42}]}`), 0o644))
	_, err = Load(context.Background(), path)
	assert.ErrorIs(t, err, profiler.ErrUnknownEncoding)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
