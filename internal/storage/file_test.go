package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirdweb-dev/treasury-snapshot/internal/common"
)

func artifacts(body string) []common.Artifact {
	return []common.Artifact{
		{Name: "ethereum.json", Body: []byte(`{"chain":"ethereum","v":"` + body + `"}` + "\n")},
		{Name: "index.json", Body: []byte(`{"v":"` + body + `"}` + "\n")},
	}
}

func TestFileSinkWritesArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewFileSink(dir)

	require.NoError(t, sink.Write(context.Background(), artifacts("1")))

	body, err := sink.Read("index.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":"1"}`+"\n", string(body))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files are left behind")
}

func TestFileSinkOverwritesOnSuccess(t *testing.T) {
	sink := NewFileSink(t.TempDir())

	require.NoError(t, sink.Write(context.Background(), artifacts("1")))
	require.NoError(t, sink.Write(context.Background(), artifacts("2")))

	body, err := sink.Read("ethereum.json")
	require.NoError(t, err)
	assert.Contains(t, string(body), `"v":"2"`)
}

func TestFileSinkKeepsPreviousArtifactsOnCancel(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	require.NoError(t, sink.Write(context.Background(), artifacts("1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, sink.Write(ctx, artifacts("2")))

	body, err := sink.Read("index.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":"1"}`+"\n", string(body))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileSinkReadMissing(t *testing.T) {
	sink := NewFileSink(t.TempDir())

	_, err := sink.Read("base.json")
	assert.True(t, os.IsNotExist(err))
}

func TestFileSinkReadStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(filepath.Join(dir, "out"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.json"), []byte("x"), 0o644))

	_, err := sink.Read("../secret.json")
	assert.True(t, os.IsNotExist(err))
}

func TestRenameOrderPutsIndexLast(t *testing.T) {
	docs := []common.Artifact{
		{Name: "index.json"},
		{Name: "ethereum.json"},
		{Name: "base.json"},
	}

	assert.Equal(t, []int{1, 2, 0}, renameOrder(docs))
	assert.Equal(t, []int{0, 1, 2}, renameOrder(append(docs[1:3:3], docs[0])))
}

func TestFileSinkWritesIndexGivenFirst(t *testing.T) {
	sink := NewFileSink(t.TempDir())
	docs := artifacts("1")
	docs[0], docs[1] = docs[1], docs[0]

	require.NoError(t, sink.Write(context.Background(), docs))
	body, err := sink.Read("index.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":"1"}`+"\n", string(body))
}
