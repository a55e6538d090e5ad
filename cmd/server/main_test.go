package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const essay = `The river town kept its ledgers in a stone house by the ferry landing.
Every spring the water rose past the third step and the clerks carried the books upstairs.
Nobody remembered who had first decided that the ledgers mattered more than the furniture.`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T, databaseURL string) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", databaseURL)
	t.Setenv("CLASSIFIER_BACKEND", "heuristic")
	t.Setenv("S3_ENDPOINT", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "")
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	setupEnv(t, filepath.Join(dir, "documents.db"))

	path := filepath.Join(dir, "essay.txt")
	require.NoError(t, os.WriteFile(path, []byte(essay), 0o644))

	out, err := execute(t, "analyze", path, "--owner", "alice")
	require.NoError(t, err)

	var first models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.NotEmpty(t, first.DocumentID)
	assert.Equal(t, "essay.txt", first.Filename)
	assert.Equal(t, "txt", first.Format)
	assert.False(t, first.Deduplicated)
	assert.InDelta(t, 100.0, first.PlagiarismScore+first.AIScore+first.OriginalScore, 0.1)

	out, err = execute(t, "analyze", path, "--owner", "alice")
	require.NoError(t, err)

	var second models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.True(t, second.Deduplicated)
}

func TestAnalyzeCommandReportsRejection(t *testing.T) {
	dir := t.TempDir()
	setupEnv(t, memoryDatabaseURL)

	path := filepath.Join(dir, "short.txt")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o644))

	_, err := execute(t, "analyze", path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "(422)"), err.Error())
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	setupEnv(t, filepath.Join(dir, "documents.db"))

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied (sqlite)")
	assert.FileExists(t, filepath.Join(dir, "documents.db"))

	setupEnv(t, memoryDatabaseURL)
	out, err = execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "needs no migrations")
}
