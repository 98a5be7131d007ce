package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "ingest", "ask", "tui", "schema"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
		assert.NotEmpty(t, sub.Short, name)
	}
	for _, flag := range []string{"config", "verbose", "offline"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
	initCmd, _, err := root.Find([]string{"schema", "init"})
	require.NoError(t, err)
	assert.Equal(t, "false", initCmd.Flags().Lookup("keep").DefValue)
}

func TestAskFlags(t *testing.T) {
	cmd := NewAskCmd()
	for _, name := range []string{"top-k", "final-n", "doc-id", "json"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Contains(t, cmd.Long, "--doc-id")
	assert.Error(t, cmd.Args(cmd, nil))
}

func TestIngestRejectsDocIDForManyFiles(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"--offline", "ingest", "--doc-id", "x", "a.txt", "b.txt"})
	root.SetOut(new(bytes.Buffer))
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single document")
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("hello notes"), 0o600))

	text, err := readDocument(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello notes", text)

	text, err = readDocument("-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)

	_, err = readDocument(filepath.Join(dir, "missing.txt"), nil)
	assert.Error(t, err)

	bad := filepath.Join(dir, "broken.PDF")
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o600))
	_, err = readDocument(bad, nil)
	assert.ErrorContains(t, err, "pdf")
}

func TestTitleFor(t *testing.T) {
	assert.Equal(t, "handbook", titleFor("/docs/handbook.pdf"))
	assert.Equal(t, "README", titleFor("README"))
	assert.Equal(t, "", titleFor("-"))
}

func TestPrintAnswer(t *testing.T) {
	var buf bytes.Buffer
	printAnswer(&buf, &domain.Answer{
		Text: "Blue [1].",
		Sources: []domain.Source{
			{N: 1, Title: "Sky", Section: "body", Position: 3, Source: "upload", URL: "https://example.com"},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "Blue [1].")
	assert.Contains(t, out, "[1] Sky / body #3 (upload) https://example.com")

	buf.Reset()
	printAnswer(&buf, &domain.Answer{Text: domain.NoAnswer, NoResult: true})
	assert.Equal(t, domain.NoAnswer+"\n", buf.String())
}

func TestWriteAnswerJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnswerJSON(&buf, &domain.Answer{Text: domain.NoAnswer, Elapsed: 7 * time.Millisecond}))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, []any{}, out["sources"])
	assert.Equal(t, float64(7), out["timings_ms"].(map[string]any)["total"])
}

func TestOfflineIngestThenAsk(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	doc := filepath.Join(dir, "reactor.txt")
	require.NoError(t, os.WriteFile(doc,
		[]byte("Zirconium alloys clad the fuel rods. The reactor hall is painted blue."), 0o600))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--offline", "ingest", "--json", doc})
	require.NoError(t, root.Execute())

	var res domain.IngestResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 1, res.Inserted)

	out.Reset()
	root = NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--offline", "ask", "what clads the fuel rods?"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "[1]")
	assert.Contains(t, out.String(), "reactor / body #0 (upload)")
}
