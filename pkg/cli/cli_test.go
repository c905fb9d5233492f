package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpcollect/pkg/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := RootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestPlantID(t *testing.T) {
	out, err := run(t, "plant-id", "12345678", "--second")
	require.NoError(t, err)
	assert.Equal(t, "12345678_B\n", out)

	out, err = run(t, "plant-id", "12345678")
	require.NoError(t, err)
	assert.Equal(t, "12345678\n", out)

	_, err = run(t, "plant-id", " ")
	assert.Error(t, err)
}

func TestSchemas(t *testing.T) {
	out, err := run(t, "schemas")
	require.NoError(t, err)
	assert.Contains(t, out, "TP5 : la photosynthèse")
	assert.Contains(t, out, "date*, heure*, rang_f*, état_f*, pos_f*, face_f*, cond*, PAR, remarque")
	assert.NotContains(t, out, "second_tournesol")
}

func TestCheckReportsMissingConfig(t *testing.T) {
	path := writeConfig(t, `
backend = "sheets"

[connections.gsheets]
project_id = "lbir1251"

[resources]
url_eau = "https://docs.google.com/spreadsheets/d/abc123/edit"
url_irga = "https://example.com/nope"
`)
	out, err := run(t, "check", "--config", path)
	require.Error(t, err)
	assert.Contains(t, out, "private_key missing")
	assert.Contains(t, out, "url_eau -> abc123")
	assert.Contains(t, out, "url_irga:")
	assert.Contains(t, out, "url_fluo: no url")
}

func TestCheckMemoryBackend(t *testing.T) {
	path := writeConfig(t, `backend = "memory"`)
	out, err := run(t, "check", "--config", path, "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "read url_eau")
}

func TestExportFromSQLite(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "rows.sqlite3")
	s, err := store.NewSQLite(db)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), "url_croissance", store.Record{
		{Name: "date", Value: "18/10/2026"},
		{Name: "hauteur_tige", Value: 12.5},
	}))
	require.NoError(t, s.Close())

	path := writeConfig(t, "backend = \"sqlite\"\nsqlite_path = \""+filepath.ToSlash(db)+"\"\n")
	outFile := filepath.Join(dir, "croissance.csv")
	_, err = run(t, "export", "croissance", "--config", path, "--out", outFile)
	require.NoError(t, err)

	b, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFdate,hauteur_tige\n18/10/2026,12.5\n", string(b))

	_, err = run(t, "export", "chimie", "--config", path)
	assert.Error(t, err)
	_, err = run(t, "export", "croissance", "--config", path, "--format", "pdf")
	assert.True(t, err != nil && strings.Contains(err.Error(), "unknown format"))
}
