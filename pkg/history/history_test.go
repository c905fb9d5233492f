package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpcollect/pkg/cache"
	"tpcollect/pkg/store"
)

var fixedNow = time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC)

func seeded(n int) *store.Memory {
	m := store.NewMemory()
	var rows [][]string
	for i := 1; i <= n; i++ {
		rows = append(rows, []string{fmt.Sprint(i), "Jeune"})
	}
	m.Seed("url_eau", []string{"n", "état_f"}, rows...)
	return m
}

func newViewer(r store.Reader) *Viewer {
	return NewViewer(cache.New(r, time.Minute), func() time.Time { return fixedNow })
}

func TestRenderTail(t *testing.T) {
	v := newViewer(seeded(25))
	view := v.Render(context.Background(), "url_eau", "poromètre", false)

	assert.False(t, view.Empty)
	assert.Equal(t, 25, view.Total)
	require.Len(t, view.Rows, TailSize)
	assert.Equal(t, "16", view.Rows[0][0])
	assert.Equal(t, "25", view.Rows[9][0])
	assert.Equal(t, TailCaption, view.Caption())
	assert.Equal(t, "export_poromètre_18_10_2026.csv", view.CSVName)
	assert.Equal(t, "export_poromètre_18_10_2026.xlsx", view.XLSXName)
}

func TestRenderAll(t *testing.T) {
	view := newViewer(seeded(25)).Render(context.Background(), "url_eau", "poromètre", true)
	assert.Len(t, view.Rows, 25)
	assert.Equal(t, "", view.Caption())
}

func TestRenderEmpty(t *testing.T) {
	view := newViewer(store.NewMemory()).Render(context.Background(), "url_eau", "poromètre", false)
	assert.True(t, view.Empty)
	assert.Empty(t, view.Warning)
	assert.Empty(t, view.Rows)
}

type failingReader struct{}

func (failingReader) ReadAll(ctx context.Context, resource string) (store.Table, error) {
	return store.Table{}, &store.RemoteReadError{Resource: resource, Err: errors.New("403 forbidden")}
}

func TestRenderReadErrorIsWarning(t *testing.T) {
	view := newViewer(failingReader{}).Render(context.Background(), "url_irga", "IRGA", false)
	assert.True(t, view.Empty)
	assert.Contains(t, view.Warning, "Impossible de charger les données pour IRGA")
	assert.Contains(t, view.Warning, "403 forbidden")
}

func TestExportIgnoresToggle(t *testing.T) {
	v := newViewer(seeded(25))
	_ = v.Render(context.Background(), "url_eau", "poromètre", false)

	var buf bytes.Buffer
	name, err := v.Export(context.Background(), &buf, "url_eau", "poromètre", "csv")
	require.NoError(t, err)
	assert.Equal(t, "export_poromètre_18_10_2026.csv", name)
	assert.Equal(t, 26, strings.Count(buf.String(), "\n"))

	_, err = v.Export(context.Background(), &buf, "url_eau", "poromètre", "pdf")
	assert.Error(t, err)

	_, err = newViewer(failingReader{}).Export(context.Background(), &buf, "url_eau", "poromètre", "csv")
	var rerr *store.RemoteReadError
	assert.ErrorAs(t, err, &rerr)
}

func TestOptions(t *testing.T) {
	m := store.NewMemory()
	m.Seed("inscription", []string{"date", "NOMA", "plante_ID"},
		[]string{"01/10/2026", "12345678", "12345678"},
		[]string{"02/10/2026", "87654321", "87654321"},
		[]string{"09/10/2026", "12345678", "12345678_B"},
		[]string{"09/10/2026", "12345678", "12345678_B"},
		[]string{"10/10/2026", "", ""},
	)
	opts, err := newViewer(m).Options(context.Background(), "inscription", "plante_ID")
	require.NoError(t, err)
	assert.Equal(t, []string{"12345678", "87654321", "12345678_B"}, opts)
}
