package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpcollect/pkg/cache"
	"tpcollect/pkg/form"
	"tpcollect/pkg/history"
	"tpcollect/pkg/metrics"
	"tpcollect/pkg/store"
)

var fixedNow = time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC)

type failingStore struct {
	*store.Memory
	err error
}

func (s *failingStore) Append(ctx context.Context, resource string, rec store.Record) error {
	return &store.RemoteWriteError{Resource: resource, Err: s.err}
}

func newTestServer(t *testing.T, s store.Store) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	now := func() time.Time { return fixedNow }
	c := cache.New(s, time.Minute, cache.WithClock(now), cache.WithMetrics(m))
	h := NewHandler("TP test", form.NewController(s, c, form.WithClock(now), form.WithMetrics(m)), history.NewViewer(c, now))
	srv := httptest.NewServer(GetRouter(h, reg))
	t.Cleanup(srv.Close)
	return srv
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	client := &http.Client{CheckRedirect: noRedirect}
	resp, err := client.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func post(t *testing.T, srv *httptest.Server, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := http.PostForm(srv.URL+path, values)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func eauValues() url.Values {
	return url.Values{
		"date":     {"2026-10-18"},
		"heure":    {"14:05"},
		"rang_f":   {"1-2"},
		"état_f":   {"Jeune"},
		"pos_f":    {"Base"},
		"face_f":   {"Abaxiale"},
		"cond":     {"2.50"},
		"PAR":      {""},
		"remarque": {""},
	}
}

func TestIndexRedirects(t *testing.T) {
	srv := newTestServer(t, store.NewMemory())
	resp, _ := get(t, srv, "/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tab/eau", resp.Header.Get("Location"))
}

func TestGetTab(t *testing.T) {
	srv := newTestServer(t, store.NewMemory())

	resp, body := get(t, srv, "/tab/eau")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "TP1 : l&#39;eau")
	assert.Contains(t, body, `value="2026-10-18"`)
	assert.Contains(t, body, "Aucune donnée pour le moment.")

	resp, body = get(t, srv, "/tab/photo?form=fluo")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Fluorimètre : ajouter une mesure")
	assert.Contains(t, body, `action="/tab/photo/submit/fluo"`)

	resp, _ = get(t, srv, "/tab/photo?form=eau")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = get(t, srv, "/tab/chimie")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitAppendsAndShowsHistory(t *testing.T) {
	mem := store.NewMemory()
	srv := newTestServer(t, mem)

	resp, body := post(t, srv, "/tab/eau/submit/eau", eauValues())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, savedToast)
	assert.Contains(t, body, "<td>Abaxiale</td>")
	assert.Contains(t, body, "<td>18/10/2026</td>")

	tbl, err := mem.ReadAll(context.Background(), "url_eau")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, []string{"18/10/2026", "14:05", "1-2", "Jeune", "Base", "Abaxiale", "2.5", "", ""}, tbl.Rows[0])
}

func TestSubmitMissingFieldRetainsValues(t *testing.T) {
	mem := store.NewMemory()
	srv := newTestServer(t, mem)
	values := eauValues()
	values.Set("cond", "")
	values.Set("remarque", "à refaire")

	resp, body := post(t, srv, "/tab/eau/submit/eau", values)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 1, strings.Count(body, form.MissingNotice))
	assert.Contains(t, body, "à refaire")
	assert.Contains(t, body, `<option value="Jeune" selected>`)

	tbl, err := mem.ReadAll(context.Background(), "url_eau")
	require.NoError(t, err)
	assert.True(t, tbl.Empty())
}

func TestSubmitStoreFailureIsInline(t *testing.T) {
	srv := newTestServer(t, &failingStore{Memory: store.NewMemory(), err: errors.New("403 forbidden")})

	resp, body := post(t, srv, "/tab/eau/submit/eau", eauValues())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Erreur lors de l&#39;enregistrement")
	assert.Contains(t, body, "403 forbidden")
	assert.Contains(t, body, `value="2.50"`)
}

func TestSubmitWrongTab(t *testing.T) {
	srv := newTestServer(t, store.NewMemory())
	resp, _ := post(t, srv, "/tab/eau/submit/irga", url.Values{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSunflowerLookupOptions(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed("listing_etudiants", []string{"NOMA", "nom"}, []string{"12345678", "Dupont"}, []string{"87654321", "Martin"})
	srv := newTestServer(t, mem)

	_, body := get(t, srv, "/tab/tournesol?form=inscription")
	assert.Contains(t, body, `<option value="12345678">12345678</option>`)
	assert.Contains(t, body, `<option value="87654321">87654321</option>`)

	resp, _ := post(t, srv, "/tab/tournesol/submit/inscription", url.Values{
		"date":             {"2026-10-01"},
		"NOMA":             {"12345678"},
		"second_tournesol": {"on"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	tbl, err := mem.ReadAll(context.Background(), "inscription")
	require.NoError(t, err)
	assert.Equal(t, []string{"12345678_B"}, tbl.Column("plante_ID"))

	_, body = get(t, srv, "/tab/tournesol?form=obs_plante")
	assert.Contains(t, body, `<option value="12345678_B">12345678_B</option>`)
}

func TestExport(t *testing.T) {
	mem := store.NewMemory()
	mem.Seed("url_irga", []string{"date", "A"}, []string{"18/10/2026", "4.2"})
	srv := newTestServer(t, mem)

	resp, body := get(t, srv, "/export/irga.csv")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "export_irga_18_10_2026.csv")
	assert.Equal(t, "\xEF\xBB\xBFdate,A\n18/10/2026,4.2\n", body)

	resp, _ = get(t, srv, "/export/irga.xlsx")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "export_irga_18_10_2026.xlsx")

	resp, _ = get(t, srv, "/export/irga.pdf")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthzAndMetrics(t *testing.T) {
	srv := newTestServer(t, store.NewMemory())
	resp, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	_, _ = get(t, srv, "/tab/eau")
	resp, body = get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "tpcollect_cache_lookups_total")
}

func TestHistoryToggleAfterSubmit(t *testing.T) {
	srv := newTestServer(t, store.NewMemory())

	_, body := post(t, srv, "/tab/eau/submit/eau", eauValues())
	require.Contains(t, body, savedToast)
	assert.Contains(t, body, `href="/tab/eau?form=eau&amp;all=1"`)

	resp, body := get(t, srv, "/tab/eau?form=eau&all=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/tab/eau?form=eau"`)
	assert.Contains(t, body, "<td>Abaxiale</td>")

	values := eauValues()
	values.Set("cond", "")
	_, body = post(t, srv, "/tab/eau/submit/eau", values)
	assert.Contains(t, body, `href="/tab/eau?form=eau&amp;all=1"`)
}
