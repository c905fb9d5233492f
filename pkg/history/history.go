// Package history renders what has been recorded so far in a resource.
package history

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"tpcollect/pkg/export"
	"tpcollect/pkg/store"
)

// TailSize is how many rows are shown unless the full history is asked for.
const TailSize = 10

const (
	EmptyNotice   = "Aucune donnée pour le moment."
	TailCaption   = "Affichage des 10 dernières entrées."
	warningFormat = "Impossible de charger les données pour %s. Vérifiez l'URL et les accès. Erreur: %v"
)

// Source is a cached reader.
type Source interface {
	GetOrFetch(ctx context.Context, key string) (store.Table, error)
}

type View struct {
	Resource string
	Label    string
	Header   []string
	Rows     [][]string
	Total    int
	ShowAll  bool
	Empty    bool
	Warning  string
	CSVName  string
	XLSXName string
}

// Caption is the note under a truncated table.
func (v View) Caption() string {
	if v.ShowAll || v.Empty || v.Warning != "" {
		return ""
	}
	return TailCaption
}

type Viewer struct {
	source Source
	now    func() time.Time
}

func NewViewer(source Source, now func() time.Time) *Viewer {
	if now == nil {
		now = time.Now
	}
	return &Viewer{source: source, now: now}
}

// Render never fails: a read error becomes a warning on the view.
func (v *Viewer) Render(ctx context.Context, resource, label string, showAll bool) View {
	view := View{Resource: resource, Label: label, ShowAll: showAll}
	t, err := v.source.GetOrFetch(ctx, resource)
	if err != nil {
		log.WithFields(log.Fields{"resource": resource}).WithError(err).Warn("history unavailable")
		view.Warning = fmt.Sprintf(warningFormat, label, err)
		view.Empty = true
		return view
	}
	if t.Empty() {
		view.Empty = true
		view.Header = t.Header
		return view
	}
	now := v.now()
	view.Total = t.Len()
	view.CSVName = export.FileName(label, export.FormatCSV, now)
	view.XLSXName = export.FileName(label, export.FormatXLSX, now)
	if !showAll {
		t = t.Tail(TailSize)
	}
	view.Header = t.Header
	view.Rows = t.Rows
	return view
}

// Export encodes the full cached table of resource, whatever the display
// toggle, and returns the download file name.
func (v *Viewer) Export(ctx context.Context, w io.Writer, resource, label, format string) (string, error) {
	t, err := v.source.GetOrFetch(ctx, resource)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	switch format {
	case export.FormatCSV:
		err = export.CSV(&buf, t)
	case export.FormatXLSX:
		err = export.XLSX(&buf, t, label)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return "", err
	}
	return export.FileName(label, format, v.now()), nil
}

// Options lists the distinct values of one column of resource, in first
// seen order. It feeds lookup selects such as the plant identifiers.
func (v *Viewer) Options(ctx context.Context, resource, column string) ([]string, error) {
	t, err := v.source.GetOrFetch(ctx, resource)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, value := range t.Column(column) {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out, nil
}
