package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"tpcollect/pkg/export"
	"tpcollect/pkg/form"
	"tpcollect/pkg/history"
	"tpcollect/pkg/schema"
	"tpcollect/pkg/store"
)

const savedToast = "Données enregistrées !"

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Handler serves the data-entry pages.
type Handler struct {
	title      string
	controller *form.Controller
	viewer     *history.Viewer
}

func NewHandler(title string, controller *form.Controller, viewer *history.Viewer) *Handler {
	return &Handler{title: title, controller: controller, viewer: viewer}
}

func (h *Handler) getTab(w http.ResponseWriter, r *http.Request) {
	tab, s, ok := resolve(chi.URLParam(r, "tab"), r.URL.Query().Get("form"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess := form.NewSession(s, h.controller.Now())
	p := h.buildPage(r, tab, sess)
	h.render(w, http.StatusOK, p)
}

func (h *Handler) postSubmit(w http.ResponseWriter, r *http.Request) {
	tab, s, ok := resolve(chi.URLParam(r, "tab"), chi.URLParam(r, "schema"))
	if !ok || !contains(tab.Schemas, s.Key) {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		sendResponse(w, http.StatusBadRequest, "text/plain; charset=utf-8", []byte(err.Error()))
		return
	}
	sess := form.NewSession(s, h.controller.Now())
	for _, f := range s.Fields {
		if f.Kind != schema.KindDerived {
			sess.Set(f.Name, r.PostForm.Get(f.Name))
		}
	}

	status := http.StatusOK
	var toast, notice, errMsg string
	var problems []string
	_, err := h.controller.Submit(r.Context(), sess)
	var verr *form.ValidationError
	switch {
	case err == nil:
		toast = savedToast
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		if len(verr.Missing) > 0 {
			notice = form.MissingNotice
		}
		for _, fe := range verr.Invalid {
			problems = append(problems, fe.Error())
		}
	default:
		log.WithFields(log.Fields{"schema": s.Key}).WithError(err).Error("append failed")
		errMsg = "Erreur lors de l'enregistrement : " + err.Error()
		if errors.Is(err, store.ErrAuthConfiguration) {
			errMsg = "Configuration du compte de service invalide : " + err.Error()
		}
	}

	p := h.buildPage(r, tab, sess)
	p.Toast = toast
	p.Notice = notice
	p.Problems = problems
	p.Error = errMsg
	h.render(w, status, p)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	s, ok := schema.Lookup(chi.URLParam(r, "schema"))
	format := chi.URLParam(r, "format")
	if !ok || (format != export.FormatCSV && format != export.FormatXLSX) {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	name, err := h.viewer.Export(r.Context(), &buf, s.Resource, s.Label, format)
	if err != nil {
		log.WithFields(log.Fields{"schema": s.Key, "format": format}).WithError(err).Warn("export failed")
		sendResponse(w, http.StatusBadGateway, "text/plain; charset=utf-8",
			[]byte(fmt.Sprintf("Impossible de charger les données pour %s : %v", s.Label, err)))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	sendResponse(w, http.StatusOK, export.ContentType(format), buf.Bytes())
}

func (h *Handler) buildPage(r *http.Request, tab schema.Tab, sess *form.Session) page {
	ctx := r.Context()
	s := sess.Schema
	p := page{
		Title:    h.title,
		Tab:      tabLink{Key: tab.Key, Label: tab.Label},
		ExportTo: "/export/" + s.Key,
		ViewTo:   fmt.Sprintf("/tab/%s?form=%s", tab.Key, s.Key),
	}
	for _, t := range schema.Tabs() {
		p.Tabs = append(p.Tabs, tabLink{Key: t.Key, Label: t.Label, Active: t.Key == tab.Key})
	}
	if len(tab.Schemas) > 1 {
		for _, key := range tab.Schemas {
			other, _ := schema.Lookup(key)
			p.Schemas = append(p.Schemas, schemaLink{Key: key, Label: other.Title, Selected: key == s.Key})
		}
	}

	lookups := make(map[string][]string)
	var warning string
	for _, f := range s.Lookups() {
		opts, err := h.viewer.Options(ctx, f.Source, f.SourceColumn)
		if err != nil {
			log.WithFields(log.Fields{"resource": f.Source}).WithError(err).Warn("lookup unavailable")
			warning = fmt.Sprintf("Impossible de charger la liste %s : %v", f.Label, err)
			continue
		}
		lookups[f.Name] = opts
	}
	p.Form = formView{
		Key:     s.Key,
		Title:   s.Title,
		Action:  fmt.Sprintf("/tab/%s/submit/%s", tab.Key, s.Key),
		Inputs:  inputs(s, sess.Values, lookups),
		Warning: warning,
	}
	p.History = h.viewer.Render(ctx, s.Resource, s.Label, r.URL.Query().Get("all") == "1")
	return p
}

func (h *Handler) render(w http.ResponseWriter, status int, p page) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		log.WithError(err).Error("render page")
		sendResponse(w, http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("render error"))
		return
	}
	sendResponse(w, status, "text/html; charset=utf-8", buf.Bytes())
}

func resolve(tabKey, schemaKey string) (schema.Tab, schema.Schema, bool) {
	tab, ok := schema.LookupTab(tabKey)
	if !ok {
		return schema.Tab{}, schema.Schema{}, false
	}
	if schemaKey == "" {
		schemaKey = tab.Schemas[0]
	}
	if !contains(tab.Schemas, schemaKey) {
		return schema.Tab{}, schema.Schema{}, false
	}
	s, ok := schema.Lookup(schemaKey)
	return tab, s, ok
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func sendResponse(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
