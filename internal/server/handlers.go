package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gapdash/internal/export"
	"gapdash/internal/logging"
	"gapdash/internal/query"
	"gapdash/internal/render"
	"gapdash/internal/view"
)

// SelectionFromQuery reads view, continent, year and variable parameters.
// Unparseable values stay zero and are replaced by defaults later.
func SelectionFromQuery(q url.Values) view.Selection {
	year, _ := strconv.Atoi(strings.TrimSpace(q.Get("year")))
	return view.Selection{
		View:      view.View(q.Get("view")),
		Continent: q.Get("continent"),
		Year:      year,
		Variable:  q.Get("variable"),
	}
}

// Query encodes a selection as URL parameters.
func Query(sel view.Selection) url.Values {
	q := url.Values{}
	q.Set("view", string(sel.View))
	if sel.Continent != "" {
		q.Set("continent", sel.Continent)
	}
	if sel.Year != 0 {
		q.Set("year", strconv.Itoa(sel.Year))
	}
	if sel.Variable != "" {
		q.Set("variable", sel.Variable)
	}
	return q
}

type viewOption struct {
	ID    view.View `json:"id"`
	Label string    `json:"label"`
}

// OptionsResponse lists every control value the page can offer.
type OptionsResponse struct {
	Views      []viewOption   `json:"views"`
	Continents []string       `json:"continents"`
	Years      []int          `json:"years"`
	Variables  []string       `json:"variables"`
	Default    view.Selection `json:"default"`
}

func (s *Server) options() OptionsResponse {
	ds := s.gen.Dataset()
	resp := OptionsResponse{
		Continents: []string{},
		Years:      []int{},
		Default:    s.gen.Normalize(view.Selection{}),
	}
	for _, v := range view.Views {
		resp.Views = append(resp.Views, viewOption{ID: v, Label: v.Label()})
	}
	for _, m := range query.Metrics {
		resp.Variables = append(resp.Variables, m.Name)
	}
	if ds != nil {
		resp.Continents = ds.Continents()
		resp.Years = ds.Years()
	}
	return resp
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.options())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	art := s.gen.Regenerate(SelectionFromQuery(r.URL.Query()))
	logging.ServerDebug("Regenerated %s (%d table rows)", art.Selection.View, len(art.Table.Rows))
	body, err := encodeJSON(art)
	if err != nil {
		body, err = encodeJSON(view.Failure(art.Selection, fmt.Errorf("encode %s view: %w", art.Selection.View, err)))
	}
	if err != nil {
		logging.ServerError("Encode error artifact: %v", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	writeBody(w, http.StatusOK, body)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(strings.TrimPrefix(r.URL.Path, "/export."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		table view.Table
		name  string
		sheet string
	)
	if r.URL.Query().Get("scope") == "full" {
		if s.gen.Dataset() == nil {
			http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
			return
		}
		table = export.FullTable(s.gen.Dataset())
		name = export.FullDatasetFileName(format)
		sheet = string(view.ViewDataset)
	} else {
		art := s.gen.Regenerate(SelectionFromQuery(r.URL.Query()))
		if art.Failed() {
			http.Error(w, art.Err, http.StatusInternalServerError)
			return
		}
		table = art.Table
		name = export.FileName(art.Selection, format)
		sheet = string(art.Selection.View)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, sheet, table); err != nil {
		logging.ServerError("Export %s failed: %v", name, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	size := render.Size{}
	size.Width, _ = strconv.Atoi(q.Get("width"))
	size.Height, _ = strconv.Atoi(q.Get("height"))

	art := s.gen.Regenerate(SelectionFromQuery(q))
	var buf bytes.Buffer
	err := render.PNG(&buf, art, size)
	switch {
	case errors.Is(err, render.ErrNotChartable):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, render.ErrNoData):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		logging.ServerError("Chart render failed: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// writeJSON encodes v before touching the response so an encoding failure
// can still become a 500.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := encodeJSON(v)
	if err != nil {
		logging.ServerError("Encode response: %v", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	writeBody(w, status, body)
}

func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}
