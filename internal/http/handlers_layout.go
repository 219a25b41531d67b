package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aura/internal/layout"
)

type reorderRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type resizeRequest struct {
	Size string `json:"size"`
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Layouts.Get(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleReorder swaps two enabled widgets.
func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var in reorderRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.A == "" || in.B == "" {
		writeError(w, r, badRequest("both a and b widget ids are required"))
		return
	}
	s.respondLayout(w, r)(s.svc.Layouts.Reorder(r.Context(), userID(r), in.A, in.B))
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var in resizeRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := layout.ParseSize(in.Size); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondLayout(w, r)(s.svc.Layouts.Resize(r.Context(), userID(r), chi.URLParam(r, "widgetID"), in.Size))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.respondLayout(w, r)(s.svc.Layouts.Toggle(r.Context(), userID(r), chi.URLParam(r, "widgetID")))
}

func (s *Server) handleGetWidgetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.Layouts.WidgetConfig(r.Context(), userID(r), chi.URLParam(r, "widgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cfg == nil {
		cfg = layout.Config{}
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleUpdateWidgetConfig merges the body into the widget's settings; a
// null value removes the key.
func (s *Server) handleUpdateWidgetConfig(w http.ResponseWriter, r *http.Request) {
	var patch layout.Config
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondLayout(w, r)(s.svc.Layouts.UpdateConfig(r.Context(), userID(r), chi.URLParam(r, "widgetID"), patch))
}

func (s *Server) handleSetGrid(w http.ResponseWriter, r *http.Request) {
	var g layout.Grid
	if err := decodeJSON(w, r, &g); err != nil {
		writeError(w, r, err)
		return
	}
	s.respondLayout(w, r)(s.svc.Layouts.SetGrid(r.Context(), userID(r), g))
}

func (s *Server) handleResetLayout(w http.ResponseWriter, r *http.Request) {
	s.respondLayout(w, r)(s.svc.Layouts.Reset(r.Context(), userID(r)))
}

func (s *Server) handleExportLayout(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Layouts.Export(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="aura-layout.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImportLayout takes an exported document as the raw body.
func (s *Server) handleImportLayout(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondLayout(w, r)(s.svc.Layouts.Import(r.Context(), userID(r), data))
}

// respondLayout writes the outcome of a layout mutation.
func (s *Server) respondLayout(w http.ResponseWriter, r *http.Request) func(layout.State, error) {
	return func(st layout.State, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
