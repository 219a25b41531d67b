package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aura/internal/core"
	"aura/internal/services"
)

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Bills.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Bills.Get(r.Context(), userID(r), chi.URLParam(r, "billID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var b core.Bill
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = ""
	saved, err := s.svc.Bills.Create(r.Context(), userID(r), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var b core.Bill
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = chi.URLParam(r, "billID")
	saved, err := s.svc.Bills.Update(r.Context(), userID(r), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Bills.Delete(r.Context(), userID(r), chi.URLParam(r, "billID")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Bills.Pay(r.Context(), userID(r), chi.URLParam(r, "billID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleBillCalendar serves ?year=&month=, defaulting to the current month.
func (s *Server) handleBillCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, err := intParam(r, "year", now.Year(), 1970, 9999)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, err := intParam(r, "month", int(now.Month()), 1, 12)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cal, err := s.svc.Bills.Calendar(r.Context(), userID(r), year, time.Month(month))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (s *Server) handleUpcomingBills(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", services.UpcomingDays, 1, 366)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.svc.Bills.Upcoming(r.Context(), userID(r), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
