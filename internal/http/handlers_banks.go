package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"aura/internal/core"
)

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.svc.Banks.ListBanks(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, banks)
}

func (s *Server) handleGetBank(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Banks.GetBank(r.Context(), userID(r), chi.URLParam(r, "bankID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	var b core.Bank
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = ""
	saved, err := s.svc.Banks.CreateBank(r.Context(), userID(r), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateBank(w http.ResponseWriter, r *http.Request) {
	var b core.Bank
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = chi.URLParam(r, "bankID")
	saved, err := s.svc.Banks.UpdateBank(r.Context(), userID(r), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteBank(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Banks.DeleteBank(r.Context(), userID(r), chi.URLParam(r, "bankID")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (s *Server) handleListBankAccounts(w http.ResponseWriter, r *http.Request) {
	ctx, uid, bankID := r.Context(), userID(r), chi.URLParam(r, "bankID")
	// Surface a 404 for unknown banks instead of an empty list.
	if _, err := s.svc.Banks.GetBank(ctx, uid, bankID); err != nil {
		writeError(w, r, err)
		return
	}
	accounts, err := s.svc.Banks.ListAccounts(ctx, uid, bankID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.BankAccount
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = ""
	a.BankID = chi.URLParam(r, "bankID")
	saved, err := s.svc.Banks.CreateAccount(r.Context(), userID(r), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleListAccounts lists every account, or those of ?bank=.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Banks.ListAccounts(r.Context(), userID(r), r.URL.Query().Get("bank"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Banks.GetAccount(r.Context(), userID(r), chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, uid, id := r.Context(), userID(r), chi.URLParam(r, "accountID")
	var a core.BankAccount
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	// A body without bankId keeps the account in its current bank.
	if a.BankID == "" {
		cur, err := s.svc.Banks.GetAccount(ctx, uid, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		a.BankID = cur.BankID
	}
	a.ID = id
	saved, err := s.svc.Banks.UpdateAccount(ctx, uid, a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Banks.DeleteAccount(r.Context(), userID(r), chi.URLParam(r, "accountID")); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.svc.Banks.TotalBalance(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}
