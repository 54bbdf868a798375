package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type createTransactionRequest struct {
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	CategoryID    int64           `json:"category_id"`
	Description   string          `json:"description"`
	DocumentURL   string          `json:"document_url"`
	Date          string          `json:"date"`
}

type updateTransactionRequest struct {
	Title         *string          `json:"title"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod *string          `json:"payment_method"`
	CategoryID    *int64           `json:"category_id"`
	Description   *string          `json:"description"`
	DocumentURL   *string          `json:"document_url"`
	Date          *string          `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	params := services.CreateTransactionParams{
		Title:         req.Title,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
		DocumentURL:   req.DocumentURL,
	}
	if req.Date != "" {
		date, err := core.ParseDate(req.Date)
		if err != nil {
			respondError(w, r, err)
			return
		}
		params.Date = date
	}

	userID := UserID(r.Context())
	created, err := s.transactions.Create(r.Context(), userID, params)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummaries(userID)
	writeSuccess(w, http.StatusCreated, envelope{"transaction": toTransactionJSON(created)})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	txs, err := s.transactions.List(r.Context(), UserID(r.Context()), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"transactions": toTransactionJSONList(txs)})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	tx, err := s.transactions.Get(r.Context(), id, UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if tx == nil {
		respondError(w, r, core.NewNotFoundf("transaction %d not found", id))
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"transaction": toTransactionJSON(*tx)})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	patch := core.TransactionPatch{
		Title:         req.Title,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		CategoryID:    req.CategoryID,
		Description:   req.Description,
		DocumentURL:   req.DocumentURL,
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			respondError(w, r, err)
			return
		}
		patch.Date = &date
	}

	userID := UserID(r.Context())
	updated, err := s.transactions.Update(r.Context(), id, userID, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummaries(userID)
	writeSuccess(w, http.StatusOK, envelope{"transaction": toTransactionJSON(updated)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	userID := UserID(r.Context())
	deleted, err := s.transactions.Delete(r.Context(), id, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummaries(userID)
	writeSuccess(w, http.StatusOK, envelope{"transaction": toTransactionJSON(deleted)})
}

func (s *Server) handleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	deleted, err := s.transactions.DeleteAll(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummaries(userID)
	writeSuccess(w, http.StatusOK, envelope{"deleted_count": len(deleted)})
}
