package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type createCategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Icon string `json:"icon"`
}

type updateCategoryRequest struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.categories.Create(r.Context(), UserID(r.Context()), services.CreateCategoryParams{
		Name: req.Name,
		Type: core.CategoryType(req.Type),
		Icon: req.Icon,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{"category": toCategoryJSON(created)})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.ListVisible(r.Context(), UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"categories": toCategoryJSONList(cats)})
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	cat, err := s.categories.Get(r.Context(), id, UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if cat == nil {
		respondError(w, r, core.NewNotFoundf("category %d not found", id))
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"category": toCategoryJSON(*cat)})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	userID := UserID(r.Context())
	updated, err := s.categories.Update(r.Context(), id, userID, core.CategoryPatch{
		Name: req.Name,
		Icon: req.Icon,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummaries(userID)
	writeSuccess(w, http.StatusOK, envelope{"category": toCategoryJSON(updated)})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	userID := UserID(r.Context())
	deleted, err := s.categories.Delete(r.Context(), id, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidateSummaries(userID)
	writeSuccess(w, http.StatusOK, envelope{"category": toCategoryJSON(deleted)})
}
