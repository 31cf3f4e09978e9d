package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stefanbaur/errsight/internal/api/response"
	"github.com/stefanbaur/errsight/internal/store"
	"github.com/stefanbaur/errsight/pkg/models"
)

const defaultBatchPageSize = 20

// NewUploadListHandler returns GET /api/v1/uploads: the archived upload
// batches, newest first.
func NewUploadListHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := pageParams(r, defaultBatchPageSize)

		batches, total, err := s.ListUploadBatches(r.Context(), store.BatchFilter{
			Page:  page,
			Limit: limit,
		})
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list upload batches", nil)
			return
		}
		if batches == nil {
			batches = []*models.UploadBatch{}
		}

		response.Collection(w, batches, response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}

type batchDetail struct {
	Batch *models.UploadBatch  `json:"batch"`
	Files []*models.UploadFile `json:"files"`
}

// NewUploadGetHandler returns GET /api/v1/uploads/{batchID}: one archived
// batch with its file list.
func NewUploadGetHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "batchID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"batchID must be a valid UUID", nil)
			return
		}

		batch, files, err := s.GetUploadBatch(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND",
					"Upload batch not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to load upload batch", nil)
			return
		}
		if files == nil {
			files = []*models.UploadFile{}
		}

		response.JSON(w, batchDetail{Batch: batch, Files: files})
	}
}
