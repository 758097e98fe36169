// Package handler wires the complaint HTTP endpoints to the complaint
// service. It owns request decoding, parameter parsing, and the external
// response projection; all decisions live in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/complaint/service"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/platform/httputil"
	"complaintdesk/pkg/requestcontext"
)

const (
	defaultPageNumber = 0
	defaultPageSize   = 10
)

// Service defines the interface for complaint operations.
type Service interface {
	Submit(ctx context.Context, req service.SubmitRequest) (*models.Complaint, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (*models.Complaint, error)
	List(ctx context.Context, filter service.ListFilter, page models.PageRequest) (*models.Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
}

// Handler handles complaint-related endpoints.
type Handler struct {
	logger     *slog.Logger
	complaints Service
}

// New creates a new complaint Handler.
func New(complaints Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		complaints: complaints,
	}
}

// Register registers the complaint routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/complaints", func(r chi.Router) {
		r.Post("/", h.handleSubmit)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGetByID)
		r.Put("/{id}", h.handleUpdateContent)
	})
}

// handleSubmit records a complaint, merging duplicates for the same
// (productId, complainant) pair.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submit request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	complaint, err := h.complaints.Submit(ctx, service.SubmitRequest{
		ProductID:   req.ProductID,
		Complainant: req.Complainant,
		Content:     req.Content,
		SourceAddr:  requestcontext.ClientIP(ctx),
	})
	if err != nil {
		h.writeServiceError(ctx, w, "submit complaint", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toComplaintResponse(complaint))
}

// handleUpdateContent replaces the content of an existing complaint.
func (h *Handler) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid complaint id"))
		return
	}

	var req updateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid update request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	complaint, err := h.complaints.UpdateContent(ctx, id, req.Content)
	if err != nil {
		h.writeServiceError(ctx, w, "update complaint", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toComplaintResponse(complaint))
}

// handleList serves paginated, filterable complaint listings. Filters apply
// by presence, not value: productId is an exact match, complainant a
// case-insensitive substring.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var filter service.ListFilter
	if query.Has("productId") {
		productID, err := strconv.ParseInt(query.Get("productId"), 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid productId"))
			return
		}
		filter.ProductID = &productID
	}
	if query.Has("complainant") {
		complainant := query.Get("complainant")
		filter.Complainant = &complainant
	}

	page, err := parsePageRequest(query.Get("page"), query.Get("size"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.complaints.List(ctx, filter, page)
	if err != nil {
		h.writeServiceError(ctx, w, "list complaints", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toPageResponse(result))
}

// handleGetByID serves a single complaint by id.
func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid complaint id"))
		return
	}

	complaint, err := h.complaints.GetByID(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "get complaint", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toComplaintResponse(complaint))
}

func parsePageRequest(pageParam, sizeParam string) (models.PageRequest, error) {
	page := models.PageRequest{Number: defaultPageNumber, Size: defaultPageSize}
	if pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 0 {
			return page, dErrors.New(dErrors.CodeBadRequest, "invalid page")
		}
		page.Number = n
	}
	if sizeParam != "" {
		n, err := strconv.Atoi(sizeParam)
		if err != nil || n < 1 {
			return page, dErrors.New(dErrors.CodeBadRequest, "invalid size")
		}
		page.Size = n
	}
	return page, nil
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
