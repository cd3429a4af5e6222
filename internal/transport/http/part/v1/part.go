package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nikhildabhi034/assembly-inventory/internal/model"
	"github.com/nikhildabhi034/assembly-inventory/platform/logger"
)

type PartService interface {
	Create(ctx context.Context, params model.CreatePartParams) (*model.Part, error)
	AdjustQuantity(ctx context.Context, partID uuid.UUID, delta int64) (*model.AdjustQuantityResult, error)
	PartByID(ctx context.Context, partID uuid.UUID) (*model.PartWithComponents, error)
	List(ctx context.Context) ([]model.PartWithComponents, error)
}

type handler struct {
	svc PartService
}

func NewPartHandler(service PartService) *handler {
	return &handler{svc: service}
}

func (h *handler) Register(r chi.Router) {
	r.Route("/api/v1/parts", func(r chi.Router) {
		r.Post("/", h.CreatePart)
		r.Get("/", h.ListParts)
		r.Post("/{partID}", h.AdjustQuantity)
		r.Get("/{partID}", h.PartByID)
	})
}

type createPartRequest struct {
	Name        string                  `json:"name"`
	Type        string                  `json:"type"`
	Description *string                 `json:"description"`
	Components  []componentInputRequest `json:"components"`
}

type componentInputRequest struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
}

type adjustQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

type componentRefResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type partResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Type            string                 `json:"type"`
	QuantityInStock int64                  `json:"quantity_in_stock"`
	Description     *string                `json:"description,omitempty"`
	Components      []componentRefResponse `json:"components,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *handler) CreatePart(w http.ResponseWriter, r *http.Request) {
	var req createPartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return
	}

	params, err := createPartRequestToParams(req)
	if err != nil {
		writeFailed(r.Context(), w, http.StatusBadRequest, err.Error())
		return
	}

	part, err := h.svc.Create(r.Context(), params)
	if err != nil {
		writeFailed(r.Context(), w, mapErrorToStatus(err), err.Error())
		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, envelope{
		Status: string(model.StatusSuccess),
		Data:   partToResponse(part, nil),
	})
}

func (h *handler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	partID, err := uuid.Parse(chi.URLParam(r, "partID"))
	if err != nil {
		writeFailed(r.Context(), w, http.StatusBadRequest, "invalid part id")
		return
	}

	var req adjustQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailed(r.Context(), w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.AdjustQuantity(r.Context(), partID, req.Quantity)
	if err != nil {
		writeFailed(r.Context(), w, mapErrorToStatus(err), err.Error())
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, envelope{
		Status:  string(res.Status),
		Message: res.Message,
	})
}

func (h *handler) PartByID(w http.ResponseWriter, r *http.Request) {
	partID, err := uuid.Parse(chi.URLParam(r, "partID"))
	if err != nil {
		writeFailed(r.Context(), w, http.StatusBadRequest, "invalid part id")
		return
	}

	part, err := h.svc.PartByID(r.Context(), partID)
	if err != nil {
		writeFailed(r.Context(), w, mapErrorToStatus(err), err.Error())
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, envelope{
		Status: string(model.StatusSuccess),
		Data:   partToResponse(&part.Part, part.Components),
	})
}

func (h *handler) ListParts(w http.ResponseWriter, r *http.Request) {
	parts, err := h.svc.List(r.Context())
	if err != nil {
		writeFailed(r.Context(), w, mapErrorToStatus(err), err.Error())
		return
	}

	data := lo.Map(parts, func(p model.PartWithComponents, _ int) partResponse {
		return partToResponse(&p.Part, p.Components)
	})

	writeJSON(r.Context(), w, http.StatusOK, envelope{
		Status: string(model.StatusSuccess),
		Data:   data,
	})
}

func createPartRequestToParams(req createPartRequest) (model.CreatePartParams, error) {
	components := make([]model.ComponentInput, 0, len(req.Components))
	for _, c := range req.Components {
		id, err := uuid.Parse(c.ID)
		if err != nil {
			return model.CreatePartParams{}, errors.New("invalid component part id: " + c.ID)
		}
		components = append(components, model.ComponentInput{ID: id, Quantity: c.Quantity})
	}

	return model.CreatePartParams{
		Name:        req.Name,
		Type:        model.PartType(req.Type),
		Description: req.Description,
		Components:  components,
	}, nil
}

func partToResponse(p *model.Part, components []model.ComponentRef) partResponse {
	return partResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		Type:            string(p.Type),
		QuantityInStock: p.QuantityInStock,
		Description:     p.Description,
		Components: lo.Map(components, func(c model.ComponentRef, _ int) componentRefResponse {
			return componentRefResponse{
				ID:       c.ID.String(),
				Name:     c.Name,
				Quantity: c.Quantity,
			}
		}),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrCircularDependency):
		return http.StatusBadRequest // 400
	case errors.Is(err, model.ErrPartNotFound),
		errors.Is(err, model.ErrComponentPartsNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, model.ErrDuplicatePartName):
		return http.StatusConflict // 409
	default:
		return http.StatusInternalServerError // 500
	}
}

func writeFailed(ctx context.Context, w http.ResponseWriter, code int, msg string) {
	writeJSON(ctx, w, code, envelope{
		Status:  string(model.StatusFailed),
		Message: msg,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(ctx, "write response", logger.ErrorF(err))
	}
}
