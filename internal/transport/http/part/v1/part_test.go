package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhildabhi034/assembly-inventory/internal/model"
	"github.com/nikhildabhi034/assembly-inventory/platform/logger"
)

type fakePartService struct {
	createFn   func(ctx context.Context, params model.CreatePartParams) (*model.Part, error)
	adjustFn   func(ctx context.Context, partID uuid.UUID, delta int64) (*model.AdjustQuantityResult, error)
	partByIDFn func(ctx context.Context, partID uuid.UUID) (*model.PartWithComponents, error)
	listFn     func(ctx context.Context) ([]model.PartWithComponents, error)
}

func (f *fakePartService) Create(ctx context.Context, params model.CreatePartParams) (*model.Part, error) {
	return f.createFn(ctx, params)
}

func (f *fakePartService) AdjustQuantity(ctx context.Context, partID uuid.UUID, delta int64) (*model.AdjustQuantityResult, error) {
	return f.adjustFn(ctx, partID, delta)
}

func (f *fakePartService) PartByID(ctx context.Context, partID uuid.UUID) (*model.PartWithComponents, error) {
	return f.partByIDFn(ctx, partID)
}

func (f *fakePartService) List(ctx context.Context) ([]model.PartWithComponents, error) {
	return f.listFn(ctx)
}

func newTestRouter(svc PartService) *chi.Mux {
	r := chi.NewRouter()
	NewPartHandler(svc).Register(r)
	return r
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &out))
	return out
}

func TestHandlerCreatePart(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()

	newID := uuid.New()
	componentID := uuid.New()

	tests := []struct {
		name       string
		body       string
		createFn   func(ctx context.Context, params model.CreatePartParams) (*model.Part, error)
		wantStatus int
		assert     func(t *testing.T, env map[string]any)
	}{
		{
			name: "invalid json",
			body: "{not json",
			createFn: func(context.Context, model.CreatePartParams) (*model.Part, error) {
				// Reaching the service here would surface as a 500.
				return nil, errors.New("service must not be called")
			},
			wantStatus: http.StatusBadRequest,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
			},
		},
		{
			name: "invalid component id",
			body: `{"name":"Widget","type":"ASSEMBLED","components":[{"id":"not-a-uuid","quantity":1}]}`,
			createFn: func(context.Context, model.CreatePartParams) (*model.Part, error) {
				return nil, errors.New("service must not be called")
			},
			wantStatus: http.StatusBadRequest,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
				assert.Contains(t, env["message"], "invalid component part id")
			},
		},
		{
			name: "validation error maps to 400",
			body: `{"name":"B","type":"RAW"}`,
			createFn: func(context.Context, model.CreatePartParams) (*model.Part, error) {
				return nil, fmt.Errorf("part.service.Create: %w", model.ErrValidation)
			},
			wantStatus: http.StatusBadRequest,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
			},
		},
		{
			name: "duplicate name maps to 409",
			body: `{"name":"Bolt","type":"RAW"}`,
			createFn: func(context.Context, model.CreatePartParams) (*model.Part, error) {
				return nil, fmt.Errorf("part.service.Create: %w", model.ErrDuplicatePartName)
			},
			wantStatus: http.StatusConflict,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
			},
		},
		{
			name: "missing components map to 404",
			body: `{"name":"Widget","type":"ASSEMBLED","components":[{"id":"` + componentID.String() + `","quantity":1}]}`,
			createFn: func(context.Context, model.CreatePartParams) (*model.Part, error) {
				return nil, fmt.Errorf("part.service.Create: %w", model.ErrComponentPartsNotFound)
			},
			wantStatus: http.StatusNotFound,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
			},
		},
		{
			name: "circular dependency maps to 400",
			body: `{"name":"Widget","type":"ASSEMBLED","components":[{"id":"` + componentID.String() + `","quantity":1}]}`,
			createFn: func(context.Context, model.CreatePartParams) (*model.Part, error) {
				return nil, fmt.Errorf("part.service.Create: %w", model.ErrCircularDependency)
			},
			wantStatus: http.StatusBadRequest,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
			},
		},
		{
			name: "success returns 201 with the created part",
			body: `{"name":"Bolt","type":"RAW","description":"steel M8"}`,
			createFn: func(_ context.Context, params model.CreatePartParams) (*model.Part, error) {
				return &model.Part{
					ID:          newID,
					Name:        params.Name,
					Type:        params.Type,
					Description: params.Description,
					CreatedAt:   time.Now(),
					UpdatedAt:   time.Now(),
				}, nil
			},
			wantStatus: http.StatusCreated,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "SUCCESS", env["status"])

				data, ok := env["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, newID.String(), data["id"])
				assert.Equal(t, "Bolt", data["name"])
				assert.Equal(t, "RAW", data["type"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&fakePartService{createFn: tt.createFn})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/parts", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			tt.assert(t, decodeEnvelope(t, rec.Body))
		})
	}
}

func TestHandlerAdjustQuantity(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()

	partID := uuid.New()

	tests := []struct {
		name       string
		target     string
		body       string
		adjustFn   func(ctx context.Context, partID uuid.UUID, delta int64) (*model.AdjustQuantityResult, error)
		wantStatus int
		assert     func(t *testing.T, env map[string]any)
	}{
		{
			name:       "invalid part id",
			target:     "/api/v1/parts/not-a-uuid",
			body:       `{"quantity":1}`,
			wantStatus: http.StatusBadRequest,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
				assert.Equal(t, "invalid part id", env["message"])
			},
		},
		{
			name:   "business failure comes back as failed envelope",
			target: "/api/v1/parts/" + partID.String(),
			body:   `{"quantity":5}`,
			adjustFn: func(_ context.Context, id uuid.UUID, delta int64) (*model.AdjustQuantityResult, error) {
				return &model.AdjustQuantityResult{
					Status:  model.StatusFailed,
					Message: "Insufficient quantity of Bolt",
				}, nil
			},
			wantStatus: http.StatusOK,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
				assert.Equal(t, "Insufficient quantity of Bolt", env["message"])
			},
		},
		{
			name:   "success passes the delta through",
			target: "/api/v1/parts/" + partID.String(),
			body:   `{"quantity":-3}`,
			adjustFn: func(_ context.Context, id uuid.UUID, delta int64) (*model.AdjustQuantityResult, error) {
				if id != partID || delta != -3 {
					return nil, errors.New("unexpected arguments")
				}
				return &model.AdjustQuantityResult{
					Status:  model.StatusSuccess,
					Message: "Updated quantity for Bolt",
				}, nil
			},
			wantStatus: http.StatusOK,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "SUCCESS", env["status"])
				assert.Equal(t, "Updated quantity for Bolt", env["message"])
			},
		},
		{
			name:   "unexpected service error maps to 500",
			target: "/api/v1/parts/" + partID.String(),
			body:   `{"quantity":1}`,
			adjustFn: func(context.Context, uuid.UUID, int64) (*model.AdjustQuantityResult, error) {
				return nil, errors.New("db write failed")
			},
			wantStatus: http.StatusInternalServerError,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&fakePartService{adjustFn: tt.adjustFn})

			req := httptest.NewRequest(http.MethodPost, tt.target, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			tt.assert(t, decodeEnvelope(t, rec.Body))
		})
	}
}

func TestHandlerPartByID(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()

	widgetID := uuid.New()
	boltID := uuid.New()

	tests := []struct {
		name       string
		target     string
		partByIDFn func(ctx context.Context, partID uuid.UUID) (*model.PartWithComponents, error)
		wantStatus int
		assert     func(t *testing.T, env map[string]any)
	}{
		{
			name:       "invalid part id",
			target:     "/api/v1/parts/42",
			wantStatus: http.StatusBadRequest,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
			},
		},
		{
			name:   "not found maps to 404",
			target: "/api/v1/parts/" + widgetID.String(),
			partByIDFn: func(context.Context, uuid.UUID) (*model.PartWithComponents, error) {
				return nil, fmt.Errorf("part.service.PartByID: %w", model.ErrPartNotFound)
			},
			wantStatus: http.StatusNotFound,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "FAILED", env["status"])
			},
		},
		{
			name:   "assembled part includes its components",
			target: "/api/v1/parts/" + widgetID.String(),
			partByIDFn: func(context.Context, uuid.UUID) (*model.PartWithComponents, error) {
				return &model.PartWithComponents{
					Part: model.Part{
						ID:              widgetID,
						Name:            "Widget",
						Type:            model.TypeAssembled,
						QuantityInStock: 4,
					},
					Components: []model.ComponentRef{
						{ID: boltID, Name: "Bolt", Quantity: 2},
					},
				}, nil
			},
			wantStatus: http.StatusOK,
			assert: func(t *testing.T, env map[string]any) {
				assert.Equal(t, "SUCCESS", env["status"])

				data, ok := env["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "Widget", data["name"])

				components, ok := data["components"].([]any)
				require.True(t, ok)
				require.Len(t, components, 1)

				comp, ok := components[0].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, boltID.String(), comp["id"])
				assert.Equal(t, "Bolt", comp["name"])
				assert.EqualValues(t, 2, comp["quantity"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&fakePartService{partByIDFn: tt.partByIDFn})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			tt.assert(t, decodeEnvelope(t, rec.Body))
		})
	}
}

func TestHandlerListParts(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()

	boltID := uuid.New()

	t.Run("service error maps to 500", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&fakePartService{
			listFn: func(context.Context) ([]model.PartWithComponents, error) {
				return nil, errors.New("db read failed")
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/parts", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		env := decodeEnvelope(t, rec.Body)
		assert.Equal(t, "FAILED", env["status"])
	})

	t.Run("returns every part", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&fakePartService{
			listFn: func(context.Context) ([]model.PartWithComponents, error) {
				return []model.PartWithComponents{
					{Part: model.Part{ID: boltID, Name: "Bolt", Type: model.TypeRaw, QuantityInStock: 10}},
				}, nil
			},
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/parts", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec.Body)
		assert.Equal(t, "SUCCESS", env["status"])

		data, ok := env["data"].([]any)
		require.True(t, ok)
		require.Len(t, data, 1)

		part, ok := data[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Bolt", part["name"])
		assert.EqualValues(t, 10, part["quantity_in_stock"])
	})
}
