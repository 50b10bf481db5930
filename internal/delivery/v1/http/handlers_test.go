package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/go-backend/internal/cfg"
	v1Http "github.com/stockpilot/go-backend/internal/delivery/v1/http"
	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/logger"
)

// ---- mock usecases ----

type mockProductUC struct {
	createErr error
	product   *domain.Product
	getErr    error
}

func (m *mockProductUC) CreateProduct(_ context.Context, draft *domain.ProductDraft) (*domain.Product, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &domain.Product{ID: 1, Name: draft.Name, SKU: draft.SKU, Price: draft.Price, Images: draft.Images}, nil
}

func (m *mockProductUC) UpdateProduct(_ context.Context, id int64, draft *domain.ProductDraft) (*domain.Product, error) {
	return &domain.Product{ID: id, Name: draft.Name}, nil
}

func (m *mockProductUC) DeleteProduct(_ context.Context, _ int64) error { return nil }

func (m *mockProductUC) GetProduct(_ context.Context, _ int64) (*domain.Product, error) {
	return m.product, m.getErr
}

func (m *mockProductUC) ListProducts(_ context.Context, _ *usecase.ProductFilter) ([]domain.Product, error) {
	return nil, nil
}

type mockStatsUC struct{}

func (m *mockStatsUC) GetDashboard(_ context.Context) (*usecase.DashboardStats, error) {
	return usecase.Aggregate(nil), nil
}

type mockImagesInfra struct {
	uploadErr error
}

func (m *mockImagesInfra) UploadImages(_ context.Context, req *usecase.UploadImagesReq) (*usecase.UploadImagesRes, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	urls := append([]string(nil), req.Existing...)
	for _, f := range req.Files {
		urls = append(urls, "u-"+f.Name)
	}
	return usecase.NewUploadImagesRes(urls), nil
}

func (m *mockImagesInfra) DeleteImage(_ context.Context, _ string) error { return nil }

func (m *mockImagesInfra) CleanupImages(_ []string) {}

func newTestRouter(prUC usecase.ProductUC) *chi.Mux {
	return newTestRouterWithInfra(prUC, &mockImagesInfra{})
}

func newTestRouterWithInfra(prUC usecase.ProductUC, infra usecase.ImagesInfra) *chi.Mux {
	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger.NewSlogLogger())
	router.Init(prUC, &mockStatsUC{}, infra, &cfg.MinIOCfg{
		ImagesQuota: 5,
		MaxFileSize: 10 << 20,
	})
	return r
}

func validProductBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"name":          "Wireless Mouse",
		"description":   "Ergonomic wireless mouse with USB receiver",
		"category":      "Electronics",
		"sku":           "WM-001",
		"price":         "29.99",
		"stockQuantity": 15,
		"images":        []string{"http://minio/images/products/a.jpg"},
	})
	require.NoError(t, err)
	return body
}

func TestCreateProduct(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r := newTestRouter(&mockProductUC{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(validProductBody(t)))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var res v1Http.ProductResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, int64(1), res.ID)
		assert.InDelta(t, 29.99, res.Price, 1e-9)
	})

	t.Run("validation errors as 422", func(t *testing.T) {
		r := newTestRouter(&mockProductUC{})

		body := []byte(`{"description":"short","price":"free"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var res v1Http.ValidationErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Contains(t, res.Errors, "name")
		assert.Contains(t, res.Errors, "price")
		assert.Contains(t, res.Errors, "images")
	})

	t.Run("duplicate sku as 409", func(t *testing.T) {
		r := newTestRouter(&mockProductUC{createErr: e.ErrDuplicateSKU})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(validProductBody(t)))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("numeric price accepted as json number", func(t *testing.T) {
		r := newTestRouter(&mockProductUC{})

		body := []byte(`{
			"name": "Wireless Mouse",
			"description": "Ergonomic wireless mouse with USB receiver",
			"category": "Electronics",
			"sku": "WM-001",
			"price": 29.99,
			"stockQuantity": "15",
			"images": ["http://minio/images/products/a.jpg"]
		}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestGetProduct_NotFound(t *testing.T) {
	r := newTestRouter(&mockProductUC{getErr: e.ErrProductNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	r := newTestRouter(&mockProductUC{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res usecase.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Len(t, res.StockData, 3)
	assert.Len(t, res.MonthlySales, 6)
}

func TestWizardFlow(t *testing.T) {
	r := newTestRouter(&mockProductUC{})

	do := func(method, path string, body []byte) *httptest.ResponseRecorder {
		var req *http.Request
		if body != nil {
			req = httptest.NewRequest(method, path, bytes.NewReader(body))
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	// Старт сессии
	rec := do(http.MethodPost, "/api/v1/wizard", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var state v1Http.WizardStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotEmpty(t, state.SessionID)
	assert.Equal(t, 1, state.Step)

	base := "/api/v1/wizard/" + state.SessionID

	// Невалидный шаг не продвигает мастер
	rec = do(http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 1, state.Step)
	assert.Contains(t, state.FieldErrors, "name")

	// Заполняем первый шаг
	for field, value := range map[string]string{
		"name":        "Wireless Mouse",
		"description": "Ergonomic wireless mouse with USB receiver",
		"category":    "Electronics",
		"sku":         "WM-001",
	} {
		body, _ := json.Marshal(map[string]string{"field": field, "value": value})
		rec = do(http.MethodPatch, base, body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = do(http.MethodPost, base+"/next", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 2, state.Step)

	// Второй шаг
	for field, value := range map[string]string{"price": "29.99", "stockQuantity": "15"} {
		body, _ := json.Marshal(map[string]string{"field": field, "value": value})
		do(http.MethodPatch, base, body)
	}
	rec = do(http.MethodPost, base+"/next", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Equal(t, 3, state.Step)

	// Сабмит без изображений — 422, сессия жива
	rec = do(http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Contains(t, state.FieldErrors, "images")

	rec = do(http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWizard_UploadFailureAsBadGateway(t *testing.T) {
	infra := &mockImagesInfra{uploadErr: e.Wrap("batch upload", e.ErrUploadFailed)}
	r := newTestRouterWithInfra(&mockProductUC{}, infra)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/wizard", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var state v1Http.WizardStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("images", "a.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizard/"+state.SessionID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var res v1Http.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, e.ErrUploadFailed.Error(), res.Message)
}

func TestWizard_SessionNotFound(t *testing.T) {
	r := newTestRouter(&mockProductUC{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wizard/nonexistent", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
