package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/internal/validation"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// ProductRequest — тело запроса создания/обновления товара. Числовые
// поля принимаются и строками, и числами: форма шлёт строки.
type ProductRequest struct {
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	SKU               string     `json:"sku"`
	Tags              []string   `json:"tags"`
	Price             flexString `json:"price"`
	CompareAtPrice    flexString `json:"compareAtPrice"`
	Cost              flexString `json:"cost"`
	StockQuantity     flexString `json:"stockQuantity"`
	LowStockThreshold flexString `json:"lowStockThreshold"`
	Images            []string   `json:"images"`
	IsActive          *bool      `json:"isActive"`
}

func (req *ProductRequest) toForm() *validation.ProductForm {
	form := &validation.ProductForm{
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		SKU:               req.SKU,
		Tags:              req.Tags,
		Price:             string(req.Price),
		CompareAtPrice:    string(req.CompareAtPrice),
		Cost:              string(req.Cost),
		StockQuantity:     string(req.StockQuantity),
		LowStockThreshold: string(req.LowStockThreshold),
		Images:            req.Images,
		IsActive:          true,
	}
	if req.IsActive != nil {
		form.IsActive = *req.IsActive
	}
	return form
}

// createProduct
//
//	@Summary		Создание товара
//	@Description	Создает товар в каталоге, валидируя все поля разом
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		ProductRequest	true	"Поля товара"
//	@Success		201		{object}	ProductResponse	"Созданный товар"
//	@Failure		422		{object}	ValidationErrorResponse	"Ошибки валидации"
//	@Failure		409		{object}	ErrorResponse	"Дубликат SKU"
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.logger.Warnf("%d decode failed: %s", http.StatusBadRequest, err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	draft, errs := buildDraft(&req)
	if len(errs) > 0 {
		WriteValidationErrors(w, errs)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), draft)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, NewProductResponse(product))
}

// updateProduct
//
//	@Summary	Обновление товара
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int				true	"ID товара"
//	@Param		product	body		ProductRequest	true	"Поля товара"
//	@Success	200		{object}	ProductResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	422		{object}	ValidationErrorResponse
//	@Router		/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.logger.Warnf("%d decode failed: %s", http.StatusBadRequest, err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	draft, errs := buildDraft(&req)
	if len(errs) > 0 {
		WriteValidationErrors(w, errs)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), id, draft)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductResponse(product))
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		products
//	@Param		id	path	int	true	"ID товара"
//	@Success	204	"Удалено"
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getProduct
//
//	@Summary	Карточка товара
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductResponse(product))
}

// listProducts
//
//	@Summary	Список товаров
//	@Tags		products
//	@Produce	json
//	@Param		category	query		string	false	"Фильтр по категории"
//	@Param		search		query		string	false	"Поиск по названию, описанию и SKU"
//	@Param		isActive	query		bool	false	"Фильтр по статусу"
//	@Success	200			{array}		ProductResponse
//	@Router		/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter := &usecase.ProductFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}
	if raw := r.URL.Query().Get("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			WriteError(w, e.ErrStatusBadRequest)
			return
		}
		filter.IsActive = &active
	}

	products, err := p.productUsecase.ListProducts(r.Context(), filter)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductListResponse(products))
}

func buildDraft(req *ProductRequest) (*domain.ProductDraft, validation.FieldErrors) {
	form := req.toForm()
	pricing, errs := validation.ValidateAll(form)
	if len(errs) > 0 {
		return nil, errs
	}

	return &domain.ProductDraft{
		Name:              strings.TrimSpace(form.Name),
		Description:       strings.TrimSpace(form.Description),
		Category:          strings.TrimSpace(form.Category),
		SKU:               strings.TrimSpace(form.SKU),
		Tags:              form.Tags,
		Price:             pricing.Price,
		CompareAtPrice:    pricing.CompareAtPrice,
		Cost:              pricing.Cost,
		StockQuantity:     pricing.StockQuantity,
		LowStockThreshold: pricing.LowStockThreshold,
		Images:            form.Images,
		IsActive:          form.IsActive,
	}, nil
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
