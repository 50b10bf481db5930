// Package wizard реализует конечный автомат мастера создания товара:
// три шага с пошаговой валидацией, терминальное состояние Submitted.
package wizard

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/internal/validation"
	"github.com/stockpilot/go-backend/pkg/e"
)

const (
	firstStep = 1
	lastStep  = 3
)

// Submitter сохраняет завершённый черновик товара.
// Реализуется продуктовым usecase.
type Submitter interface {
	CreateProduct(ctx context.Context, draft *domain.ProductDraft) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, draft *domain.ProductDraft) (*domain.Product, error)
}

// Machine — состояние одной сессии мастера. Экземпляр принадлежит ровно
// одной сессии; вызовы Edit/Next/Back/Submit обрабатываются строго в
// порядке обращения вызывающей стороны.
type Machine struct {
	form        validation.ProductForm
	productID   *int64 // заполнен в режиме редактирования
	step        int
	submitted   bool
	fieldErrors validation.FieldErrors
	submitError string
	submitter   Submitter
}

// New создаёт машину с пустым черновиком на первом шаге.
func New(submitter Submitter) *Machine {
	return &Machine{
		form: validation.ProductForm{
			LowStockThreshold: strconv.Itoa(10),
			IsActive:          true,
		},
		step:        firstStep,
		fieldErrors: validation.FieldErrors{},
		submitter:   submitter,
	}
}

// Hydrate создаёт машину по существующему товару (режим редактирования).
// Гидратация не продвигает шаг: мастер начинается с первого шага.
func Hydrate(p *domain.Product, submitter Submitter) *Machine {
	m := New(submitter)
	id := p.ID
	m.productID = &id

	m.form = validation.ProductForm{
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		SKU:               p.SKU,
		Tags:              slices.Clone(p.Tags),
		Price:             formatFloat(p.Price),
		Cost:              formatFloat(p.Cost),
		StockQuantity:     strconv.Itoa(p.StockQuantity),
		LowStockThreshold: strconv.Itoa(p.LowStockThreshold),
		Images:            slices.Clone(p.Images),
		IsActive:          p.IsActive,
	}
	if p.CompareAtPrice != nil {
		m.form.CompareAtPrice = formatFloat(*p.CompareAtPrice)
	}

	return m
}

// Edit обновляет поле черновика. Если на поле висела ошибка прошлой
// валидации, снимается только она; остальные ошибки не трогаются.
func (m *Machine) Edit(field, value string) {
	switch field {
	case "name":
		m.form.Name = value
	case "description":
		m.form.Description = value
	case "category":
		m.form.Category = value
	case "sku":
		m.form.SKU = value
	case "tags":
		// Список тегов ведётся отдельно от пошаговой валидации:
		// сырой ввод режется по запятым на каждом редактировании.
		m.form.Tags = splitTags(value)
	case "price":
		m.form.Price = value
	case "compareAtPrice":
		m.form.CompareAtPrice = value
	case "cost":
		m.form.Cost = value
	case "stockQuantity":
		m.form.StockQuantity = value
	case "lowStockThreshold":
		m.form.LowStockThreshold = value
	case "isActive":
		if v, err := strconv.ParseBool(value); err == nil {
			m.form.IsActive = v
		}
	default:
		return
	}

	delete(m.fieldErrors, field)
}

// Next валидирует текущий шаг. При успехе ошибки сбрасываются и мастер
// продвигается вперёд (дальше третьего шага — no-op). При неудаче шаг
// не меняется, а ошибки полей целиком пересчитываются.
func (m *Machine) Next() bool {
	if m.step >= lastStep {
		return false
	}

	_, errs := validation.ValidateStep(validation.Step(m.step), &m.form)
	if len(errs) > 0 {
		m.fieldErrors = errs
		return false
	}

	m.fieldErrors = validation.FieldErrors{}
	m.step++
	return true
}

// Back возвращает мастер на шаг назад без валидации и без потери данных.
func (m *Machine) Back() {
	if m.step > firstStep {
		m.step--
	}
}

// Submit завершает мастер. Третий шаг перепроверяется всегда, даже если
// Next его уже пропускал. Ошибка персистентности возвращает машину на
// третий шаг с нетронутым черновиком, чтобы повтор не требовал перевводов.
func (m *Machine) Submit(ctx context.Context) (*domain.Product, error) {
	if m.step != lastStep || m.submitted {
		return nil, e.ErrNotFinalStep
	}

	errs := validation.ValidateMedia(&m.form)
	pricing, pricingErrs := validation.ValidatePricing(&m.form)
	for field, msg := range pricingErrs {
		if _, ok := errs[field]; !ok {
			errs[field] = msg
		}
	}
	if len(errs) > 0 {
		m.fieldErrors = errs
		m.submitError = ""
		return nil, e.ErrValidationFailed
	}

	draft := m.buildDraft(pricing)

	var (
		product *domain.Product
		err     error
	)
	if m.productID != nil {
		product, err = m.submitter.UpdateProduct(ctx, *m.productID, draft)
	} else {
		product, err = m.submitter.CreateProduct(ctx, draft)
	}
	if err != nil {
		m.fieldErrors = validation.FieldErrors{}
		m.submitError = err.Error()
		return nil, err
	}

	m.fieldErrors = validation.FieldErrors{}
	m.submitError = ""
	m.submitted = true
	return product, nil
}

// SetImages заменяет список изображений черновика. Вызывается только
// после полного успеха пакета загрузки.
func (m *Machine) SetImages(urls []string) {
	m.form.Images = slices.Clone(urls)
	delete(m.fieldErrors, "images")
}

// RemoveImage удаляет изображение по позиции. Чисто локальная операция:
// удаление объекта из удалённого хранилища — отдельное явное действие.
func (m *Machine) RemoveImage(index int) bool {
	if index < 0 || index >= len(m.form.Images) {
		return false
	}
	m.form.Images = slices.Delete(slices.Clone(m.form.Images), index, index+1)
	return true
}

func (m *Machine) Step() int { return m.step }

func (m *Machine) Submitted() bool { return m.submitted }

func (m *Machine) SubmitError() string { return m.submitError }

func (m *Machine) ProductID() *int64 { return m.productID }

func (m *Machine) Images() []string { return slices.Clone(m.form.Images) }

func (m *Machine) Form() validation.ProductForm { return m.form }

func (m *Machine) FieldErrors() validation.FieldErrors { return m.fieldErrors }

func (m *Machine) buildDraft(pricing *validation.Pricing) *domain.ProductDraft {
	return &domain.ProductDraft{
		Name:              strings.TrimSpace(m.form.Name),
		Description:       strings.TrimSpace(m.form.Description),
		Category:          strings.TrimSpace(m.form.Category),
		SKU:               strings.TrimSpace(m.form.SKU),
		Tags:              slices.Clone(m.form.Tags),
		Price:             pricing.Price,
		CompareAtPrice:    pricing.CompareAtPrice,
		Cost:              pricing.Cost,
		StockQuantity:     pricing.StockQuantity,
		LowStockThreshold: pricing.LowStockThreshold,
		Images:            slices.Clone(m.form.Images),
		IsActive:          m.form.IsActive,
	}
}

// splitTags режет сырой ввод по запятым и обрезает пробелы.
// Пустые элементы отбрасываются.
func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
