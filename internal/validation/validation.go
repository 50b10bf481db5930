// Package validation реализует пошаговую валидацию формы товара.
// Функции чистые: на вход — сырые значения формы, на выход —
// нормализованные значения либо словарь ошибок по полям.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Step — шаг мастера создания товара.
type Step int

const (
	StepBasic   Step = 1 // название, описание, категория, SKU
	StepPricing Step = 2 // цена и остатки
	StepMedia   Step = 3 // изображения и статус
)

const (
	maxNameLength         = 200
	minDescriptionLength  = 10
	defaultStockThreshold = 10
)

// FieldErrors — ошибки валидации: одно сообщение на поле.
// Если поле нарушает несколько правил, фиксируется первое.
type FieldErrors map[string]string

func (fe FieldErrors) set(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// ProductForm — сырые значения формы товара. Числовые поля передаются
// строками как они пришли из формы; приведение типов выполняет валидатор.
type ProductForm struct {
	Name        string
	Description string
	Category    string
	SKU         string
	Tags        []string

	Price             string
	CompareAtPrice    string
	Cost              string
	StockQuantity     string
	LowStockThreshold string

	Images   []string
	IsActive bool
}

// Pricing — нормализованные числовые значения шага StepPricing.
type Pricing struct {
	Price             float64
	CompareAtPrice    *float64
	Cost              float64
	StockQuantity     int
	LowStockThreshold int
}

// ValidateStep проверяет один шаг формы. Для StepPricing дополнительно
// возвращает нормализованные числовые значения; для остальных шагов nil.
func ValidateStep(step Step, form *ProductForm) (*Pricing, FieldErrors) {
	switch step {
	case StepBasic:
		return nil, ValidateBasic(form)
	case StepPricing:
		return ValidatePricing(form)
	case StepMedia:
		return nil, ValidateMedia(form)
	default:
		return nil, FieldErrors{}
	}
}

// ValidateAll проверяет все три шага разом (путь прямого создания товара
// без мастера). Первая ошибка каждого поля сохраняется.
func ValidateAll(form *ProductForm) (*Pricing, FieldErrors) {
	errs := ValidateBasic(form)

	pricing, pricingErrs := ValidatePricing(form)
	for field, msg := range pricingErrs {
		errs.set(field, msg)
	}

	for field, msg := range ValidateMedia(form) {
		errs.set(field, msg)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return pricing, errs
}

// ValidateBasic — первый шаг: идентификация товара.
func ValidateBasic(form *ProductForm) FieldErrors {
	errs := FieldErrors{}

	name := strings.TrimSpace(form.Name)
	if name == "" {
		errs.set("name", "Product name is required")
	} else if utf8.RuneCountInString(name) > maxNameLength {
		errs.set("name", "Name too long")
	}

	if utf8.RuneCountInString(strings.TrimSpace(form.Description)) < minDescriptionLength {
		errs.set("description", "Description must be at least 10 characters")
	}

	if strings.TrimSpace(form.Category) == "" {
		errs.set("category", "Category is required")
	}

	if strings.TrimSpace(form.SKU) == "" {
		errs.set("sku", "SKU is required")
	}

	return errs
}

// ValidatePricing — второй шаг: цена и остатки. Строковые значения
// приводятся к числам; нечисловой ввод — ошибка валидации, а не паника.
func ValidatePricing(form *ProductForm) (*Pricing, FieldErrors) {
	errs := FieldErrors{}
	pricing := &Pricing{}

	price, ok := coerceNumber(form.Price)
	switch {
	case !ok:
		errs.set("price", "Price must be a number")
	case price.IsNegative():
		errs.set("price", "Price must be positive")
	default:
		pricing.Price = price.InexactFloat64()
	}

	if strings.TrimSpace(form.CompareAtPrice) != "" {
		compareAt, ok := coerceNumber(form.CompareAtPrice)
		switch {
		case !ok:
			errs.set("compareAtPrice", "Compare price must be a number")
		case compareAt.IsNegative():
			errs.set("compareAtPrice", "Compare price must be positive")
		default:
			v := compareAt.InexactFloat64()
			pricing.CompareAtPrice = &v
		}
	}

	// Себестоимость шагами не проверяется: приводится мягко, как в форме.
	if cost, ok := coerceNumber(form.Cost); ok && !cost.IsNegative() {
		pricing.Cost = cost.InexactFloat64()
	}

	stock, ok := coerceNumber(form.StockQuantity)
	switch {
	case !ok || !stock.IsInteger():
		errs.set("stockQuantity", "Stock must be a whole number")
	case stock.IsNegative():
		errs.set("stockQuantity", "Stock must be positive")
	default:
		pricing.StockQuantity = int(stock.IntPart())
	}

	if strings.TrimSpace(form.LowStockThreshold) == "" {
		pricing.LowStockThreshold = defaultStockThreshold
	} else {
		threshold, ok := coerceNumber(form.LowStockThreshold)
		switch {
		case !ok || !threshold.IsInteger():
			errs.set("lowStockThreshold", "Threshold must be a whole number")
		case threshold.IsNegative():
			errs.set("lowStockThreshold", "Threshold must be positive")
		default:
			pricing.LowStockThreshold = int(threshold.IntPart())
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return pricing, errs
}

// ValidateMedia — третий шаг: изображения и статус.
func ValidateMedia(form *ProductForm) FieldErrors {
	errs := FieldErrors{}

	if len(form.Images) == 0 {
		errs.set("images", "At least one image is required")
	}

	return errs
}

// coerceNumber приводит строковый ввод к числу.
// Пустая строка считается нулём (поведение формы).
func coerceNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
