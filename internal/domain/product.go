package domain

import "time"

// Product описывает товар каталога.
type Product struct {
	ID                int64
	Name              string
	Description       string
	Category          string
	SKU               string
	Tags              []string
	Price             float64
	CompareAtPrice    *float64
	Cost              float64
	StockQuantity     int
	LowStockThreshold int
	Images            []string // URL изображений, порядок = порядок отображения
	IsActive          bool
	Sales             int64
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// ProductDraft — нормализованный черновик товара, готовый к сохранению.
// Идентичности не имеет: она появляется только после персистентности.
type ProductDraft struct {
	Name              string
	Description       string
	Category          string
	SKU               string
	Tags              []string
	Price             float64
	CompareAtPrice    *float64
	Cost              float64
	StockQuantity     int
	LowStockThreshold int
	Images            []string
	IsActive          bool
}
