package converter

import "time"

// ProductRedisModel — представление продукта в кэше.
type ProductRedisModel struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	SKU               string     `json:"sku"`
	Tags              []string   `json:"tags"`
	Price             float64    `json:"price"`
	CompareAtPrice    *float64   `json:"compare_at_price,omitempty"`
	Cost              float64    `json:"cost"`
	StockQuantity     int        `json:"stock_quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	Images            []string   `json:"images"`
	IsActive          bool       `json:"is_active"`
	Sales             int64      `json:"sales"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}
