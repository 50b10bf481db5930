package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID                int64      `db:"id"`
	Name              string     `db:"name"`
	Description       string     `db:"description"`
	Category          string     `db:"category"`
	SKU               string     `db:"sku"`
	Tags              []string   `db:"tags"`
	Price             float64    `db:"price"`
	CompareAtPrice    *float64   `db:"compare_at_price"`
	Cost              float64    `db:"cost"`
	StockQuantity     int        `db:"stock_quantity"`
	LowStockThreshold int        `db:"low_stock_threshold"`
	Images            []string   `db:"images"`
	IsActive          bool       `db:"is_active"`
	Sales             int64      `db:"sales"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProductID   int64      `db:"product_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
