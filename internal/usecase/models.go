package usecase

import "time"

// PRODUCT USECASE

// ProductFilter — необязательные фильтры выборки каталога.
type ProductFilter struct {
	Category string
	Search   string // подстрочный поиск по name/description/sku
	IsActive *bool
}

// ProductImage представляет файл изображения, принятый через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// INFRASTRUCTURE

// UploadImagesReq — запрос на загрузку пакета изображений.
// Existing — уже принятые URL; квота считается по сумме.
type UploadImagesReq struct {
	Files    []ProductImage
	Existing []string
	Quota    int
}

// UploadImagesRes — результат загрузки: прежние URL плюс новые,
// в порядке отправки файлов.
type UploadImagesRes struct {
	Images []string
}

type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	ProductCreated OutboxEventType = "product.created"
	ProductUpdated OutboxEventType = "product.updated"
	ProductDeleted OutboxEventType = "product.deleted"
)

// OutboxEvent — запись транзакционного outbox для событий каталога.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ProductChangeEvent — полезная нагрузка события каталога (JSON).
type ProductChangeEvent struct {
	EventID    string `json:"eventId"`
	EventType  string `json:"eventType"`
	ProductID  int64  `json:"productId"`
	SKU        string `json:"sku"`
	OccurredAt int64  `json:"occurredAt"`
}

// STATS

// DashboardStats — снимок статистики для дашборда. Форма полей —
// контракт презентационного слоя, менять нельзя.
type DashboardStats struct {
	Overview     Overview        `json:"overview"`
	CategoryData []CategoryCount `json:"categoryData"`
	TopProducts  []TopProduct    `json:"topProducts"`
	StockData    []StockBucket   `json:"stockData"`
	MonthlySales []MonthlyPoint  `json:"monthlySales"`
}

type Overview struct {
	TotalProducts    int     `json:"totalProducts"`
	ActiveProducts   int     `json:"activeProducts"`
	LowStockProducts int     `json:"lowStockProducts"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalSales       int64   `json:"totalSales"`
	TotalValue       float64 `json:"totalValue"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type TopProduct struct {
	Name    string  `json:"name"`
	Sales   int64   `json:"sales"`
	Revenue float64 `json:"revenue"`
}

type StockBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type MonthlyPoint struct {
	Month   string  `json:"month"`
	Sales   int64   `json:"sales"`
	Revenue float64 `json:"revenue"`
}

// MAPPERS

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImagesReq(files []ProductImage, existing []string, quota int) *UploadImagesReq {
	return &UploadImagesReq{
		Files:    files,
		Existing: existing,
		Quota:    quota,
	}
}

func NewUploadImagesRes(images []string) *UploadImagesRes {
	return &UploadImagesRes{
		Images: images,
	}
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, productID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}
