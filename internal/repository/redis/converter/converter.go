package converter

import "github.com/stockpilot/go-backend/internal/domain"

type ProductConverter interface {
	ToRedisProduct(product *domain.Product) *ProductRedisModel
	ToDomainProduct(model *ProductRedisModel) *domain.Product
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (c *ProductConverterImpl) ToRedisProduct(product *domain.Product) *ProductRedisModel {
	if product == nil {
		return nil
	}
	return &ProductRedisModel{
		ID:                product.ID,
		Name:              product.Name,
		Description:       product.Description,
		Category:          product.Category,
		SKU:               product.SKU,
		Tags:              product.Tags,
		Price:             product.Price,
		CompareAtPrice:    product.CompareAtPrice,
		Cost:              product.Cost,
		StockQuantity:     product.StockQuantity,
		LowStockThreshold: product.LowStockThreshold,
		Images:            product.Images,
		IsActive:          product.IsActive,
		Sales:             product.Sales,
		CreatedAt:         product.CreatedAt,
		UpdatedAt:         product.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToDomainProduct(model *ProductRedisModel) *domain.Product {
	if model == nil {
		return nil
	}
	return &domain.Product{
		ID:                model.ID,
		Name:              model.Name,
		Description:       model.Description,
		Category:          model.Category,
		SKU:               model.SKU,
		Tags:              model.Tags,
		Price:             model.Price,
		CompareAtPrice:    model.CompareAtPrice,
		Cost:              model.Cost,
		StockQuantity:     model.StockQuantity,
		LowStockThreshold: model.LowStockThreshold,
		Images:            model.Images,
		IsActive:          model.IsActive,
		Sales:             model.Sales,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}
