package wizard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/go-backend/internal/domain"
	"github.com/stockpilot/go-backend/internal/wizard"
	"github.com/stockpilot/go-backend/pkg/e"
)

// ---- mock submitter ----

type mockSubmitter struct {
	createErr   error
	updateErr   error
	created     *domain.ProductDraft
	updated     *domain.ProductDraft
	updatedID   int64
	createCalls int
	updateCalls int
}

func (m *mockSubmitter) CreateProduct(_ context.Context, draft *domain.ProductDraft) (*domain.Product, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = draft
	return &domain.Product{ID: 1, Name: draft.Name, SKU: draft.SKU}, nil
}

func (m *mockSubmitter) UpdateProduct(_ context.Context, id int64, draft *domain.ProductDraft) (*domain.Product, error) {
	m.updateCalls++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updated = draft
	m.updatedID = id
	return &domain.Product{ID: id, Name: draft.Name, SKU: draft.SKU}, nil
}

func fillBasic(m *wizard.Machine) {
	m.Edit("name", "Wireless Mouse")
	m.Edit("description", "Ergonomic wireless mouse with USB receiver")
	m.Edit("category", "Electronics")
	m.Edit("sku", "WM-001")
}

func fillPricing(m *wizard.Machine) {
	m.Edit("price", "29.99")
	m.Edit("stockQuantity", "15")
}

func advanceToMedia(t *testing.T, m *wizard.Machine) {
	t.Helper()
	fillBasic(m)
	require.True(t, m.Next())
	fillPricing(m)
	require.True(t, m.Next())
	require.Equal(t, 3, m.Step())
}

func TestMachine_New(t *testing.T) {
	m := wizard.New(&mockSubmitter{})

	assert.Equal(t, 1, m.Step())
	assert.False(t, m.Submitted())
	assert.True(t, m.Form().IsActive)
	assert.Equal(t, "10", m.Form().LowStockThreshold)
}

func TestMachine_Next(t *testing.T) {
	t.Run("invalid step blocks advance", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})

		assert.False(t, m.Next())
		assert.Equal(t, 1, m.Step())
		assert.Contains(t, m.FieldErrors(), "name")
		assert.Contains(t, m.FieldErrors(), "description")
	})

	t.Run("valid step advances and clears errors", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})
		m.Next() // копим ошибки
		fillBasic(m)

		assert.True(t, m.Next())
		assert.Equal(t, 2, m.Step())
		assert.Empty(t, m.FieldErrors())
	})

	t.Run("no-op past last step", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})
		advanceToMedia(t, m)

		assert.False(t, m.Next())
		assert.Equal(t, 3, m.Step())
	})
}

func TestMachine_Edit(t *testing.T) {
	t.Run("clears only the edited field error", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})
		m.Next()
		require.Contains(t, m.FieldErrors(), "name")
		require.Contains(t, m.FieldErrors(), "description")

		m.Edit("name", "Wireless Mouse")

		assert.NotContains(t, m.FieldErrors(), "name")
		assert.Contains(t, m.FieldErrors(), "description")
	})

	t.Run("tags are split on commas", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})
		m.Edit("tags", "wireless, mouse, , usb ")

		assert.Equal(t, []string{"wireless", "mouse", "usb"}, m.Form().Tags)
	})

	t.Run("unknown field is ignored", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})
		m.Next()
		before := len(m.FieldErrors())

		m.Edit("nonexistent", "value")

		assert.Len(t, m.FieldErrors(), before)
	})

	t.Run("isActive parses bool", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})
		m.Edit("isActive", "false")
		assert.False(t, m.Form().IsActive)
	})
}

func TestMachine_Back(t *testing.T) {
	m := wizard.New(&mockSubmitter{})
	fillBasic(m)
	require.True(t, m.Next())

	m.Back()
	assert.Equal(t, 1, m.Step())
	assert.Equal(t, "Wireless Mouse", m.Form().Name)

	m.Back() // уже на первом шаге
	assert.Equal(t, 1, m.Step())
}

func TestMachine_Submit(t *testing.T) {
	t.Run("rejects before final step", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})

		_, err := m.Submit(context.Background())
		assert.ErrorIs(t, err, e.ErrNotFinalStep)
	})

	t.Run("final step revalidated", func(t *testing.T) {
		sub := &mockSubmitter{}
		m := wizard.New(sub)
		advanceToMedia(t, m)
		// изображения не загружены

		_, err := m.Submit(context.Background())
		assert.ErrorIs(t, err, e.ErrValidationFailed)
		assert.Contains(t, m.FieldErrors(), "images")
		assert.Zero(t, sub.createCalls)
	})

	t.Run("successful create", func(t *testing.T) {
		sub := &mockSubmitter{}
		m := wizard.New(sub)
		advanceToMedia(t, m)
		m.SetImages([]string{"http://minio/images/products/a.jpg"})

		product, err := m.Submit(context.Background())
		require.NoError(t, err)
		assert.True(t, m.Submitted())
		assert.Equal(t, int64(1), product.ID)
		require.NotNil(t, sub.created)
		assert.Equal(t, "WM-001", sub.created.SKU)
		assert.InDelta(t, 29.99, sub.created.Price, 1e-9)
	})

	t.Run("persistence failure keeps draft on final step", func(t *testing.T) {
		sub := &mockSubmitter{createErr: errors.New("db down")}
		m := wizard.New(sub)
		advanceToMedia(t, m)
		m.SetImages([]string{"http://minio/images/products/a.jpg"})

		_, err := m.Submit(context.Background())
		require.Error(t, err)
		assert.Equal(t, 3, m.Step())
		assert.False(t, m.Submitted())
		assert.Empty(t, m.FieldErrors())
		assert.Equal(t, "db down", m.SubmitError())
		assert.Equal(t, "Wireless Mouse", m.Form().Name)

		// Повторный сабмит после восстановления проходит без перевводов
		sub.createErr = nil
		_, err = m.Submit(context.Background())
		require.NoError(t, err)
		assert.True(t, m.Submitted())
		assert.Empty(t, m.SubmitError())
	})

	t.Run("validation failure clears stale submit error", func(t *testing.T) {
		sub := &mockSubmitter{createErr: errors.New("db down")}
		m := wizard.New(sub)
		advanceToMedia(t, m)
		m.SetImages([]string{"http://minio/images/products/a.jpg"})

		_, err := m.Submit(context.Background())
		require.Error(t, err)
		require.Equal(t, "db down", m.SubmitError())

		// Черновик снова невалиден: новые ошибки полей, старая
		// ошибка сабмита не должна пережить перепроверку.
		m.SetImages(nil)
		_, err = m.Submit(context.Background())
		assert.ErrorIs(t, err, e.ErrValidationFailed)
		assert.Contains(t, m.FieldErrors(), "images")
		assert.Empty(t, m.SubmitError())
	})

	t.Run("second submit rejected", func(t *testing.T) {
		sub := &mockSubmitter{}
		m := wizard.New(sub)
		advanceToMedia(t, m)
		m.SetImages([]string{"http://minio/images/products/a.jpg"})

		_, err := m.Submit(context.Background())
		require.NoError(t, err)

		_, err = m.Submit(context.Background())
		assert.ErrorIs(t, err, e.ErrNotFinalStep)
		assert.Equal(t, 1, sub.createCalls)
	})
}

func TestMachine_Hydrate(t *testing.T) {
	compareAt := 39.99
	updated := &domain.Product{
		ID:                7,
		Name:              "Wireless Mouse",
		Description:       "Ergonomic wireless mouse with USB receiver",
		Category:          "Electronics",
		SKU:               "WM-001",
		Tags:              []string{"wireless", "mouse"},
		Price:             29.99,
		CompareAtPrice:    &compareAt,
		Cost:              12.5,
		StockQuantity:     15,
		LowStockThreshold: 5,
		Images:            []string{"http://minio/images/products/a.jpg"},
		IsActive:          true,
	}

	sub := &mockSubmitter{}
	m := wizard.Hydrate(updated, sub)

	assert.Equal(t, 1, m.Step())
	require.NotNil(t, m.ProductID())
	assert.Equal(t, int64(7), *m.ProductID())
	assert.Equal(t, "29.99", m.Form().Price)
	assert.Equal(t, "39.99", m.Form().CompareAtPrice)
	assert.Equal(t, "5", m.Form().LowStockThreshold)

	advanceToMedia(t, m)
	_, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), sub.updatedID)
	assert.Zero(t, sub.createCalls)
}

func TestMachine_Images(t *testing.T) {
	t.Run("set images clears images error", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})
		advanceToMedia(t, m)
		_, err := m.Submit(context.Background())
		require.ErrorIs(t, err, e.ErrValidationFailed)
		require.Contains(t, m.FieldErrors(), "images")

		m.SetImages([]string{"http://minio/images/products/a.jpg"})
		assert.NotContains(t, m.FieldErrors(), "images")
	})

	t.Run("remove by position", func(t *testing.T) {
		m := wizard.New(&mockSubmitter{})
		m.SetImages([]string{"a", "b", "c"})

		assert.True(t, m.RemoveImage(1))
		assert.Equal(t, []string{"a", "c"}, m.Images())

		assert.False(t, m.RemoveImage(5))
		assert.False(t, m.RemoveImage(-1))
		assert.Equal(t, []string{"a", "c"}, m.Images())
	})
}
