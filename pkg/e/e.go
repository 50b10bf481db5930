package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrNoImages             = fmt.Errorf("no images provided")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// Ошибки валидации и квот: разрешаются на месте, до персистентности
	ErrValidationFailed = fmt.Errorf("validation failed")
	ErrTooManyImages    = fmt.Errorf("image quota exceeded")

	// Конфликты персистентности
	ErrDuplicateSKU    = fmt.Errorf("product with this sku already exists")
	ErrProductNotFound = fmt.Errorf("product not found")

	// Ошибки загрузки в хранилище объектов
	ErrUploadFailed = fmt.Errorf("image upload failed")

	// Сессии мастера создания товара
	ErrSessionNotFound = fmt.Errorf("wizard session not found")
	ErrNotFinalStep    = fmt.Errorf("wizard is not on the final step")

	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
