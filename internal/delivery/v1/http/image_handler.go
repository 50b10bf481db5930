package http

import (
	"net/http"
	"strings"

	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/logger"
)

type ImageHandler struct {
	imagesInfra usecase.ImagesInfra
	logger      logger.Logger
}

func NewImageHandler(imagesInfra usecase.ImagesInfra, logger logger.Logger) *ImageHandler {
	return &ImageHandler{imagesInfra: imagesInfra, logger: logger}
}

// deleteImage
//
//	@Summary		Удаление объекта из хранилища
//	@Description	Явно удаляет загруженное изображение по его публичному URL
//	@Tags			images
//	@Param			url	query	string	true	"Публичный URL объекта"
//	@Success		204	"Удалено"
//	@Failure		400	{object}	ErrorResponse
//	@Router			/images [delete]
func (h *ImageHandler) deleteImage(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	if err := h.imagesInfra.DeleteImage(r.Context(), url); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
