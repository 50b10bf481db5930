package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stockpilot/go-backend/internal/cfg"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/internal/validation"
	"github.com/stockpilot/go-backend/internal/wizard"
	"github.com/stockpilot/go-backend/pkg/e"
	"github.com/stockpilot/go-backend/pkg/logger"
)

// wizardSession сериализует доступ к машине: вызовы одной сессии
// обрабатываются строго по одному.
type wizardSession struct {
	mu      sync.Mutex
	machine *wizard.Machine
}

// WizardHandler держит сессии мастера создания товара в памяти процесса.
// Сессия живёт до успешного сабмита либо до перезапуска приложения.
type WizardHandler struct {
	mu          sync.RWMutex
	sessions    map[string]*wizardSession
	productUC   usecase.ProductUC
	imagesInfra usecase.ImagesInfra
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
}

func NewWizardHandler(productUC usecase.ProductUC, imagesInfra usecase.ImagesInfra, cfg *cfg.MinIOCfg, logger logger.Logger) *WizardHandler {
	return &WizardHandler{
		sessions:    make(map[string]*wizardSession),
		productUC:   productUC,
		imagesInfra: imagesInfra,
		cfg:         cfg,
		logger:      logger,
	}
}

// WizardStateResponse — снимок состояния мастера для клиента.
// Числовые поля формы отдаются строками, как их ведёт сама форма.
type WizardStateResponse struct {
	SessionID   string                 `json:"sessionId"`
	Step        int                    `json:"step"`
	Submitted   bool                   `json:"submitted"`
	ProductID   *int64                 `json:"productId,omitempty"`
	Form        WizardFormResponse     `json:"form"`
	FieldErrors validation.FieldErrors `json:"fieldErrors"`
	SubmitError string                 `json:"submitError,omitempty"`
}

type WizardFormResponse struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Category          string   `json:"category"`
	SKU               string   `json:"sku"`
	Tags              []string `json:"tags"`
	Price             string   `json:"price"`
	CompareAtPrice    string   `json:"compareAtPrice"`
	Cost              string   `json:"cost"`
	StockQuantity     string   `json:"stockQuantity"`
	LowStockThreshold string   `json:"lowStockThreshold"`
	Images            []string `json:"images"`
	IsActive          bool     `json:"isActive"`
}

type startWizardRequest struct {
	ProductID *int64 `json:"productId"`
}

type editWizardRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// startWizard
//
//	@Summary		Старт сессии мастера
//	@Description	Создает сессию трехшагового мастера; с productId — режим редактирования
//	@Tags			wizard
//	@Accept			json
//	@Produce		json
//	@Param			body	body		startWizardRequest	false	"ID товара для редактирования"
//	@Success		201		{object}	WizardStateResponse
//	@Failure		404		{object}	ErrorResponse	"Товар не найден"
//	@Router			/wizard [post]
func (h *WizardHandler) startWizard(w http.ResponseWriter, r *http.Request) {
	var req startWizardRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, e.ErrStatusBadRequest)
			return
		}
	}

	var machine *wizard.Machine
	if req.ProductID != nil {
		product, err := h.productUC.GetProduct(r.Context(), *req.ProductID)
		if err != nil {
			h.logger.Warnf("%s", err.Error())
			WriteError(w, err)
			return
		}
		machine = wizard.Hydrate(product, h.productUC)
	} else {
		machine = wizard.New(h.productUC)
	}

	sessionID := uuid.NewString()
	h.mu.Lock()
	h.sessions[sessionID] = &wizardSession{machine: machine}
	h.mu.Unlock()

	WriteSuccess(w, http.StatusCreated, newWizardState(sessionID, machine))
}

// getWizard
//
//	@Summary	Состояние сессии мастера
//	@Tags		wizard
//	@Produce	json
//	@Param		sessionId	path		string	true	"ID сессии"
//	@Success	200			{object}	WizardStateResponse
//	@Failure	404			{object}	ErrorResponse
//	@Router		/wizard/{sessionId} [get]
func (h *WizardHandler) getWizard(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sessionID string, m *wizard.Machine) {
		WriteSuccess(w, http.StatusOK, newWizardState(sessionID, m))
	})
}

// editWizard
//
//	@Summary		Редактирование поля черновика
//	@Description	Обновляет одно поле; ошибка валидации этого поля снимается
//	@Tags			wizard
//	@Accept			json
//	@Produce		json
//	@Param			sessionId	path		string				true	"ID сессии"
//	@Param			body		body		editWizardRequest	true	"Поле и значение"
//	@Success		200			{object}	WizardStateResponse
//	@Router			/wizard/{sessionId} [patch]
func (h *WizardHandler) editWizard(w http.ResponseWriter, r *http.Request) {
	var req editWizardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	h.withSession(w, r, func(sessionID string, m *wizard.Machine) {
		m.Edit(req.Field, req.Value)
		WriteSuccess(w, http.StatusOK, newWizardState(sessionID, m))
	})
}

// nextStep
//
//	@Summary		Переход на следующий шаг
//	@Description	Валидирует текущий шаг; при ошибках мастер остается на месте
//	@Tags			wizard
//	@Produce		json
//	@Param			sessionId	path		string	true	"ID сессии"
//	@Success		200			{object}	WizardStateResponse
//	@Router			/wizard/{sessionId}/next [post]
func (h *WizardHandler) nextStep(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sessionID string, m *wizard.Machine) {
		m.Next()
		WriteSuccess(w, http.StatusOK, newWizardState(sessionID, m))
	})
}

// backStep
//
//	@Summary	Возврат на предыдущий шаг
//	@Tags		wizard
//	@Produce	json
//	@Param		sessionId	path		string	true	"ID сессии"
//	@Success	200			{object}	WizardStateResponse
//	@Router		/wizard/{sessionId}/back [post]
func (h *WizardHandler) backStep(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(sessionID string, m *wizard.Machine) {
		m.Back()
		WriteSuccess(w, http.StatusOK, newWizardState(sessionID, m))
	})
}

// submitWizard
//
//	@Summary		Завершение мастера
//	@Description	Перепроверяет финальный шаг и сохраняет товар; сессия закрывается только при успехе
//	@Tags			wizard
//	@Produce		json
//	@Param			sessionId	path		string	true	"ID сессии"
//	@Success		201			{object}	ProductResponse
//	@Failure		422			{object}	WizardStateResponse	"Ошибки валидации"
//	@Failure		502			{object}	WizardStateResponse	"Ошибка сохранения"
//	@Router			/wizard/{sessionId}/submit [post]
func (h *WizardHandler) submitWizard(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	session := h.session(sessionID)
	if session == nil {
		WriteError(w, e.ErrSessionNotFound)
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	product, err := session.machine.Submit(r.Context())
	switch {
	case err == nil:
		h.mu.Lock()
		delete(h.sessions, sessionID)
		h.mu.Unlock()
		WriteSuccess(w, http.StatusCreated, NewProductResponse(product))
	case errors.Is(err, e.ErrNotFinalStep):
		WriteError(w, err)
	case errors.Is(err, e.ErrValidationFailed):
		WriteSuccess(w, http.StatusUnprocessableEntity, newWizardState(sessionID, session.machine))
	default:
		// Ошибка персистентности: сессия и черновик остаются нетронутыми,
		// клиент видит submitError и может повторить.
		h.logger.Warnf("wizard submit failed: %s", err.Error())
		WriteSuccess(w, http.StatusBadGateway, newWizardState(sessionID, session.machine))
	}
}

// uploadImages
//
//	@Summary		Загрузка изображений черновика
//	@Description	Принимает пакет файлов; при превышении квоты или любой ошибке загрузки пакет отклоняется целиком
//	@Tags			wizard
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			sessionId	path		string	true	"ID сессии"
//	@Param			images		formData	file	true	"Файлы изображений"
//	@Success		200			{object}	WizardStateResponse
//	@Failure		400			{object}	ErrorResponse	"Квота или формат"
//	@Router			/wizard/{sessionId}/images [post]
func (h *WizardHandler) uploadImages(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 150 << 20
		maxMemory           = 32 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	files, err := parseImages(r.MultipartForm.File["images"], h.cfg.MaxFileSize)
	if err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	h.withSession(w, r, func(sessionID string, m *wizard.Machine) {
		res, err := h.imagesInfra.UploadImages(r.Context(), usecase.NewUploadImagesReq(files, m.Images(), h.cfg.ImagesQuota))
		if err != nil {
			h.logger.Warnf("%s", err.Error())
			WriteError(w, err)
			return
		}

		m.SetImages(res.Images)
		WriteSuccess(w, http.StatusOK, newWizardState(sessionID, m))
	})
}

// removeImage
//
//	@Summary		Удаление изображения из черновика
//	@Description	Убирает изображение по позиции; объект в хранилище не трогается
//	@Tags			wizard
//	@Produce		json
//	@Param			sessionId	path		string	true	"ID сессии"
//	@Param			index		path		int		true	"Позиция изображения"
//	@Success		200			{object}	WizardStateResponse
//	@Failure		400			{object}	ErrorResponse	"Позиция вне диапазона"
//	@Router			/wizard/{sessionId}/images/{index} [delete]
func (h *WizardHandler) removeImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	h.withSession(w, r, func(sessionID string, m *wizard.Machine) {
		if !m.RemoveImage(index) {
			WriteError(w, e.ErrStatusBadRequest)
			return
		}
		WriteSuccess(w, http.StatusOK, newWizardState(sessionID, m))
	})
}

func (h *WizardHandler) session(id string) *wizardSession {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

func (h *WizardHandler) withSession(w http.ResponseWriter, r *http.Request, fn func(sessionID string, m *wizard.Machine)) {
	sessionID := chi.URLParam(r, "sessionId")
	session := h.session(sessionID)
	if session == nil {
		WriteError(w, e.ErrSessionNotFound)
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	fn(sessionID, session.machine)
}

func newWizardState(sessionID string, m *wizard.Machine) *WizardStateResponse {
	form := m.Form()
	return &WizardStateResponse{
		SessionID: sessionID,
		Step:      m.Step(),
		Submitted: m.Submitted(),
		ProductID: m.ProductID(),
		Form: WizardFormResponse{
			Name:              form.Name,
			Description:       form.Description,
			Category:          form.Category,
			SKU:               form.SKU,
			Tags:              form.Tags,
			Price:             form.Price,
			CompareAtPrice:    form.CompareAtPrice,
			Cost:              form.Cost,
			StockQuantity:     form.StockQuantity,
			LowStockThreshold: form.LowStockThreshold,
			Images:            form.Images,
			IsActive:          form.IsActive,
		},
		FieldErrors: m.FieldErrors(),
		SubmitError: m.SubmitError(),
	}
}
