package http

import (
	"net/http"

	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/logger"
)

type StatsHandler struct {
	statsUsecase usecase.StatsUC
	logger       logger.Logger
}

func NewStatsHandler(statsUsecase usecase.StatsUC, logger logger.Logger) *StatsHandler {
	return &StatsHandler{statsUsecase: statsUsecase, logger: logger}
}

// getDashboard
//
//	@Summary		Статистика дашборда
//	@Description	Собирает агрегаты каталога за один проход: обзор, категории, топ продаж, остатки
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	usecase.DashboardStats
//	@Failure		500	{object}	ErrorResponse
//	@Router			/stats [get]
func (s *StatsHandler) getDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsUsecase.GetDashboard(r.Context())
	if err != nil {
		s.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, stats)
}
