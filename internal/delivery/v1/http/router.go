package http

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/stockpilot/go-backend/docs" // Импорт сгенерированных файлов
	"github.com/stockpilot/go-backend/internal/cfg"
	"github.com/stockpilot/go-backend/internal/usecase"
	"github.com/stockpilot/go-backend/pkg/logger"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(prUC usecase.ProductUC, statsUC usecase.StatsUC, imagesInfra usecase.ImagesInfra, minioCfg *cfg.MinIOCfg) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(prUC, r.logger)
		registerProductRoutes(v1, prHandler)

		statsHandler := NewStatsHandler(statsUC, r.logger)
		v1.Get("/stats", statsHandler.getDashboard)

		wzHandler := NewWizardHandler(prUC, imagesInfra, minioCfg, r.logger)
		registerWizardRoutes(v1, wzHandler)

		imgHandler := NewImageHandler(imagesInfra, r.logger)
		v1.Delete("/images", imgHandler.deleteImage)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.createProduct)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Put("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
	})
}

func registerWizardRoutes(router chi.Router, wzHandler *WizardHandler) {
	router.Route("/wizard", func(wz chi.Router) {
		wz.Post("/", wzHandler.startWizard)
		wz.Route("/{sessionId}", func(s chi.Router) {
			s.Get("/", wzHandler.getWizard)
			s.Patch("/", wzHandler.editWizard)
			s.Post("/next", wzHandler.nextStep)
			s.Post("/back", wzHandler.backStep)
			s.Post("/submit", wzHandler.submitWizard)
			s.Post("/images", wzHandler.uploadImages)
			s.Delete("/images/{index}", wzHandler.removeImage)
		})
	})
}
