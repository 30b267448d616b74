package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/safevoice/content-gateway/internal/http/handlers"
	"github.com/safevoice/content-gateway/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// листинги контента
	r.Get("/content/blogs", h.ListBlogs)
	r.Get("/content/podcasts", h.ListPodcasts)
	r.Get("/content/resources", h.ListResources)

	// виджеты главной (конкурентные независимые загрузки)
	r.Get("/content/home", h.Home)

	// детальный оверлей
	r.Get("/content/{kind}/{id}/detail", h.Detail)

	// исходящие операции
	r.Post("/reports", h.SubmitReport)
	r.Post("/newsletter/subscribe", h.Subscribe)
}
