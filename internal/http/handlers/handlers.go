package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/safevoice/content-gateway/internal/cms"
	"github.com/safevoice/content-gateway/internal/render"
	"github.com/safevoice/content-gateway/internal/service"
)

// defaultPageSize — размер страницы листингов, если фронт не прислал свой.
const defaultPageSize = 12

// Submitter — исходящие односторонние операции CMS (без ретраев).
type Submitter interface {
	SubmitReport(ctx context.Context, report cms.Report) error
	SubscribeNewsletter(ctx context.Context, email string) error
}

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	Loader    *service.Loader
	Renderer  *render.Renderer
	Submitter Submitter
}

// New создаёт Handlers.
func New(loader *service.Loader, renderer *render.Renderer, submitter Submitter) *Handlers {
	return &Handlers{
		Loader:    loader,
		Renderer:  renderer,
		Submitter: submitter,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// emailShape — клиентская проверка формы адреса перед отправкой в CMS.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validEmail(v string) bool {
	return emailShape.MatchString(v)
}
