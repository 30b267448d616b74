// errors стандартизирует ответы об ошибках HTTP-слоя content-gateway.
// На вход — классифицированная ошибка (sentinel из cms/service или
// контекстная), на выход:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей апстрима.
//
// Источник истинности по таксономии: internal/cms (Unavailable / Rejected /
// InvalidFormat) и internal/service (InvalidArgument).
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safevoice/content-gateway/internal/cms"
	"github.com/safevoice/content-gateway/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует входную ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не
//     замаскировать баг ответом "200 OK" с телом ошибки;
//   - cms.ErrUnavailable -> 503, cms.ErrRejected / ErrInvalidFormat -> 502,
//     service.ErrInvalidArgument -> 400, service.ErrNotFound -> 404;
//   - context.DeadlineExceeded -> 504, context.Canceled -> 499;
//   - прочее -> 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	WriteErrorMessage(w, r, err, "")
}

// WriteErrorMessage — то же, но с переопределением message: лоадер несёт
// готовую пользовательскую формулировку (FetchState.Message), её и отдаём.
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, resp := ToHTTP(err)
	if msg != "" {
		resp.Error.Message = msg
	}

	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func classify(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, cms.ErrInvalidFormat):
		return http.StatusBadGateway, "invalid_upstream_data", "content service returned invalid data"
	case errors.Is(err, cms.ErrRejected):
		return http.StatusBadGateway, "upstream_rejected", "content service rejected the request"
	case errors.Is(err, cms.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable", "content service unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
