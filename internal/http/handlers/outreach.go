package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/safevoice/content-gateway/internal/cms"
	apierrors "github.com/safevoice/content-gateway/internal/errors"
	"github.com/safevoice/content-gateway/internal/service"
)

// ReportRequest — обращение со страницы report-abuse.
// Name/Email опциональны: пустые оба — анонимное обращение.
type ReportRequest struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

// SubscribeRequest — подписка на рассылку.
type SubscribeRequest struct {
	Email string `json:"email"`
}

// MessageResponse — единственная строка результата односторонних операций.
type MessageResponse struct {
	Message string `json:"message"`
}

// SubmitReport — fire-and-forget прокси POST /reports: одна попытка,
// результат — одна строка.
func (h *Handlers) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, fmt.Errorf("%w: %v", service.ErrInvalidArgument, err))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		apierrors.WriteError(w, r, fmt.Errorf("%w: message is required", service.ErrInvalidArgument))
		return
	}

	// Email опционален, но если прислан — форма должна быть валидной.
	if req.Email != "" && !validEmail(req.Email) {
		apierrors.WriteError(w, r, fmt.Errorf("%w: malformed email", service.ErrInvalidArgument))
		return
	}

	err := h.Submitter.SubmitReport(r.Context(), cms.Report{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, MessageResponse{
		Message: "Thank you. Your report has been received.",
	})
}

// Subscribe — подписка на рассылку с клиентской проверкой формы адреса
// до похода в CMS.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, fmt.Errorf("%w: %v", service.ErrInvalidArgument, err))
		return
	}

	email := strings.TrimSpace(req.Email)
	if !validEmail(email) {
		apierrors.WriteError(w, r, fmt.Errorf("%w: malformed email", service.ErrInvalidArgument))
		return
	}

	if err := h.Submitter.SubscribeNewsletter(r.Context(), email); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Message: "You are subscribed. Thank you for standing with us.",
	})
}
