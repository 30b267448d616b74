package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/safevoice/content-gateway/internal/errors"
	"github.com/safevoice/content-gateway/internal/models"
	"github.com/safevoice/content-gateway/internal/service"
)

// ListResponse — страница листинга. Total — размер полного списка:
// пагинация производная, фронт считает число страниц сам.
type ListResponse struct {
	Items    []models.ContentItem `json:"items"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// ListView — состояние одного независимого виджета (для /content/home).
type ListView struct {
	State string               `json:"state"`
	Items []models.ContentItem `json:"items,omitempty"`
	Error string               `json:"error,omitempty"`
}

// HomeResponse — виджеты главной: блоги и подкасты, каждый со своим
// состоянием. Отказ одного не портит другой.
type HomeResponse struct {
	Blogs    ListView `json:"blogs"`
	Podcasts ListView `json:"podcasts"`
}

func (h *Handlers) ListBlogs(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.KindBlog)
}

func (h *Handlers) ListPodcasts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.KindPodcast)
}

func (h *Handlers) ListResources(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.KindResource)
}

// list — общий обработчик листингов: один сетевой лист на запрос,
// страница вырезается локально (service.Page).
func (h *Handlers) list(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	order, err := parseOrder(r.URL.Query().Get("order"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := parsePositive(r.URL.Query().Get("page"), 1)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	size, err := parsePositive(r.URL.Query().Get("page_size"), defaultPageSize)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	st := h.Loader.LoadPublished(r.Context(), kind, order)
	if st.State != service.StateSuccess {
		apierrors.WriteErrorMessage(w, r, st.Err(), st.Message)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Items:    service.Page(st.Items, page, size),
		Total:    len(st.Items),
		Page:     page,
		PageSize: size,
	})
}

// Home — конкурентная загрузка виджетов главной с изолированными отказами.
// Всегда 200: состояние каждого виджета — в теле.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	home := h.Loader.LoadHome(r.Context())

	writeJSON(w, http.StatusOK, HomeResponse{
		Blogs:    toView(home.Blogs),
		Podcasts: toView(home.Podcasts),
	})
}

// Detail — детальный документ записи для модального оверлея.
func (h *Handlers) Detail(w http.ResponseWriter, r *http.Request) {
	kind := models.Kind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")

	if !kind.Valid() || id == "" {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	st := h.Loader.LoadPublished(r.Context(), kind, service.OrderSource)
	if st.State != service.StateSuccess {
		apierrors.WriteErrorMessage(w, r, st.Err(), st.Message)
		return
	}

	for _, item := range st.Items {
		if item.ID == id {
			writeJSON(w, http.StatusOK, h.Renderer.Detail(item, kind))
			return
		}
	}

	apierrors.WriteError(w, r, service.ErrNotFound)
}

func toView(st service.FetchState) ListView {
	view := ListView{State: st.State.String()}

	switch st.State {
	case service.StateSuccess:
		view.Items = st.Items
	case service.StateFailure:
		view.Error = st.Message
	}

	return view
}

func parseOrder(v string) (service.Order, error) {
	switch v {
	case "", "source":
		return service.OrderSource, nil
	case "latest":
		return service.OrderNewestFirst, nil
	default:
		return 0, fmt.Errorf("%w: order %q", service.ErrInvalidArgument, v)
	}
}

func parsePositive(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", service.ErrInvalidArgument, v)
	}

	return n, nil
}
