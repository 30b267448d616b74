package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/safevoice/content-gateway/internal/cms"
	"github.com/safevoice/content-gateway/internal/mediaurl"
	"github.com/safevoice/content-gateway/internal/models"
)

// Order — требуемый вызывающим порядок списка.
type Order int

const (
	// OrderSource — порядок источника (полные листинги с пагинацией).
	OrderSource Order = iota
	// OrderNewestFirst — сортировка по createdAt по убыванию
	// (виджеты «последние» на главной).
	OrderNewestFirst
)

// State — стадия жизненного цикла одной загрузки списка.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "idle"
	}
}

// Пользовательские сообщения терминальных отказов. Разные причины —
// разная формулировка; вьюха показывает их как есть рядом с «Try Again».
const (
	msgUnreachable   = "Unable to load content, please try again later."
	msgRejected      = "The content service rejected the request. Please try again later."
	msgInvalidFormat = "Received invalid data from the content service."
)

// FetchState — наблюдаемый результат одной загрузки. Ретраи внутри фетчера
// для наблюдателя не существуют: снаружи видны только Success/Failure.
type FetchState struct {
	State   State
	Items   []models.ContentItem
	Message string

	err error
}

// Err — исходная классифицированная ошибка для маппинга в HTTP-статус.
func (fs FetchState) Err() error { return fs.err }

// LoadPublished загружает опубликованные записи вида kind и возвращает
// терминальный FetchState.
//
// Контракт:
//   - медиа-поля нормализованы до отдачи (mediaurl.Resolve);
//   - порядок по запросу вызывающего: OrderSource или OrderNewestFirst;
//   - отмена ctx до завершения — состояние не применяется, возвращается
//     StateIdle (страховка от «обновления после размонтирования»);
//   - ошибки не выходят наружу иначе как Failure(message).
func (l *Loader) LoadPublished(ctx context.Context, kind models.Kind, order Order) FetchState {
	if !kind.Valid() {
		return FetchState{
			State:   StateFailure,
			Message: "Unknown content kind.",
			err:     ErrInvalidArgument,
		}
	}

	items, err := l.source.ListContent(ctx, kind)

	// Стейл-гард: вызывающего уже нет — результат не применяем.
	if ctx.Err() != nil {
		return FetchState{State: StateIdle, err: ctx.Err()}
	}

	if err != nil {
		return FetchState{State: StateFailure, Message: failureMessage(err), err: err}
	}

	for i := range items {
		l.normalize(&items[i])
	}

	if order == OrderNewestFirst {
		sortNewestFirst(items)
	}

	if items == nil {
		// Success([]) — пустое состояние, не ошибка.
		items = []models.ContentItem{}
	}

	return FetchState{State: StateSuccess, Items: items}
}

// HomeState — независимые состояния виджетов главной страницы.
type HomeState struct {
	Blogs    FetchState
	Podcasts FetchState
}

// LoadHome загружает блоги и подкасты конкурентно. Загрузки изолированы:
// отказ одной не блокирует и не портит другую; порядок завершения не важен.
func (l *Loader) LoadHome(ctx context.Context) HomeState {
	var (
		wg    sync.WaitGroup
		state HomeState
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		state.Blogs = l.LoadPublished(ctx, models.KindBlog, OrderNewestFirst)
	}()

	go func() {
		defer wg.Done()
		state.Podcasts = l.LoadPublished(ctx, models.KindPodcast, OrderNewestFirst)
	}()

	wg.Wait()
	return state
}

// Page — производная пагинация поверх уже загруженного списка.
// page нумеруется с 1; выход за границы даёт пустую страницу.
func Page(items []models.ContentItem, page, size int) []models.ContentItem {
	if page < 1 || size < 1 {
		return []models.ContentItem{}
	}

	start := (page - 1) * size
	if start >= len(items) {
		return []models.ContentItem{}
	}

	end := start + size
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

// normalize приводит медиа-поля записи к абсолютным URL.
func (l *Loader) normalize(item *models.ContentItem) {
	if item.Image != "" {
		item.Image = mediaurl.Resolve(item.Image, l.media.BaseURL, l.media.Placeholder)
	}

	if item.Thumbnail != "" {
		item.Thumbnail = mediaurl.Resolve(item.Thumbnail, l.media.BaseURL, l.media.Placeholder)
	}

	// Обложка обязана быть всегда: при полном отсутствии — плейсхолдер.
	if item.Image == "" && item.Thumbnail == "" {
		item.Image = l.media.Placeholder
	}

	// Пустой audioUrl остаётся пустым: «без плеера», не плейсхолдер.
	if item.AudioURL != "" {
		item.AudioURL = mediaurl.Resolve(item.AudioURL, l.media.BaseURL, "")
	}
}

// sortNewestFirst сортирует по времени публикации по убыванию.
// Стабильно: записи без даты сохраняют исходный относительный порядок в конце.
func sortNewestFirst(items []models.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedTime().After(items[j].PublishedTime())
	})
}

// failureMessage переводит классифицированную ошибку фетчера в
// пользовательскую формулировку.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, cms.ErrInvalidFormat):
		return msgInvalidFormat
	case errors.Is(err, cms.ErrRejected):
		return msgRejected
	default:
		return msgUnreachable
	}
}
