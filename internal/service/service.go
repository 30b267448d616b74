// service содержит бизнес-логику content-gateway: загрузку списков контента
// с нормализацией медиа-полей, сортировкой и производной пагинацией.
package service

import (
	"context"
	"errors"

	"github.com/safevoice/content-gateway/internal/models"
)

var (
	// ErrInvalidArgument — некорректные входные аргументы.
	// Транспорт: 400.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound — запись отсутствует в загруженном списке.
	// Транспорт: 404.
	ErrNotFound = errors.New("not found")
)

// ContentSource — граница с клиентом CMS; в тестах подменяется моком.
type ContentSource interface {
	// ListContent возвращает опубликованные записи вида kind.
	ListContent(ctx context.Context, kind models.Kind) ([]models.ContentItem, error)
}

// MediaOptions — параметры нормализации медиа-полей.
type MediaOptions struct {
	// BaseURL — origin для относительных путей image/thumbnail/audioUrl.
	BaseURL string
	// Placeholder подставляется вместо отсутствующей обложки.
	// На аудио не распространяется: отсутствие audioUrl значит «без плеера».
	Placeholder string
}

// Loader — Content List Loader: оркестрирует вызовы ContentSource
// и доводит записи до готового к отдаче вида.
type Loader struct {
	source ContentSource
	media  MediaOptions
}

// NewLoader создаёт новый Loader.
func NewLoader(source ContentSource, media MediaOptions) *Loader {
	return &Loader{source: source, media: media}
}
