// models описывает доменные типы content-gateway.
//
// ContentItem — read-only проекция записи внешней CMS (пост блога, выпуск
// подкаста или материал ресурсов). Клиент никогда не создаёт и не мутирует
// записи: они читаются на запрос и отбрасываются.
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind — вид контента. Определяет эндпойнт CMS и особенности рендера.
type Kind string

const (
	KindBlog     Kind = "blog"
	KindPodcast  Kind = "podcast"
	KindResource Kind = "resource"
)

// Valid сообщает, что вид контента известен шлюзу.
func (k Kind) Valid() bool {
	switch k {
	case KindBlog, KindPodcast, KindResource:
		return true
	default:
		return false
	}
}

// Author — автор записи. CMS гарантирует только поле name.
type Author struct {
	Name string `json:"name"`
}

// Duration — длительность выпуска подкаста.
//
// CMS отдаёт её в двух несовместимых формах: число секунд или уже
// отформатированная строка. Обе формы сохраняются как есть — приводить их
// к одной семантике нельзя (см. render.formatDuration).
type Duration struct {
	Seconds int64
	Raw     string
	// Numeric == true, если источник прислал число.
	Numeric bool
}

// IsZero — длительность не была прислана.
func (d Duration) IsZero() bool {
	return !d.Numeric && d.Raw == ""
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*d = Duration{}
		return nil
	}

	if s[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("duration: %w", err)
		}

		*d = Duration{Raw: strings.TrimSpace(raw)}
		return nil
	}

	// Числовая форма: допускаем дробные секунды, усечение к int64.
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration: %w", err)
	}

	*d = Duration{Seconds: int64(secs), Numeric: true}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	if d.Numeric {
		return []byte(strconv.FormatInt(d.Seconds, 10)), nil
	}

	return json.Marshal(d.Raw)
}

// ContentItem — обобщённая запись CMS (blogs / podcast / resources).
// Поля с camelCase-тегами повторяют wire-формат источника.
type ContentItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Image       string   `json:"image,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	AudioURL    string   `json:"audioUrl,omitempty"`
	Author      *Author  `json:"author,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	PublishedAt string   `json:"publishedAt,omitempty"`
	Duration    Duration `json:"duration,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// AuthorName возвращает имя автора или пустую строку.
// Фолбэк-текст для вёрстки подставляет рендер, а не модель.
func (c ContentItem) AuthorName() string {
	if c.Author == nil {
		return ""
	}

	return strings.TrimSpace(c.Author.Name)
}

// MediaPath — «сырое» поле обложки: image приоритетнее thumbnail.
func (c ContentItem) MediaPath() string {
	if c.Image != "" {
		return c.Image
	}

	return c.Thumbnail
}

// Body — основной текст для детального рендера: excerpt/description
// обязателен хотя бы один (инвариант источника).
func (c ContentItem) Body() string {
	if c.Content != "" {
		return c.Content
	}

	return c.Description
}

// PublishedTime парсит createdAt (фолбэк — publishedAt) как ISO-8601.
// Невалидная или отсутствующая дата даёт нулевое время: такие записи
// уходят в конец списка при сортировке «свежие сверху».
func (c ContentItem) PublishedTime() time.Time {
	for _, v := range []string{c.CreatedAt, c.PublishedAt} {
		if v == "" {
			continue
		}

		if ts, err := parseISO(v); err == nil {
			return ts
		}
	}

	return time.Time{}
}

// parseISO принимает RFC3339 c дробными секундами и без, а также
// короткую форму YYYY-MM-DD, встречающуюся у старых записей.
func parseISO(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported timestamp %q", v)
}
