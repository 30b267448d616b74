// render синтезирует из записи CMS структурированный документ для
// детального оверлея на сайте. Рендер детерминирован: никакого «сейчас»,
// только поля самой записи.
package render

import (
	"fmt"
	"strings"

	"github.com/safevoice/content-gateway/internal/mediaurl"
	"github.com/safevoice/content-gateway/internal/models"
)

// Фолбэк-тексты для отсутствующих полей.
const (
	fallbackTopic  = "key insights"
	fallbackAuthor = "an expert contributor"
)

// callToAction — фиксированный блок «что можно сделать».
const callToAction = "Every voice matters. Share this with your community, " +
	"talk to the children in your life, and if you see something — report it. " +
	"Together we keep kids safe."

// AudioRef — ссылка на аудио для выпусков подкаста.
type AudioRef struct {
	URL      string `json:"url"`
	Duration string `json:"duration,omitempty"`
}

// Document — фиксированная структура детального представления.
type Document struct {
	Heading      string    `json:"heading"`
	Quote        string    `json:"quote,omitempty"`
	About        string    `json:"about"`
	Bullets      []string  `json:"bullets"`
	CallToAction string    `json:"call_to_action"`
	Audio        *AudioRef `json:"audio,omitempty"`
	Footer       string    `json:"footer"`
}

// Renderer параметризован медиа-базой: audioUrl прогоняется через
// нормализатор на случай, если запись пришла в рендер без загрузчика.
type Renderer struct {
	mediaBase string
}

// New создаёт новый Renderer.
func New(mediaBase string) *Renderer {
	return &Renderer{mediaBase: mediaBase}
}

// Detail собирает документ из записи.
//
// Структура фиксирована: заголовок, цитата-excerpt (если есть), абзац
// «о чём это» с фолбэками на категорию/автора, маркированный список из
// строк тела, блок call-to-action и футер с датой и тегами.
//
// Для подкастов дополнительно: аудио-ссылка со строкой длительности, а в
// буллеты уходит description, не content.
func (r *Renderer) Detail(item models.ContentItem, kind models.Kind) Document {
	doc := Document{
		Heading:      strings.TrimSpace(item.Title),
		CallToAction: callToAction,
	}

	if q := strings.TrimSpace(item.Excerpt); q != "" {
		doc.Quote = q
	}

	doc.About = aboutParagraph(item)

	body := item.Body()
	if kind == models.KindPodcast {
		body = item.Description

		if item.AudioURL != "" {
			doc.Audio = &AudioRef{
				URL:      mediaurl.Resolve(item.AudioURL, r.mediaBase, ""),
				Duration: formatDuration(item.Duration),
			}
		}
	}

	doc.Bullets = bullets(body)
	doc.Footer = footer(item)

	return doc
}

// aboutParagraph — контекстный абзац с фолбэками.
func aboutParagraph(item models.ContentItem) string {
	topic := strings.TrimSpace(item.Category)
	if topic == "" {
		topic = fallbackTopic
	}

	author := item.AuthorName()
	if author == "" {
		author = fallbackAuthor
	}

	return fmt.Sprintf("This piece focuses on %s and was prepared by %s.", topic, author)
}

// bullets режет тело по переводам строк, отбрасывая пустые.
func bullets(body string) []string {
	out := []string{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		out = append(out, line)
	}

	return out
}

// footer — «Published on <длинная дата> · Tags: a, b» (или "None").
func footer(item models.ContentItem) string {
	published := "Unknown date"
	if ts := item.PublishedTime(); !ts.IsZero() {
		published = ts.Format("January 2, 2006")
	}

	tags := "None"
	if len(item.Tags) > 0 {
		tags = strings.Join(item.Tags, ", ")
	}

	return fmt.Sprintf("Published on %s · Tags: %s", published, tags)
}

// formatDuration поддерживает обе wire-формы длительности, не унифицируя
// их смысл: строка источника идёт в вывод как есть («label minutes»),
// число секунд форматируется как m:ss.
func formatDuration(d models.Duration) string {
	switch {
	case d.Numeric:
		return fmt.Sprintf("%d:%02d minutes", d.Seconds/60, d.Seconds%60)
	case d.Raw != "":
		return d.Raw + " minutes"
	default:
		return ""
	}
}
