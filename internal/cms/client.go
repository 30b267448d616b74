// cms — клиент внешней headless-CMS с устойчивой загрузкой.
//
// Единственная точка, где шлюз ходит в сеть: ограниченные ретраи с линейным
// бэкоффом, разовый бонус-ретрай после сброса токена на 401 и классификация
// терминальных ошибок. Наружу ошибки выходят только как sentinel-обёртки —
// паники и «сырые» сетевые ошибки за границу пакета не выпускаются.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/safevoice/content-gateway/internal/models"
	"github.com/safevoice/content-gateway/pkg/log"
)

// Классификация терминальных ошибок. Транспортный слой маппит их в
// HTTP-статусы, loader — в пользовательские сообщения.
var (
	// ErrUnavailable — CMS недоступна: сетевые ошибки и таймауты,
	// не прошедшие ретраи.
	ErrUnavailable = errors.New("content service unreachable")
	// ErrRejected — CMS ответила, но отвергла запрос (не-2xx после ретраев).
	ErrRejected = errors.New("content service rejected the request")
	// ErrInvalidFormat — ответ получен, но там не массив, где ожидался массив.
	ErrInvalidFormat = errors.New("invalid data format from content service")
)

// errUnauthorized — внутренний маркер 401 для бонус-ретрая.
var errUnauthorized = errors.New("unauthorized")

// statusError сохраняет код не-2xx ответа до классификации.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("upstream status %d", e.code) }

// Пределы по умолчанию; переопределяются конфигом.
const (
	defaultMaxAttempts    = 3
	defaultBackoffBase    = time.Second
	defaultAttemptTimeout = 12 * time.Second

	// maxBodyBytes ограничивает чтение тела ответа.
	maxBodyBytes = 10 << 20
)

// Options — параметры клиента.
type Options struct {
	// BaseURL — origin CMS без завершающего "/".
	BaseURL string
	// MaxAttempts — размер бюджета попыток (бонус-ретрай на 401 не в счёт).
	MaxAttempts int
	// BackoffBase — база линейного бэкоффа: пауза = BackoffBase * номер попытки.
	BackoffBase time.Duration
	// AttemptTimeout — таймаут одной попытки (не кумулятивный).
	AttemptTimeout time.Duration
}

// Client — HTTP-клиент CMS. Безопасен для конкурентного использования.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	creds          CredentialStore
	maxAttempts    int
	backoffBase    time.Duration
	attemptTimeout time.Duration
}

// New создаёт клиент CMS. creds обязателен: даже пустой токен читается
// перед каждой попыткой (он мог смениться между попытками).
func New(opts Options, creds CredentialStore) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}

	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}

	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		// Таймаут живёт на контексте попытки, а не на клиенте.
		httpClient:     &http.Client{},
		creds:          creds,
		maxAttempts:    opts.MaxAttempts,
		backoffBase:    opts.BackoffBase,
		attemptTimeout: opts.AttemptTimeout,
	}
}

// endpointFor — маппинг вида контента на путь CMS.
func endpointFor(kind models.Kind) (string, error) {
	switch kind {
	case models.KindBlog:
		return "/blogs", nil
	case models.KindPodcast:
		return "/podcast", nil
	case models.KindResource:
		return "/resources", nil
	default:
		return "", fmt.Errorf("unknown content kind %q", kind)
	}
}

// ListContent загружает опубликованные записи вида kind.
//
// Контракт устойчивости:
//   - до maxAttempts попыток, пауза backoffBase*attempt между ними;
//   - 401 один раз сбрасывает токен и даёт немедленный бонус-ретрай сверх
//     бюджета попыток;
//   - тело не-массив (и не {data:[...]}) — ошибка формата; она тоже
//     ретраится, источник может починиться к следующей попытке;
//   - терминальный результат всегда один из sentinel-ошибок пакета.
func (c *Client) ListContent(ctx context.Context, kind models.Kind) ([]models.ContentItem, error) {
	const op = "cms/ListContent"

	path, err := endpointFor(kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := url.Values{"status": []string{"published"}}

	items, err := c.fetchWithRetry(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

// fetchWithRetry — ядро Resilient Fetcher: цикл попыток вокруг
// «загрузить и разобрать список».
func (c *Client) fetchWithRetry(ctx context.Context, path string, query url.Values) ([]models.ContentItem, error) {
	const op = "cms/fetchWithRetry"

	lg := log.From(ctx)
	timer := time.Now()
	defer func() {
		fetchDuration.WithLabelValues(path).Observe(time.Since(timer).Seconds())
	}()

	try := func() ([]models.ContentItem, error) {
		fetchAttempts.WithLabelValues(path).Inc()

		body, err := c.fetchOnce(ctx, path, query)
		if err != nil {
			return nil, err
		}

		return decodeItems(body)
	}

	bonusUsed := false
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		items, err := try()
		if err == nil {
			return items, nil
		}

		// 401: сбрасываем токен и делаем один внеочередной ретрай,
		// не списывая его с бюджета попыток.
		if errors.Is(err, errUnauthorized) && !bonusUsed {
			bonusUsed = true

			if ierr := c.creds.Invalidate(ctx); ierr != nil {
				lg.Warn("token_invalidate_failed",
					slog.String("op", op),
					slog.String("err", ierr.Error()),
				)
			}

			fetchRetries.WithLabelValues(path).Inc()

			items, err = try()
			if err == nil {
				return items, nil
			}
		}

		lastErr = err
		lg.Warn("fetch_attempt_failed",
			slog.String("op", op),
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)

		if attempt == c.maxAttempts {
			break
		}

		fetchRetries.WithLabelValues(path).Inc()

		select {
		case <-ctx.Done():
			return nil, c.classify(path, lastErr)
		case <-time.After(c.backoffBase * time.Duration(attempt)):
		}
	}

	return nil, c.classify(path, lastErr)
}

// fetchOnce выполняет одну попытку GET с собственным таймаутом.
func (c *Client) fetchOnce(ctx context.Context, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new_request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	// Токен читается перед каждой попыткой: после сброса на 401
	// следующая попытка уходит уже без (или с новым) токеном.
	token, err := c.creds.Token(ctx)
	if err != nil {
		log.From(ctx).Warn("token_read_failed", slog.String("err", err.Error()))
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return nil, errUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read_body: %w", err)
	}

	return body, nil
}

// decodeItems разбирает тело списка: голый JSON-массив или конверт
// {data: [...]} (форма эндпойнта resources). Всё остальное — ErrInvalidFormat:
// вызывающий никогда не получит не-массив там, где ждал список.
func decodeItems(body []byte) ([]models.ContentItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidFormat)
	}

	switch trimmed[0] {
	case '[':
		var items []models.ContentItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}

		return items, nil
	case '{':
		var env struct {
			Data json.RawMessage `json:"data"`
		}

		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}

		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 || data[0] != '[' {
			return nil, fmt.Errorf("%w: object without data array", ErrInvalidFormat)
		}

		var items []models.ContentItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}

		return items, nil
	default:
		return nil, fmt.Errorf("%w: expected array", ErrInvalidFormat)
	}
}

// classify сводит накопленную ошибку попыток к sentinel-виду и пишет метрику.
func (c *Client) classify(path string, err error) error {
	var se *statusError

	switch {
	case errors.Is(err, ErrInvalidFormat):
		fetchFailures.WithLabelValues(path, "invalid_format").Inc()
		return err
	case errors.Is(err, errUnauthorized):
		fetchFailures.WithLabelValues(path, "rejected").Inc()
		return fmt.Errorf("%w: authorization kept failing after token reset", ErrRejected)
	case errors.As(err, &se):
		fetchFailures.WithLabelValues(path, "rejected").Inc()
		return fmt.Errorf("%w: status %d", ErrRejected, se.code)
	default:
		fetchFailures.WithLabelValues(path, "unreachable").Inc()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// Report — обращение со страницы report-abuse. Name/Email пусты при
// анонимной отправке и тогда не сериализуются.
type Report struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

// SubmitReport отправляет обращение в CMS. Fire-and-forget: одна попытка,
// без ретраев. Идемпотентность на стороне CMS обеспечивает ключ запроса.
func (c *Client) SubmitReport(ctx context.Context, report Report) error {
	const op = "cms/SubmitReport"

	if strings.TrimSpace(report.Message) == "" {
		return fmt.Errorf("%s: empty message", op)
	}

	headers := map[string]string{"X-Idempotency-Key": uuid.NewString()}
	if err := c.postJSON(ctx, "/reports", report, headers); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SubscribeNewsletter подписывает адрес на рассылку. Формат адреса
// валидирует вызывающий слой; здесь только доставка.
func (c *Client) SubscribeNewsletter(ctx context.Context, email string) error {
	const op = "cms/SubscribeNewsletter"

	payload := struct {
		Email string `json:"email"`
	}{Email: email}

	if err := c.postJSON(ctx, "/newsletter/subscribe", payload, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// postJSON — одна POST-попытка с таймаутом попытки; ошибки классифицируются
// так же, как у GET, но без ретраев.
func (c *Client) postJSON(ctx context.Context, path string, payload any, headers map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new_request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	token, terr := c.creds.Token(ctx)
	if terr != nil {
		log.From(ctx).Warn("token_read_failed", slog.String("err", terr.Error()))
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	return nil
}
