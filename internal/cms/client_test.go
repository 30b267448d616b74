package cms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safevoice/content-gateway/internal/models"
)

// Тесты клиента CMS (client.go, credentials.go).
//
// Покрытие:
//  - бюджет попыток: ровно maxAttempts при постоянной ошибке, ровно k при
//    успехе на k-й попытке;
//  - бонус-ретрай на 401: токен сброшен ровно один раз, успех без
//    израсходования бюджета;
//  - классификация: сеть -> ErrUnavailable, не-2xx -> ErrRejected,
//    не-массив -> ErrInvalidFormat;
//  - конверт {data:[...]} эндпойнта resources;
//  - POST /reports и /newsletter/subscribe: одна попытка, без ретраев.

func newClient(t *testing.T, baseURL string, creds CredentialStore) *Client {
	t.Helper()

	return New(Options{
		BaseURL:        baseURL,
		MaxAttempts:    3,
		BackoffBase:    time.Millisecond,
		AttemptTimeout: 2 * time.Second,
	}, creds)
}

func itemsJSON(titles ...string) string {
	items := make([]models.ContentItem, 0, len(titles))
	for i, title := range titles {
		items = append(items, models.ContentItem{ID: string(rune('a' + i)), Title: title})
	}

	b, _ := json.Marshal(items)
	return string(b)
}

func TestListContent_SuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/blogs", r.URL.Path)
		require.Equal(t, "published", r.URL.Query().Get("status"))
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(itemsJSON("one", "two")))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore("secret"))

	items, err := c.ListContent(context.Background(), models.KindBlog)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

// Бюджет попыток: сервер всегда отвечает 500 -> ровно maxAttempts запросов
// и терминальный ErrRejected.
func TestListContent_ExhaustsAttempts_Rejected(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore(""))

	_, err := c.ListContent(context.Background(), models.KindBlog)
	require.ErrorIs(t, err, ErrRejected)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

// Сетевая ошибка (сервер закрыт) -> ErrUnavailable, ровно maxAttempts попыток.
func TestListContent_NetworkError_Unavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // адрес есть, слушателя нет.

	c := newClient(t, srv.URL, NewStaticStore(""))

	_, err := c.ListContent(context.Background(), models.KindPodcast)
	require.ErrorIs(t, err, ErrUnavailable)
}

// Успех на второй попытке: ровно два запроса.
func TestListContent_SucceedsOnSecondAttempt(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(itemsJSON("late")))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore(""))

	items, err := c.ListContent(context.Background(), models.KindBlog)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

// countingStore считает вызовы Invalidate поверх staticStore.
type countingStore struct {
	CredentialStore
	invalidations int32
}

func (s *countingStore) Invalidate(ctx context.Context) error {
	atomic.AddInt32(&s.invalidations, 1)
	return s.CredentialStore.Invalidate(ctx)
}

// 401 на первой попытке, успех на немедленном бонус-ретрае:
// токен сброшен ровно один раз, бюджет попыток не тронут.
func TestListContent_BonusRetryOn401(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			require.Equal(t, "Bearer stale", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		// После сброса токена Authorization отсутствует.
		require.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(itemsJSON("a", "b")))
	}))
	defer srv.Close()

	store := &countingStore{CredentialStore: NewStaticStore("stale")}
	c := newClient(t, srv.URL, store)

	items, err := c.ListContent(context.Background(), models.KindBlog)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
	require.EqualValues(t, 1, atomic.LoadInt32(&store.invalidations))
}

// Постоянный 401: бонус-ретрай один, дальше обычный бюджет; итог — ErrRejected.
func TestListContent_PersistentUnauthorized(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &countingStore{CredentialStore: NewStaticStore("stale")}
	c := newClient(t, srv.URL, store)

	_, err := c.ListContent(context.Background(), models.KindBlog)
	require.ErrorIs(t, err, ErrRejected)
	// 3 бюджетных + 1 бонус.
	require.EqualValues(t, 4, atomic.LoadInt32(&calls))
	require.EqualValues(t, 1, atomic.LoadInt32(&store.invalidations))
}

// 200 с объектом вместо массива -> ErrInvalidFormat, не Success.
func TestListContent_NonArrayBody_InvalidFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore(""))

	_, err := c.ListContent(context.Background(), models.KindBlog)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

// Конверт resources: {data:[...]} разбирается, items достаются из data.
func TestListContent_ResourcesEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/resources", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"r1","title":"guide"}],"total":1}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore(""))

	items, err := c.ListContent(context.Background(), models.KindResource)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "guide", items[0].Title)
}

// Пустой массив — валидный успех (empty-state, а не ошибка).
func TestListContent_EmptyArray_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore(""))

	items, err := c.ListContent(context.Background(), models.KindBlog)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestDecodeItems_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr bool
		wantLen int
	}{
		{"array", `[{"id":"1"}]`, false, 1},
		{"envelope", `{"data":[{"id":"1"},{"id":"2"}]}`, false, 2},
		{"empty_array", `[]`, false, 0},
		{"object_no_data", `{"items":[]}`, true, 0},
		{"data_not_array", `{"data":{"id":"1"}}`, true, 0},
		{"scalar", `42`, true, 0},
		{"empty_body", ``, true, 0},
		{"broken_json", `[{"id":`, true, 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			items, err := decodeItems([]byte(tc.body))
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidFormat)
				return
			}

			require.NoError(t, err)
			require.Len(t, items, tc.wantLen)
		})
	}
}

func TestSubmitReport_SingleAttempt(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/reports", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))

		var got map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		// Анонимное обращение: только message.
		require.Equal(t, map[string]string{"message": "help needed"}, got)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore(""))

	require.NoError(t, c.SubmitReport(context.Background(), Report{Message: "help needed"}))
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

// Ошибка CMS при отправке обращения не ретраится.
func TestSubmitReport_NoRetryOnFailure(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore(""))

	err := c.SubmitReport(context.Background(), Report{Message: "x"})
	require.ErrorIs(t, err, ErrRejected)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSubmitReport_EmptyMessage(t *testing.T) {
	t.Parallel()

	c := newClient(t, "http://unused", NewStaticStore(""))
	require.Error(t, c.SubmitReport(context.Background(), Report{Message: "   "}))
}

func TestSubscribeNewsletter_OK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/newsletter/subscribe", r.URL.Path)

		var got map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Equal(t, "a@b.org", got["email"])

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, NewStaticStore(""))
	require.NoError(t, c.SubscribeNewsletter(context.Background(), "a@b.org"))
}

// Invalidate статического стора идемпотентен.
func TestStaticStore_InvalidateIdempotent(t *testing.T) {
	t.Parallel()

	s := NewStaticStore("tok")
	ctx := context.Background()

	got, err := s.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok", got)

	require.NoError(t, s.Invalidate(ctx))
	require.NoError(t, s.Invalidate(ctx))

	got, err = s.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}
