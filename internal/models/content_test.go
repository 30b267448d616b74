package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Тесты доменных типов (content.go).
//
// Покрытие:
//  - Duration: обе wire-формы (число секунд / готовая строка), null, мусор;
//  - PublishedTime: createdAt приоритетнее publishedAt, фолбэки форматов;
//  - MediaPath/Body/AuthorName: приоритеты полей.

func TestDuration_Unmarshal_NumericAndString(t *testing.T) {
	t.Parallel()

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`754`), &d))
	require.True(t, d.Numeric)
	require.EqualValues(t, 754, d.Seconds)

	require.NoError(t, json.Unmarshal([]byte(`"12 min"`), &d))
	require.False(t, d.Numeric)
	require.Equal(t, "12 min", d.Raw)

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	require.True(t, d.IsZero())

	require.Error(t, json.Unmarshal([]byte(`{"x":1}`), &d))
}

func TestDuration_Marshal_RoundTrip(t *testing.T) {
	t.Parallel()

	num := Duration{Seconds: 90, Numeric: true}
	b, err := json.Marshal(num)
	require.NoError(t, err)
	require.Equal(t, `90`, string(b))

	str := Duration{Raw: "5:30"}
	b, err = json.Marshal(str)
	require.NoError(t, err)
	require.Equal(t, `"5:30"`, string(b))
}

func TestContentItem_PublishedTime_Priority(t *testing.T) {
	t.Parallel()

	item := ContentItem{
		CreatedAt:   "2024-03-01T10:00:00Z",
		PublishedAt: "2024-01-01T10:00:00Z",
	}
	require.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), item.PublishedTime())

	// createdAt битый -> фолбэк на publishedAt.
	item.CreatedAt = "yesterday"
	require.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), item.PublishedTime())

	// короткая форма даты.
	item.CreatedAt = "2024-02-15"
	require.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), item.PublishedTime())

	// ничего не распарсилось -> нулевое время.
	require.True(t, ContentItem{CreatedAt: "n/a"}.PublishedTime().IsZero())
}

func TestContentItem_FieldPriorities(t *testing.T) {
	t.Parallel()

	item := ContentItem{Image: "a.jpg", Thumbnail: "b.jpg"}
	require.Equal(t, "a.jpg", item.MediaPath())

	item.Image = ""
	require.Equal(t, "b.jpg", item.MediaPath())

	require.Equal(t, "", ContentItem{}.AuthorName())
	require.Equal(t, "alice", ContentItem{Author: &Author{Name: " alice "}}.AuthorName())

	require.Equal(t, "full text", ContentItem{Content: "full text", Description: "short"}.Body())
	require.Equal(t, "short", ContentItem{Description: "short"}.Body())
}

func TestKind_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, KindBlog.Valid())
	require.True(t, KindPodcast.Valid())
	require.True(t, KindResource.Valid())
	require.False(t, Kind("news").Valid())
}
