package store

import (
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadplanner/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(path.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreatePosts(t *testing.T) {
	assert := assert.New(t)

	t.Run("sequential policy preserves upload order", func(t *testing.T) {
		store := testStore(t)

		created, err := store.CreatePosts([]model.NormalizedPost{
			{Content: "first"},
			{Content: "second"},
			{Content: "third", Images: []string{"https://x/a.png"}},
		}, ScheduleSequential)
		assert.Nil(err)
		if assert.Len(created, 3) {
			assert.True(created[0].ScheduledAt.Before(created[1].ScheduledAt))
			assert.True(created[1].ScheduledAt.Before(created[2].ScheduledAt))
		}

		due, err := store.DuePosts(time.Now().Add(time.Hour), 10)
		assert.Nil(err)
		if assert.Len(due, 3) {
			assert.Equal("first", due[0].Content)
			assert.Equal("second", due[1].Content)
			assert.Equal("third", due[2].Content)
			assert.Equal([]string{"https://x/a.png"}, []string(due[2].ImageURLs))
			assert.Equal(model.PostStatusPending, due[0].Status)
		}
	})

	t.Run("explicit schedules are kept", func(t *testing.T) {
		store := testStore(t)

		at := time.Date(2026, 1, 20, 10, 0, 0, 0, time.Local)
		created, err := store.CreatePosts([]model.NormalizedPost{
			{Content: "scheduled", ScheduledAt: &at},
		}, ScheduleSequential)
		assert.Nil(err)
		if assert.Len(created, 1) {
			assert.True(created[0].ScheduledAt.Equal(at))
		}
	})

	t.Run("daily slots advance through KST slot times", func(t *testing.T) {
		store := testStore(t)

		created, err := store.CreatePosts([]model.NormalizedPost{
			{Content: "one"},
			{Content: "two"},
			{Content: "three"},
			{Content: "four"},
		}, ScheduleDailySlots)
		assert.Nil(err)
		if assert.Len(created, 4) {
			for i := 1; i < len(created); i++ {
				assert.True(created[i-1].ScheduledAt.Before(created[i].ScheduledAt))
			}
			for _, post := range created {
				hour := post.ScheduledAt.In(kst).Hour()
				assert.Contains(dailySlotHours, hour)
				assert.True(post.ScheduledAt.After(time.Now()))
			}
		}
	})
}

func TestDuePosts(t *testing.T) {
	assert := assert.New(t)
	store := testStore(t)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	_, err := store.CreatePosts([]model.NormalizedPost{
		{Content: "due", ScheduledAt: &past},
		{Content: "not yet", ScheduledAt: &future},
	}, ScheduleSequential)
	assert.Nil(err)

	t.Run("only due pending posts", func(t *testing.T) {
		due, err := store.DuePosts(time.Now(), 10)
		assert.Nil(err)
		if assert.Len(due, 1) {
			assert.Equal("due", due[0].Content)
		}
	})

	t.Run("batch cap applies", func(t *testing.T) {
		earlier := time.Now().Add(-2 * time.Hour)
		_, err := store.CreatePosts([]model.NormalizedPost{
			{Content: "older", ScheduledAt: &earlier},
		}, ScheduleSequential)
		assert.Nil(err)

		due, err := store.DuePosts(time.Now(), 1)
		assert.Nil(err)
		if assert.Len(due, 1) {
			assert.Equal("older", due[0].Content)
		}
	})
}

func TestDuePostsAcrossTimeZones(t *testing.T) {
	assert := assert.New(t)
	store := testStore(t)

	// 18:00 KST is 09:00 UTC, before the UTC-zoned schedule below; comparing
	// the stored text by offset instead of instant would invert this
	kstSchedule := time.Date(2026, 8, 31, 18, 0, 0, 0, kst)
	utcSchedule := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	_, err := store.CreatePosts([]model.NormalizedPost{
		{Content: "utc", ScheduledAt: &utcSchedule},
		{Content: "kst", ScheduledAt: &kstSchedule},
	}, ScheduleSequential)
	require.NoError(t, err)

	t.Run("selection compares instants, not offsets", func(t *testing.T) {
		due, err := store.DuePosts(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC), 10)
		assert.Nil(err)
		assert.Len(due, 2)
	})

	t.Run("ordering follows the instant", func(t *testing.T) {
		due, err := store.DuePosts(time.Date(2026, 8, 31, 23, 0, 0, 0, kst), 10)
		assert.Nil(err)
		if assert.Len(due, 2) {
			assert.Equal("kst", due[0].Content)
			assert.Equal("utc", due[1].Content)
		}
	})

	t.Run("stored schedules keep their instant", func(t *testing.T) {
		posts, err := store.ListPosts(model.PostStatusPending)
		assert.Nil(err)
		if assert.Len(posts, 2) {
			assert.True(posts[0].ScheduledAt.Equal(kstSchedule))
			assert.True(posts[1].ScheduledAt.Equal(utcSchedule))
		}
	})
}

func TestStatusTransitions(t *testing.T) {
	assert := assert.New(t)
	store := testStore(t)

	past := time.Now().Add(-time.Hour)
	created, err := store.CreatePosts([]model.NormalizedPost{
		{Content: "a", ScheduledAt: &past},
		{Content: "b", ScheduledAt: &past},
	}, ScheduleSequential)
	require.NoError(t, err)
	require.Len(t, created, 2)

	t.Run("mark published", func(t *testing.T) {
		err := store.MarkPublished(created[0].ID, "threads-123", time.Now())
		assert.Nil(err)

		post, err := store.GetPost(created[0].ID)
		assert.Nil(err)
		assert.Equal(model.PostStatusPublished, post.Status)
		assert.Equal("threads-123", post.ThreadsID)
		assert.NotNil(post.PublishedAt)
	})

	t.Run("mark failed", func(t *testing.T) {
		err := store.MarkFailed(created[1].ID, "rate limited")
		assert.Nil(err)

		post, err := store.GetPost(created[1].ID)
		assert.Nil(err)
		assert.Equal(model.PostStatusFailed, post.Status)
		assert.Equal("rate limited", post.ErrorLog)
	})

	t.Run("failed posts are not selected as due", func(t *testing.T) {
		due, err := store.DuePosts(time.Now(), 10)
		assert.Nil(err)
		assert.Empty(due)
	})

	t.Run("requeue failed post", func(t *testing.T) {
		err := store.Requeue(created[1].ID)
		assert.Nil(err)

		post, err := store.GetPost(created[1].ID)
		assert.Nil(err)
		assert.Equal(model.PostStatusPending, post.Status)
		assert.Empty(post.ErrorLog)
	})

	t.Run("requeue only applies to failed posts", func(t *testing.T) {
		err := store.Requeue(created[0].ID)
		assert.ErrorIs(err, model.ErrorPostNotFound)
	})

	t.Run("unknown ids surface not found", func(t *testing.T) {
		assert.ErrorIs(store.MarkPublished("nope", "x", time.Now()), model.ErrorPostNotFound)
		assert.ErrorIs(store.MarkFailed("nope", "x"), model.ErrorPostNotFound)
		assert.ErrorIs(store.DeletePost("nope"), model.ErrorPostNotFound)
	})
}

func TestDeletion(t *testing.T) {
	assert := assert.New(t)
	store := testStore(t)

	past := time.Now().Add(-time.Hour)
	created, err := store.CreatePosts([]model.NormalizedPost{
		{Content: "a", ScheduledAt: &past},
		{Content: "b", ScheduledAt: &past},
		{Content: "c", ScheduledAt: &past},
	}, ScheduleSequential)
	require.NoError(t, err)

	require.NoError(t, store.MarkPublished(created[0].ID, "threads-1", time.Now()))

	t.Run("delete by id", func(t *testing.T) {
		assert.Nil(store.DeletePost(created[1].ID))
		_, err := store.GetPost(created[1].ID)
		assert.ErrorIs(err, model.ErrorPostNotFound)
	})

	t.Run("bulk delete pending leaves published", func(t *testing.T) {
		deleted, err := store.DeletePending()
		assert.Nil(err)
		assert.EqualValues(1, deleted)

		remaining, err := store.ListPosts("")
		assert.Nil(err)
		if assert.Len(remaining, 1) {
			assert.Equal(model.PostStatusPublished, remaining[0].Status)
		}
	})
}

func TestSettings(t *testing.T) {
	assert := assert.New(t)
	store := testStore(t)

	t.Run("missing settings surface a sentinel", func(t *testing.T) {
		_, err := store.GetSettings()
		assert.ErrorIs(err, model.ErrorSettingsNotFound)
	})

	t.Run("save and reload", func(t *testing.T) {
		err := store.SaveSettings(&model.Settings{
			AccessToken: "token-1",
			UserID:      "user-1",
			TokenExpiry: time.Now().Add(24 * time.Hour),
		})
		assert.Nil(err)

		settings, err := store.GetSettings()
		assert.Nil(err)
		assert.Equal("token-1", settings.AccessToken)
		assert.Equal("user-1", settings.UserID)
		assert.NotNil(settings.UpdatedAt)
	})

	t.Run("save replaces the single row", func(t *testing.T) {
		err := store.SaveSettings(&model.Settings{
			AccessToken: "token-2",
			UserID:      "user-1",
			TokenExpiry: time.Now().Add(48 * time.Hour),
		})
		assert.Nil(err)

		settings, err := store.GetSettings()
		assert.Nil(err)
		assert.Equal("token-2", settings.AccessToken)
	})
}
