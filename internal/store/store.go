package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nrednav/cuid2"

	"threadplanner/internal/boot"
	"threadplanner/internal/model"
)

// SchedulingPolicy decides how posts without an explicit schedule get their
// ScheduledAt at creation time.
type SchedulingPolicy int

const (
	// ScheduleSequential assigns now + n seconds to the n-th post, so the
	// dispatcher's scheduled-order selection preserves upload order.
	ScheduleSequential SchedulingPolicy = iota
	// ScheduleDailySlots assigns fixed KST-local daily slot times, one post
	// per slot, advancing day by day.
	ScheduleDailySlots
)

var kst = time.FixedZone("KST", 9*60*60)

// dailySlotHours are the KST posting slots used by ScheduleDailySlots.
var dailySlotHours = []int{8, 12, 19}

type Store struct {
	db *sqlx.DB
}

func New(config *boot.Config) (*Store, error) {
	return Open(path.Join(config.DataDir, "threadplanner.db"))
}

func Open(dbName string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", "file:"+dbName+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	_, err := s.db.Exec(`create table if not exists post(
		ID          text not null primary key,
		CreatedAt   DATETIME not null,
		ScheduledAt DATETIME not null,
		PublishedAt DATETIME null,
		Status      text not null default 'pending',
		Content     text not null,
		ImageURLs   text not null default '[]',
		ThreadsID   text not null default '',
		ErrorLog    text not null default ''
	)`)
	if err != nil {
		return fmt.Errorf("creating post table: %w", err)
	}

	_, err = s.db.Exec(`create index if not exists post_due on post(Status, ScheduledAt)`)
	if err != nil {
		return fmt.Errorf("creating post index: %w", err)
	}

	_, err = s.db.Exec(`create table if not exists settings(
		ID          integer not null primary key check (ID = 1),
		AccessToken text not null,
		UserID      text not null,
		TokenExpiry DATETIME not null,
		UpdatedAt   DATETIME null
	)`)
	if err != nil {
		return fmt.Errorf("creating settings table: %w", err)
	}

	return nil
}

// CreatePosts persists an ingested batch as pending posts in one transaction.
// Posts carrying their own schedule keep it; the rest are assigned one by the
// policy.
func (s *Store) CreatePosts(posts []model.NormalizedPost, policy SchedulingPolicy) ([]model.Post, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	slot := nextDailySlot(now)

	created := make([]model.Post, 0, len(posts))
	for i, normalized := range posts {
		scheduledAt := now.Add(time.Duration(i) * time.Second)
		switch {
		case normalized.ScheduledAt != nil:
			scheduledAt = *normalized.ScheduledAt
		case policy == ScheduleDailySlots:
			scheduledAt = slot
			slot = nextDailySlot(slot)
		}

		// timestamps are stored in UTC: the driver binds time.Time as
		// offset-carrying text and sqlite compares it lexically, so mixed
		// offsets would break due selection and ScheduledAt ordering
		post := model.Post{
			ID:          cuid2.Generate(),
			CreatedAt:   now,
			ScheduledAt: scheduledAt.UTC(),
			Status:      model.PostStatusPending,
			Content:     normalized.Content,
			ImageURLs:   model.StringList(normalized.Images),
		}

		res, err := tx.NamedExec(`insert into post
			(ID, CreatedAt, ScheduledAt, Status, Content, ImageURLs)
			values(:ID, :CreatedAt, :ScheduledAt, :Status, :Content, :ImageURLs)`, post)
		if err != nil {
			return nil, fmt.Errorf("inserting post: %w", err)
		}
		if rows, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("getting rows affected: %w", err)
		} else if rows != 1 {
			return nil, fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}

		created = append(created, post)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return created, nil
}

// nextDailySlot returns the first KST slot time strictly after t.
func nextDailySlot(t time.Time) time.Time {
	local := t.In(kst)
	for _, hour := range dailySlotHours {
		slot := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, kst)
		if slot.After(t) {
			return slot
		}
	}
	next := local.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), dailySlotHours[0], 0, 0, 0, kst)
}

func (s *Store) ListPosts(status model.PostStatus) ([]model.Post, error) {
	posts := []model.Post{}
	var err error
	if status == "" {
		err = s.db.Select(&posts, `select * from post order by ScheduledAt asc`)
	} else {
		err = s.db.Select(&posts, `select * from post where Status = ? order by ScheduledAt asc`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

func (s *Store) GetPost(id string) (*model.Post, error) {
	post := &model.Post{}
	err := s.db.Get(post, `select * from post where ID = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrorPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching post: %w", err)
	}
	return post, nil
}

// DuePosts selects pending posts whose schedule has passed, oldest first, up
// to limit. The ordering approximates FIFO for sequentially scheduled posts.
func (s *Store) DuePosts(now time.Time, limit int) ([]model.Post, error) {
	posts := []model.Post{}
	err := s.db.Select(&posts, `select * from post
		where Status = ? and ScheduledAt <= ?
		order by ScheduledAt asc limit ?`, model.PostStatusPending, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("selecting due posts: %w", err)
	}
	return posts, nil
}

func (s *Store) MarkPublished(id, threadsID string, at time.Time) error {
	res, err := s.db.Exec(`update post
		set Status = ?, ThreadsID = ?, PublishedAt = ?, ErrorLog = ''
		where ID = ?`, model.PostStatusPublished, threadsID, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("marking post published: %w", err)
	}
	return oneRow(res)
}

func (s *Store) MarkFailed(id, message string) error {
	res, err := s.db.Exec(`update post
		set Status = ?, ErrorLog = ?
		where ID = ?`, model.PostStatusFailed, message, id)
	if err != nil {
		return fmt.Errorf("marking post failed: %w", err)
	}
	return oneRow(res)
}

// Requeue puts a failed post back in the pending queue. The dispatcher never
// retries failed posts on its own.
func (s *Store) Requeue(id string) error {
	res, err := s.db.Exec(`update post
		set Status = ?, ErrorLog = ''
		where ID = ? and Status = ?`, model.PostStatusPending, id, model.PostStatusFailed)
	if err != nil {
		return fmt.Errorf("requeueing post: %w", err)
	}
	return oneRow(res)
}

func (s *Store) DeletePost(id string) error {
	res, err := s.db.Exec(`delete from post where ID = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return oneRow(res)
}

func (s *Store) DeletePending() (int64, error) {
	res, err := s.db.Exec(`delete from post where Status = ?`, model.PostStatusPending)
	if err != nil {
		return 0, fmt.Errorf("deleting pending posts: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return rows, nil
}

func (s *Store) GetSettings() (*model.Settings, error) {
	settings := &model.Settings{}
	err := s.db.Get(settings, `select * from settings where ID = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrorSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching settings: %w", err)
	}
	return settings, nil
}

func (s *Store) SaveSettings(settings *model.Settings) error {
	settings.ID = 1
	settings.TokenExpiry = settings.TokenExpiry.UTC()
	now := time.Now().UTC()
	settings.UpdatedAt = &now

	_, err := s.db.NamedExec(`insert into settings
		(ID, AccessToken, UserID, TokenExpiry, UpdatedAt)
		values(:ID, :AccessToken, :UserID, :TokenExpiry, :UpdatedAt)
		on conflict(ID) do update set
			AccessToken = excluded.AccessToken,
			UserID = excluded.UserID,
			TokenExpiry = excluded.TokenExpiry,
			UpdatedAt = excluded.UpdatedAt`, settings)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

func oneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrorPostNotFound
	}
	return nil
}
