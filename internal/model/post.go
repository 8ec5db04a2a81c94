package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type PostStatus string

const (
	PostStatusPending   PostStatus = "pending"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// NormalizedPost is the output of file ingestion, before persistence. A nil
// ScheduledAt means the schedule is assigned at creation time.
type NormalizedPost struct {
	Content     string     `json:"content"`
	Images      []string   `json:"images"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

type Post struct {
	ID          string     `db:"ID" json:"id"`
	CreatedAt   time.Time  `db:"CreatedAt" json:"createdAt"`
	ScheduledAt time.Time  `db:"ScheduledAt" json:"scheduledAt"`
	PublishedAt *time.Time `db:"PublishedAt" json:"publishedAt,omitempty"`
	Status      PostStatus `db:"Status" json:"status"`
	Content     string     `db:"Content" json:"content"`
	ImageURLs   StringList `db:"ImageURLs" json:"imageUrls"`
	ThreadsID   string     `db:"ThreadsID" json:"threadsId,omitempty"`
	ErrorLog    string     `db:"ErrorLog" json:"errorLog,omitempty"`
}

// StringList stores an ordered list of strings as a JSON-encoded text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encoding string list: %w", err)
	}
	return string(data), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return l.decode([]byte(v))
	case []byte:
		return l.decode(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

func (l *StringList) decode(data []byte) error {
	if len(data) == 0 {
		*l = nil
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("decoding string list: %w", err)
	}
	return nil
}
