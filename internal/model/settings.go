package model

import "time"

// Settings is the single active credential set for the publishing platform.
type Settings struct {
	ID          int        `db:"ID" json:"-"`
	AccessToken string     `db:"AccessToken" json:"-"`
	UserID      string     `db:"UserID" json:"userId"`
	TokenExpiry time.Time  `db:"TokenExpiry" json:"tokenExpiry"`
	UpdatedAt   *time.Time `db:"UpdatedAt" json:"updatedAt,omitempty"`
}
