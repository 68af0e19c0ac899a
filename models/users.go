package models

import (
	"time"
)

type User struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"size:60;uniqueIndex" json:"username"`
	Password       string    `gorm:"size:255" json:"-"`
	ProfilePicture string    `gorm:"size:512" json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Author - public projection of a user shown next to posts
type Author struct {
	ID             int64  `json:"id"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profile_picture"`
}

func (u User) Author() Author {
	return Author{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}
