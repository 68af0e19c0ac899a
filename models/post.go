package models

import "time"

// Post - a user-authored emoji post
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID  int64     `gorm:"index;not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"-"`
}

func (Post) TableName() string {
	return "posts"
}

// PostWithAuthor - a feed entry, the post already joined with its author
type PostWithAuthor struct {
	Post   Post   `json:"post"`
	Author Author `json:"author"`
}
