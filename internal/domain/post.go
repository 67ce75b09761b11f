package domain

import "time"

// Post is a community feed entry
type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	Category  string    `db:"category" json:"category,omitempty"`
	Likes     int64     `db:"likes" json:"likes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Author fields joined for listing
	AuthorName string `db:"author_name" json:"author_name,omitempty"`
}
