package repository

import (
	"context"
	"errors"

	"farmhub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostRepository struct {
	db *pgxpool.Pool
}

func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO posts (user_id, content, category)
		 VALUES ($1, $2, $3)
		 RETURNING id, likes, created_at`,
		p.UserID, p.Content, p.Category,
	).Scan(&p.ID, &p.Likes, &p.CreatedAt)
}

// List returns the feed, newest first, with author names joined
func (r *PostRepository) List(ctx context.Context, limit int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.user_id, p.content, p.category, p.likes, p.created_at,
		        u.first_name || ' ' || u.last_name
		 FROM posts p
		 JOIN users u ON p.user_id = u.id
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Content, &p.Category, &p.Likes, &p.CreatedAt, &p.AuthorName); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// Like bumps the like counter. There is no per-account dedup.
func (r *PostRepository) Like(ctx context.Context, postID int64) (int64, error) {
	var likes int64
	err := r.db.QueryRow(ctx,
		`UPDATE posts SET likes = likes + 1 WHERE id = $1 RETURNING likes`,
		postID,
	).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return likes, nil
}
