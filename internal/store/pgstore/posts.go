package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"wildAppAPI/internal/post"
	"wildAppAPI/internal/store"
)

const postColumns = `
	id, owner_id, username, challenge_id, challenge_name, category, photo_url,
	caption, likes, users_who_liked, comments, completed_at, latitude, longitude`

func scanPost(row pgx.Row) (*post.Post, error) {
	p := &post.Post{}
	var (
		category         string
		photoURL         *string
		caption          *string
		latitude, longit *float64
	)
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Username,
		&p.ChallengeID,
		&p.ChallengeName,
		&category,
		&photoURL,
		&caption,
		&p.Likes,
		&p.UsersWhoLiked,
		&p.Comments,
		&p.CompletedAt,
		&latitude,
		&longit,
	)
	if err != nil {
		return nil, err
	}

	p.Kind, err = post.KindFromColumns(category, photoURL, caption)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", p.ID, err)
	}
	if latitude != nil && longit != nil {
		p.Location = &post.Location{Latitude: *latitude, Longitude: *longit}
	}
	return p, nil
}

func (s *PgStore) CreatePost(ctx context.Context, p *post.Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	category, photoURL, caption := post.Columns(p.Kind)
	var latitude, longitude *float64
	if p.Location != nil {
		latitude, longitude = &p.Location.Latitude, &p.Location.Longitude
	}
	likers := nonNil(p.UsersWhoLiked)
	comments := p.Comments
	if comments == nil {
		comments = []post.Comment{}
	}

	query := `
	INSERT INTO posts (id, owner_id, username, challenge_id, challenge_name, category, photo_url,
		caption, likes, users_who_liked, comments, completed_at, latitude, longitude)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()), $13, $14)
	RETURNING completed_at
	`
	var completedAt any
	if !p.CompletedAt.IsZero() {
		completedAt = p.CompletedAt
	}
	err := s.db.QueryRow(ctx, query,
		p.ID, p.OwnerID, p.Username, p.ChallengeID, p.ChallengeName, string(category), photoURL,
		caption, len(likers), likers, comments, completedAt, latitude, longitude,
	).Scan(&p.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	p.Likes = len(likers)
	return nil
}

func (s *PgStore) GetPost(ctx context.Context, id string) (*post.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `SELECT`+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "post", "get post")
	}
	return p, nil
}

func (s *PgStore) GetPostForUpdate(ctx context.Context, id string) (*post.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, `SELECT`+postColumns+` FROM posts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "post", "lock post")
	}
	return p, nil
}

func (s *PgStore) SaveLikes(ctx context.Context, postID string, usersWhoLiked []string) error {
	likers := nonNil(usersWhoLiked)
	tag, err := s.db.Exec(ctx,
		`UPDATE posts SET users_who_liked = $2, likes = $3 WHERE id = $1`,
		postID, likers, len(likers))
	if err != nil {
		return fmt.Errorf("failed to save likes: %w", err)
	}
	return mustAffect(tag, "post")
}

func (s *PgStore) SaveComments(ctx context.Context, postID string, comments []post.Comment) error {
	if comments == nil {
		comments = []post.Comment{}
	}
	tag, err := s.db.Exec(ctx, `UPDATE posts SET comments = $2 WHERE id = $1`, postID, comments)
	if err != nil {
		return fmt.Errorf("failed to save comments: %w", err)
	}
	return mustAffect(tag, "post")
}

func (s *PgStore) ListPosts(ctx context.Context, q store.FeedQuery) ([]*post.Post, error) {
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}
	query := `
	SELECT` + postColumns + `
	FROM posts
	WHERE ($1::timestamptz IS NULL OR completed_at < $1)
	  AND (cardinality($2::text[]) = 0 OR owner_id = ANY($2))
	  AND ($3::text = '' OR category = $3)
	ORDER BY completed_at DESC, id DESC
	LIMIT $4
	`
	rows, err := s.db.Query(ctx, query, q.Before, nonNil(q.OwnerIDs), string(q.Category), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*post.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PgStore) CountCompletions(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE owner_id = $1 AND category <> $2`,
		userID, string(post.CategoryCoward),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return n, nil
}

