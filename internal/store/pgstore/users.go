package pgstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/user"
)

const userColumns = `
	id, username, email, profile_picture, posts, streak, streak_last_updated,
	liked_posts, commented_posts, likes_received, comments_received,
	achievements, level, is_public, is_moderator, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	var last pgtype.Date
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.ProfilePicture,
		&u.Posts,
		&u.Streak,
		&last,
		&u.LikedPosts,
		&u.CommentedPosts,
		&u.LikesReceived,
		&u.CommentsReceived,
		&u.Achievements,
		&u.Level,
		&u.IsPublic,
		&u.IsModerator,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		d := civil.DateOf(last.Time)
		u.StreakLastUpdated = &d
	}
	return u, nil
}

func (s *PgStore) CreateUser(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (id, username, email, profile_picture, level, is_public, is_moderator, created_at, updated_at)
	VALUES ($1, $2, $3, $4, GREATEST($5, 1), $6, $7, NOW(), NOW())
	RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.ProfilePicture, u.Level, u.IsPublic, u.IsModerator,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return apperr.Invalid("user " + u.ID + " already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PgStore) UpsertUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	query := `
	INSERT INTO users (id, email, username, profile_picture)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		email = EXCLUDED.email,
		username = EXCLUDED.username,
		profile_picture = COALESCE(NULLIF(EXCLUDED.profile_picture, ''), users.profile_picture),
		updated_at = NOW()
	RETURNING` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, req.ID, req.Email, req.Username, req.ProfilePicture))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, nil
}

func (s *PgStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user", "get user")
	}
	return u, nil
}

func (s *PgStore) GetUserForUpdate(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "user", "lock user")
	}
	return u, nil
}

func (s *PgStore) GetUsers(ctx context.Context, ids []string) ([]*user.User, error) {
	rows, err := s.db.Query(ctx, `SELECT`+userColumns+` FROM users WHERE id = ANY($1)`, nonNil(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PgStore) UpdateProfile(ctx context.Context, id string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users SET
		username = COALESCE(NULLIF($2, ''), username),
		profile_picture = COALESCE(NULLIF($3, ''), profile_picture),
		is_public = COALESCE($4, is_public),
		updated_at = NOW()
	WHERE id = $1
	RETURNING` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, id, req.Username, req.ProfilePicture, req.IsPublic))
	if err != nil {
		return nil, notFound(err, "user", "update profile")
	}
	return u, nil
}

func (s *PgStore) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return mustAffect(tag, "user")
}

func (s *PgStore) execUser(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return mustAffect(tag, "user")
}

func (s *PgStore) SaveStreak(ctx context.Context, userID string, streak int, lastUpdated civil.Date) error {
	return s.execUser(ctx, "save streak", `
	UPDATE users SET streak = $2, streak_last_updated = $3::date, updated_at = NOW()
	WHERE id = $1
	`, userID, streak, lastUpdated.String())
}

func (s *PgStore) ResetStreak(ctx context.Context, userID string) error {
	return s.execUser(ctx, "reset streak",
		`UPDATE users SET streak = 0, updated_at = NOW() WHERE id = $1`, userID)
}

func (s *PgStore) ResetBrokenStreaks(ctx context.Context, today civil.Date) (int64, error) {
	query := `
	UPDATE users SET streak = 0, updated_at = NOW()
	WHERE streak > 0
	  AND (streak_last_updated IS NULL OR streak_last_updated < $1::date - 1)
	`
	tag, err := s.db.Exec(ctx, query, today.String())
	if err != nil {
		return 0, fmt.Errorf("failed to reset broken streaks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) AppendUserPost(ctx context.Context, userID, postID string) error {
	return s.execUser(ctx, "append user post", `
	UPDATE users SET posts = array_append(posts, $2), updated_at = NOW()
	WHERE id = $1
	`, userID, postID)
}

func (s *PgStore) SetLevel(ctx context.Context, userID string, level int) error {
	return s.execUser(ctx, "set level",
		`UPDATE users SET level = $2, updated_at = NOW() WHERE id = $1`, userID, level)
}

func (s *PgStore) SetLikedPost(ctx context.Context, userID, postID string, liked bool) error {
	return s.execUser(ctx, "update liked posts", `
	UPDATE users SET liked_posts = CASE
		WHEN NOT $3 THEN array_remove(liked_posts, $2)
		WHEN $2 = ANY(liked_posts) THEN liked_posts
		ELSE array_append(liked_posts, $2)
	END, updated_at = NOW()
	WHERE id = $1
	`, userID, postID, liked)
}

func (s *PgStore) AddLikesReceived(ctx context.Context, userID string, delta int) error {
	return s.execUser(ctx, "update likes received", `
	UPDATE users SET likes_received = GREATEST(0, likes_received + $2), updated_at = NOW()
	WHERE id = $1
	`, userID, delta)
}

func (s *PgStore) AddCommentedPost(ctx context.Context, userID, postID string) error {
	return s.execUser(ctx, "update commented posts", `
	UPDATE users SET commented_posts = CASE
		WHEN $2 = ANY(commented_posts) THEN commented_posts
		ELSE array_append(commented_posts, $2)
	END, updated_at = NOW()
	WHERE id = $1
	`, userID, postID)
}

func (s *PgStore) AddCommentsReceived(ctx context.Context, userID string, delta int) error {
	return s.execUser(ctx, "update comments received", `
	UPDATE users SET comments_received = GREATEST(0, comments_received + $2), updated_at = NOW()
	WHERE id = $1
	`, userID, delta)
}

func (s *PgStore) GrantAchievements(ctx context.Context, userID string, ids []string) error {
	return s.execUser(ctx, "grant achievements", `
	UPDATE users SET achievements = achievements || ARRAY(
		SELECT DISTINCT a FROM unnest($2::text[]) AS a WHERE NOT a = ANY(achievements)
	), updated_at = NOW()
	WHERE id = $1
	`, userID, nonNil(ids))
}

func (s *PgStore) SaveDeviceToken(ctx context.Context, t *user.DeviceToken) error {
	query := `
	INSERT INTO device_tokens (user_id, token, platform)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform, updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, query, t.UserID, t.Token, t.Platform); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return apperr.NotFound("user")
		}
		return fmt.Errorf("failed to save device token: %w", err)
	}
	return nil
}

func (s *PgStore) ListDeviceTokens(ctx context.Context, userID string) ([]*user.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id, token, platform FROM device_tokens WHERE user_id = $1 ORDER BY token`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*user.DeviceToken
	for rows.Next() {
		t := &user.DeviceToken{}
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
