package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"wildAppAPI/internal/achievement"
	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/friendship"
	"wildAppAPI/internal/invite"
	"wildAppAPI/internal/leaderboard"
	"wildAppAPI/internal/store"
)

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, responded_at`

func scanFriendship(row pgx.Row) (*friendship.Friendship, error) {
	f := &friendship.Friendship{}
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.RespondedAt)
	return f, err
}

func (s *PgStore) FindFriendship(ctx context.Context, a, b string) (*friendship.Friendship, error) {
	query := `
	SELECT ` + friendshipColumns + `
	FROM friendships
	WHERE (requester_id = $1 AND addressee_id = $2)
	   OR (requester_id = $2 AND addressee_id = $1)
	`
	f, err := scanFriendship(s.db.QueryRow(ctx, query, a, b))
	if err != nil {
		return nil, notFound(err, "friendship", "find friendship")
	}
	return f, nil
}

func (s *PgStore) GetFriendshipForUpdate(ctx context.Context, id string) (*friendship.Friendship, error) {
	f, err := scanFriendship(s.db.QueryRow(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "friend request", "lock friend request")
	}
	return f, nil
}

func (s *PgStore) CreateFriendship(ctx context.Context, f *friendship.Friendship) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	query := `
	INSERT INTO friendships (id, requester_id, addressee_id, status)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query, f.ID, f.RequesterID, f.AddresseeID, string(f.Status)).Scan(&f.CreatedAt)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return apperr.ErrDuplicateRequest
		case codeForeignKeyViolation:
			return apperr.NotFound("user")
		}
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

func (s *PgStore) SaveFriendship(ctx context.Context, f *friendship.Friendship) error {
	query := `
	UPDATE friendships
	SET requester_id = $2, addressee_id = $3, status = $4, created_at = $5, responded_at = $6
	WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, f.ID, f.RequesterID, f.AddresseeID, string(f.Status), f.CreatedAt, f.RespondedAt)
	if err != nil {
		return fmt.Errorf("failed to save friendship: %w", err)
	}
	return mustAffect(tag, "friend request")
}

func (s *PgStore) DeleteFriendship(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	return mustAffect(tag, "friendship")
}

func (s *PgStore) ListFriendships(ctx context.Context, userID string, status friendship.Status) ([]*friendship.Friendship, error) {
	query := `
	SELECT ` + friendshipColumns + `
	FROM friendships
	WHERE (requester_id = $1 OR addressee_id = $1)
	  AND ($2::text = '' OR status = $2)
	ORDER BY created_at DESC, id
	`
	rows, err := s.db.Query(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	var out []*friendship.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const inviteColumns = `id, challenge_id, sender_id, participants, pending_participants, created_at`

func scanInvite(row pgx.Row) (*invite.Invite, error) {
	inv := &invite.Invite{}
	err := row.Scan(&inv.ID, &inv.ChallengeID, &inv.SenderID, &inv.Participants, &inv.PendingParticipants, &inv.CreatedAt)
	return inv, err
}

func (s *PgStore) CreateInvite(ctx context.Context, inv *invite.Invite) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
	INSERT INTO invites (id, challenge_id, sender_id, participants, pending_participants)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query,
		inv.ID, inv.ChallengeID, inv.SenderID, nonNil(inv.Participants), nonNil(inv.PendingParticipants),
	).Scan(&inv.CreatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return apperr.NotFound("challenge")
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (s *PgStore) GetInviteForUpdate(ctx context.Context, id string) (*invite.Invite, error) {
	inv, err := scanInvite(s.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "invite", "lock invite")
	}
	return inv, nil
}

func (s *PgStore) SaveParticipants(ctx context.Context, inv *invite.Invite) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE invites SET participants = $2, pending_participants = $3 WHERE id = $1`,
		inv.ID, nonNil(inv.Participants), nonNil(inv.PendingParticipants))
	if err != nil {
		return fmt.Errorf("failed to save participants: %w", err)
	}
	return mustAffect(tag, "invite")
}

func (s *PgStore) ListInvitesFor(ctx context.Context, userID string) ([]*invite.Invite, error) {
	rows, err := s.db.Query(ctx, `
	SELECT `+inviteColumns+`
	FROM invites
	WHERE $1 = ANY(pending_participants)
	ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var out []*invite.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *PgStore) ListAchievements(ctx context.Context) ([]*achievement.Achievement, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, name, description, icon, difficulty, category
	FROM achievements
	ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var out []*achievement.Achievement
	for rows.Next() {
		a := &achievement.Achievement{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Difficulty, &a.Category); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PgStore) ListLevels(ctx context.Context) ([]achievement.Level, error) {
	rows, err := s.db.Query(ctx, `SELECT level, min_completions FROM levels ORDER BY level`)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	defer rows.Close()

	var out []achievement.Level
	for rows.Next() {
		var l achievement.Level
		if err := rows.Scan(&l.Level, &l.MinCompletions); err != nil {
			return nil, fmt.Errorf("failed to scan level: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PgStore) Leaderboard(ctx context.Context, q store.LeaderboardQuery) ([]*leaderboard.LeaderboardEntry, error) {
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}
	query := `
	SELECT id, username, NULLIF(profile_picture, ''), streak, likes_received, level
	FROM users
	WHERE cardinality($1::text[]) = 0 OR id = ANY($1)
	ORDER BY streak DESC, likes_received DESC, id
	LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, nonNil(q.UserIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var out []*leaderboard.LeaderboardEntry
	for rows.Next() {
		e := &leaderboard.LeaderboardEntry{}
		if err := rows.Scan(&e.UserID, &e.Username, &e.ProfilePicture, &e.Streak, &e.LikesReceived, &e.Level); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
