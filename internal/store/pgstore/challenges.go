package pgstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/store"
)

const challengeColumns = `
	id, name, category, description, difficulty, finishes, is_active, local,
	latitude, longitude, created_at`

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Category,
		&c.Description,
		&c.Difficulty,
		&c.Finishes,
		&c.IsActive,
		&c.Local,
		&c.Latitude,
		&c.Longitude,
		&c.CreatedAt,
	)
	return c, err
}

func (s *PgStore) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
	INSERT INTO challenges (id, name, category, description, difficulty, finishes, is_active, local, latitude, longitude)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query,
		c.ID, c.Name, string(c.Category), c.Description, string(c.Difficulty),
		c.Finishes, c.IsActive, c.Local, c.Latitude, c.Longitude,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *PgStore) GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error) {
	c, err := scanChallenge(s.db.QueryRow(ctx, `SELECT`+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "challenge", "get challenge")
	}
	return c, nil
}

func (s *PgStore) ListChallenges(ctx context.Context, q store.ChallengeQuery) ([]*challenge.Challenge, error) {
	var minLat, maxLat, minLng, maxLng *float64
	if b := q.Within; b != nil {
		minLat, maxLat, minLng, maxLng = &b.MinLat, &b.MaxLat, &b.MinLng, &b.MaxLng
	}
	query := `
	SELECT` + challengeColumns + `
	FROM challenges
	WHERE ($1::text = '' OR category = $1)
	  AND (NOT $2 OR is_active)
	  AND ($3::float8 IS NULL OR (
		latitude >= $3 AND latitude <= $4 AND (
			($5::float8 <= $6::float8 AND longitude >= $5 AND longitude <= $6) OR
			($5::float8 > $6::float8 AND (longitude >= $5 OR longitude <= $6)))))
	ORDER BY created_at DESC, id
	`
	rows, err := s.db.Query(ctx, query, string(q.Category), q.ActiveOnly, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (s *PgStore) IncrementFinishes(ctx context.Context, challengeID string) error {
	tag, err := s.db.Exec(ctx, `UPDATE challenges SET finishes = finishes + 1 WHERE id = $1`, challengeID)
	if err != nil {
		return fmt.Errorf("failed to increment finishes: %w", err)
	}
	return mustAffect(tag, "challenge")
}

func (s *PgStore) GetDailyChallengeID(ctx context.Context, date civil.Date) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`SELECT challenge_id FROM daily_challenges WHERE date = $1::date`, date.String(),
	).Scan(&id)
	if err != nil {
		return "", notFound(err, "daily challenge", "get daily challenge")
	}
	return id, nil
}

func (s *PgStore) ClaimDailyChallenge(ctx context.Context, date civil.Date, challengeID string) (string, error) {
	query := `
	INSERT INTO daily_challenges (date, challenge_id)
	VALUES ($1::date, $2)
	ON CONFLICT (date) DO NOTHING
	RETURNING challenge_id
	`
	var id string
	err := s.db.QueryRow(ctx, query, date.String(), challengeID).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Someone else claimed the date first.
		return s.GetDailyChallengeID(ctx, date)
	case pgCode(err) == codeForeignKeyViolation:
		return "", apperr.NotFound("challenge")
	default:
		return "", fmt.Errorf("failed to claim daily challenge: %w", err)
	}
}

const submissionColumns = `
	id, owner_id, username, challenge_name, category, description, photo_url,
	caption, status, reviewed_by, reviewed_at, review_notes, challenge_id, created_at`

func scanSubmission(row pgx.Row) (*challenge.Submission, error) {
	sub := &challenge.Submission{}
	err := row.Scan(
		&sub.ID,
		&sub.OwnerID,
		&sub.Username,
		&sub.ChallengeName,
		&sub.Category,
		&sub.Description,
		&sub.PhotoURL,
		&sub.Caption,
		&sub.Status,
		&sub.ReviewedBy,
		&sub.ReviewedAt,
		&sub.ReviewNotes,
		&sub.ChallengeID,
		&sub.CreatedAt,
	)
	return sub, err
}

func (s *PgStore) CreateSubmission(ctx context.Context, sub *challenge.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	query := `
	INSERT INTO newchallengepost (id, owner_id, username, challenge_name, category, description, photo_url, caption, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query,
		sub.ID, sub.OwnerID, sub.Username, sub.ChallengeName, sub.Category,
		sub.Description, sub.PhotoURL, sub.Caption, string(sub.Status),
	).Scan(&sub.CreatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return apperr.NotFound("user")
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (s *PgStore) GetSubmission(ctx context.Context, id string) (*challenge.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRow(ctx, `SELECT`+submissionColumns+` FROM newchallengepost WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "submission", "get submission")
	}
	return sub, nil
}

func (s *PgStore) GetSubmissionForUpdate(ctx context.Context, id string) (*challenge.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRow(ctx, `SELECT`+submissionColumns+` FROM newchallengepost WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "submission", "lock submission")
	}
	return sub, nil
}

func (s *PgStore) SaveReview(ctx context.Context, sub *challenge.Submission) error {
	query := `
	UPDATE newchallengepost
	SET status = $2, reviewed_by = $3, reviewed_at = $4, review_notes = $5, challenge_id = $6
	WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		sub.ID, string(sub.Status), sub.ReviewedBy, sub.ReviewedAt, sub.ReviewNotes, sub.ChallengeID)
	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return mustAffect(tag, "submission")
}

func (s *PgStore) ListSubmissions(ctx context.Context, status challenge.SubmissionStatus, ownerID string) ([]*challenge.Submission, error) {
	query := `
	SELECT` + submissionColumns + `
	FROM newchallengepost
	WHERE ($1::text = '' OR status = $1)
	  AND ($2::text = '' OR owner_id = $2)
	ORDER BY created_at ASC, id
	`
	rows, err := s.db.Query(ctx, query, string(status), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*challenge.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
