// Package memstore keeps every table in process memory. It backs the service
// tests and `serve` when no DATABASE_URL is configured.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"wildAppAPI/internal/achievement"
	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/friendship"
	"wildAppAPI/internal/invite"
	"wildAppAPI/internal/leaderboard"
	"wildAppAPI/internal/post"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/user"
)

// Rows are stored by value and slices are never appended in place, so a
// shallow copy of the maps is a consistent snapshot.
type tables struct {
	users        map[string]user.User
	posts        map[string]post.Post
	challenges   map[string]challenge.Challenge
	daily        map[civil.Date]string
	submissions  map[string]challenge.Submission
	friendships  map[string]friendship.Friendship
	invites      map[string]invite.Invite
	devices      map[string]user.DeviceToken
	achievements []achievement.Achievement
	levels       []achievement.Level
}

func (t *tables) clone() *tables {
	return &tables{
		users:        maps.Clone(t.users),
		posts:        maps.Clone(t.posts),
		challenges:   maps.Clone(t.challenges),
		daily:        maps.Clone(t.daily),
		submissions:  maps.Clone(t.submissions),
		friendships:  maps.Clone(t.friendships),
		invites:      maps.Clone(t.invites),
		devices:      maps.Clone(t.devices),
		achievements: slices.Clone(t.achievements),
		levels:       slices.Clone(t.levels),
	}
}

type db struct {
	// txMu serializes transactions against each other and against
	// statements issued outside a transaction.
	txMu sync.Mutex
	mu   sync.Mutex
	t    *tables
	now  func() time.Time
}

type Store struct {
	db   *db
	inTx bool
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &db{
		t: &tables{
			users:       map[string]user.User{},
			posts:       map[string]post.Post{},
			challenges:  map[string]challenge.Challenge{},
			daily:       map[civil.Date]string{},
			submissions: map[string]challenge.Submission{},
			friendships: map[string]friendship.Friendship{},
			invites:     map[string]invite.Invite{},
			devices:     map[string]user.DeviceToken{},
			levels:      slices.Clone(achievement.DefaultLevels),
		},
		now: time.Now,
	}}
}

// SetClock replaces the clock used for created_at style columns.
func (s *Store) SetClock(now func() time.Time) { s.db.now = now }

// SeedAchievements replaces the achievement catalog.
func (s *Store) SeedAchievements(catalog []*achievement.Achievement) {
	unlock := s.lock()
	defer unlock()
	s.db.t.achievements = s.db.t.achievements[:0:0]
	for _, a := range catalog {
		s.db.t.achievements = append(s.db.t.achievements, *a)
	}
}

// SeedLevels replaces the level catalog. An empty slice leaves the catalog
// empty so callers fall back to achievement.DefaultLevels.
func (s *Store) SeedLevels(levels []achievement.Level) {
	unlock := s.lock()
	defer unlock()
	s.db.t.levels = slices.Clone(levels)
}

func (s *Store) lock() func() {
	if s.inTx {
		s.db.mu.Lock()
		return s.db.mu.Unlock
	}
	s.db.txMu.Lock()
	s.db.mu.Lock()
	return func() {
		s.db.mu.Unlock()
		s.db.txMu.Unlock()
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.mu.Lock()
	snapshot := s.db.t.clone()
	s.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.mu.Lock()
		s.db.t = snapshot
		s.db.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func addOnce(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(slices.Clone(ids), id)
}

func remove(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(v string) bool { return v == id })
}

// ---- users ----

func copyUser(u user.User) *user.User {
	u.Posts = slices.Clone(u.Posts)
	u.LikedPosts = slices.Clone(u.LikedPosts)
	u.CommentedPosts = slices.Clone(u.CommentedPosts)
	u.Achievements = slices.Clone(u.Achievements)
	if u.StreakLastUpdated != nil {
		d := *u.StreakLastUpdated
		u.StreakLastUpdated = &d
	}
	return &u
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	unlock := s.lock()
	defer unlock()
	if _, ok := s.db.t.users[u.ID]; ok {
		return apperr.Invalid("user " + u.ID + " already exists")
	}
	row := *copyUser(*u)
	if row.Level < 1 {
		row.Level = 1
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = s.db.now()
	}
	row.UpdatedAt = row.CreatedAt
	s.db.t.users[row.ID] = row
	return nil
}

func (s *Store) UpsertUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	unlock := s.lock()
	defer unlock()
	now := s.db.now()
	u, ok := s.db.t.users[req.ID]
	if !ok {
		u = user.User{ID: req.ID, Level: 1, IsPublic: true, CreatedAt: now}
	}
	u.Email = req.Email
	u.Username = req.Username
	if req.ProfilePicture != "" {
		u.ProfilePicture = req.ProfilePicture
	}
	u.UpdatedAt = now
	s.db.t.users[u.ID] = u
	return copyUser(u), nil
}

func (s *Store) getUser(id string) (user.User, error) {
	u, ok := s.db.t.users[id]
	if !ok {
		return user.User{}, apperr.NotFound("user")
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	unlock := s.lock()
	defer unlock()
	u, err := s.getUser(id)
	if err != nil {
		return nil, err
	}
	return copyUser(u), nil
}

func (s *Store) GetUserForUpdate(ctx context.Context, id string) (*user.User, error) {
	return s.GetUser(ctx, id)
}

func (s *Store) GetUsers(ctx context.Context, ids []string) ([]*user.User, error) {
	unlock := s.lock()
	defer unlock()
	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.db.t.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, req *user.UpdateProfileRequest) (*user.User, error) {
	var out *user.User
	err := s.updateUser(id, func(u *user.User) {
		if req.Username != "" {
			u.Username = req.Username
		}
		if req.ProfilePicture != "" {
			u.ProfilePicture = req.ProfilePicture
		}
		if req.IsPublic != nil {
			u.IsPublic = *req.IsPublic
		}
		out = copyUser(*u)
	})
	return out, err
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	unlock := s.lock()
	defer unlock()
	if _, ok := s.db.t.users[id]; !ok {
		return apperr.NotFound("user")
	}
	delete(s.db.t.users, id)
	for fid, f := range s.db.t.friendships {
		if f.Involves(id) {
			delete(s.db.t.friendships, fid)
		}
	}
	for pid, p := range s.db.t.posts {
		if p.Owner() == id {
			p.OwnerID = nil
			s.db.t.posts[pid] = p
		}
	}
	for key, d := range s.db.t.devices {
		if d.UserID == id {
			delete(s.db.t.devices, key)
		}
	}
	return nil
}

func (s *Store) updateUser(id string, fn func(u *user.User)) error {
	unlock := s.lock()
	defer unlock()
	u, err := s.getUser(id)
	if err != nil {
		return err
	}
	fn(&u)
	u.UpdatedAt = s.db.now()
	s.db.t.users[id] = u
	return nil
}

func (s *Store) SaveStreak(ctx context.Context, userID string, streak int, lastUpdated civil.Date) error {
	return s.updateUser(userID, func(u *user.User) {
		u.Streak = streak
		u.StreakLastUpdated = &lastUpdated
	})
}

func (s *Store) ResetStreak(ctx context.Context, userID string) error {
	return s.updateUser(userID, func(u *user.User) { u.Streak = 0 })
}

func (s *Store) ResetBrokenStreaks(ctx context.Context, today civil.Date) (int64, error) {
	unlock := s.lock()
	defer unlock()
	yesterday := today.AddDays(-1)
	var n int64
	for id, u := range s.db.t.users {
		if u.Streak == 0 {
			continue
		}
		if u.StreakLastUpdated == nil || u.StreakLastUpdated.Before(yesterday) {
			u.Streak = 0
			u.UpdatedAt = s.db.now()
			s.db.t.users[id] = u
			n++
		}
	}
	return n, nil
}

func (s *Store) AppendUserPost(ctx context.Context, userID, postID string) error {
	return s.updateUser(userID, func(u *user.User) { u.Posts = addOnce(u.Posts, postID) })
}

func (s *Store) SetLevel(ctx context.Context, userID string, level int) error {
	return s.updateUser(userID, func(u *user.User) { u.Level = level })
}

func (s *Store) SetLikedPost(ctx context.Context, userID, postID string, liked bool) error {
	return s.updateUser(userID, func(u *user.User) {
		if liked {
			u.LikedPosts = addOnce(u.LikedPosts, postID)
		} else {
			u.LikedPosts = remove(u.LikedPosts, postID)
		}
	})
}

func (s *Store) AddLikesReceived(ctx context.Context, userID string, delta int) error {
	return s.updateUser(userID, func(u *user.User) { u.LikesReceived = max(0, u.LikesReceived+delta) })
}

func (s *Store) AddCommentedPost(ctx context.Context, userID, postID string) error {
	return s.updateUser(userID, func(u *user.User) { u.CommentedPosts = addOnce(u.CommentedPosts, postID) })
}

func (s *Store) AddCommentsReceived(ctx context.Context, userID string, delta int) error {
	return s.updateUser(userID, func(u *user.User) { u.CommentsReceived = max(0, u.CommentsReceived+delta) })
}

func (s *Store) GrantAchievements(ctx context.Context, userID string, ids []string) error {
	return s.updateUser(userID, func(u *user.User) {
		for _, id := range ids {
			u.Achievements = addOnce(u.Achievements, id)
		}
	})
}

func (s *Store) SaveDeviceToken(ctx context.Context, t *user.DeviceToken) error {
	unlock := s.lock()
	defer unlock()
	if _, err := s.getUser(t.UserID); err != nil {
		return err
	}
	s.db.t.devices[t.UserID+"/"+t.Token] = *t
	return nil
}

func (s *Store) ListDeviceTokens(ctx context.Context, userID string) ([]*user.DeviceToken, error) {
	unlock := s.lock()
	defer unlock()
	var out []*user.DeviceToken
	for _, d := range s.db.t.devices {
		if d.UserID == userID {
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

// ---- posts ----

func copyPost(p post.Post) *post.Post {
	p.UsersWhoLiked = slices.Clone(p.UsersWhoLiked)
	p.Comments = slices.Clone(p.Comments)
	if p.Location != nil {
		loc := *p.Location
		p.Location = &loc
	}
	return &p
}

func (s *Store) CreatePost(ctx context.Context, p *post.Post) error {
	unlock := s.lock()
	defer unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CompletedAt.IsZero() {
		p.CompletedAt = s.db.now()
	}
	p.Likes = len(p.UsersWhoLiked)
	s.db.t.posts[p.ID] = *copyPost(*p)
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*post.Post, error) {
	unlock := s.lock()
	defer unlock()
	p, ok := s.db.t.posts[id]
	if !ok {
		return nil, apperr.NotFound("post")
	}
	return copyPost(p), nil
}

func (s *Store) GetPostForUpdate(ctx context.Context, id string) (*post.Post, error) {
	return s.GetPost(ctx, id)
}

func (s *Store) SaveLikes(ctx context.Context, postID string, usersWhoLiked []string) error {
	unlock := s.lock()
	defer unlock()
	p, ok := s.db.t.posts[postID]
	if !ok {
		return apperr.NotFound("post")
	}
	p.UsersWhoLiked = slices.Clone(usersWhoLiked)
	p.Likes = len(p.UsersWhoLiked)
	s.db.t.posts[postID] = p
	return nil
}

func (s *Store) SaveComments(ctx context.Context, postID string, comments []post.Comment) error {
	unlock := s.lock()
	defer unlock()
	p, ok := s.db.t.posts[postID]
	if !ok {
		return apperr.NotFound("post")
	}
	p.Comments = slices.Clone(comments)
	s.db.t.posts[postID] = p
	return nil
}

func (s *Store) ListPosts(ctx context.Context, q store.FeedQuery) ([]*post.Post, error) {
	unlock := s.lock()
	defer unlock()
	var out []*post.Post
	for _, p := range s.db.t.posts {
		if q.Before != nil && !p.CompletedAt.Before(*q.Before) {
			continue
		}
		if len(q.OwnerIDs) > 0 && !slices.Contains(q.OwnerIDs, p.Owner()) {
			continue
		}
		if q.Category != "" && p.Kind.Category() != q.Category {
			continue
		}
		out = append(out, copyPost(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) CountCompletions(ctx context.Context, userID string) (int, error) {
	unlock := s.lock()
	defer unlock()
	n := 0
	for _, p := range s.db.t.posts {
		if p.Owner() == userID && !p.IsRetreat() {
			n++
		}
	}
	return n, nil
}

// ---- challenges ----

func (s *Store) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	unlock := s.lock()
	defer unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.db.now()
	}
	s.db.t.challenges[c.ID] = *c
	return nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error) {
	unlock := s.lock()
	defer unlock()
	c, ok := s.db.t.challenges[id]
	if !ok {
		return nil, apperr.NotFound("challenge")
	}
	return &c, nil
}

func (s *Store) ListChallenges(ctx context.Context, q store.ChallengeQuery) ([]*challenge.Challenge, error) {
	unlock := s.lock()
	defer unlock()
	var out []*challenge.Challenge
	for _, c := range s.db.t.challenges {
		if q.ActiveOnly && !c.IsActive {
			continue
		}
		if q.Category != "" && c.Category != q.Category {
			continue
		}
		if b := q.Within; b != nil {
			if c.Latitude == nil || c.Longitude == nil {
				continue
			}
			if !b.Contains(*c.Latitude, *c.Longitude) {
				continue
			}
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) IncrementFinishes(ctx context.Context, challengeID string) error {
	unlock := s.lock()
	defer unlock()
	c, ok := s.db.t.challenges[challengeID]
	if !ok {
		return apperr.NotFound("challenge")
	}
	c.Finishes++
	s.db.t.challenges[challengeID] = c
	return nil
}

func (s *Store) GetDailyChallengeID(ctx context.Context, date civil.Date) (string, error) {
	unlock := s.lock()
	defer unlock()
	id, ok := s.db.t.daily[date]
	if !ok {
		return "", apperr.NotFound("daily challenge")
	}
	return id, nil
}

func (s *Store) ClaimDailyChallenge(ctx context.Context, date civil.Date, challengeID string) (string, error) {
	unlock := s.lock()
	defer unlock()
	if id, ok := s.db.t.daily[date]; ok {
		return id, nil
	}
	if _, ok := s.db.t.challenges[challengeID]; !ok {
		return "", apperr.NotFound("challenge")
	}
	s.db.t.daily[date] = challengeID
	return challengeID, nil
}

func copySubmission(sub challenge.Submission) *challenge.Submission {
	return &sub
}

func (s *Store) CreateSubmission(ctx context.Context, sub *challenge.Submission) error {
	unlock := s.lock()
	defer unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.db.now()
	}
	s.db.t.submissions[sub.ID] = *sub
	return nil
}

func (s *Store) GetSubmission(ctx context.Context, id string) (*challenge.Submission, error) {
	unlock := s.lock()
	defer unlock()
	sub, ok := s.db.t.submissions[id]
	if !ok {
		return nil, apperr.NotFound("submission")
	}
	return copySubmission(sub), nil
}

func (s *Store) GetSubmissionForUpdate(ctx context.Context, id string) (*challenge.Submission, error) {
	return s.GetSubmission(ctx, id)
}

func (s *Store) SaveReview(ctx context.Context, sub *challenge.Submission) error {
	unlock := s.lock()
	defer unlock()
	if _, ok := s.db.t.submissions[sub.ID]; !ok {
		return apperr.NotFound("submission")
	}
	s.db.t.submissions[sub.ID] = *sub
	return nil
}

func (s *Store) ListSubmissions(ctx context.Context, status challenge.SubmissionStatus, ownerID string) ([]*challenge.Submission, error) {
	unlock := s.lock()
	defer unlock()
	var out []*challenge.Submission
	for _, sub := range s.db.t.submissions {
		if status != "" && sub.Status != status {
			continue
		}
		if ownerID != "" && sub.OwnerID != ownerID {
			continue
		}
		out = append(out, copySubmission(sub))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---- friendships ----

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

func (s *Store) findPair(a, b string) (friendship.Friendship, bool) {
	key := pairKey(a, b)
	for _, f := range s.db.t.friendships {
		if pairKey(f.RequesterID, f.AddresseeID) == key {
			return f, true
		}
	}
	return friendship.Friendship{}, false
}

func (s *Store) FindFriendship(ctx context.Context, a, b string) (*friendship.Friendship, error) {
	unlock := s.lock()
	defer unlock()
	f, ok := s.findPair(a, b)
	if !ok {
		return nil, apperr.NotFound("friendship")
	}
	return &f, nil
}

func (s *Store) GetFriendshipForUpdate(ctx context.Context, id string) (*friendship.Friendship, error) {
	unlock := s.lock()
	defer unlock()
	f, ok := s.db.t.friendships[id]
	if !ok {
		return nil, apperr.NotFound("friend request")
	}
	return &f, nil
}

func (s *Store) CreateFriendship(ctx context.Context, f *friendship.Friendship) error {
	unlock := s.lock()
	defer unlock()
	if _, ok := s.findPair(f.RequesterID, f.AddresseeID); ok {
		return apperr.ErrDuplicateRequest
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.db.now()
	}
	s.db.t.friendships[f.ID] = *f
	return nil
}

func (s *Store) SaveFriendship(ctx context.Context, f *friendship.Friendship) error {
	unlock := s.lock()
	defer unlock()
	if _, ok := s.db.t.friendships[f.ID]; !ok {
		return apperr.NotFound("friend request")
	}
	s.db.t.friendships[f.ID] = *f
	return nil
}

func (s *Store) DeleteFriendship(ctx context.Context, id string) error {
	unlock := s.lock()
	defer unlock()
	if _, ok := s.db.t.friendships[id]; !ok {
		return apperr.NotFound("friendship")
	}
	delete(s.db.t.friendships, id)
	return nil
}

func (s *Store) ListFriendships(ctx context.Context, userID string, status friendship.Status) ([]*friendship.Friendship, error) {
	unlock := s.lock()
	defer unlock()
	var out []*friendship.Friendship
	for _, f := range s.db.t.friendships {
		if !f.Involves(userID) {
			continue
		}
		if status != "" && f.Status != status {
			continue
		}
		out = append(out, &f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ---- invites ----

func copyInvite(inv invite.Invite) *invite.Invite {
	inv.Participants = slices.Clone(inv.Participants)
	inv.PendingParticipants = slices.Clone(inv.PendingParticipants)
	return &inv
}

func (s *Store) CreateInvite(ctx context.Context, inv *invite.Invite) error {
	unlock := s.lock()
	defer unlock()
	if _, ok := s.db.t.challenges[inv.ChallengeID]; !ok {
		return apperr.NotFound("challenge")
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.db.now()
	}
	s.db.t.invites[inv.ID] = *copyInvite(*inv)
	return nil
}

func (s *Store) GetInviteForUpdate(ctx context.Context, id string) (*invite.Invite, error) {
	unlock := s.lock()
	defer unlock()
	inv, ok := s.db.t.invites[id]
	if !ok {
		return nil, apperr.NotFound("invite")
	}
	return copyInvite(inv), nil
}

func (s *Store) SaveParticipants(ctx context.Context, inv *invite.Invite) error {
	unlock := s.lock()
	defer unlock()
	row, ok := s.db.t.invites[inv.ID]
	if !ok {
		return apperr.NotFound("invite")
	}
	row.Participants = slices.Clone(inv.Participants)
	row.PendingParticipants = slices.Clone(inv.PendingParticipants)
	s.db.t.invites[inv.ID] = row
	return nil
}

func (s *Store) ListInvitesFor(ctx context.Context, userID string) ([]*invite.Invite, error) {
	unlock := s.lock()
	defer unlock()
	var out []*invite.Invite
	for _, inv := range s.db.t.invites {
		if inv.IsPending(userID) {
			out = append(out, copyInvite(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- catalog ----

func (s *Store) ListAchievements(ctx context.Context) ([]*achievement.Achievement, error) {
	unlock := s.lock()
	defer unlock()
	out := make([]*achievement.Achievement, 0, len(s.db.t.achievements))
	for _, a := range s.db.t.achievements {
		out = append(out, &a)
	}
	return out, nil
}

func (s *Store) ListLevels(ctx context.Context) ([]achievement.Level, error) {
	unlock := s.lock()
	defer unlock()
	return slices.Clone(s.db.t.levels), nil
}

// ---- leaderboard ----

func (s *Store) Leaderboard(ctx context.Context, q store.LeaderboardQuery) ([]*leaderboard.LeaderboardEntry, error) {
	unlock := s.lock()
	defer unlock()
	var out []*leaderboard.LeaderboardEntry
	for _, u := range s.db.t.users {
		if len(q.UserIDs) > 0 && !slices.Contains(q.UserIDs, u.ID) {
			continue
		}
		e := &leaderboard.LeaderboardEntry{
			UserID:        u.ID,
			Username:      u.Username,
			Streak:        u.Streak,
			LikesReceived: u.LikesReceived,
			Level:         u.Level,
		}
		if u.ProfilePicture != "" {
			pic := u.ProfilePicture
			e.ProfilePicture = &pic
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Streak != b.Streak {
			return a.Streak > b.Streak
		}
		if a.LikesReceived != b.LikesReceived {
			return a.LikesReceived > b.LikesReceived
		}
		return strings.Compare(a.UserID, b.UserID) < 0
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
