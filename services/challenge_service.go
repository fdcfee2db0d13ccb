package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/mroth/weightedrand/v2"
	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/places"
	"wildAppAPI/internal/store"
)

const (
	defaultRadiusKm   = 5.0
	maxNearbyRadiusKm = 100.0
	maxPlacesRadiusKm = 25.0
	defaultPlacesTag  = "tourism=attraction"
)

type PlaceSearcher interface {
	Search(ctx context.Context, q places.Query) ([]*places.Place, error)
}

type ChallengeService struct {
	store  store.Store
	places PlaceSearcher
	cal    *Calendar
}

func NewChallengeService(st store.Store, placeSearcher PlaceSearcher, cal *Calendar) *ChallengeService {
	return &ChallengeService{store: st, places: placeSearcher, cal: cal}
}

// ListChallenges returns the active catalog, optionally for one category.
func (s *ChallengeService) ListChallenges(ctx context.Context, category string) ([]*challenge.Challenge, error) {
	q := store.ChallengeQuery{ActiveOnly: true}
	if category != "" {
		c := challenge.Category(category)
		if c != challenge.CategoryDaily {
			var err error
			if c, err = challenge.ParseOfficialCategory(category); err != nil {
				return nil, err
			}
		}
		q.Category = c
	}

	list, err := s.store.ListChallenges(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	if list == nil {
		list = []*challenge.Challenge{}
	}
	return list, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error) {
	return s.store.GetChallenge(ctx, id)
}

// GetDailyChallenge returns the pick for date, or for today when date is
// nil. Today's pick is made on demand if the scheduled rotation has not run.
func (s *ChallengeService) GetDailyChallenge(ctx context.Context, date *civil.Date) (*challenge.DailyChallenge, error) {
	today := s.cal.Today()
	d := today
	if date != nil {
		d = *date
	}

	id, err := s.store.GetDailyChallengeID(ctx, d)
	if errors.Is(err, apperr.ErrNotFound) && d == today {
		return s.RotateDailyChallenge(ctx, d)
	}
	if err != nil {
		return nil, err
	}

	ch, err := s.store.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	return &challenge.DailyChallenge{Date: d, Challenge: ch}, nil
}

// RotateDailyChallenge picks the challenge for date. Rarely finished
// challenges are more likely to come up, and yesterday's pick is skipped
// when there is anything else. An existing pick is kept.
func (s *ChallengeService) RotateDailyChallenge(ctx context.Context, date civil.Date) (*challenge.DailyChallenge, error) {
	if id, err := s.store.GetDailyChallengeID(ctx, date); err == nil {
		ch, err := s.store.GetChallenge(ctx, id)
		if err != nil {
			return nil, err
		}
		return &challenge.DailyChallenge{Date: date, Challenge: ch}, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	candidates, err := s.store.ListChallenges(ctx, store.ChallengeQuery{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	if len(candidates) == 0 {
		return nil, apperr.NotFound("active challenge")
	}

	if prev, err := s.store.GetDailyChallengeID(ctx, date.AddDays(-1)); err == nil && len(candidates) > 1 {
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if c.ID != prev {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	maxFinishes := 0
	for _, c := range candidates {
		maxFinishes = max(maxFinishes, c.Finishes)
	}
	choices := make([]weightedrand.Choice[*challenge.Challenge, int], 0, len(candidates))
	for _, c := range candidates {
		choices = append(choices, weightedrand.NewChoice(c, maxFinishes-c.Finishes+1))
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily chooser: %w", err)
	}
	picked := chooser.Pick()

	stored, err := s.store.ClaimDailyChallenge(ctx, date, picked.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save daily challenge: %w", err)
	}
	if stored != picked.ID {
		// A concurrent rotation got there first; its pick stands.
		if picked, err = s.store.GetChallenge(ctx, stored); err != nil {
			return nil, err
		}
		return &challenge.DailyChallenge{Date: date, Challenge: picked}, nil
	}
	log.Info().Str("date", date.String()).Str("challenge_id", picked.ID).Msg("daily challenge rotated")
	return &challenge.DailyChallenge{Date: date, Challenge: picked}, nil
}

func normalizeRadius(radiusKm, limit float64) (float64, error) {
	switch {
	case radiusKm < 0:
		return 0, apperr.Invalid("radius must be positive")
	case radiusKm == 0:
		return defaultRadiusKm, nil
	case radiusKm > limit:
		return limit, nil
	}
	return radiusKm, nil
}

// NearbyChallenges filters located challenges by bounding box in the store
// and then by exact distance, nearest first.
func (s *ChallengeService) NearbyChallenges(ctx context.Context, lat, lng, radiusKm float64) ([]*challenge.NearbyChallenge, error) {
	if !places.ValidCoordinates(lat, lng) {
		return nil, apperr.Invalid("coordinates out of range")
	}
	radiusKm, err := normalizeRadius(radiusKm, maxNearbyRadiusKm)
	if err != nil {
		return nil, err
	}

	box := places.BoundingBox(lat, lng, radiusKm)
	list, err := s.store.ListChallenges(ctx, store.ChallengeQuery{
		ActiveOnly: true,
		Within: &store.BBox{
			MinLat: box.South, MaxLat: box.North,
			MinLng: box.West, MaxLng: box.East,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list nearby challenges: %w", err)
	}

	out := make([]*challenge.NearbyChallenge, 0, len(list))
	for _, c := range list {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		d := places.Haversine(lat, lng, *c.Latitude, *c.Longitude)
		if d > radiusKm {
			continue
		}
		out = append(out, &challenge.NearbyChallenge{Challenge: *c, DistanceKm: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

// SearchPlaces looks up OpenStreetMap places around a point.
func (s *ChallengeService) SearchPlaces(ctx context.Context, lat, lng, radiusKm float64, tag string) ([]*places.Place, error) {
	radiusKm, err := normalizeRadius(radiusKm, maxPlacesRadiusKm)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		tag = defaultPlacesTag
	}
	found, err := s.places.Search(ctx, places.Query{Latitude: lat, Longitude: lng, RadiusKm: radiusKm, Tag: tag})
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []*places.Place{}
	}
	return found, nil
}
