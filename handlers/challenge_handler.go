package handlers

import (
	"context"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.challengeService.ListChallenges(ctx, r.URL.Query().Get("category"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.challengeService.GetChallenge(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ch)
}

// GetDailyChallenge serves today's pick, or the pick for ?date=YYYY-MM-DD.
func (h *ChallengeHandler) GetDailyChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var date *civil.Date
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := civil.ParseDate(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = &d
	}

	daily, err := h.challengeService.GetDailyChallenge(ctx, date)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, daily)
}

func (h *ChallengeHandler) NearbyChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	lat, lng, radius, err := pointQuery(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	nearby, err := h.challengeService.NearbyChallenges(ctx, lat, lng, radius)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, nearby)
}

func (h *ChallengeHandler) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	lat, lng, radius, err := pointQuery(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	found, err := h.challengeService.SearchPlaces(ctx, lat, lng, radius, r.URL.Query().Get("tag"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func pointQuery(r *http.Request) (lat, lng, radius float64, err error) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lng") == "" {
		return 0, 0, 0, apperr.Invalid("lat and lng are required")
	}
	if lat, err = queryFloat(r, "lat"); err != nil {
		return
	}
	if lng, err = queryFloat(r, "lng"); err != nil {
		return
	}
	radius, err = queryFloat(r, "radius")
	return
}
