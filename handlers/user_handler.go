package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/user"
	"wildAppAPI/services"
)

type UserHandler struct {
	userService        *services.UserService
	postService        *services.PostService
	achievementService *services.AchievementService
}

func NewUserHandler(userService *services.UserService, postService *services.PostService, achievementService *services.AchievementService) *UserHandler {
	return &UserHandler{
		userService:        userService,
		postService:        postService,
		achievementService: achievementService,
	}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.userService.GetProfile(ctx, sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.userService.UpdateProfile(ctx, sessionFrom(r), &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	body, contentType, err := readUpload(w, r, "image")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if body == nil {
		respondWithError(w, http.StatusBadRequest, "image is required")
		return
	}

	u, err := h.userService.UploadProfilePicture(ctx, sessionFrom(r), body, contentType)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profile, err := h.userService.GetUser(ctx, sessionFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// GetStreak runs the lazy streak check for the caller.
func (h *UserHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	state, err := h.postService.RefreshStreak(ctx, sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}

func (h *UserHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, err := session.Require(sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	progress, err := h.achievementService.GetProgress(ctx, userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, progress)
}

func (h *UserHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, err := session.Require(sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	achievements, err := h.achievementService.GetAchievements(ctx, userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, achievements)
}

func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req user.RegisterDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		respondWithServiceError(w, r, apperr.Invalid("token is required"))
		return
	}

	if err := h.userService.RegisterDevice(ctx, sessionFrom(r), &req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
