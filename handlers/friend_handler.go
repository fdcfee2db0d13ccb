package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/friendship"
	"wildAppAPI/internal/session"
	"wildAppAPI/services"
)

type FriendHandler struct {
	socialService *services.SocialService
}

func NewFriendHandler(socialService *services.SocialService) *FriendHandler {
	return &FriendHandler{socialService: socialService}
}

func (h *FriendHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, err := session.Require(sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	friends, err := h.socialService.GetFriends(ctx, userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) GetPendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	requests, err := h.socialService.GetPendingRequests(ctx, sessionFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, requests)
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req friendship.SendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AddresseeID == "" {
		respondWithServiceError(w, r, apperr.Invalid("addressee_id is required"))
		return
	}

	f, err := h.socialService.SendRequest(ctx, sessionFrom(r), req.AddresseeID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, f)
}

func (h *FriendHandler) RespondToRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req friendship.RespondRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	f, err := h.socialService.RespondToRequest(ctx, sessionFrom(r), mux.Vars(r)["id"], req.Decision)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, f)
}

func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.socialService.RemoveFriend(ctx, sessionFrom(r), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) GetFriendshipStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, err := h.socialService.GetFriendshipStatus(ctx, sessionFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}
