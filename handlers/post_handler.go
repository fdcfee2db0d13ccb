package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/post"
	"wildAppAPI/services"
)

type PostHandler struct {
	postService       *services.PostService
	engagementService *services.EngagementService
}

func NewPostHandler(postService *services.PostService, engagementService *services.EngagementService) *PostHandler {
	return &PostHandler{
		postService:       postService,
		engagementService: engagementService,
	}
}

func (h *PostHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := r.URL.Query()
	req := services.FeedRequest{
		Scope:    query.Get("scope"),
		Category: query.Get("category"),
	}
	if strings.EqualFold(req.Category, string(post.CategoryCoward)) {
		req.Category = string(post.CategoryCoward)
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		req.Limit = limit
	}
	if v := query.Get("before"); v != "" {
		before, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "before must be an RFC3339 timestamp")
			return
		}
		req.Before = &before
	}

	posts, err := h.postService.GetFeed(ctx, sessionFrom(r), req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.postService.GetPost(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *PostHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	posts, err := h.postService.GetUserPosts(ctx, sessionFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, posts)
}

// CompleteChallenge accepts either a JSON body or a multipart form with an
// optional "photo" file.
func (h *PostHandler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req challenge.CompleteRequest
	if isMultipart(r) {
		photo, contentType, err := readUpload(w, r, "photo")
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		req.Photo = photo
		req.PhotoContentType = contentType
		req.Caption = r.FormValue("caption")
		if req.Latitude, err = optionalFloat(r.FormValue("latitude")); err != nil {
			respondWithServiceError(w, r, err)
			return
		}
		if req.Longitude, err = optionalFloat(r.FormValue("longitude")); err != nil {
			respondWithServiceError(w, r, err)
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.postService.CompleteChallenge(ctx, sessionFrom(r), mux.Vars(r)["id"], &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, result)
}

func (h *PostHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.postService.Retreat(ctx, sessionFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, p)
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := h.engagementService.ToggleLike(ctx, sessionFrom(r), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *PostHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	comments, err := h.engagementService.GetComments(ctx, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, comments)
}

type addCommentRequest struct {
	Text string `json:"text"`
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req addCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondWithServiceError(w, r, apperr.Invalid("comment text is required"))
		return
	}

	comment, err := h.engagementService.AddComment(ctx, sessionFrom(r), mux.Vars(r)["id"], req.Text)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, comment)
}
