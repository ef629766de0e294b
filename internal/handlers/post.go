package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sharebook-app/sharebook/internal/models"
	"github.com/sharebook-app/sharebook/internal/services"
)

type PostHandler struct {
	postService *services.PostService
	feedService *services.FeedService
}

func NewPostHandler(postService *services.PostService, feedService *services.FeedService) *PostHandler {
	return &PostHandler{
		postService: postService,
		feedService: feedService,
	}
}

type CreatePostRequest struct {
	Title       string `json:"title"`
	Picture     string `json:"picture"`
	Description string `json:"description"`
	Role        string `json:"role"`
}

type PostListResponse struct {
	Posts []models.Post `json:"posts"`
}

type FeedResponse struct {
	Posts []models.FeedItem `json:"posts"`
	Page  int               `json:"page"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.Picture != "" && !isValidPictureURL(req.Picture) {
		writeError(w, http.StatusBadRequest, "Picture must be an http(s) image URL")
		return
	}

	post, err := h.postService.Create(r.Context(), models.CreatePostParams{
		Title:          req.Title,
		Picture:        req.Picture,
		Description:    req.Description,
		Role:           models.ToPostRole(req.Role),
		AuthorID:       user.ID,
		AuthorNickname: user.Nickname,
	})
	if err != nil {
		log.Printf("Error creating post: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var patch models.PostPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Picture != nil && *patch.Picture != "" && !isValidPictureURL(*patch.Picture) {
		writeError(w, http.StatusBadRequest, "Picture must be an http(s) image URL")
		return
	}

	err = h.postService.Edit(r.Context(), user.ID, postID, patch)
	switch {
	case errors.Is(err, services.ErrNoPostChanges):
		writeError(w, http.StatusBadRequest, "At least one field is required")
	case errors.Is(err, services.ErrPostNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case err != nil:
		log.Printf("Error editing post: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Post updated"})
	}
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	err = h.postService.Delete(r.Context(), user.ID, postID)
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case err != nil:
		log.Printf("Error deleting post: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Post deleted"})
	}
}

// ListByNickname returns a user's posts newest first. This browsing
// path does not consult the follow graph.
func (h *PostHandler) ListByNickname(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	nickname := r.PathValue("nickname")
	posts, err := h.postService.ListByNickname(r.Context(), nickname)
	if err != nil {
		log.Printf("Error listing posts by nickname: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts})
}

func (h *PostHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	posts, err := h.postService.ListAll(r.Context(), page)
	if err != nil {
		log.Printf("Error listing posts: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FeedResponse{Posts: posts, Page: page})
}

// Feed returns the caller's home timeline: posts from approved
// followees, newest first, five per page.
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page, ok := parsePage(w, r)
	if !ok {
		return
	}

	posts, err := h.feedService.GetFeed(r.Context(), user.ID, page)
	if err != nil {
		log.Printf("Error assembling feed: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, FeedResponse{Posts: posts, Page: page})
}

func parsePage(w http.ResponseWriter, r *http.Request) (int, bool) {
	page := 1
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid page")
			return 0, false
		}
		page = parsed
	}
	return page, true
}
