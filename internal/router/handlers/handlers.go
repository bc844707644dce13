package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wb-go/wbf/ginext"
	"go.uber.org/zap"

	"github.com/iffydopsqueen/backend-blog-project/internal/apperrors"
	"github.com/iffydopsqueen/backend-blog-project/internal/models"
	"github.com/iffydopsqueen/backend-blog-project/internal/router/middleware"
	"github.com/iffydopsqueen/backend-blog-project/internal/service"
)

type CommentHandler struct {
	service *service.Service
}

func NewCommentHandler(service *service.Service) *CommentHandler {
	return &CommentHandler{service: service}
}

func requestLogger(c *ginext.Context) *zap.Logger {
	return c.MustGet(middleware.LoggerKey).(*zap.Logger)
}

func identity(c *ginext.Context) models.Identity {
	return c.MustGet(middleware.IdentityKey).(string)
}

func pathID(c *ginext.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ginext.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func respondError(c *ginext.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ginext.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrPermission):
		c.JSON(http.StatusForbidden, ginext.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ginext.H{"error": err.Error()})
	default:
		log.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ginext.H{"error": "internal error"})
	}
}

// AddComment POST /blogs/:id/comments
func (h *CommentHandler) AddComment(c *ginext.Context) {
	log := requestLogger(c)

	blogID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentRequest := &models.CommentRequest{}
	if err := json.NewDecoder(c.Request.Body).Decode(commentRequest); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid request body"})
		return
	}

	created, err := h.service.AddComment(c.Request.Context(), blogID, identity(c),
		commentRequest.Comment, commentRequest.BlogAuthor, commentRequest.ParentID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	log.Debug("Created comment", zap.Int64("comment_id", created.ID))
	c.JSON(http.StatusCreated, ginext.H{"comment": created})
}

// DeleteComment DELETE /comments/:id
func (h *CommentHandler) DeleteComment(c *ginext.Context) {
	log := requestLogger(c)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteComment(c.Request.Context(), id, identity(c)); err != nil {
		respondError(c, log, err)
		return
	}
	log.Debug("Deleted comment thread", zap.Int64("comment_id", id))
	c.JSON(http.StatusOK, ginext.H{"status": "done"})
}

// ToggleLike POST /blogs/:id/like
func (h *CommentHandler) ToggleLike(c *ginext.Context) {
	log := requestLogger(c)

	blogID, ok := pathID(c, "id")
	if !ok {
		return
	}
	likeRequest := &models.LikeRequest{}
	if err := json.NewDecoder(c.Request.Body).Decode(likeRequest); err != nil {
		log.Error("Failed to decode request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ginext.H{"error": "Invalid request body"})
		return
	}

	liked, err := h.service.ToggleLike(c.Request.Context(), blogID, identity(c), likeRequest.CurrentlyLiked)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"liked_by_user": liked})
}

// ListComments GET /blogs/:id/comments?skip=&limit=
func (h *CommentHandler) ListComments(c *ginext.Context) {
	log := requestLogger(c)

	blogID, ok := pathID(c, "id")
	if !ok {
		return
	}
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	comments, err := h.service.ListTopLevelComments(c.Request.Context(), blogID, skip, limit)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"comments": comments})
}

// ListReplies GET /comments/:id/replies?skip=&limit=
func (h *CommentHandler) ListReplies(c *ginext.Context) {
	log := requestLogger(c)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	replies, err := h.service.ListReplies(c.Request.Context(), id, skip, limit)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"replies": replies})
}

// GetCommentTree GET /comments/:id/tree
func (h *CommentHandler) GetCommentTree(c *ginext.Context) {
	log := requestLogger(c)

	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tree, err := h.service.GetCommentTree(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"comment": tree})
}

// SearchComments GET /blogs/:id/comments/search?q=
func (h *CommentHandler) SearchComments(c *ginext.Context) {
	log := requestLogger(c)

	blogID, ok := pathID(c, "id")
	if !ok {
		return
	}
	results, err := h.service.SearchComments(c.Request.Context(), blogID, c.Query("q"))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"comments": results})
}

// ListNotifications GET /notifications?skip=&limit=
func (h *CommentHandler) ListNotifications(c *ginext.Context) {
	log := requestLogger(c)

	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	notifications, err := h.service.ListNotifications(c.Request.Context(), identity(c), skip, limit)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ginext.H{"notifications": notifications})
}
