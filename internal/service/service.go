package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iffydopsqueen/backend-blog-project/internal/apperrors"
	"github.com/iffydopsqueen/backend-blog-project/internal/models"
)

const defaultPageLimit = 5

// CommentStore persists comment records and their parent/child links.
type CommentStore interface {
	Insert(ctx context.Context, c *models.Comment) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.Comment, error)
	DeleteByID(ctx context.Context, id int64) error
	AppendChild(ctx context.Context, parentID, childID int64) error
	RemoveChild(ctx context.Context, parentID, childID int64) error
	ListTopLevel(ctx context.Context, blogID int64, skip, limit int) ([]*models.Comment, error)
	ListReplies(ctx context.Context, parentID int64, skip, limit int) ([]*models.Comment, error)
	FindSubtree(ctx context.Context, rootID int64) ([]*models.Comment, error)
	SearchByText(ctx context.Context, blogID int64, query string) ([]*models.Comment, error)
	CountByBlog(ctx context.Context, blogID int64) (total, parents int64, err error)
}

// BlogStore exposes the denormalized blog aggregate. Counter updates
// must be atomic at the store boundary.
type BlogStore interface {
	FindCounters(ctx context.Context, blogID int64) (*models.Blog, error)
	ApplyCounterDelta(ctx context.Context, blogID int64, d models.CounterDelta) error
	SetCommentCounters(ctx context.Context, blogID, totalComments, totalParents int64) error
	AppendCommentRef(ctx context.Context, blogID, commentID int64) error
	RemoveCommentRef(ctx context.Context, blogID, commentID int64) error
	ListIDs(ctx context.Context) ([]int64, error)
}

// NotificationStore persists the derived notification records.
type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	DeleteByCommentID(ctx context.Context, commentID int64) error
	ClearReplyReference(ctx context.Context, commentID int64) error
	DeleteByActorBlogKind(ctx context.Context, actor models.Identity, blogID int64, kind models.NotificationKind) error
	ExistsByActorBlogKind(ctx context.Context, actor models.Identity, blogID int64, kind models.NotificationKind) (bool, error)
	ListForRecipient(ctx context.Context, recipient models.Identity, skip, limit int) ([]*models.Notification, error)
}

// Service is the comment thread engine: it orchestrates the comment,
// notification and blog stores on every create, delete and like. The
// three stores are not mutated transactionally; after the primary
// comment write succeeds, secondary write failures are logged and the
// counters are left to the reconciliation pass (see reconciler.go).
type Service struct {
	comments      CommentStore
	blogs         BlogStore
	notifications NotificationStore
	log           *zap.Logger

	now func() time.Time
}

func NewService(comments CommentStore, blogs BlogStore, notifications NotificationStore, log *zap.Logger) *Service {
	return &Service{
		comments:      comments,
		blogs:         blogs,
		notifications: notifications,
		log:           log.Named("service"),
		now:           time.Now,
	}
}

// AddComment creates a top-level comment or a reply, fans out the
// notification and bumps the blog counters. The operation succeeds once
// the comment row is written; later writes are best-effort.
func (s *Service) AddComment(ctx context.Context, blogID int64, commenter models.Identity,
	text string, blogAuthor models.Identity, parentID *int64) (*models.CommentCreated, error) {

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("comment text must not be empty: %w", apperrors.ErrValidation)
	}

	var parent *models.Comment
	if parentID != nil {
		var err error
		parent, err = s.comments.FindByID(ctx, *parentID)
		if err != nil {
			s.log.Warn("Parent comment lookup failed on creation", zap.Int64("parent_id", *parentID), zap.Error(err))
			return nil, fmt.Errorf("parent comment %d: %w", *parentID, err)
		}
	}

	comment := &models.Comment{
		BlogID:      blogID,
		CommentedBy: commenter,
		Comment:     text,
		ParentID:    parentID,
		IsReply:     parentID != nil,
		BlogAuthor:  blogAuthor,
		CommentedAt: s.now(),
	}

	id, err := s.comments.Insert(ctx, comment)
	if err != nil {
		s.log.Error("Failed to create comment", zap.Int64("blog_id", blogID), zap.Error(err))
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = id

	delta := models.CounterDelta{TotalComments: 1}
	if !comment.IsReply {
		delta.TotalParentComments = 1
	}
	if err := s.blogs.ApplyCounterDelta(ctx, blogID, delta); err != nil {
		s.log.Error("Failed to bump blog counters after comment insert", zap.Int64("comment_id", id), zap.Error(err))
	}
	if err := s.blogs.AppendCommentRef(ctx, blogID, id); err != nil {
		s.log.Error("Failed to append comment ref to blog", zap.Int64("comment_id", id), zap.Error(err))
	}

	var notification *models.Notification
	if parent != nil {
		if err := s.comments.AppendChild(ctx, parent.ID, id); err != nil {
			s.log.Error("Failed to record reply on parent comment", zap.Int64("parent_id", parent.ID), zap.Int64("comment_id", id), zap.Error(err))
		}
		notification = models.ReplyNotification(blogID, id, parent.ID, parent.CommentedBy, commenter)
	} else {
		notification = models.CommentNotification(blogID, id, blogAuthor, commenter)
	}
	notification.CreatedAt = comment.CommentedAt
	if err := s.notifications.Insert(ctx, notification); err != nil {
		s.log.Error("Failed to insert comment notification", zap.Int64("comment_id", id), zap.Error(err))
	}

	return &models.CommentCreated{
		ID:          id,
		Comment:     comment.Comment,
		CommentedAt: comment.CommentedAt,
		Children:    []int64{},
	}, nil
}

// ListTopLevelComments returns the blog's top-level comments, newest
// first.
func (s *Service) ListTopLevelComments(ctx context.Context, blogID int64, skip, limit int) ([]*models.Comment, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if skip < 0 {
		skip = 0
	}
	comments, err := s.comments.ListTopLevel(ctx, blogID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top-level comments: %w", err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

// ListReplies returns the direct replies of a comment, newest first.
func (s *Service) ListReplies(ctx context.Context, commentID int64, skip, limit int) ([]*models.Comment, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if skip < 0 {
		skip = 0
	}
	replies, err := s.comments.ListReplies(ctx, commentID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	if replies == nil {
		replies = []*models.Comment{}
	}
	return replies, nil
}

// GetCommentTree fetches a comment and assembles its whole reply
// subtree in memory from a single descendant query.
func (s *Service) GetCommentTree(ctx context.Context, id int64) (*models.Comment, error) {
	all, err := s.comments.FindSubtree(ctx, id)
	if err != nil {
		s.log.Error("Failed to get comment subtree", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment subtree: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("comment %d: %w", id, apperrors.ErrNotFound)
	}

	commentMap := make(map[int64]*models.Comment, len(all))
	for _, c := range all {
		c.Children = []*models.Comment{}
		commentMap[c.ID] = c
	}
	for _, c := range all {
		if c.ParentID == nil {
			continue
		}
		if parent, ok := commentMap[*c.ParentID]; ok {
			parent.Children = append(parent.Children, c)
		}
	}
	for _, c := range all {
		sort.Slice(c.Children, func(i, j int) bool {
			return c.Children[i].CommentedAt.After(c.Children[j].CommentedAt)
		})
	}

	root, ok := commentMap[id]
	if !ok {
		return nil, fmt.Errorf("comment %d: %w", id, apperrors.ErrNotFound)
	}
	return root, nil
}

// SearchComments does a plain substring match over a blog's comments.
// Queries shorter than three significant characters return nothing.
func (s *Service) SearchComments(ctx context.Context, blogID int64, query string) ([]*models.Comment, error) {
	if len(strings.TrimSpace(query)) < 3 {
		return []*models.Comment{}, nil
	}
	comments, err := s.comments.SearchByText(ctx, blogID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search comments: %w", err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, recipient models.Identity, skip, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if skip < 0 {
		skip = 0
	}
	out, err := s.notifications.ListForRecipient(ctx, recipient, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if out == nil {
		out = []*models.Notification{}
	}
	return out, nil
}
