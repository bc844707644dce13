package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iffydopsqueen/backend-blog-project/internal/apperrors"
	"github.com/iffydopsqueen/backend-blog-project/internal/models"
)

// DeleteComment removes a comment together with its entire reply
// subtree, the derived notifications and the counter contributions.
// Only the comment's author or the blog's author may delete it.
//
// The traversal uses an explicit worklist instead of recursion so deep
// or wide threads cannot blow the stack, and so per-record failures
// stay isolated: a failed notification delete never blocks the rest of
// the subtree. There is no rollback; a crash mid-cascade leaves the
// counters to the reconciliation pass.
func (s *Service) DeleteComment(ctx context.Context, commentID int64, requester models.Identity) error {
	target, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("comment %d: %w", commentID, err)
	}

	if requester != target.CommentedBy && requester != target.BlogAuthor {
		s.log.Warn("Unauthorized comment delete attempt",
			zap.Int64("comment_id", commentID), zap.String("requester", requester))
		return fmt.Errorf("requester may not delete comment %d: %w", commentID, apperrors.ErrPermission)
	}

	worklist := []*models.Comment{target}
	for len(worklist) > 0 {
		c := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		s.removeCommentRecord(ctx, c)

		// Children were captured from the persisted row before its
		// deletion; the list cannot grow afterwards, so the walk
		// terminates.
		for _, childID := range c.ChildIDs {
			child, err := s.comments.FindByID(ctx, childID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					continue
				}
				s.log.Error("Failed to fetch child comment during cascade, skipping branch",
					zap.Int64("child_id", childID), zap.Error(err))
				continue
			}
			worklist = append(worklist, child)
		}
	}
	return nil
}

// removeCommentRecord deletes one comment row and its satellites. Every
// step is best-effort: failures are logged and the remaining steps still
// run.
func (s *Service) removeCommentRecord(ctx context.Context, c *models.Comment) {
	if err := s.comments.DeleteByID(ctx, c.ID); err != nil {
		s.log.Error("Failed to delete comment row", zap.Int64("comment_id", c.ID), zap.Error(err))
	}

	if c.ParentID != nil {
		if err := s.comments.RemoveChild(ctx, *c.ParentID, c.ID); err != nil {
			s.log.Error("Failed to detach comment from parent",
				zap.Int64("parent_id", *c.ParentID), zap.Int64("comment_id", c.ID), zap.Error(err))
		}
	}

	if err := s.notifications.DeleteByCommentID(ctx, c.ID); err != nil {
		s.log.Error("Failed to delete comment notification", zap.Int64("comment_id", c.ID), zap.Error(err))
	}
	if err := s.notifications.ClearReplyReference(ctx, c.ID); err != nil {
		s.log.Error("Failed to clear dangling reply references", zap.Int64("comment_id", c.ID), zap.Error(err))
	}

	delta := models.CounterDelta{TotalComments: -1}
	if !c.IsReply {
		delta.TotalParentComments = -1
	}
	if err := s.blogs.ApplyCounterDelta(ctx, c.BlogID, delta); err != nil {
		s.log.Error("Failed to decrement blog counters", zap.Int64("comment_id", c.ID), zap.Error(err))
	}
	if err := s.blogs.RemoveCommentRef(ctx, c.BlogID, c.ID); err != nil {
		s.log.Error("Failed to remove comment ref from blog", zap.Int64("comment_id", c.ID), zap.Error(err))
	}
}
