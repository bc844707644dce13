package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iffydopsqueen/backend-blog-project/internal/models"
)

// ToggleLike flips a user's like on a blog. Liking creates the single
// like notification for the (user, blog) pair and bumps total_likes;
// unliking deletes that notification and decrements. The existence
// guard keeps the toggle from ever duplicating a like notification,
// whatever liked-state the caller claims.
func (s *Service) ToggleLike(ctx context.Context, blogID int64, user models.Identity, currentlyLiked bool) (bool, error) {
	blog, err := s.blogs.FindCounters(ctx, blogID)
	if err != nil {
		return currentlyLiked, fmt.Errorf("blog %d: %w", blogID, err)
	}

	if currentlyLiked {
		if err := s.notifications.DeleteByActorBlogKind(ctx, user, blogID, models.NotificationLike); err != nil {
			return true, fmt.Errorf("failed to remove like notification: %w", err)
		}
		if err := s.blogs.ApplyCounterDelta(ctx, blogID, models.CounterDelta{TotalLikes: -1}); err != nil {
			s.log.Error("Failed to decrement like counter", zap.Int64("blog_id", blogID), zap.Error(err))
		}
		return false, nil
	}

	exists, err := s.notifications.ExistsByActorBlogKind(ctx, user, blogID, models.NotificationLike)
	if err != nil {
		return false, fmt.Errorf("failed to check existing like: %w", err)
	}
	if exists {
		// Stale caller state: the like is already recorded, so neither
		// a second notification nor a second increment.
		return true, nil
	}
	n := models.LikeNotification(blogID, blog.Author, user)
	n.CreatedAt = s.now()
	if err := s.notifications.Insert(ctx, n); err != nil {
		return false, fmt.Errorf("failed to insert like notification: %w", err)
	}
	if err := s.blogs.ApplyCounterDelta(ctx, blogID, models.CounterDelta{TotalLikes: 1}); err != nil {
		s.log.Error("Failed to increment like counter", zap.Int64("blog_id", blogID), zap.Error(err))
	}
	return true, nil
}
