package repository

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"go.uber.org/zap"

	"github.com/iffydopsqueen/backend-blog-project/internal/models"
)

const (
	insertNotificationQuery = `INSERT INTO notifications (kind, blog_id, notification_for, actor, comment_id, replied_on_comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	deleteByCommentIDQuery  = `DELETE FROM notifications WHERE comment_id = $1`
	clearReplyRefQuery      = `UPDATE notifications SET replied_on_comment = NULL WHERE replied_on_comment = $1`
	deleteByActorBlogQuery  = `DELETE FROM notifications WHERE actor = $1 AND blog_id = $2 AND kind = $3`
	existsByActorBlogQuery  = `SELECT EXISTS (SELECT 1 FROM notifications WHERE actor = $1 AND blog_id = $2 AND kind = $3)`
	listForRecipientQuery   = `SELECT id, kind, blog_id, notification_for, actor, comment_id, replied_on_comment, created_at
		FROM notifications WHERE notification_for = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
)

type NotificationRepo struct {
	db  *dbpg.DB
	log *zap.Logger
}

func (r *NotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, insertNotificationQuery,
		string(n.Kind), n.BlogID, n.NotificationFor, n.Actor, n.CommentID, n.RepliedOnComment, n.CreatedAt)
	if err != nil {
		r.log.Error("Failed to insert notification", zap.String("kind", string(n.Kind)), zap.Error(err))
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	if err := row.Scan(&n.ID); err != nil {
		r.log.Error("Failed to scan inserted notification id", zap.Error(err))
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// DeleteByCommentID removes the creation notification of a comment.
func (r *NotificationRepo) DeleteByCommentID(ctx context.Context, commentID int64) error {
	if _, err := r.db.ExecWithRetry(ctx, retryStrategy, deleteByCommentIDQuery, commentID); err != nil {
		r.log.Error("Failed to delete notification by comment", zap.Int64("comment_id", commentID), zap.Error(err))
		return fmt.Errorf("failed to delete notification by comment: %w", err)
	}
	return nil
}

// ClearReplyReference unsets dangling replied_on_comment references
// without deleting the notification records themselves.
func (r *NotificationRepo) ClearReplyReference(ctx context.Context, commentID int64) error {
	if _, err := r.db.ExecWithRetry(ctx, retryStrategy, clearReplyRefQuery, commentID); err != nil {
		r.log.Error("Failed to clear reply references", zap.Int64("comment_id", commentID), zap.Error(err))
		return fmt.Errorf("failed to clear reply references: %w", err)
	}
	return nil
}

func (r *NotificationRepo) DeleteByActorBlogKind(ctx context.Context, actor models.Identity, blogID int64, kind models.NotificationKind) error {
	if _, err := r.db.ExecWithRetry(ctx, retryStrategy, deleteByActorBlogQuery, actor, blogID, string(kind)); err != nil {
		r.log.Error("Failed to delete notification", zap.Int64("blog_id", blogID), zap.String("kind", string(kind)), zap.Error(err))
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ExistsByActorBlogKind(ctx context.Context, actor models.Identity, blogID int64, kind models.NotificationKind) (bool, error) {
	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, existsByActorBlogQuery, actor, blogID, string(kind))
	if err != nil {
		r.log.Error("Failed to check notification existence", zap.Int64("blog_id", blogID), zap.Error(err))
		return false, fmt.Errorf("failed to check notification existence: %w", err)
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check notification existence: %w", err)
	}
	return exists, nil
}

func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipient models.Identity, skip, limit int) ([]*models.Notification, error) {
	rows, err := r.db.QueryWithRetry(ctx, retryStrategy, listForRecipientQuery, recipient, limit, skip)
	if err != nil {
		r.log.Error("Failed to list notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Kind, &n.BlogID, &n.NotificationFor, &n.Actor,
			&n.CommentID, &n.RepliedOnComment, &n.CreatedAt); err != nil {
			r.log.Error("Failed to scan notification row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return out, nil
}
