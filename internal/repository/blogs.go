package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"
	"go.uber.org/zap"

	"github.com/iffydopsqueen/backend-blog-project/internal/apperrors"
	"github.com/iffydopsqueen/backend-blog-project/internal/models"
)

const (
	getBlogCountersQuery = `SELECT id, author, total_comments, total_parent_comments, total_likes, total_reads, comments, created_at
		FROM blogs WHERE id = $1`
	applyCounterDeltaQuery = `UPDATE blogs SET
		total_comments = total_comments + $2,
		total_parent_comments = total_parent_comments + $3,
		total_likes = total_likes + $4
		WHERE id = $1`
	setCommentCountersQuery = `UPDATE blogs SET total_comments = $2, total_parent_comments = $3 WHERE id = $1`
	appendCommentRefQuery   = `UPDATE blogs SET comments = array_append(comments, $2) WHERE id = $1`
	removeCommentRefQuery   = `UPDATE blogs SET comments = array_remove(comments, $2) WHERE id = $1`
	listBlogIDsQuery        = `SELECT id FROM blogs ORDER BY id`
)

type BlogRepo struct {
	db  *dbpg.DB
	log *zap.Logger
}

func (r *BlogRepo) FindCounters(ctx context.Context, blogID int64) (*models.Blog, error) {
	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, getBlogCountersQuery, blogID)
	if err != nil {
		r.log.Error("Failed to get blog counters", zap.Int64("blog_id", blogID), zap.Error(err))
		return nil, fmt.Errorf("failed to get blog counters: %w", err)
	}
	var b models.Blog
	if err := row.Scan(&b.ID, &b.Author, &b.TotalComments, &b.TotalParentComments,
		&b.TotalLikes, &b.TotalReads, pq.Array(&b.CommentIDs), &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to scan blog counters", zap.Int64("blog_id", blogID), zap.Error(err))
		return nil, fmt.Errorf("failed to get blog counters: %w", err)
	}
	return &b, nil
}

// ApplyCounterDelta adjusts the denormalized counters with a single
// atomic statement, avoiding lost updates under concurrent mutation.
func (r *BlogRepo) ApplyCounterDelta(ctx context.Context, blogID int64, d models.CounterDelta) error {
	_, err := r.db.ExecWithRetry(ctx, retryStrategy, applyCounterDeltaQuery,
		blogID, d.TotalComments, d.TotalParentComments, d.TotalLikes)
	if err != nil {
		r.log.Error("Failed to apply counter delta", zap.Int64("blog_id", blogID), zap.Error(err))
		return fmt.Errorf("failed to apply counter delta: %w", err)
	}
	return nil
}

// SetCommentCounters overwrites the comment counters with recomputed
// absolute values; only the reconciliation pass uses it.
func (r *BlogRepo) SetCommentCounters(ctx context.Context, blogID, totalComments, totalParents int64) error {
	_, err := r.db.ExecWithRetry(ctx, retryStrategy, setCommentCountersQuery, blogID, totalComments, totalParents)
	if err != nil {
		r.log.Error("Failed to set comment counters", zap.Int64("blog_id", blogID), zap.Error(err))
		return fmt.Errorf("failed to set comment counters: %w", err)
	}
	return nil
}

func (r *BlogRepo) AppendCommentRef(ctx context.Context, blogID, commentID int64) error {
	if _, err := r.db.ExecWithRetry(ctx, retryStrategy, appendCommentRefQuery, blogID, commentID); err != nil {
		r.log.Error("Failed to append comment ref", zap.Int64("blog_id", blogID), zap.Int64("comment_id", commentID), zap.Error(err))
		return fmt.Errorf("failed to append comment ref: %w", err)
	}
	return nil
}

func (r *BlogRepo) RemoveCommentRef(ctx context.Context, blogID, commentID int64) error {
	if _, err := r.db.ExecWithRetry(ctx, retryStrategy, removeCommentRefQuery, blogID, commentID); err != nil {
		r.log.Error("Failed to remove comment ref", zap.Int64("blog_id", blogID), zap.Int64("comment_id", commentID), zap.Error(err))
		return fmt.Errorf("failed to remove comment ref: %w", err)
	}
	return nil
}

func (r *BlogRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryWithRetry(ctx, retryStrategy, listBlogIDsQuery)
	if err != nil {
		r.log.Error("Failed to list blog ids", zap.Error(err))
		return nil, fmt.Errorf("failed to list blog ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan blog id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blog ids: %w", err)
	}
	return ids, nil
}
