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
	commentColumns = `id, blog_id, commented_by, comment, parent_id, is_reply, children, blog_author, commented_at`

	insertCommentQuery = `INSERT INTO comments (blog_id, commented_by, comment, parent_id, is_reply, blog_author, commented_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	getCommentByIDQuery  = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	deleteCommentQuery   = `DELETE FROM comments WHERE id = $1`
	appendChildQuery     = `UPDATE comments SET children = array_append(children, $2) WHERE id = $1`
	removeChildQuery     = `UPDATE comments SET children = array_remove(children, $2) WHERE id = $1`
	listTopLevelQuery    = `SELECT ` + commentColumns + ` FROM comments WHERE blog_id = $1 AND parent_id IS NULL ORDER BY commented_at DESC LIMIT $2 OFFSET $3`
	listRepliesQuery     = `SELECT ` + commentColumns + ` FROM comments WHERE parent_id = $1 ORDER BY commented_at DESC LIMIT $2 OFFSET $3`
	searchCommentsQuery  = `SELECT ` + commentColumns + ` FROM comments WHERE blog_id = $1 AND comment ILIKE $2 ORDER BY commented_at DESC LIMIT 50`
	countCommentsQuery   = `SELECT COUNT(*), COUNT(*) FILTER (WHERE parent_id IS NULL) FROM comments WHERE blog_id = $1`
	getSubtreeQuery      = `WITH RECURSIVE subtree AS (
		SELECT ` + commentColumns + ` FROM comments WHERE id = $1
		UNION ALL
		SELECT c.id, c.blog_id, c.commented_by, c.comment, c.parent_id, c.is_reply, c.children, c.blog_author, c.commented_at
		FROM comments c JOIN subtree s ON c.parent_id = s.id
	) SELECT ` + commentColumns + ` FROM subtree`
)

type CommentRepo struct {
	db  *dbpg.DB
	log *zap.Logger
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var c models.Comment
	var parent sql.NullInt64
	if err := row.Scan(&c.ID, &c.BlogID, &c.CommentedBy, &c.Comment, &parent, &c.IsReply,
		pq.Array(&c.ChildIDs), &c.BlogAuthor, &c.CommentedAt); err != nil {
		return nil, err
	}
	if parent.Valid {
		c.ParentID = &parent.Int64
	}
	return &c, nil
}

func (r *CommentRepo) Insert(ctx context.Context, c *models.Comment) (int64, error) {
	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, insertCommentQuery,
		c.BlogID, c.CommentedBy, c.Comment, c.ParentID, c.IsReply, c.BlogAuthor, c.CommentedAt)
	if err != nil {
		r.log.Error("Failed to insert comment", zap.Int64("blog_id", c.BlogID), zap.Error(err))
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		r.log.Error("Failed to scan inserted comment id", zap.Error(err))
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}
	return id, nil
}

func (r *CommentRepo) FindByID(ctx context.Context, id int64) (*models.Comment, error) {
	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, getCommentByIDQuery, id)
	if err != nil {
		r.log.Error("Failed to get comment by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to scan comment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}
	return c, nil
}

// DeleteByID is idempotent: deleting a row that is already gone is not
// an error, the cascade relies on that.
func (r *CommentRepo) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.ExecWithRetry(ctx, retryStrategy, deleteCommentQuery, id); err != nil {
		r.log.Error("Failed to delete comment", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (r *CommentRepo) AppendChild(ctx context.Context, parentID, childID int64) error {
	if _, err := r.db.ExecWithRetry(ctx, retryStrategy, appendChildQuery, parentID, childID); err != nil {
		r.log.Error("Failed to append child", zap.Int64("parent_id", parentID), zap.Int64("child_id", childID), zap.Error(err))
		return fmt.Errorf("failed to append child: %w", err)
	}
	return nil
}

func (r *CommentRepo) RemoveChild(ctx context.Context, parentID, childID int64) error {
	if _, err := r.db.ExecWithRetry(ctx, retryStrategy, removeChildQuery, parentID, childID); err != nil {
		r.log.Error("Failed to remove child", zap.Int64("parent_id", parentID), zap.Int64("child_id", childID), zap.Error(err))
		return fmt.Errorf("failed to remove child: %w", err)
	}
	return nil
}

func (r *CommentRepo) ListTopLevel(ctx context.Context, blogID int64, skip, limit int) ([]*models.Comment, error) {
	return r.list(ctx, listTopLevelQuery, blogID, limit, skip)
}

func (r *CommentRepo) ListReplies(ctx context.Context, parentID int64, skip, limit int) ([]*models.Comment, error) {
	return r.list(ctx, listRepliesQuery, parentID, limit, skip)
}

// FindSubtree returns the root comment and every descendant in one
// round trip; the service assembles the tree in memory.
func (r *CommentRepo) FindSubtree(ctx context.Context, rootID int64) ([]*models.Comment, error) {
	return r.list(ctx, getSubtreeQuery, rootID)
}

func (r *CommentRepo) SearchByText(ctx context.Context, blogID int64, query string) ([]*models.Comment, error) {
	pattern := "%" + query + "%"
	return r.list(ctx, searchCommentsQuery, blogID, pattern)
}

// CountByBlog reports the true total and top-level comment counts, used
// by the counter reconciliation pass.
func (r *CommentRepo) CountByBlog(ctx context.Context, blogID int64) (total, parents int64, err error) {
	row, err := r.db.QueryRowWithRetry(ctx, retryStrategy, countCommentsQuery, blogID)
	if err != nil {
		r.log.Error("Failed to count comments", zap.Int64("blog_id", blogID), zap.Error(err))
		return 0, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	if err := row.Scan(&total, &parents); err != nil {
		r.log.Error("Failed to scan comment counts", zap.Int64("blog_id", blogID), zap.Error(err))
		return 0, 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return total, parents, nil
}

func (r *CommentRepo) list(ctx context.Context, query string, args ...any) ([]*models.Comment, error) {
	rows, err := r.db.QueryWithRetry(ctx, retryStrategy, query, args...)
	if err != nil {
		r.log.Error("Failed to query comments", zap.Error(err))
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			r.log.Error("Failed to scan comment row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}
