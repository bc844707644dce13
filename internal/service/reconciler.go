package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ReconcileCounters recomputes every blog's comment counters from the
// live comment rows and overwrites any that drifted. Drift is expected:
// create and delete report success once the primary write lands, so a
// failed secondary counter update leaves the aggregate stale until this
// pass heals it.
func (s *Service) ReconcileCounters(ctx context.Context) error {
	blogIDs, err := s.blogs.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list blogs for reconciliation: %w", err)
	}

	for _, blogID := range blogIDs {
		total, parents, err := s.comments.CountByBlog(ctx, blogID)
		if err != nil {
			s.log.Error("Failed to count comments during reconciliation", zap.Int64("blog_id", blogID), zap.Error(err))
			continue
		}
		blog, err := s.blogs.FindCounters(ctx, blogID)
		if err != nil {
			s.log.Error("Failed to load blog counters during reconciliation", zap.Int64("blog_id", blogID), zap.Error(err))
			continue
		}
		if blog.TotalComments == total && blog.TotalParentComments == parents {
			continue
		}

		s.log.Warn("Correcting drifted blog counters",
			zap.Int64("blog_id", blogID),
			zap.Int64("stored_total", blog.TotalComments),
			zap.Int64("actual_total", total),
			zap.Int64("stored_parents", blog.TotalParentComments),
			zap.Int64("actual_parents", parents))
		if err := s.blogs.SetCommentCounters(ctx, blogID, total, parents); err != nil {
			s.log.Error("Failed to correct blog counters", zap.Int64("blog_id", blogID), zap.Error(err))
		}
	}
	return nil
}

// RunReconciler reconciles on the given interval until ctx is done.
func (s *Service) RunReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("Starting counter reconciler", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Stopping counter reconciler")
			return
		case <-ticker.C:
			if err := s.ReconcileCounters(ctx); err != nil {
				s.log.Error("Counter reconciliation pass failed", zap.Error(err))
			}
		}
	}
}
