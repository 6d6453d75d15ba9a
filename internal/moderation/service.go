package moderation

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	apierrors "github.com/vecinet/backend/internal/errors"
	"github.com/vecinet/backend/internal/logger"
	"github.com/vecinet/backend/internal/metrics"
	"github.com/vecinet/backend/internal/models"
	"gorm.io/gorm"
)

const maxReasonChars = 500

// Service accumulates reports against posts. Reaching the threshold of
// distinct reporters removes the post permanently; the removal is a hard
// delete and happens in the same transaction as the counting, so a post is
// never visible with reports_count at or past the threshold.
type Service struct {
	db        *gorm.DB
	threshold int
}

// NewService creates a moderation service with the given removal threshold.
func NewService(db *gorm.DB, threshold int) *Service {
	if threshold <= 0 {
		threshold = 3
	}
	return &Service{db: db, threshold: threshold}
}

// Threshold exposes the configured removal threshold.
func (s *Service) Threshold() int {
	return s.threshold
}

// Outcome describes the result of a report submission.
type Outcome struct {
	AlreadyReported bool `json:"already_reported"`
	PostRemoved     bool `json:"post_removed"`
}

// Report records that reporterID flagged postID. A repeat report from the
// same user is a benign no-op, signalled through the outcome rather than an
// error. Self-reports are rejected. The (post, reporter) unique index is
// the storage-level guard: concurrent duplicate submissions collapse to one
// row, and the increment-then-read below runs inside the same transaction
// as the insert, so two racing reporters cannot both see a pre-threshold
// count while the post slips past it.
func (s *Service) Report(ctx context.Context, postID, reporterID, reason string) (*Outcome, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonChars {
		// Cut on a rune boundary so accented text survives intact.
		reason = string([]rune(reason)[:maxReasonChars])
	}

	var post models.Post
	err := s.db.WithContext(ctx).Select("id", "user_id").First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("post")
	}
	if err != nil {
		return nil, err
	}
	if post.UserID == reporterID {
		return nil, apierrors.Forbidden("you cannot report your own post")
	}

	outcome := &Outcome{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		report := &models.Report{
			ID:         uuid.New().String(),
			PostID:     postID,
			ReporterID: reporterID,
			Reason:     reason,
			CreatedAt:  time.Now().UTC(),
		}
		if err := tx.Create(report).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				outcome.AlreadyReported = true
				return nil
			}
			return err
		}

		res := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("reports_count", gorm.Expr("reports_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Post vanished between the ownership check and here.
			return apierrors.NotFound("post")
		}

		var count int
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			Select("reports_count").Scan(&count).Error; err != nil {
			return err
		}

		if count < s.threshold {
			return nil
		}

		// Threshold reached: remove the post, its reports, and give the
		// owner's counter back, all atomically with the increment.
		res = tx.Delete(&models.Post{}, "id = ?", postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			outcome.PostRemoved = true
			if err := tx.Delete(&models.Report{}, "post_id = ?", postID).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ? AND total_posts > 0", post.UserID).
				UpdateColumn("total_posts", gorm.Expr("total_posts - 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m := metrics.Get()
	if outcome.AlreadyReported {
		m.ReportsTotal.WithLabelValues("duplicate").Inc()
	} else {
		m.ReportsTotal.WithLabelValues("recorded").Inc()
	}
	if outcome.PostRemoved {
		m.ModerationRemovalsTotal.WithLabelValues().Inc()
		m.PostsDeletedTotal.WithLabelValues("moderation").Inc()
		logger.Log.Warn("post removed after reaching report threshold",
			logger.WithPostID(postID),
		)
	}

	return outcome, nil
}

// CountForPost returns the current report count for a post, 0 if the post
// is gone.
func (s *Service) CountForPost(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
