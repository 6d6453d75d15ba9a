package posts

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	apierrors "github.com/vecinet/backend/internal/errors"
	"github.com/vecinet/backend/internal/logger"
	"github.com/vecinet/backend/internal/metrics"
	"github.com/vecinet/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minTitleChars       = 5
	minDescriptionChars = 10
)

// Options tunes lifecycle timing and limits.
type Options struct {
	PostTTL        time.Duration
	ExpiringWindow time.Duration
	MaxImages      int
}

// DefaultOptions mirror the production configuration: 30-day posts, a 3-day
// extend-me window and up to 4 images per post.
func DefaultOptions() Options {
	return Options{
		PostTTL:        30 * 24 * time.Hour,
		ExpiringWindow: 3 * 24 * time.Hour,
		MaxImages:      4,
	}
}

// Service governs the post lifecycle: creation, updates, expiration,
// extension and deletion. All mutations are owner-gated and transactional;
// the owner's total_posts counter moves with creates and deletes.
type Service struct {
	db   *gorm.DB
	opts Options
	now  func() time.Time
}

// NewService creates a post lifecycle service.
func NewService(db *gorm.DB, opts Options) *Service {
	if opts.PostTTL == 0 {
		opts = DefaultOptions()
	}
	return &Service{db: db, opts: opts, now: time.Now}
}

// ExpiringWindow exposes the configured extend-me window.
func (s *Service) ExpiringWindow() time.Duration {
	return s.opts.ExpiringWindow
}

// CreateInput carries the owner-supplied fields for a new post.
type CreateInput struct {
	Category    string
	Title       string
	Description string
	Images      []string
	Latitude    float64
	Longitude   float64
	PostalCode  string
}

// Create validates input and inserts a post expiring PostTTL from now.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*models.Post, error) {
	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, apierrors.ValidationError("category", "category must be one of: request, offer, exchange, sale")
	}
	if utf8.RuneCountInString(in.Title) < minTitleChars {
		return nil, apierrors.ValidationError("title", "title must be at least 5 characters")
	}
	if utf8.RuneCountInString(in.Description) < minDescriptionChars {
		return nil, apierrors.ValidationError("description", "description must be at least 10 characters")
	}
	if len(in.Images) > s.opts.MaxImages {
		return nil, apierrors.ValidationError("images", "too many images")
	}

	now := s.now().UTC()
	post := &models.Post{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Category:    category,
		Title:       in.Title,
		Description: in.Description,
		Images:      in.Images,
		PostalCode:  in.PostalCode,
		ExpiresAt:   now.Add(s.opts.PostTTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	post.Coordinates.Lat = in.Latitude
	post.Coordinates.Lng = in.Longitude

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", ownerID).
			UpdateColumn("total_posts", gorm.Expr("total_posts + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierrors.NotFound("user")
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.Get().PostsCreatedTotal.WithLabelValues(string(category)).Inc()
	logger.Log.Info("post created",
		logger.WithPostID(post.ID),
		logger.WithUserID(ownerID),
		zap.String("category", string(category)),
	)

	if err := s.db.WithContext(ctx).Preload("User").First(post, "id = ?", post.ID).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// UpdateInput carries the optional fields of a post update. Nil means
// "leave unchanged".
type UpdateInput struct {
	Title       *string
	Description *string
	Images      *[]string
	Category    *string
}

// Update applies the supplied fields to a post the requesting user owns.
func (s *Service) Update(ctx context.Context, postID, requestingUserID string, in UpdateInput) (*models.Post, error) {
	post, err := s.getOwned(ctx, postID, requestingUserID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		if utf8.RuneCountInString(*in.Title) < minTitleChars {
			return nil, apierrors.ValidationError("title", "title must be at least 5 characters")
		}
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		if utf8.RuneCountInString(*in.Description) < minDescriptionChars {
			return nil, apierrors.ValidationError("description", "description must be at least 10 characters")
		}
		updates["description"] = *in.Description
	}
	if in.Category != nil {
		category, err := models.ParseCategory(*in.Category)
		if err != nil {
			return nil, apierrors.ValidationError("category", "category must be one of: request, offer, exchange, sale")
		}
		updates["category"] = category
	}
	if in.Images != nil {
		if len(*in.Images) > s.opts.MaxImages {
			return nil, apierrors.ValidationError("images", "too many images")
		}
		updates["images"] = models.StringArray(*in.Images)
	}

	if len(updates) > 0 {
		updates["updated_at"] = s.now().UTC()
		if err := s.db.WithContext(ctx).Model(post).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Preload("User").First(post, "id = ?", postID).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Delete hard-removes a post the requesting user owns, along with its
// reports, and decrements the owner's post counter.
func (s *Service) Delete(ctx context.Context, postID, requestingUserID string) error {
	post, err := s.getOwned(ctx, postID, requestingUserID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, "id = ?", post.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already gone (concurrent delete or moderation removal).
			return apierrors.NotFound("post")
		}
		if err := tx.Delete(&models.Report{}, "post_id = ?", post.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND total_posts > 0", post.UserID).
			UpdateColumn("total_posts", gorm.Expr("total_posts - 1")).Error
	})
	if err != nil {
		return err
	}

	metrics.Get().PostsDeletedTotal.WithLabelValues("owner").Inc()
	logger.Log.Info("post deleted",
		logger.WithPostID(postID),
		logger.WithUserID(requestingUserID),
	)
	return nil
}

// Extend resets a post's expiration to PostTTL from now and clears the
// expired flag, regardless of how long ago it expired.
func (s *Service) Extend(ctx context.Context, postID, requestingUserID string) (*models.Post, error) {
	post, err := s.getOwned(ctx, postID, requestingUserID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	err = s.db.WithContext(ctx).Model(post).Updates(map[string]interface{}{
		"expires_at": now.Add(s.opts.PostTTL),
		"is_expired": false,
		"updated_at": now,
	}).Error
	if err != nil {
		return nil, err
	}

	metrics.Get().PostsExtendedTotal.WithLabelValues().Inc()
	logger.Log.Info("post extended",
		logger.WithPostID(postID),
		logger.WithUserID(requestingUserID),
		zap.Time("expires_at", post.ExpiresAt),
	)

	if err := s.db.WithContext(ctx).Preload("User").First(post, "id = ?", postID).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// ListExpiringSoon returns the user's own non-expired posts inside the
// extend-me window, most urgent first.
func (s *Service) ListExpiringSoon(ctx context.Context, userID string) ([]models.Post, error) {
	var posts []models.Post
	deadline := s.now().UTC().Add(s.opts.ExpiringWindow)
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_expired = ? AND expires_at <= ?", userID, false, deadline).
		Order("expires_at ASC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// SweepExpired flips the expired flag on every post past its expiration.
// The feed's exclusion predicate does not depend on this having run; the
// flag is an optimization and audit trail, not the source of truth.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("is_expired = ? AND expires_at <= ?", false, s.now().UTC()).
		UpdateColumn("is_expired", true)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		metrics.Get().PostsExpiredTotal.WithLabelValues().Add(float64(res.RowsAffected))
		logger.Log.Info("expired posts swept", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// Get returns a post by ID with its owner preloaded. Expired posts are
// still returned here so owners can review and extend them.
func (s *Service) Get(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("User").First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("post")
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListByUser returns all of a user's posts, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Post, error) {
	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Service) getOwned(ctx context.Context, postID, requestingUserID string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("post")
	}
	if err != nil {
		return nil, err
	}
	if post.UserID != requestingUserID {
		return nil, apierrors.Forbidden("only the post owner can do that")
	}
	return &post, nil
}
