package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vecinet/backend/internal/cache"
	apierrors "github.com/vecinet/backend/internal/errors"
	"github.com/vecinet/backend/internal/geo"
	"github.com/vecinet/backend/internal/logger"
	"github.com/vecinet/backend/internal/metrics"
	"github.com/vecinet/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CategoryAll is the wire value that disables category filtering.
const CategoryAll = "all"

// Query describes one feed request. The viewer's location arrives
// explicitly with every call; the engine holds no per-viewer state and
// every List call is a fresh snapshot.
type Query struct {
	Search   string
	Category string // one of the four categories, "all", or empty
	Viewer   *geo.Location
	RadiusKm float64
	Limit    int
	Offset   int
}

// Item is a post annotated with its distance from the viewer. Distance is 0
// when the viewer has no usable location.
type Item struct {
	models.Post
	DistanceKm float64 `json:"distance_km"`
}

// Options tunes the engine.
type Options struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	ReportThreshold int
	CacheTTL        time.Duration
}

// pageCache is the slice of the redis client the engine needs for response
// caching.
type pageCache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DelPattern(ctx context.Context, pattern string) error
}

// Engine produces the location-aware feed: exclusion, text and category
// filtering in SQL, then distance annotation, radius filtering and a stable
// ascending distance sort in memory.
type Engine struct {
	db    *gorm.DB
	redis pageCache // optional; nil disables response caching
	opts  Options
	now   func() time.Time
}

// NewEngine creates a feed engine. redis may be nil.
func NewEngine(db *gorm.DB, redis *cache.RedisClient, opts Options) *Engine {
	if opts.DefaultRadiusKm == 0 {
		opts.DefaultRadiusKm = 5
	}
	if opts.MaxRadiusKm == 0 {
		opts.MaxRadiusKm = 20
	}
	if opts.ReportThreshold == 0 {
		opts.ReportThreshold = 3
	}
	e := &Engine{db: db, opts: opts, now: time.Now}
	if redis != nil {
		e.redis = redis
	}
	return e
}

// List runs the feed pipeline and returns posts ordered by ascending
// distance from the viewer, ties kept in candidate order (newest first).
func (e *Engine) List(ctx context.Context, q Query) ([]Item, error) {
	start := time.Now()
	q = e.normalize(q)

	if e.redis != nil {
		if items, ok := e.cached(ctx, q); ok {
			metrics.Get().CacheHitsTotal.WithLabelValues("feed").Inc()
			metrics.Get().FeedQueryDuration.WithLabelValues("hit").Observe(time.Since(start).Seconds())
			return items, nil
		}
		metrics.Get().CacheMissesTotal.WithLabelValues("feed").Inc()
	}

	candidates, err := e.candidates(ctx, q)
	if err != nil {
		return nil, err
	}

	items := e.annotateAndSort(candidates, q)
	items = paginate(items, q.Limit, q.Offset)

	if e.redis != nil {
		e.store(ctx, q, items)
	}
	metrics.Get().FeedQueryDuration.WithLabelValues("miss").Observe(time.Since(start).Seconds())
	return items, nil
}

func (e *Engine) normalize(q Query) Query {
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	if q.RadiusKm <= 0 {
		q.RadiusKm = e.opts.DefaultRadiusKm
	}
	if q.RadiusKm > e.opts.MaxRadiusKm {
		q.RadiusKm = e.opts.MaxRadiusKm
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// candidates fetches eligible posts from storage. The exclusion predicate
// compares expires_at against the clock in addition to the stored flag, so
// a post past its expiration never surfaces even before the sweep runs.
func (e *Engine) candidates(ctx context.Context, q Query) ([]models.Post, error) {
	db := e.db.WithContext(ctx).Model(&models.Post{}).
		Preload("User").
		Where("reports_count < ?", e.opts.ReportThreshold).
		Where("is_expired = ?", false).
		Where("expires_at > ?", e.now().UTC())

	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	if q.Category != "" && q.Category != CategoryAll {
		category, err := models.ParseCategory(q.Category)
		if err != nil {
			return nil, apierrors.ValidationError("category", "category must be one of: request, offer, exchange, sale, all")
		}
		db = db.Where("category = ?", category)
	}

	var posts []models.Post
	if err := db.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// annotateAndSort computes distances, applies the radius filter when the
// viewer has coordinates, and sorts ascending by distance. The sort is
// stable: equidistant posts keep the candidate order.
func (e *Engine) annotateAndSort(posts []models.Post, q Query) []Item {
	items := make([]Item, 0, len(posts))
	locate := q.Viewer.HasCoordinates()

	for _, post := range posts {
		item := Item{Post: post}
		if locate {
			item.DistanceKm = geo.Distance(q.Viewer.Coordinates, post.Coordinates)
			if item.DistanceKm > q.RadiusKm {
				continue
			}
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DistanceKm < items[j].DistanceKm
	})
	return items
}

func paginate(items []Item, limit, offset int) []Item {
	if offset >= len(items) {
		return []Item{}
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (e *Engine) cacheKey(q Query) string {
	lat, lng, method := 0.0, 0.0, "none"
	if q.Viewer.HasCoordinates() {
		lat = q.Viewer.Coordinates.Lat
		lng = q.Viewer.Coordinates.Lng
		method = string(q.Viewer.Method)
	}
	return fmt.Sprintf("feed:%s:%s:%s:%.4f:%.4f:%.1f:%d:%d",
		strings.ToLower(q.Search), q.Category, method, lat, lng, q.RadiusKm, q.Limit, q.Offset)
}

func (e *Engine) cached(ctx context.Context, q Query) ([]Item, bool) {
	raw, err := e.redis.Get(ctx, e.cacheKey(q))
	if err != nil {
		return nil, false
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}
	// A post can cross its expiration inside the TTL, so the hit path
	// re-checks the clock just like the SQL predicate does.
	now := e.now().UTC()
	fresh := items[:0]
	for _, item := range items {
		if item.ExpiresAt.After(now) {
			fresh = append(fresh, item)
		}
	}
	return fresh, true
}

func (e *Engine) store(ctx context.Context, q Query, items []Item) {
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	ttl := e.opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if err := e.redis.SetEx(ctx, e.cacheKey(q), raw, ttl); err != nil {
		logger.Log.Warn("feed cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached feed page. Called after post mutations so
// stale pages never outlive the short TTL by much.
func (e *Engine) Invalidate(ctx context.Context) {
	if e.redis == nil {
		return
	}
	if err := e.redis.DelPattern(ctx, "feed:*"); err != nil {
		logger.Log.Warn("feed cache invalidation failed", zap.Error(err))
	}
}
