package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vecinet/backend/internal/geo"
	"github.com/vecinet/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing.
// Tables are created manually with SQLite-compatible syntax because
// AutoMigrate emits PostgreSQL-specific defaults like gen_random_uuid.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			bio TEXT,
			password_hash TEXT,
			avatar_url TEXT,
			rating REAL DEFAULT 5.0,
			total_posts INTEGER DEFAULT 0,
			completed_exchanges INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE posts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			images TEXT,
			lat REAL DEFAULT 0,
			lng REAL DEFAULT 0,
			postal_code TEXT,
			responses_count INTEGER DEFAULT 0,
			reports_count INTEGER DEFAULT 0,
			expires_at DATETIME NOT NULL,
			is_expired INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	return db
}

type FeedEngineTestSuite struct {
	suite.Suite
	db     *gorm.DB
	engine *Engine
	clock  time.Time
	author *models.User
	seq    int
}

func (suite *FeedEngineTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	suite.seq = 0

	suite.engine = NewEngine(suite.db, nil, Options{})
	suite.engine.now = func() time.Time { return suite.clock }

	suite.author = &models.User{
		ID:    uuid.New().String(),
		Email: "author@test.com",
		Name:  "Ana Vecina",
	}
	require.NoError(suite.T(), suite.db.Create(suite.author).Error)
}

type postSpec struct {
	title       string
	description string
	category    models.PostCategory
	lat, lng    float64
	reports     int
	expiresIn   time.Duration
	isExpired   bool
}

func (suite *FeedEngineTestSuite) createPost(spec postSpec) *models.Post {
	suite.seq++
	if spec.category == "" {
		spec.category = models.CategoryOffer
	}
	if spec.description == "" {
		spec.description = "Descripción de prueba para el barrio"
	}
	if spec.expiresIn == 0 {
		spec.expiresIn = 30 * 24 * time.Hour
	}
	// Each post is created one minute after the previous one so the
	// newest-first candidate order is deterministic.
	createdAt := suite.clock.Add(time.Duration(suite.seq) * time.Minute)

	post := &models.Post{
		ID:           uuid.New().String(),
		UserID:       suite.author.ID,
		Category:     spec.category,
		Title:        spec.title,
		Description:  spec.description,
		Coordinates:  geo.Coordinates{Lat: spec.lat, Lng: spec.lng},
		ReportsCount: spec.reports,
		ExpiresAt:    suite.clock.Add(spec.expiresIn),
		IsExpired:    spec.isExpired,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	require.NoError(suite.T(), suite.db.Create(post).Error)
	return post
}

func (suite *FeedEngineTestSuite) list(q Query) []Item {
	items, err := suite.engine.List(context.Background(), q)
	require.NoError(suite.T(), err)
	return items
}

func titles(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}

func (suite *FeedEngineTestSuite) TestExcludesReportedPosts() {
	suite.createPost(postSpec{title: "Visible"})
	suite.createPost(postSpec{title: "Dos reportes", reports: 2})
	suite.createPost(postSpec{title: "Tres reportes", reports: 3})
	suite.createPost(postSpec{title: "Cinco reportes", reports: 5})

	items := suite.list(Query{})
	suite.ElementsMatch([]string{"Visible", "Dos reportes"}, titles(items))
}

func (suite *FeedEngineTestSuite) TestExcludesExpiredPosts() {
	suite.createPost(postSpec{title: "Fresco"})
	// Flag already swept
	suite.createPost(postSpec{title: "Barrido", isExpired: true})
	// Past expires_at but the sweep has not run yet
	suite.createPost(postSpec{title: "Caducado sin barrer", expiresIn: -time.Hour})

	items := suite.list(Query{})
	suite.Equal([]string{"Fresco"}, titles(items))
}

func (suite *FeedEngineTestSuite) TestExtendedPostReappears() {
	post := suite.createPost(postSpec{title: "Prorrogado", expiresIn: 24 * time.Hour})

	suite.clock = suite.clock.Add(48 * time.Hour)
	suite.Empty(suite.list(Query{}))

	// Owner extends: expiry moves out, flag cleared
	require.NoError(suite.T(), suite.db.Model(post).Updates(map[string]interface{}{
		"expires_at": suite.clock.Add(30 * 24 * time.Hour),
		"is_expired": false,
	}).Error)

	items := suite.list(Query{})
	suite.Equal([]string{"Prorrogado"}, titles(items))
}

func (suite *FeedEngineTestSuite) TestSearchMatchesTitleAndDescription() {
	suite.createPost(postSpec{title: "Vendo TALADRO casi nuevo"})
	suite.createPost(postSpec{title: "Caja de herramientas", description: "Incluye un taladro pequeño"})
	suite.createPost(postSpec{title: "Vendo bicicleta"})

	items := suite.list(Query{Search: "taladro"})
	suite.Len(items, 2)
	items = suite.list(Query{Search: "  TALADRO  "})
	suite.Len(items, 2)
}

func (suite *FeedEngineTestSuite) TestCategoryFilter() {
	suite.createPost(postSpec{title: "Oferta", category: models.CategoryOffer})
	suite.createPost(postSpec{title: "Petición", category: models.CategoryRequest})
	suite.createPost(postSpec{title: "Venta", category: models.CategorySale})

	suite.Equal([]string{"Petición"}, titles(suite.list(Query{Category: "request"})))
	suite.Len(suite.list(Query{Category: "all"}), 3)
	suite.Len(suite.list(Query{Category: ""}), 3)
}

func (suite *FeedEngineTestSuite) TestInvalidCategoryErrors() {
	_, err := suite.engine.List(context.Background(), Query{Category: "freebie"})
	suite.Error(err)
}

func (suite *FeedEngineTestSuite) TestRadiusFilterAndDistanceSort() {
	sol := geo.Coordinates{Lat: 40.4168, Lng: -3.7038}

	suite.createPost(postSpec{title: "En la puerta", lat: 40.4168, lng: -3.7038})
	suite.createPost(postSpec{title: "Retiro", lat: 40.4153, lng: -3.6845})       // ~1.6km
	suite.createPost(postSpec{title: "Chamberí", lat: 40.438, lng: -3.685})       // ~2.9km
	suite.createPost(postSpec{title: "Barcelona", lat: 41.3874, lng: 2.1686})     // ~505km
	suite.createPost(postSpec{title: "Alcalá", lat: 40.4818, lng: -3.3643})       // ~29km

	viewer := &geo.Location{Coordinates: sol, Method: geo.MethodGPS}

	// Default 5km radius drops Barcelona and Alcalá, closest first
	items := suite.list(Query{Viewer: viewer})
	suite.Equal([]string{"En la puerta", "Retiro", "Chamberí"}, titles(items))

	// Tight radius keeps only the doorstep post
	items = suite.list(Query{Viewer: viewer, RadiusKm: 1})
	suite.Equal([]string{"En la puerta"}, titles(items))

	// Requested radius above the cap is clamped to 20km, Alcalá stays out
	items = suite.list(Query{Viewer: viewer, RadiusKm: 100})
	suite.Equal([]string{"En la puerta", "Retiro", "Chamberí"}, titles(items))
}

func (suite *FeedEngineTestSuite) TestNoViewerSkipsRadiusFilter() {
	suite.createPost(postSpec{title: "Madrid", lat: 40.4168, lng: -3.7038})
	suite.createPost(postSpec{title: "Barcelona", lat: 41.3874, lng: 2.1686})

	items := suite.list(Query{})
	suite.Len(items, 2)
	for _, item := range items {
		suite.Equal(0.0, item.DistanceKm)
	}
}

func (suite *FeedEngineTestSuite) TestEquidistantPostsKeepNewestFirstOrder() {
	// Same coordinates, so identical distance; created order is old to new
	suite.createPost(postSpec{title: "Antiguo", lat: 40.4168, lng: -3.7038})
	suite.createPost(postSpec{title: "Reciente", lat: 40.4168, lng: -3.7038})

	viewer := &geo.Location{
		Coordinates: geo.Coordinates{Lat: 40.4168, Lng: -3.7038},
		Method:      geo.MethodGPS,
	}
	items := suite.list(Query{Viewer: viewer})
	suite.Equal([]string{"Reciente", "Antiguo"}, titles(items))
}

func (suite *FeedEngineTestSuite) TestPagination() {
	for i := 0; i < 5; i++ {
		suite.createPost(postSpec{title: fmt.Sprintf("Post %d", i)})
	}

	page1 := suite.list(Query{Limit: 2})
	page2 := suite.list(Query{Limit: 2, Offset: 2})
	page3 := suite.list(Query{Limit: 2, Offset: 4})
	empty := suite.list(Query{Limit: 2, Offset: 10})

	suite.Len(page1, 2)
	suite.Len(page2, 2)
	suite.Len(page3, 1)
	suite.Empty(empty)
	suite.NotEqual(titles(page1), titles(page2))
}

func (suite *FeedEngineTestSuite) TestItemsCarryAuthor() {
	suite.createPost(postSpec{title: "Con autor"})

	items := suite.list(Query{})
	require.Len(suite.T(), items, 1)
	suite.Equal("Ana Vecina", items[0].User.Name)
}

// memoryCache is an in-process stand-in for the redis page cache. Entries
// never age out on their own, which lets the tests hold a page past the
// point its posts expire.
type memoryCache struct {
	entries map[string]string
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.entries[key]
	if !ok {
		return "", fmt.Errorf("cache miss: %s", key)
	}
	return value, nil
}

func (m *memoryCache) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.entries[key] = string(value.([]byte))
	return nil
}

func (m *memoryCache) DelPattern(ctx context.Context, pattern string) error {
	m.entries = map[string]string{}
	return nil
}

func (suite *FeedEngineTestSuite) TestCachedPageServedWithoutStorage() {
	suite.engine.redis = &memoryCache{entries: map[string]string{}}
	post := suite.createPost(postSpec{title: "Vendo bicicleta", expiresIn: 10 * time.Minute})

	require.Len(suite.T(), suite.list(Query{}), 1)

	// Remove the row; the next identical query must come from the cache.
	require.NoError(suite.T(), suite.db.Delete(&models.Post{}, "id = ?", post.ID).Error)
	items := suite.list(Query{})
	require.Len(suite.T(), items, 1)
	suite.Equal("Vendo bicicleta", items[0].Title)
}

func (suite *FeedEngineTestSuite) TestCacheHitDropsPostsPastExpiry() {
	mem := &memoryCache{entries: map[string]string{}}
	suite.engine.redis = mem
	suite.createPost(postSpec{title: "Caduca pronto", expiresIn: 10 * time.Minute})
	suite.createPost(postSpec{title: "Caduca tarde", expiresIn: 48 * time.Hour})

	require.Len(suite.T(), suite.list(Query{}), 2)
	require.NotEmpty(suite.T(), mem.entries)

	// Cross the first post's expiration while the page is still cached.
	suite.clock = suite.clock.Add(20 * time.Minute)
	items := suite.list(Query{})
	require.Len(suite.T(), items, 1)
	suite.Equal("Caduca tarde", items[0].Title)
}

func (suite *FeedEngineTestSuite) TestInvalidateDropsCachedPages() {
	mem := &memoryCache{entries: map[string]string{}}
	suite.engine.redis = mem
	post := suite.createPost(postSpec{title: "Se borra"})

	require.Len(suite.T(), suite.list(Query{}), 1)
	require.NoError(suite.T(), suite.db.Delete(&models.Post{}, "id = ?", post.ID).Error)

	suite.engine.Invalidate(context.Background())
	suite.Empty(suite.list(Query{}))
}

func TestFeedEngineSuite(t *testing.T) {
	suite.Run(t, new(FeedEngineTestSuite))
}
