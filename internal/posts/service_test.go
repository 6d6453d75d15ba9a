package posts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	apierrors "github.com/vecinet/backend/internal/errors"
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

	err = db.Exec(`
		CREATE TABLE reports (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			reporter_id TEXT NOT NULL,
			reason TEXT,
			created_at DATETIME,
			UNIQUE (post_id, reporter_id)
		)
	`).Error
	require.NoError(t, err)

	return db
}

type PostServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *Service
	clock   time.Time
	owner   *models.User
}

func (suite *PostServiceTestSuite) SetupTest() {
	suite.db = setupTestDB(suite.T())
	suite.clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	suite.service = NewService(suite.db, DefaultOptions())
	suite.service.now = func() time.Time { return suite.clock }

	suite.owner = suite.createTestUser("owner@test.com")
}

// advance moves the service clock forward.
func (suite *PostServiceTestSuite) advance(d time.Duration) {
	suite.clock = suite.clock.Add(d)
}

func (suite *PostServiceTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		ID:    uuid.New().String(),
		Email: email,
		Name:  "Test Neighbor",
	}
	require.NoError(suite.T(), suite.db.Create(user).Error)
	return user
}

func (suite *PostServiceTestSuite) validInput() CreateInput {
	return CreateInput{
		Category:    "offer",
		Title:       "Regalo macetas de barro",
		Description: "Diez macetas en buen estado, recoger en portal",
		Latitude:    40.4168,
		Longitude:   -3.7038,
		PostalCode:  "28001",
	}
}

func (suite *PostServiceTestSuite) TestCreateSetsThirtyDayExpiry() {
	post, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)

	suite.Equal(models.CategoryOffer, post.Category)
	suite.Equal(suite.owner.ID, post.UserID)
	suite.True(post.ExpiresAt.Equal(suite.clock.Add(30 * 24 * time.Hour)))
	suite.False(post.IsExpired)
	suite.Equal("Test Neighbor", post.User.Name)
}

func (suite *PostServiceTestSuite) TestCreateIncrementsOwnerCounter() {
	_, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)

	var owner models.User
	require.NoError(suite.T(), suite.db.First(&owner, "id = ?", suite.owner.ID).Error)
	suite.Equal(1, owner.TotalPosts)
}

func (suite *PostServiceTestSuite) TestCreateValidation() {
	cases := []struct {
		name  string
		mut   func(*CreateInput)
		field string
	}{
		{"bad category", func(in *CreateInput) { in.Category = "freebie" }, "category"},
		{"short title", func(in *CreateInput) { in.Title = "hola" }, "title"},
		{"short description", func(in *CreateInput) { in.Description = "corta" }, "description"},
		{"too many images", func(in *CreateInput) {
			in.Images = []string{"a", "b", "c", "d", "e"}
		}, "images"},
	}

	for _, tc := range cases {
		in := suite.validInput()
		tc.mut(&in)
		_, err := suite.service.Create(context.Background(), suite.owner.ID, in)
		suite.Error(err, tc.name)
		apiErr := apierrors.AsAPIError(err)
		suite.Equal(apierrors.ErrValidation, apiErr.Code, tc.name)
	}
}

func (suite *PostServiceTestSuite) TestCreateUnknownOwner() {
	_, err := suite.service.Create(context.Background(), uuid.New().String(), suite.validInput())
	suite.Error(err)
	suite.Equal(apierrors.ErrNotFound, apierrors.AsAPIError(err).Code)

	var count int64
	suite.db.Model(&models.Post{}).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *PostServiceTestSuite) TestUpdateOwnerOnly() {
	post, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)

	stranger := suite.createTestUser("stranger@test.com")
	newTitle := "Regalo macetas grandes"
	_, err = suite.service.Update(context.Background(), post.ID, stranger.ID, UpdateInput{Title: &newTitle})
	suite.Equal(apierrors.ErrForbidden, apierrors.AsAPIError(err).Code)

	updated, err := suite.service.Update(context.Background(), post.ID, suite.owner.ID, UpdateInput{Title: &newTitle})
	require.NoError(suite.T(), err)
	suite.Equal(newTitle, updated.Title)
}

func (suite *PostServiceTestSuite) TestUpdateDoesNotTouchExpiry() {
	post, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)
	originalExpiry := post.ExpiresAt

	suite.advance(5 * 24 * time.Hour)
	desc := "Descripción nueva con más detalle para los vecinos"
	updated, err := suite.service.Update(context.Background(), post.ID, suite.owner.ID, UpdateInput{Description: &desc})
	require.NoError(suite.T(), err)
	suite.True(updated.ExpiresAt.Equal(originalExpiry))
}

func (suite *PostServiceTestSuite) TestDeleteRemovesPostAndReports() {
	post, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)

	report := &models.Report{
		ID:         uuid.New().String(),
		PostID:     post.ID,
		ReporterID: uuid.New().String(),
	}
	require.NoError(suite.T(), suite.db.Create(report).Error)

	require.NoError(suite.T(), suite.service.Delete(context.Background(), post.ID, suite.owner.ID))

	var postCount, reportCount int64
	suite.db.Model(&models.Post{}).Count(&postCount)
	suite.db.Model(&models.Report{}).Where("post_id = ?", post.ID).Count(&reportCount)
	suite.Equal(int64(0), postCount)
	suite.Equal(int64(0), reportCount)

	var owner models.User
	require.NoError(suite.T(), suite.db.First(&owner, "id = ?", suite.owner.ID).Error)
	suite.Equal(0, owner.TotalPosts)
}

func (suite *PostServiceTestSuite) TestDeleteNotFound() {
	err := suite.service.Delete(context.Background(), uuid.New().String(), suite.owner.ID)
	suite.Equal(apierrors.ErrNotFound, apierrors.AsAPIError(err).Code)
}

func (suite *PostServiceTestSuite) TestExtendResetsExpiry() {
	post, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)

	// Let the post expire and get swept
	suite.advance(31 * 24 * time.Hour)
	n, err := suite.service.SweepExpired(context.Background())
	require.NoError(suite.T(), err)
	suite.Equal(int64(1), n)

	extended, err := suite.service.Extend(context.Background(), post.ID, suite.owner.ID)
	require.NoError(suite.T(), err)
	suite.False(extended.IsExpired)
	suite.True(extended.ExpiresAt.Equal(suite.clock.Add(30 * 24 * time.Hour)))
}

func (suite *PostServiceTestSuite) TestExtendOwnerOnly() {
	post, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)

	stranger := suite.createTestUser("stranger@test.com")
	_, err = suite.service.Extend(context.Background(), post.ID, stranger.ID)
	suite.Equal(apierrors.ErrForbidden, apierrors.AsAPIError(err).Code)
}

func (suite *PostServiceTestSuite) TestListExpiringSoonWindow() {
	// Expires in 2 days: inside the 3-day window
	soon, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.db.Model(soon).
		UpdateColumn("expires_at", suite.clock.Add(2*24*time.Hour)).Error)

	// Expires in 10 days: outside
	in := suite.validInput()
	in.Title = "Vendo bicicleta de montaña"
	far, err := suite.service.Create(context.Background(), suite.owner.ID, in)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.db.Model(far).
		UpdateColumn("expires_at", suite.clock.Add(10*24*time.Hour)).Error)

	expiring, err := suite.service.ListExpiringSoon(context.Background(), suite.owner.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), expiring, 1)
	suite.Equal(soon.ID, expiring[0].ID)
}

func (suite *PostServiceTestSuite) TestListExpiringSoonSkipsOtherUsers() {
	_, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)
	suite.db.Model(&models.Post{}).Where("1 = 1").
		UpdateColumn("expires_at", suite.clock.Add(24*time.Hour))

	stranger := suite.createTestUser("stranger@test.com")
	expiring, err := suite.service.ListExpiringSoon(context.Background(), stranger.ID)
	require.NoError(suite.T(), err)
	suite.Empty(expiring)
}

func (suite *PostServiceTestSuite) TestSweepExpiredFlipsFlagOnce() {
	for i := 0; i < 3; i++ {
		in := suite.validInput()
		in.Title = fmt.Sprintf("Post número %d", i)
		_, err := suite.service.Create(context.Background(), suite.owner.ID, in)
		require.NoError(suite.T(), err)
	}

	suite.advance(31 * 24 * time.Hour)
	n, err := suite.service.SweepExpired(context.Background())
	require.NoError(suite.T(), err)
	suite.Equal(int64(3), n)

	// Second sweep has nothing left to do
	n, err = suite.service.SweepExpired(context.Background())
	require.NoError(suite.T(), err)
	suite.Equal(int64(0), n)
}

func (suite *PostServiceTestSuite) TestGetReturnsExpiredPosts() {
	post, err := suite.service.Create(context.Background(), suite.owner.ID, suite.validInput())
	require.NoError(suite.T(), err)

	suite.advance(45 * 24 * time.Hour)
	_, err = suite.service.SweepExpired(context.Background())
	require.NoError(suite.T(), err)

	got, err := suite.service.Get(context.Background(), post.ID)
	require.NoError(suite.T(), err)
	suite.True(got.IsExpired)
}

func TestPostServiceSuite(t *testing.T) {
	suite.Run(t, new(PostServiceTestSuite))
}
