package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/vecinet/backend/internal/geo"
	"github.com/vecinet/backend/internal/logger"
	"github.com/vecinet/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// Madrid postal codes with seeded coordinates. Posts are scattered a few
// hundred meters around each center so radius filtering has something to do.
var seedAreas = []string{
	"28001", "28002", "28003", "28004", "28005",
	"28006", "28007", "28008", "28009", "28010",
}

var postTitles = map[models.PostCategory][]string{
	models.CategoryRequest: {
		"Busco taladro para una tarde",
		"Necesito ayuda con mudanza el sábado",
		"¿Alguien tiene una escalera alta?",
		"Busco profesor de guitarra para mi hijo",
	},
	models.CategoryOffer: {
		"Regalo macetas de barro",
		"Ofrezco clases de inglés gratis",
		"Presto mi máquina de coser",
		"Regalo ropa de bebé 0-6 meses",
	},
	models.CategoryExchange: {
		"Cambio libros de cocina por novelas",
		"Intercambio plantas de interior",
		"Cambio bici de niño por patinete",
	},
	models.CategorySale: {
		"Vendo sofá de dos plazas",
		"Vendo bicicleta de montaña",
		"Vendo mesa de comedor extensible",
		"Vendo monitor 24 pulgadas",
	},
}

// SeedDev seeds the development database with realistic neighborhood data.
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(20)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating posts...")
	if err := s.seedPosts(users, 80); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", len(users)))
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	// All seeded users share the same password for local testing
	hash, err := bcrypt.GenerateFromPassword([]byte("vecinet-dev"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		person := gofakeit.Person()
		user := models.User{
			ID:           uuid.New().String(),
			Email:        fmt.Sprintf("vecino%d@example.com", i+1),
			Name:         person.FirstName + " " + person.LastName,
			Bio:          gofakeit.Sentence(8),
			PasswordHash: &hashStr,
			Rating:       4.0 + rand.Float64(),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPosts(users []models.User, count int) error {
	categories := []models.PostCategory{
		models.CategoryRequest,
		models.CategoryOffer,
		models.CategoryExchange,
		models.CategorySale,
	}

	for i := 0; i < count; i++ {
		owner := users[rand.Intn(len(users))]
		category := categories[rand.Intn(len(categories))]
		titles := postTitles[category]
		title := titles[rand.Intn(len(titles))]

		code := seedAreas[rand.Intn(len(seedAreas))]
		loc, ok := geo.LookupPostalCode(code)
		if !ok {
			continue
		}

		// Scatter within roughly 500m of the postal code center
		lat := loc.Coordinates.Lat + (rand.Float64()-0.5)*0.009
		lng := loc.Coordinates.Lng + (rand.Float64()-0.5)*0.011

		createdAt := time.Now().Add(-time.Duration(rand.Intn(20*24)) * time.Hour)
		post := models.Post{
			ID:          uuid.New().String(),
			UserID:      owner.ID,
			Category:    category,
			Title:       title,
			Description: gofakeit.Paragraph(1, 3, 12, " "),
			Coordinates: geo.Coordinates{Lat: lat, Lng: lng},
			PostalCode:  code,
			ExpiresAt:   createdAt.Add(30 * 24 * time.Hour),
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		if err := s.db.Create(&post).Error; err != nil {
			return err
		}
		if err := s.db.Model(&models.User{}).
			Where("id = ?", owner.ID).
			UpdateColumn("total_posts", gorm.Expr("total_posts + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

// Clean removes all seeded data. Intended for local development only.
func (s *Seeder) Clean() error {
	for _, stmt := range []string{
		"DELETE FROM reports",
		"DELETE FROM posts",
		"DELETE FROM users",
	} {
		if err := s.db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
