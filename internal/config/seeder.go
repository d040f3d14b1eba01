package config

import (
	"log"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"
	"openshelf/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedMainLibrary(); err != nil {
		log.Printf("⚠️ Library seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	// Check if admin already exists
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    "admin@openshelf.example.org",
		Password: hashedPassword,
		FullName: "System Administrator",
		Role:     string(domain.RoleAdmin),
		MaxBooks: domain.DefaultMaxBooks,
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

// seedMainLibrary seeds the default branch so books have a home
func (s *Seeder) seedMainLibrary() error {
	var count int64
	s.db.Model(&models.Library{}).Count(&count)
	if count > 0 {
		return nil
	}

	library := &models.Library{
		Name:     "Central Library",
		Address:  "1 Main Street",
		City:     "Istanbul",
		IsActive: true,
	}

	if err := s.db.Create(library).Error; err != nil {
		return err
	}

	log.Printf("✅ Default library created: %s", library.Name)
	return nil
}
