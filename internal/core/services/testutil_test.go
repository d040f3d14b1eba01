package services

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test_secret",
			RefreshSecret:    "test_refresh_secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Loan: config.LoanConfig{
			LoanPeriodDays:  14,
			GracePeriodDays: 14,
			DailyFineRate:   2.0,
			MaxFineAmount:   100.0,
			Currency:        "TRY",
			PaymentDueDays:  30,
			SweepSchedule:   "0 2 * * *",
		},
	}
}

func seedUser(t *testing.T, db *gorm.DB, username string, maxBooks int) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.org",
		Password: "not-a-real-hash",
		Role:     "MEMBER",
		MaxBooks: maxBooks,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedLibrary(t *testing.T, db *gorm.DB, name string) *models.Library {
	t.Helper()

	library := &models.Library{
		Name:     name,
		City:     "Istanbul",
		IsActive: true,
	}
	require.NoError(t, db.Create(library).Error)
	return library
}

func seedBook(t *testing.T, db *gorm.DB, libraryID uint, isbn string, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		ISBN:            isbn,
		Title:           "Book " + isbn,
		Author:          "Test Author",
		LibraryID:       libraryID,
		TotalCopies:     copies,
		AvailableCopies: copies,
		IsActive:        true,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

// seedOpenLoan creates an open borrow record due dueDaysAgo days in the past
// (negative values put the due date in the future).
func seedOpenLoan(t *testing.T, db *gorm.DB, user *models.User, book *models.Book, dueDaysAgo int) *models.BorrowRecord {
	t.Helper()

	now := time.Now()
	record := &models.BorrowRecord{
		UserID:     user.ID,
		BookID:     book.ID,
		LibraryID:  book.LibraryID,
		BorrowDate: now.AddDate(0, 0, -dueDaysAgo-14),
		DueDate:    now.AddDate(0, 0, -dueDaysAgo),
	}
	require.NoError(t, db.Create(record).Error)

	// Mirror what Borrow does: take a copy and link the borrowed set
	require.NoError(t, db.Model(book).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1")).Error)
	require.NoError(t, db.Model(user).Association("BorrowedBooks").Append(book))

	return record
}

func newLoanService(db *gorm.DB, cfg *config.Config) *LoanService {
	return NewLoanService(
		repositories.NewBookRepository(db),
		repositories.NewUserRepository(db),
		repositories.NewBorrowRecordRepository(db),
		repositories.NewFineRepository(db),
		cfg,
	)
}

func newFineService(db *gorm.DB, cfg *config.Config) *FineService {
	return NewFineService(
		repositories.NewFineRepository(db),
		repositories.NewBorrowRecordRepository(db),
		cfg,
	)
}

func uniqueISBN(seq int) string {
	return fmt.Sprintf("978-0-%06d", seq)
}
