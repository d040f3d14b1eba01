package services

import (
	"context"
	"testing"

	"openshelf/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBookService(db *gorm.DB) *BookService {
	return NewBookService(
		repositories.NewBookRepository(db),
		repositories.NewLibraryRepository(db),
	)
}

func TestCreateBook(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")

	book, err := svc.CreateBook(ctx, &CreateBookInput{
		ISBN:        "978-0-134190-44-0",
		Title:       "The Go Programming Language",
		Author:      "Donovan & Kernighan",
		Category:    "programming",
		LibraryID:   library.ID,
		TotalCopies: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, book.TotalCopies)
	assert.Equal(t, 4, book.AvailableCopies)
	assert.True(t, book.IsActive)
}

func TestCreateBookDuplicateISBN(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	seedBook(t, db, library.ID, "978-0-000001", 1)

	_, err := svc.CreateBook(ctx, &CreateBookInput{
		ISBN:        "978-0-000001",
		Title:       "Duplicate",
		Author:      "Someone",
		LibraryID:   library.ID,
		TotalCopies: 1,
	})
	assert.ErrorIs(t, err, ErrISBNAlreadyUsed)
}

func TestCreateBookUnknownLibrary(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)

	_, err := svc.CreateBook(context.Background(), &CreateBookInput{
		ISBN:        "978-0-000002",
		Title:       "Orphan",
		Author:      "Someone",
		LibraryID:   9999,
		TotalCopies: 1,
	})
	assert.ErrorIs(t, err, ErrLibraryNotFound)
}

func TestUpdateBookKeepsLoanedCopiesAccounted(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 5)

	// Two copies out on loan
	seedOpenLoan(t, db, user, book, -7)
	require.NoError(t, db.Model(book).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1")).Error)

	newTotal := 3
	updated, err := svc.UpdateBook(ctx, book.ID, &UpdateBookInput{TotalCopies: &newTotal})
	require.NoError(t, err)

	assert.Equal(t, 3, updated.TotalCopies)
	assert.Equal(t, 1, updated.AvailableCopies)
}

func TestUpdateBookTotalBelowOnLoanFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 3)
	seedOpenLoan(t, db, user, book, -7)
	require.NoError(t, db.Model(book).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 2")).Error)

	newTotal := 1
	updated, err := svc.UpdateBook(ctx, book.ID, &UpdateBookInput{TotalCopies: &newTotal})
	require.NoError(t, err)

	assert.Equal(t, 1, updated.TotalCopies)
	assert.Equal(t, 0, updated.AvailableCopies)
}

func TestDeleteBookRefusedWhileOnLoan(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 2)
	seedOpenLoan(t, db, user, book, -7)

	err := svc.DeleteBook(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookStillOnLoan)
}

func TestDeleteBook(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	book := seedBook(t, db, library.ID, uniqueISBN(1), 2)

	require.NoError(t, svc.DeleteBook(ctx, book.ID))

	_, err := svc.GetBookByID(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFoundSvc)
}

func TestListBooksFilters(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)
	ctx := context.Background()

	central := seedLibrary(t, db, "Central")
	branch := seedLibrary(t, db, "Branch")

	goBook := seedBook(t, db, central.ID, uniqueISBN(1), 1)
	require.NoError(t, db.Model(goBook).Updates(map[string]interface{}{
		"title":    "Learning Go",
		"category": "programming",
	}).Error)

	empty := seedBook(t, db, branch.ID, uniqueISBN(2), 1)
	require.NoError(t, db.Model(empty).Updates(map[string]interface{}{
		"title":            "Sold Out",
		"available_copies": 0,
	}).Error)

	out, err := svc.ListBooks(ctx, repositories.BookFilter{Query: "learning"}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Total)
	assert.Equal(t, "Learning Go", out.Books[0].Title)

	out, err = svc.ListBooks(ctx, repositories.BookFilter{LibraryID: branch.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)

	out, err = svc.ListBooks(ctx, repositories.BookFilter{OnlyAvailable: true}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Total)
	assert.Equal(t, "Learning Go", out.Books[0].Title)

	out, err = svc.ListBooks(ctx, repositories.BookFilter{Category: "programming"}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
}

func TestSearchBooks(t *testing.T) {
	db := newTestDB(t)
	svc := newBookService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")

	novel := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	require.NoError(t, db.Model(novel).Updates(map[string]interface{}{
		"title":       "The Long Winter",
		"description": "A frontier survival story",
	}).Error)

	manual := seedBook(t, db, library.ID, uniqueISBN(2), 1)
	require.NoError(t, db.Model(manual).Updates(map[string]interface{}{
		"title":    "Database Internals",
		"category": "engineering",
	}).Error)

	// Matches description text
	out, err := svc.SearchBooks(ctx, &SearchBooksInput{Query: "survival"})
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Total)
	assert.Equal(t, "The Long Winter", out.Books[0].Title)

	// Matches category text
	out, err = svc.SearchBooks(ctx, &SearchBooksInput{Query: "engineering"})
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Total)
	assert.Equal(t, "Database Internals", out.Books[0].Title)

	// No match
	out, err = svc.SearchBooks(ctx, &SearchBooksInput{Query: "astronomy"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Total)
}
