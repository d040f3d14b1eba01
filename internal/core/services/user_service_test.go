package services

import (
	"context"
	"testing"

	"openshelf/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUserService(db *gorm.DB) *UserService {
	return NewUserService(
		repositories.NewUserRepository(db),
		repositories.NewFineRepository(db),
	)
}

func TestDeleteUserRefusedWhileHoldingBooks(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", 5)
	member := seedUser(t, db, "member", 5)
	library := seedLibrary(t, db, "Central")
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	seedOpenLoan(t, db, member, book, -7)

	err := svc.DeleteUser(ctx, member.ID, admin.ID)
	assert.ErrorIs(t, err, ErrUserHasOpenLoans)

	// Returning the book clears the way
	require.NoError(t, db.Model(member).Association("BorrowedBooks").Delete(book))
	require.NoError(t, svc.DeleteUser(ctx, member.ID, admin.ID))

	_, err = svc.GetUserByID(ctx, member.ID)
	assert.ErrorIs(t, err, ErrUserNotFoundSvc)
}

func TestSetRole(t *testing.T) {
	db := newTestDB(t)
	svc := newUserService(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", 5)
	member := seedUser(t, db, "member", 5)

	updated, err := svc.SetRole(ctx, member.ID, admin.ID, "LIBRARIAN")
	require.NoError(t, err)
	assert.Equal(t, "LIBRARIAN", updated.Role)

	_, err = svc.SetRole(ctx, member.ID, admin.ID, "SUPERUSER")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.SetRole(ctx, admin.ID, admin.ID, "MEMBER")
	assert.ErrorIs(t, err, ErrCannotChangeOwnRole)

	_, err = svc.SetRole(ctx, 9999, admin.ID, "MEMBER")
	assert.ErrorIs(t, err, ErrUserNotFoundSvc)
}
