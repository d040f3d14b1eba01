package services

import (
	"context"
	"testing"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReviewService(db *gorm.DB) *ReviewService {
	return NewReviewService(
		repositories.NewReviewRepository(db),
		repositories.NewBookRepository(db),
	)
}

func TestCreateReviewUpdatesAggregate(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	alice := seedUser(t, db, "alice", 5)
	bob := seedUser(t, db, "bob", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)

	review, err := svc.CreateReview(ctx, alice.ID, &CreateReviewInput{
		BookID:  book.ID,
		Rating:  5,
		Comment: "great read",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	_, err = svc.CreateReview(ctx, bob.ID, &CreateReviewInput{BookID: book.ID, Rating: 2})
	require.NoError(t, err)

	var updated models.Book
	require.NoError(t, db.First(&updated, book.ID).Error)
	assert.Equal(t, 3.5, updated.AverageRating)
	assert.Equal(t, 2, updated.RatingCount)
}

func TestCreateReviewOnlyOncePerBook(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)

	_, err := svc.CreateReview(ctx, user.ID, &CreateReviewInput{BookID: book.ID, Rating: 4})
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, user.ID, &CreateReviewInput{BookID: book.ID, Rating: 1})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestCreateReviewRejectsBadRating(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)

	_, err := svc.CreateReview(ctx, user.ID, &CreateReviewInput{BookID: book.ID, Rating: 0})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = svc.CreateReview(ctx, user.ID, &CreateReviewInput{BookID: book.ID, Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestCreateReviewUnknownBook(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)

	user := seedUser(t, db, "alice", 5)

	_, err := svc.CreateReview(context.Background(), user.ID, &CreateReviewInput{BookID: 9999, Rating: 3})
	assert.ErrorIs(t, err, ErrReviewedBookGone)
}

func TestUpdateReviewOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	alice := seedUser(t, db, "alice", 5)
	bob := seedUser(t, db, "bob", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)

	review, err := svc.CreateReview(ctx, alice.ID, &CreateReviewInput{BookID: book.ID, Rating: 4})
	require.NoError(t, err)

	newRating := 2
	_, err = svc.UpdateReview(ctx, review.ID, bob.ID, &UpdateReviewInput{Rating: &newRating})
	assert.ErrorIs(t, err, ErrNotReviewOwner)

	updated, err := svc.UpdateReview(ctx, review.ID, alice.ID, &UpdateReviewInput{Rating: &newRating})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)

	var book2 models.Book
	require.NoError(t, db.First(&book2, book.ID).Error)
	assert.Equal(t, 2.0, book2.AverageRating)
}

func TestDeleteReviewAsAdmin(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	alice := seedUser(t, db, "alice", 5)
	admin := seedUser(t, db, "admin", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)

	review, err := svc.CreateReview(ctx, alice.ID, &CreateReviewInput{BookID: book.ID, Rating: 4})
	require.NoError(t, err)

	// Another member cannot delete it
	err = svc.DeleteReview(ctx, review.ID, admin.ID, false)
	assert.ErrorIs(t, err, ErrNotReviewOwner)

	// An admin can
	require.NoError(t, svc.DeleteReview(ctx, review.ID, admin.ID, true))

	var updated models.Book
	require.NoError(t, db.First(&updated, book.ID).Error)
	assert.Equal(t, 0.0, updated.AverageRating)
	assert.Equal(t, 0, updated.RatingCount)
}

func TestListBookReviews(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	alice := seedUser(t, db, "alice", 5)
	bob := seedUser(t, db, "bob", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)

	_, err := svc.CreateReview(ctx, alice.ID, &CreateReviewInput{BookID: book.ID, Rating: 5})
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, bob.ID, &CreateReviewInput{BookID: book.ID, Rating: 4})
	require.NoError(t, err)

	out, err := svc.ListBookReviews(ctx, book.ID, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(2), out.Total)
	assert.Len(t, out.Reviews, 2)
	assert.Equal(t, 4.5, out.AverageRating)
}

func TestMarkHelpful(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)

	review, err := svc.CreateReview(ctx, user.ID, &CreateReviewInput{BookID: book.ID, Rating: 4})
	require.NoError(t, err)

	bumped, err := svc.MarkHelpful(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bumped.Helpful)

	bumped, err = svc.MarkHelpful(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, bumped.Helpful)

	_, err = svc.MarkHelpful(ctx, 9999)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestListUserReviews(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	alice := seedUser(t, db, "alice", 5)
	bob := seedUser(t, db, "bob", 5)
	first := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	second := seedBook(t, db, library.ID, uniqueISBN(2), 1)

	_, err := svc.CreateReview(ctx, alice.ID, &CreateReviewInput{BookID: first.ID, Rating: 5})
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, alice.ID, &CreateReviewInput{BookID: second.ID, Rating: 3})
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, bob.ID, &CreateReviewInput{BookID: first.ID, Rating: 1})
	require.NoError(t, err)

	reviews, total, err := svc.ListUserReviews(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, reviews, 2)
	for _, review := range reviews {
		assert.Equal(t, alice.ID, review.UserID)
	}
}

func TestTopRatedBooks(t *testing.T) {
	db := newTestDB(t)
	svc := newReviewService(db)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	alice := seedUser(t, db, "alice", 5)
	good := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	better := seedBook(t, db, library.ID, uniqueISBN(2), 1)
	unrated := seedBook(t, db, library.ID, uniqueISBN(3), 1)

	_, err := svc.CreateReview(ctx, alice.ID, &CreateReviewInput{BookID: good.ID, Rating: 3})
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, alice.ID, &CreateReviewInput{BookID: better.ID, Rating: 5})
	require.NoError(t, err)

	books, err := svc.TopRatedBooks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, better.ID, books[0].ID)
	assert.Equal(t, good.ID, books[1].ID)
	for _, book := range books {
		assert.NotEqual(t, unrated.ID, book.ID)
	}
}
