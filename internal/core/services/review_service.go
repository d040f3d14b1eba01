package services

import (
	"context"
	"errors"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Review service errors
var (
	ErrReviewNotFound   = errors.New("review not found")
	ErrAlreadyReviewed  = errors.New("user has already reviewed this book")
	ErrNotReviewOwner   = errors.New("review belongs to another user")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrReviewedBookGone = errors.New("book not found")
)

// ReviewService handles rating and review business logic
type ReviewService struct {
	reviewRepo *repositories.ReviewRepository
	bookRepo   *repositories.BookRepository
}

// NewReviewService creates a new review service
func NewReviewService(
	reviewRepo *repositories.ReviewRepository,
	bookRepo *repositories.BookRepository,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		bookRepo:   bookRepo,
	}
}

// CreateReviewInput represents create review input
type CreateReviewInput struct {
	BookID  uint   `json:"book_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// UpdateReviewInput represents update review input
type UpdateReviewInput struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

// ListReviewsOutput represents a paginated review listing
type ListReviewsOutput struct {
	Reviews       []*models.ReviewResponse `json:"reviews"`
	Total         int64                    `json:"total"`
	AverageRating float64                  `json:"average_rating"`
}

// CreateReview adds a review and refreshes the book's rating aggregate
func (s *ReviewService) CreateReview(ctx context.Context, userID uint, input *CreateReviewInput) (*models.ReviewResponse, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	// Book must exist and be active
	_, err := s.bookRepo.GetActiveByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewedBookGone
		}
		return nil, err
	}

	// One review per user per book
	_, err = s.reviewRepo.GetByUserAndBook(ctx, userID, input.BookID)
	if err == nil {
		return nil, ErrAlreadyReviewed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &models.Review{
		UserID:  userID,
		BookID:  input.BookID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := s.refreshAggregate(ctx, input.BookID); err != nil {
		return nil, err
	}

	return review.ToResponse(), nil
}

// UpdateReview updates the caller's own review
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, userID uint, input *UpdateReviewInput) (*models.ReviewResponse, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}

	if review.UserID != userID {
		return nil, ErrNotReviewOwner
	}

	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, ErrInvalidRating
		}
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = *input.Comment
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	if err := s.refreshAggregate(ctx, review.BookID); err != nil {
		return nil, err
	}

	return review.ToResponse(), nil
}

// DeleteReview removes a review. Admins may remove any review,
// members only their own.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID uint, isAdmin bool) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}

	if !isAdmin && review.UserID != userID {
		return ErrNotReviewOwner
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}

	return s.refreshAggregate(ctx, review.BookID)
}

// ListBookReviews lists a book's reviews with the aggregate
func (s *ReviewService) ListBookReviews(ctx context.Context, bookID uint, page, limit int) (*ListReviewsOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	reviews, total, err := s.reviewRepo.ListByBook(ctx, bookID, offset, limit)
	if err != nil {
		return nil, err
	}

	average, _, err := s.reviewRepo.Aggregate(ctx, bookID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.ReviewResponse, len(reviews))
	for i, review := range reviews {
		responses[i] = review.ToResponse()
	}

	return &ListReviewsOutput{
		Reviews:       responses,
		Total:         total,
		AverageRating: average,
	}, nil
}

// ListUserReviews lists the caller's own reviews
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uint, page, limit int) ([]*models.ReviewResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	reviews, total, err := s.reviewRepo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.ReviewResponse, len(reviews))
	for i, review := range reviews {
		responses[i] = review.ToResponse()
	}

	return responses, total, nil
}

// MarkHelpful bumps the helpful counter on a review
func (s *ReviewService) MarkHelpful(ctx context.Context, reviewID uint) (*models.ReviewResponse, error) {
	bumped, err := s.reviewRepo.IncrementHelpful(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !bumped {
		return nil, ErrReviewNotFound
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	return review.ToResponse(), nil
}

// TopRatedBooks lists the best rated books in the catalog
func (s *ReviewService) TopRatedBooks(ctx context.Context, limit int) ([]*models.BookResponse, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	books, err := s.bookRepo.ListTopRated(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.BookResponse, len(books))
	for i, book := range books {
		responses[i] = book.ToResponse()
	}

	return responses, nil
}

// refreshAggregate recomputes and stores the book's rating numbers
func (s *ReviewService) refreshAggregate(ctx context.Context, bookID uint) error {
	average, count, err := s.reviewRepo.Aggregate(ctx, bookID)
	if err != nil {
		return err
	}
	return s.bookRepo.UpdateRating(ctx, bookID, average, count)
}
