package services

import (
	"context"
	"errors"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Book service errors
var (
	ErrBookNotFoundSvc  = errors.New("book not found")
	ErrISBNAlreadyUsed  = errors.New("a book with this ISBN already exists")
	ErrLibraryNotFound  = errors.New("library not found")
	ErrInvalidCopies    = errors.New("total copies must be at least 1")
	ErrBookStillOnLoan  = errors.New("book has copies on loan")
)

// BookService handles catalog business logic
type BookService struct {
	bookRepo    *repositories.BookRepository
	libraryRepo *repositories.LibraryRepository
}

// NewBookService creates a new book service
func NewBookService(
	bookRepo *repositories.BookRepository,
	libraryRepo *repositories.LibraryRepository,
) *BookService {
	return &BookService{
		bookRepo:    bookRepo,
		libraryRepo: libraryRepo,
	}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	ISBN          string `json:"isbn" validate:"required,min=10,max=20"`
	Title         string `json:"title" validate:"required,max=255"`
	Author        string `json:"author" validate:"required,max=100"`
	Publisher     string `json:"publisher" validate:"max=100"`
	PublishedYear int    `json:"published_year"`
	Category      string `json:"category" validate:"max=50"`
	Description   string `json:"description"`
	LibraryID     uint   `json:"library_id" validate:"required"`
	TotalCopies   int    `json:"total_copies" validate:"required,min=1"`
}

// UpdateBookInput represents update book input
type UpdateBookInput struct {
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Author        *string `json:"author" validate:"omitempty,max=100"`
	Publisher     *string `json:"publisher" validate:"omitempty,max=100"`
	PublishedYear *int    `json:"published_year"`
	Category      *string `json:"category" validate:"omitempty,max=50"`
	Description   *string `json:"description"`
	TotalCopies   *int    `json:"total_copies" validate:"omitempty,min=1"`
	IsActive      *bool   `json:"is_active"`
}

// SearchBooksInput represents catalog search input
type SearchBooksInput struct {
	Query         string `json:"query" validate:"required,min=1,max=255"`
	Category      string `json:"category" validate:"max=50"`
	LibraryID     uint   `json:"library_id"`
	OnlyAvailable bool   `json:"available"`
	Page          int    `json:"page"`
	Limit         int    `json:"limit"`
}

// ListBooksOutput represents a paginated catalog listing
type ListBooksOutput struct {
	Books      []*models.BookResponse `json:"books"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// CreateBook adds a book to the catalog
func (s *BookService) CreateBook(ctx context.Context, input *CreateBookInput) (*models.BookResponse, error) {
	// Library must exist and be active
	_, err := s.libraryRepo.GetActiveByID(ctx, input.LibraryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibraryNotFound
		}
		return nil, err
	}

	// ISBN must be unique
	_, err = s.bookRepo.GetByISBN(ctx, input.ISBN)
	if err == nil {
		return nil, ErrISBNAlreadyUsed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if input.TotalCopies < 1 {
		return nil, ErrInvalidCopies
	}

	book := &models.Book{
		ISBN:            input.ISBN,
		Title:           input.Title,
		Author:          input.Author,
		Publisher:       input.Publisher,
		PublishedYear:   input.PublishedYear,
		Category:        input.Category,
		Description:     input.Description,
		LibraryID:       input.LibraryID,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		IsActive:        true,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	return book.ToResponse(), nil
}

// GetBookByID gets a book by ID
func (s *BookService) GetBookByID(ctx context.Context, id uint) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFoundSvc
		}
		return nil, err
	}
	return book.ToResponse(), nil
}

// UpdateBook updates catalog fields. Changing total copies re-derives the
// available count so copies currently on loan stay accounted for.
func (s *BookService) UpdateBook(ctx context.Context, id uint, input *UpdateBookInput) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFoundSvc
		}
		return nil, err
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Publisher != nil {
		book.Publisher = *input.Publisher
	}
	if input.PublishedYear != nil {
		book.PublishedYear = *input.PublishedYear
	}
	if input.Category != nil {
		book.Category = *input.Category
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.IsActive != nil {
		book.IsActive = *input.IsActive
	}

	if input.TotalCopies != nil {
		if *input.TotalCopies < 1 {
			return nil, ErrInvalidCopies
		}
		onLoan := book.TotalCopies - book.AvailableCopies
		book.TotalCopies = *input.TotalCopies
		book.AvailableCopies = *input.TotalCopies - onLoan
		if book.AvailableCopies < 0 {
			book.AvailableCopies = 0
		}
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	return book.ToResponse(), nil
}

// DeleteBook soft deletes a book if no copy is on loan
func (s *BookService) DeleteBook(ctx context.Context, id uint) error {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFoundSvc
		}
		return err
	}

	if book.AvailableCopies < book.TotalCopies {
		return ErrBookStillOnLoan
	}

	return s.bookRepo.Delete(ctx, id)
}

// ListBooks searches the catalog with filters
func (s *BookService) ListBooks(ctx context.Context, filter repositories.BookFilter, page, limit int) (*ListBooksOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	books, total, err := s.bookRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.BookResponse, len(books))
	for i, book := range books {
		responses[i] = book.ToResponse()
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListBooksOutput{
		Books:      responses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// SearchBooks runs a full-text style lookup across the catalog
func (s *BookService) SearchBooks(ctx context.Context, input *SearchBooksInput) (*ListBooksOutput, error) {
	page := input.Page
	limit := input.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	filter := repositories.BookFilter{
		Category:      input.Category,
		LibraryID:     input.LibraryID,
		OnlyAvailable: input.OnlyAvailable,
	}

	books, total, err := s.bookRepo.Search(ctx, input.Query, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.BookResponse, len(books))
	for i, book := range books {
		responses[i] = book.ToResponse()
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListBooksOutput{
		Books:      responses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}
