package services

import (
	"context"
	"errors"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Library service errors
var (
	ErrLibraryNotFoundSvc    = errors.New("library not found")
	ErrLibraryNameTaken      = errors.New("a library with this name already exists")
	ErrLibraryHasActiveBooks = errors.New("library still has active books")
)

// LibraryService handles library branch business logic
type LibraryService struct {
	libraryRepo *repositories.LibraryRepository
	bookRepo    *repositories.BookRepository
}

// NewLibraryService creates a new library service
func NewLibraryService(
	libraryRepo *repositories.LibraryRepository,
	bookRepo *repositories.BookRepository,
) *LibraryService {
	return &LibraryService{
		libraryRepo: libraryRepo,
		bookRepo:    bookRepo,
	}
}

// CreateLibraryInput represents create library input
type CreateLibraryInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
	Phone   string `json:"phone" validate:"max=20"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// UpdateLibraryInput represents update library input
type UpdateLibraryInput struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

// LibraryStats summarizes a branch's holdings
type LibraryStats struct {
	LibraryID       uint   `json:"library_id"`
	Name            string `json:"name"`
	Books           int64  `json:"books"`
	TotalCopies     int64  `json:"total_copies"`
	AvailableCopies int64  `json:"available_copies"`
	CopiesOnLoan    int64  `json:"copies_on_loan"`
}

// CreateLibrary creates a library branch
func (s *LibraryService) CreateLibrary(ctx context.Context, input *CreateLibraryInput) (*models.Library, error) {
	_, err := s.libraryRepo.GetByName(ctx, input.Name)
	if err == nil {
		return nil, ErrLibraryNameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	library := &models.Library{
		Name:     input.Name,
		Address:  input.Address,
		City:     input.City,
		Phone:    input.Phone,
		Email:    input.Email,
		IsActive: true,
	}

	if err := s.libraryRepo.Create(ctx, library); err != nil {
		return nil, err
	}

	return library, nil
}

// GetLibraryByID gets a library by ID
func (s *LibraryService) GetLibraryByID(ctx context.Context, id uint) (*models.Library, error) {
	library, err := s.libraryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibraryNotFoundSvc
		}
		return nil, err
	}
	return library, nil
}

// UpdateLibrary updates a library branch
func (s *LibraryService) UpdateLibrary(ctx context.Context, id uint, input *UpdateLibraryInput) (*models.Library, error) {
	library, err := s.libraryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibraryNotFoundSvc
		}
		return nil, err
	}

	if input.Name != nil && *input.Name != library.Name {
		_, err := s.libraryRepo.GetByName(ctx, *input.Name)
		if err == nil {
			return nil, ErrLibraryNameTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		library.Name = *input.Name
	}
	if input.Address != nil {
		library.Address = *input.Address
	}
	if input.City != nil {
		library.City = *input.City
	}
	if input.Phone != nil {
		library.Phone = *input.Phone
	}
	if input.Email != nil {
		library.Email = *input.Email
	}
	if input.IsActive != nil {
		library.IsActive = *input.IsActive
	}

	if err := s.libraryRepo.Update(ctx, library); err != nil {
		return nil, err
	}

	return library, nil
}

// DeleteLibrary soft deletes a branch with no active books
func (s *LibraryService) DeleteLibrary(ctx context.Context, id uint) error {
	_, err := s.libraryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLibraryNotFoundSvc
		}
		return err
	}

	books, _, _, err := s.bookRepo.CountByLibrary(ctx, id)
	if err != nil {
		return err
	}
	if books > 0 {
		return ErrLibraryHasActiveBooks
	}

	return s.libraryRepo.Delete(ctx, id)
}

// ListLibraries lists branches with pagination
func (s *LibraryService) ListLibraries(ctx context.Context, page, limit int) ([]*models.Library, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	return s.libraryRepo.List(ctx, offset, limit)
}

// GetLibraryStats summarizes a branch's holdings
func (s *LibraryService) GetLibraryStats(ctx context.Context, id uint) (*LibraryStats, error) {
	library, err := s.libraryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLibraryNotFoundSvc
		}
		return nil, err
	}

	books, total, available, err := s.bookRepo.CountByLibrary(ctx, id)
	if err != nil {
		return nil, err
	}

	return &LibraryStats{
		LibraryID:       library.ID,
		Name:            library.Name,
		Books:           books,
		TotalCopies:     total,
		AvailableCopies: available,
		CopiesOnLoan:    total - available,
	}, nil
}
