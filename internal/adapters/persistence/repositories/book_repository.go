package repositories

import (
	"context"

	"openshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BookFilter holds optional catalog search filters
type BookFilter struct {
	Query         string // matches title or author
	Category      string
	LibraryID     uint
	OnlyAvailable bool
}

// BookRepository handles book data access
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create creates a new book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID with its library
func (r *BookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Library").
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetActiveByID gets a book by ID, skipping deactivated entries
func (r *BookRepository) GetActiveByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("is_active = ?", true).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByISBN gets a book by ISBN
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update updates a book
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete soft deletes a book
func (r *BookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Book{}, id).Error
}

// List lists books with filters and pagination
func (r *BookRepository) List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{}).Where("is_active = ?", true)

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("title LIKE ? OR author LIKE ?", like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.LibraryID != 0 {
		query = query.Where("library_id = ?", filter.LibraryID)
	}
	if filter.OnlyAvailable {
		query = query.Where("available_copies > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Library").
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// Search matches a term against title, author, category and description
func (r *BookRepository) Search(ctx context.Context, term string, filter BookFilter, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	like := "%" + term + "%"
	query := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("is_active = ?", true).
		Where("title LIKE ? OR author LIKE ? OR category LIKE ? OR description LIKE ?", like, like, like, like)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.LibraryID != 0 {
		query = query.Where("library_id = ?", filter.LibraryID)
	}
	if filter.OnlyAvailable {
		query = query.Where("available_copies > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Library").
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// ListTopRated lists active rated books, best average first
func (r *BookRepository) ListTopRated(ctx context.Context, limit int) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("rating_count > 0").
		Preload("Library").
		Order("average_rating DESC, rating_count DESC").
		Limit(limit).
		Find(&books).Error
	return books, err
}

// ListByLibrary lists books belonging to a library branch
func (r *BookRepository) ListByLibrary(ctx context.Context, libraryID uint, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{}).
		Where("library_id = ?", libraryID).
		Where("is_active = ?", true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("title ASC").Offset(offset).Limit(limit).Find(&books).Error
	return books, total, err
}

// DecrementAvailable atomically takes one copy if any remains.
// Returns false when no copy was available, without touching the row.
func (r *BookRepository) DecrementAvailable(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Where("available_copies > 0").
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementAvailable atomically returns one copy to the shelf,
// never exceeding total_copies.
func (r *BookRepository) IncrementAvailable(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Where("available_copies < total_copies").
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1")).Error
}

// UpdateRating stores the recomputed rating aggregate
func (r *BookRepository) UpdateRating(ctx context.Context, id uint, average float64, count int) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": average,
			"rating_count":   count,
		}).Error
}

// CountByLibrary counts active books and copies in a library branch
func (r *BookRepository) CountByLibrary(ctx context.Context, libraryID uint) (books int64, totalCopies int64, availableCopies int64, err error) {
	type sums struct {
		Books     int64
		Total     int64
		Available int64
	}
	var s sums
	err = r.db.WithContext(ctx).
		Model(&models.Book{}).
		Select("COUNT(*) AS books, COALESCE(SUM(total_copies), 0) AS total, COALESCE(SUM(available_copies), 0) AS available").
		Where("library_id = ?", libraryID).
		Where("is_active = ?", true).
		Scan(&s).Error
	return s.Books, s.Total, s.Available, err
}
