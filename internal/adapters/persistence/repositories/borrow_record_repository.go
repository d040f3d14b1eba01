package repositories

import (
	"context"
	"time"

	"openshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BorrowRecordRepository handles borrow record data access
type BorrowRecordRepository struct {
	db *gorm.DB
}

// NewBorrowRecordRepository creates a new borrow record repository
func NewBorrowRecordRepository(db *gorm.DB) *BorrowRecordRepository {
	return &BorrowRecordRepository{db: db}
}

// Create creates a new borrow record
func (r *BorrowRecordRepository) Create(ctx context.Context, record *models.BorrowRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID gets a borrow record by ID with relations
func (r *BorrowRecordRepository) GetByID(ctx context.Context, id uint) (*models.BorrowRecord, error) {
	var record models.BorrowRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Preload("Fine").
		First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetOpenByUserAndBook gets the open record for a user/book pair, if any
func (r *BorrowRecordRepository) GetOpenByUserAndBook(ctx context.Context, userID, bookID uint) (*models.BorrowRecord, error) {
	var record models.BorrowRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Where("is_returned = ?", false).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Update updates a borrow record
func (r *BorrowRecordRepository) Update(ctx context.Context, record *models.BorrowRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// ListByUser lists a user's borrow records, newest first
func (r *BorrowRecordRepository) ListByUser(ctx context.Context, userID uint, openOnly bool, offset, limit int) ([]*models.BorrowRecord, int64, error) {
	var records []*models.BorrowRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.BorrowRecord{}).Where("user_id = ?", userID)
	if openOnly {
		query = query.Where("is_returned = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Book").
		Preload("Fine").
		Order("borrow_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error

	return records, total, err
}

// ListByBook lists a book's borrow records, newest first
func (r *BorrowRecordRepository) ListByBook(ctx context.Context, bookID uint, offset, limit int) ([]*models.BorrowRecord, int64, error) {
	var records []*models.BorrowRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.BorrowRecord{}).Where("book_id = ?", bookID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Order("borrow_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error

	return records, total, err
}

// ListOpenOverdue lists all open records whose due date has passed
func (r *BorrowRecordRepository) ListOpenOverdue(ctx context.Context, now time.Time) ([]*models.BorrowRecord, error) {
	var records []*models.BorrowRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Book").
		Where("is_returned = ?", false).
		Where("due_date < ?", now).
		Find(&records).Error
	return records, err
}

// CountOpenByUser counts a user's open borrow records
func (r *BorrowRecordRepository) CountOpenByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("user_id = ?", userID).
		Where("is_returned = ?", false).
		Count(&count).Error
	return count, err
}

// HasReturned reports whether the user has ever completed a loan of the book
func (r *BorrowRecordRepository) HasReturned(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Where("is_returned = ?", true).
		Count(&count).Error
	return count > 0, err
}

// SetFine stamps the fine reference onto the record
func (r *BorrowRecordRepository) SetFine(ctx context.Context, recordID, fineID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("id = ?", recordID).
		Update("fine_id", fineID).Error
}
