package repositories

import (
	"context"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// FineFilter holds optional fine listing filters
type FineFilter struct {
	UserID    uint
	LibraryID uint
	Status    string
	Reason    string
	From      *time.Time
	To        *time.Time
}

// FineStatistics aggregates fine amounts by status
type FineStatistics struct {
	TotalCount     int64   `json:"total_count"`
	PendingCount   int64   `json:"pending_count"`
	PaidCount      int64   `json:"paid_count"`
	CancelledCount int64   `json:"cancelled_count"`
	WaivedCount    int64   `json:"waived_count"`
	PendingAmount  float64 `json:"pending_amount"`
	PaidAmount     float64 `json:"paid_amount"`
}

// FineRepository handles fine data access
type FineRepository struct {
	db *gorm.DB
}

// NewFineRepository creates a new fine repository
func NewFineRepository(db *gorm.DB) *FineRepository {
	return &FineRepository{db: db}
}

// Create creates a new fine
func (r *FineRepository) Create(ctx context.Context, fine *models.Fine) error {
	return r.db.WithContext(ctx).Create(fine).Error
}

// GetByID gets a fine by ID with relations
func (r *FineRepository) GetByID(ctx context.Context, id uint) (*models.Fine, error) {
	var fine models.Fine
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("BorrowRecord").
		Preload("Book").
		First(&fine, id).Error
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

// GetActiveByRecordID gets the pending or paid fine for a borrow record, if any.
// At most one such fine exists per record.
func (r *FineRepository) GetActiveByRecordID(ctx context.Context, recordID uint) (*models.Fine, error) {
	var fine models.Fine
	err := r.db.WithContext(ctx).
		Where("borrow_record_id = ?", recordID).
		Where("status IN ?", domain.ActiveFineStatuses).
		First(&fine).Error
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

// GetPendingByIDAndUser gets a pending fine owned by the given user
func (r *FineRepository) GetPendingByIDAndUser(ctx context.Context, id, userID uint) (*models.Fine, error) {
	var fine models.Fine
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Where("status = ?", string(domain.FineStatusPending)).
		First(&fine).Error
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

// Update updates a fine
func (r *FineRepository) Update(ctx context.Context, fine *models.Fine) error {
	return r.db.WithContext(ctx).Save(fine).Error
}

// List lists fines with filters and pagination, newest first
func (r *FineRepository) List(ctx context.Context, filter FineFilter, offset, limit int) ([]*models.Fine, int64, error) {
	var fines []*models.Fine
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Fine{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.LibraryID != 0 {
		query = query.Where("library_id = ?", filter.LibraryID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Preload("BorrowRecord").
		Preload("Book").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&fines).Error

	return fines, total, err
}

// SumPendingByUser sums a user's outstanding fine amount
func (r *FineRepository) SumPendingByUser(ctx context.Context, userID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Fine{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Where("status = ?", string(domain.FineStatusPending)).
		Scan(&total).Error
	return total, err
}

// Statistics aggregates counts and amounts across all fines
func (r *FineRepository) Statistics(ctx context.Context) (*FineStatistics, error) {
	var stats FineStatistics

	type row struct {
		Status string
		Count  int64
		Amount float64
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Model(&models.Fine{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		stats.TotalCount += rw.Count
		switch rw.Status {
		case string(domain.FineStatusPending):
			stats.PendingCount = rw.Count
			stats.PendingAmount = rw.Amount
		case string(domain.FineStatusPaid):
			stats.PaidCount = rw.Count
			stats.PaidAmount = rw.Amount
		case string(domain.FineStatusCancelled):
			stats.CancelledCount = rw.Count
		case string(domain.FineStatusWaived):
			stats.WaivedCount = rw.Count
		}
	}

	return &stats, nil
}
