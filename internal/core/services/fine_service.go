package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// Fine service errors
var (
	ErrFineNotFound = errors.New("fine not found or already settled")
)

// FineService handles fine business logic
type FineService struct {
	fineRepo   *repositories.FineRepository
	borrowRepo *repositories.BorrowRecordRepository
	cfg        *config.Config
}

// NewFineService creates a new fine service
func NewFineService(
	fineRepo *repositories.FineRepository,
	borrowRepo *repositories.BorrowRecordRepository,
	cfg *config.Config,
) *FineService {
	return &FineService{
		fineRepo:   fineRepo,
		borrowRepo: borrowRepo,
		cfg:        cfg,
	}
}

// PayFineInput represents fine payment input
type PayFineInput struct {
	PaymentMethod    string `json:"payment_method" validate:"required,oneof=cash card transfer online check"`
	PaymentReference string `json:"payment_reference" validate:"max=100"`
	Notes            string `json:"notes"`
}

// SweepDetail describes one record touched by the overdue sweep
type SweepDetail struct {
	BorrowRecordID uint    `json:"borrow_record_id"`
	UserID         uint    `json:"user_id"`
	BookID         uint    `json:"book_id"`
	DaysOverdue    int     `json:"days_overdue"`
	Amount         float64 `json:"amount"`
	Action         string  `json:"action"` // "created" or "updated"
}

// SweepOutput summarizes an overdue sweep run
type SweepOutput struct {
	Processed    int           `json:"processed"`
	NewFines     int           `json:"new_fines"`
	UpdatedFines int           `json:"updated_fines"`
	Details      []SweepDetail `json:"details"`
}

// FineSettings exposes the fine policy
type FineSettings struct {
	GracePeriodDays int     `json:"grace_period_days"`
	DailyFineRate   float64 `json:"daily_fine_rate"`
	MaxFineAmount   float64 `json:"max_fine_amount"`
	Currency        string  `json:"currency"`
	PaymentDueDays  int     `json:"payment_due_days"`
}

// ListFinesOutput represents a paginated fine list
type ListFinesOutput struct {
	Fines      []*models.FineResponse `json:"fines"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// UserFinesOutput represents a user's fines with the unpaid summary
type UserFinesOutput struct {
	Fines         []*models.FineResponse `json:"fines"`
	Total         int64                  `json:"total"`
	PendingAmount float64                `json:"pending_amount"`
	Currency      string                 `json:"currency"`
}

// computeAmount applies the overdue policy to a day count
func (s *FineService) computeAmount(daysOverdue int) float64 {
	if daysOverdue <= s.cfg.Loan.GracePeriodDays {
		return 0
	}
	fineDays := daysOverdue - s.cfg.Loan.GracePeriodDays
	amount := float64(fineDays) * s.cfg.Loan.DailyFineRate
	if amount > s.cfg.Loan.MaxFineAmount {
		amount = s.cfg.Loan.MaxFineAmount
	}
	return amount
}

// SweepOverdueFines scans open overdue loans and creates or refreshes
// their fines. Safe to run repeatedly: a record with an active fine gets
// that fine updated in place instead of a duplicate.
func (s *FineService) SweepOverdueFines(ctx context.Context, now time.Time) (*SweepOutput, error) {
	records, err := s.borrowRepo.ListOpenOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	out := &SweepOutput{Details: []SweepDetail{}}

	for _, record := range records {
		out.Processed++

		daysOverdue := int(now.Sub(record.DueDate).Hours() / 24)
		amount := s.computeAmount(daysOverdue)
		if amount <= 0 {
			continue
		}

		existing, err := s.fineRepo.GetActiveByRecordID(ctx, record.ID)
		switch {
		case err == nil:
			existing.Amount = amount
			existing.DaysOverdue = daysOverdue
			existing.CalculationDate = now
			if err := s.fineRepo.Update(ctx, existing); err != nil {
				return nil, err
			}
			out.UpdatedFines++
			out.Details = append(out.Details, SweepDetail{
				BorrowRecordID: record.ID,
				UserID:         record.UserID,
				BookID:         record.BookID,
				DaysOverdue:    daysOverdue,
				Amount:         amount,
				Action:         "updated",
			})

		case errors.Is(err, gorm.ErrRecordNotFound):
			fineDays := daysOverdue - s.cfg.Loan.GracePeriodDays
			fine := &models.Fine{
				UserID:          record.UserID,
				BorrowRecordID:  record.ID,
				BookID:          record.BookID,
				LibraryID:       record.LibraryID,
				Amount:          amount,
				Currency:        s.cfg.Loan.Currency,
				Reason:          string(domain.FineReasonOverdue),
				Status:          string(domain.FineStatusPending),
				DaysOverdue:     daysOverdue,
				Description:     fmt.Sprintf("Overdue fine for %d chargeable days", fineDays),
				DueDate:         now.AddDate(0, 0, s.cfg.Loan.PaymentDueDays),
				CalculationDate: now,
			}
			if err := s.fineRepo.Create(ctx, fine); err != nil {
				return nil, err
			}
			if err := s.borrowRepo.SetFine(ctx, record.ID, fine.ID); err != nil {
				return nil, err
			}
			out.NewFines++
			out.Details = append(out.Details, SweepDetail{
				BorrowRecordID: record.ID,
				UserID:         record.UserID,
				BookID:         record.BookID,
				DaysOverdue:    daysOverdue,
				Amount:         amount,
				Action:         "created",
			})

		default:
			return nil, err
		}
	}

	log.Printf("✅ Overdue sweep: %d processed, %d new fines, %d updated", out.Processed, out.NewFines, out.UpdatedFines)
	return out, nil
}

// PayFine settles a pending fine owned by the payer
func (s *FineService) PayFine(ctx context.Context, fineID, payerID uint, input *PayFineInput) (*models.FineResponse, error) {
	fine, err := s.fineRepo.GetPendingByIDAndUser(ctx, fineID, payerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFineNotFound
		}
		return nil, err
	}

	now := time.Now()
	fine.Status = string(domain.FineStatusPaid)
	fine.PaidDate = &now
	fine.PaymentMethod = &input.PaymentMethod
	if input.PaymentReference != "" {
		fine.PaymentRef = &input.PaymentReference
	}
	if input.Notes != "" {
		fine.Description = fine.Description + " | Payment note: " + input.Notes
	}

	if err := s.fineRepo.Update(ctx, fine); err != nil {
		return nil, err
	}

	log.Printf("✅ Fine %d paid by user %d (%.2f %s)", fine.ID, payerID, fine.Amount, fine.Currency)
	return fine.ToResponse(), nil
}

// CancelFine cancels a pending or paid fine
func (s *FineService) CancelFine(ctx context.Context, fineID uint, reason string) (*models.FineResponse, error) {
	return s.closeFine(ctx, fineID, string(domain.FineStatusCancelled), reason, "Cancelled by admin")
}

// WaiveFine waives a pending or paid fine
func (s *FineService) WaiveFine(ctx context.Context, fineID uint, reason string) (*models.FineResponse, error) {
	return s.closeFine(ctx, fineID, string(domain.FineStatusWaived), reason, "Waived by admin")
}

func (s *FineService) closeFine(ctx context.Context, fineID uint, status, reason, defaultReason string) (*models.FineResponse, error) {
	fine, err := s.fineRepo.GetByID(ctx, fineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFineNotFound
		}
		return nil, err
	}

	// Only fines still counting against the record can be closed
	if !fine.IsActive() {
		return nil, ErrFineNotFound
	}

	if reason == "" {
		reason = defaultReason
	}

	fine.Status = status
	fine.Description = fine.Description + " | Reason: " + reason

	if err := s.fineRepo.Update(ctx, fine); err != nil {
		return nil, err
	}

	log.Printf("✅ Fine %d %s: %s", fine.ID, status, reason)
	return fine.ToResponse(), nil
}

// GetFineByID gets a fine by ID
func (s *FineService) GetFineByID(ctx context.Context, id uint) (*models.FineResponse, error) {
	fine, err := s.fineRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFineNotFound
		}
		return nil, err
	}
	return fine.ToResponse(), nil
}

// ListUserFines lists a user's fines with the unpaid summary
func (s *FineService) ListUserFines(ctx context.Context, userID uint, status string, page, limit int) (*UserFinesOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	fines, total, err := s.fineRepo.List(ctx, repositories.FineFilter{UserID: userID, Status: status}, offset, limit)
	if err != nil {
		return nil, err
	}

	pending, err := s.fineRepo.SumPendingByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.FineResponse, len(fines))
	for i, fine := range fines {
		responses[i] = fine.ToResponse()
	}

	return &UserFinesOutput{
		Fines:         responses,
		Total:         total,
		PendingAmount: pending,
		Currency:      s.cfg.Loan.Currency,
	}, nil
}

// ListAllFines lists fines across all users with filters
func (s *FineService) ListAllFines(ctx context.Context, filter repositories.FineFilter, page, limit int) (*ListFinesOutput, error) {
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

	fines, total, err := s.fineRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.FineResponse, len(fines))
	for i, fine := range fines {
		responses[i] = fine.ToResponse()
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListFinesOutput{
		Fines:      responses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// GetSettings returns the fine policy in effect
func (s *FineService) GetSettings() *FineSettings {
	return &FineSettings{
		GracePeriodDays: s.cfg.Loan.GracePeriodDays,
		DailyFineRate:   s.cfg.Loan.DailyFineRate,
		MaxFineAmount:   s.cfg.Loan.MaxFineAmount,
		Currency:        s.cfg.Loan.Currency,
		PaymentDueDays:  s.cfg.Loan.PaymentDueDays,
	}
}

// GetStatistics aggregates fine counts and amounts by status
func (s *FineService) GetStatistics(ctx context.Context) (*repositories.FineStatistics, error) {
	return s.fineRepo.Statistics(ctx)
}
