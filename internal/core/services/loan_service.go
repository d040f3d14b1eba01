package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// Loan service errors
var (
	ErrBookNotFound         = errors.New("book not found")
	ErrBookNotAvailable     = errors.New("book is not available for borrowing")
	ErrBorrowerNotFound     = errors.New("user not found")
	ErrBorrowLimitReached   = errors.New("user has reached the maximum book limit")
	ErrAlreadyBorrowed      = errors.New("user has already borrowed this book")
	ErrBorrowRecordNotFound = errors.New("borrow record not found")
)

// LoanService handles borrow and return business logic
type LoanService struct {
	bookRepo   *repositories.BookRepository
	userRepo   repositories.UserRepository
	borrowRepo *repositories.BorrowRecordRepository
	fineRepo   *repositories.FineRepository
	cfg        *config.Config

	// Per-user locks serialize the limit check against record creation,
	// so concurrent borrows by one user cannot exceed maxBooks.
	userLocks sync.Map
}

// NewLoanService creates a new loan service
func NewLoanService(
	bookRepo *repositories.BookRepository,
	userRepo repositories.UserRepository,
	borrowRepo *repositories.BorrowRecordRepository,
	fineRepo *repositories.FineRepository,
	cfg *config.Config,
) *LoanService {
	return &LoanService{
		bookRepo:   bookRepo,
		userRepo:   userRepo,
		borrowRepo: borrowRepo,
		fineRepo:   fineRepo,
		cfg:        cfg,
	}
}

// BorrowInput represents borrow input
type BorrowInput struct {
	BookID  uint       `json:"id" validate:"required"`
	DueDate *time.Time `json:"due_date"`
}

// ReturnInput represents return input
type ReturnInput struct {
	Notes      string   `json:"notes"`
	ManualFine *float64 `json:"manual_fine" validate:"omitempty,gte=0"`
}

// FineInfo summarizes the fine outcome of a return
type FineInfo struct {
	DaysOverdue    int     `json:"days_overdue"`
	CalculatedFine float64 `json:"calculated_fine"`
	FinalFine      float64 `json:"final_fine"`
	Message        string  `json:"message,omitempty"`
}

// ReturnOutput represents return output
type ReturnOutput struct {
	Record *models.BorrowRecordResponse `json:"borrow_record"`
	Fine   *FineInfo                    `json:"fine_info"`
}

func (s *LoanService) lockUser(userID uint) *sync.Mutex {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Borrow checks out one copy of a book to a user
func (s *LoanService) Borrow(ctx context.Context, userID uint, input *BorrowInput) (*models.BorrowRecord, error) {
	// 1. Book must exist and be active
	book, err := s.bookRepo.GetActiveByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	// 2. At least one copy must be on the shelf
	if book.AvailableCopies <= 0 {
		return nil, ErrBookNotAvailable
	}

	// 3. User must exist and be active
	user, err := s.userRepo.GetActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowerNotFound
		}
		return nil, err
	}

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	// 4. User must be under their book limit
	held, err := s.userRepo.CountBorrowedBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if held >= int64(user.MaxBooks) {
		return nil, ErrBorrowLimitReached
	}

	// 5. User must not already hold this book
	_, err = s.borrowRepo.GetOpenByUserAndBook(ctx, userID, input.BookID)
	if err == nil {
		return nil, ErrAlreadyBorrowed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 6. Take a copy. The conditional update re-checks availability so
	// two concurrent borrows of the last copy cannot both succeed.
	taken, err := s.bookRepo.DecrementAvailable(ctx, input.BookID)
	if err != nil {
		return nil, err
	}
	if !taken {
		return nil, ErrBookNotAvailable
	}

	// 7. Open the record
	now := time.Now()
	dueDate := now.AddDate(0, 0, s.cfg.Loan.LoanPeriodDays)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	record := &models.BorrowRecord{
		UserID:     userID,
		BookID:     input.BookID,
		LibraryID:  book.LibraryID,
		BorrowDate: now,
		DueDate:    dueDate,
	}
	if err := s.borrowRepo.Create(ctx, record); err != nil {
		// Give the copy back; the record never existed.
		if incErr := s.bookRepo.IncrementAvailable(ctx, input.BookID); incErr != nil {
			log.Printf("⚠️ Failed to restore available copy for book %d: %v", input.BookID, incErr)
		}
		return nil, err
	}

	// 8. Link the book into the user's borrowed set
	if err := s.userRepo.AddBorrowedBook(ctx, userID, input.BookID); err != nil {
		return nil, err
	}

	log.Printf("✅ Book %d borrowed by user %d (due %s)", input.BookID, userID, dueDate.Format("2006-01-02"))
	return record, nil
}

// Return closes an open borrow record and computes any overdue fine
func (s *LoanService) Return(ctx context.Context, userID, bookID uint, input *ReturnInput) (*ReturnOutput, error) {
	// Find the open record for this user/book pair
	record, err := s.borrowRepo.GetOpenByUserAndBook(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowRecordNotFound
		}
		return nil, err
	}

	today := time.Now()
	daysOverdue := int(today.Sub(record.DueDate).Hours() / 24)

	grace := s.cfg.Loan.GracePeriodDays
	rate := s.cfg.Loan.DailyFineRate
	maxAmount := s.cfg.Loan.MaxFineAmount

	var calculatedFine float64
	var fineMessage string

	if daysOverdue > grace {
		fineDays := daysOverdue - grace
		calculatedFine = float64(fineDays) * rate
		if calculatedFine > maxAmount {
			calculatedFine = maxAmount
		}
		fineMessage = fmt.Sprintf("Fine of %.2f %s charged for %d chargeable overdue days.",
			calculatedFine, s.cfg.Loan.Currency, fineDays)

		// Create the fine unless an active one already references the record
		if calculatedFine > 0 {
			_, err := s.fineRepo.GetActiveByRecordID(ctx, record.ID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fine := &models.Fine{
					UserID:          userID,
					BorrowRecordID:  record.ID,
					BookID:          bookID,
					LibraryID:       record.LibraryID,
					Amount:          calculatedFine,
					Currency:        s.cfg.Loan.Currency,
					Reason:          string(domain.FineReasonOverdue),
					Status:          string(domain.FineStatusPending),
					DaysOverdue:     daysOverdue,
					Description:     fmt.Sprintf("Overdue fine for %d chargeable days", fineDays),
					DueDate:         today.AddDate(0, 0, s.cfg.Loan.PaymentDueDays),
					CalculationDate: today,
				}
				if err := s.fineRepo.Create(ctx, fine); err != nil {
					return nil, err
				}
				record.FineID = &fine.ID
			} else if err != nil {
				return nil, err
			}
		}
	} else if daysOverdue > 0 {
		fineMessage = fmt.Sprintf("%d days overdue (within the %d-day grace period - no fine).", daysOverdue, grace)
	}

	// Manual fine overrides the computed amount when supplied
	finalFine := calculatedFine
	if input.ManualFine != nil {
		finalFine = *input.ManualFine
	}

	// Close the record
	record.ReturnDate = &today
	record.IsReturned = true
	record.FineAmount = finalFine
	if input.Notes != "" {
		record.Notes = input.Notes
	}
	if err := s.borrowRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	// Put the copy back and unlink the borrowed set
	if err := s.bookRepo.IncrementAvailable(ctx, bookID); err != nil {
		return nil, err
	}
	if err := s.userRepo.RemoveBorrowedBook(ctx, userID, bookID); err != nil {
		return nil, err
	}

	log.Printf("✅ Book %d returned by user %d (%d days overdue, fine %.2f)", bookID, userID, daysOverdue, finalFine)

	return &ReturnOutput{
		Record: record.ToResponse(),
		Fine: &FineInfo{
			DaysOverdue:    daysOverdue,
			CalculatedFine: calculatedFine,
			FinalFine:      finalFine,
			Message:        fineMessage,
		},
	}, nil
}

// ListUserRecords lists a user's borrow history
func (s *LoanService) ListUserRecords(ctx context.Context, userID uint, openOnly bool, page, limit int) ([]*models.BorrowRecordResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	records, total, err := s.borrowRepo.ListByUser(ctx, userID, openOnly, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.BorrowRecordResponse, len(records))
	for i, record := range records {
		responses[i] = record.ToResponse()
	}
	return responses, total, nil
}

// GetRecordByID gets a borrow record with its relations
func (s *LoanService) GetRecordByID(ctx context.Context, id uint) (*models.BorrowRecordResponse, error) {
	record, err := s.borrowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBorrowRecordNotFound
		}
		return nil, err
	}
	return record.ToResponse(), nil
}
