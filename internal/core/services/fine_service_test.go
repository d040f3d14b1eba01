package services

import (
	"context"
	"testing"
	"time"

	"openshelf/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCreatesFines(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	record := seedOpenLoan(t, db, user, book, 20)

	out, err := svc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, out.Processed)
	assert.Equal(t, 1, out.NewFines)
	assert.Equal(t, 0, out.UpdatedFines)
	require.Len(t, out.Details, 1)
	assert.Equal(t, "created", out.Details[0].Action)
	assert.Equal(t, 12.0, out.Details[0].Amount)
	assert.Equal(t, 20, out.Details[0].DaysOverdue)

	// The record now points at its fine
	var updated models.BorrowRecord
	require.NoError(t, db.First(&updated, record.ID).Error)
	require.NotNil(t, updated.FineID)

	var fine models.Fine
	require.NoError(t, db.First(&fine, *updated.FineID).Error)
	assert.Equal(t, "pending", fine.Status)
	assert.Equal(t, "overdue", fine.Reason)
}

func TestSweepIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	seedOpenLoan(t, db, user, book, 20)

	now := time.Now()
	_, err := svc.SweepOverdueFines(ctx, now)
	require.NoError(t, err)

	// A later run updates the existing fine instead of creating a second one
	out, err := svc.SweepOverdueFines(ctx, now.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 0, out.NewFines)
	assert.Equal(t, 1, out.UpdatedFines)
	require.Len(t, out.Details, 1)
	assert.Equal(t, "updated", out.Details[0].Action)
	assert.Equal(t, 14.0, out.Details[0].Amount)
	assert.Equal(t, 21, out.Details[0].DaysOverdue)

	var fineCount int64
	require.NoError(t, db.Model(&models.Fine{}).Count(&fineCount).Error)
	assert.Equal(t, int64(1), fineCount)
}

func TestSweepSkipsLoansWithinGrace(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	seedOpenLoan(t, db, user, book, 5)

	out, err := svc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, out.Processed)
	assert.Equal(t, 0, out.NewFines)
	assert.Empty(t, out.Details)
}

func TestSweepIgnoresReturnedLoans(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	fineSvc := newFineService(db, cfg)
	loanSvc := newLoanService(db, cfg)
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	seedOpenLoan(t, db, user, book, 20)

	_, err := loanSvc.Return(ctx, user.ID, book.ID, &ReturnInput{})
	require.NoError(t, err)

	out, err := fineSvc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, out.Processed)
}

func TestPayFine(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	seedOpenLoan(t, db, user, book, 20)

	out, err := svc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, out.Details, 1)

	var fine models.Fine
	require.NoError(t, db.Where("borrow_record_id = ?", out.Details[0].BorrowRecordID).First(&fine).Error)

	paid, err := svc.PayFine(ctx, fine.ID, user.ID, &PayFineInput{
		PaymentMethod:    "card",
		PaymentReference: "TXN-123",
		Notes:            "paid at desk",
	})
	require.NoError(t, err)

	assert.Equal(t, "paid", paid.Status)
	require.NotNil(t, paid.PaidDate)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, "card", *paid.PaymentMethod)
	assert.Contains(t, paid.Description, "Payment note: paid at desk")

	// Paying a settled fine fails
	_, err = svc.PayFine(ctx, fine.ID, user.ID, &PayFineInput{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrFineNotFound)
}

func TestPayFineOwnedByAnotherUser(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	alice := seedUser(t, db, "alice", 5)
	bob := seedUser(t, db, "bob", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	seedOpenLoan(t, db, alice, book, 20)

	out, err := svc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, out.Details, 1)

	var fine models.Fine
	require.NoError(t, db.Where("borrow_record_id = ?", out.Details[0].BorrowRecordID).First(&fine).Error)

	_, err = svc.PayFine(ctx, fine.ID, bob.ID, &PayFineInput{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrFineNotFound)
}

func TestCancelFine(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	seedOpenLoan(t, db, user, book, 20)

	out, err := svc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)

	var fine models.Fine
	require.NoError(t, db.Where("borrow_record_id = ?", out.Details[0].BorrowRecordID).First(&fine).Error)

	cancelled, err := svc.CancelFine(ctx, fine.ID, "issued in error")
	require.NoError(t, err)

	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Contains(t, cancelled.Description, "Reason: issued in error")

	// A cancelled fine can no longer be touched
	_, err = svc.CancelFine(ctx, fine.ID, "")
	assert.ErrorIs(t, err, ErrFineNotFound)
}

func TestWaiveFineDefaultReason(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	book := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	seedOpenLoan(t, db, user, book, 20)

	out, err := svc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)

	var fine models.Fine
	require.NoError(t, db.Where("borrow_record_id = ?", out.Details[0].BorrowRecordID).First(&fine).Error)

	waived, err := svc.WaiveFine(ctx, fine.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "waived", waived.Status)
	assert.Contains(t, waived.Description, "Waived by admin")
}

func TestListUserFines(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	first := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	second := seedBook(t, db, library.ID, uniqueISBN(2), 1)
	seedOpenLoan(t, db, user, first, 20)
	seedOpenLoan(t, db, user, second, 29)

	_, err := svc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)

	out, err := svc.ListUserFines(ctx, user.ID, "", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(2), out.Total)
	assert.Len(t, out.Fines, 2)
	// 6 + 15 chargeable days at 2.0
	assert.Equal(t, 42.0, out.PendingAmount)
	assert.Equal(t, "TRY", out.Currency)
}

func TestFineStatistics(t *testing.T) {
	db := newTestDB(t)
	svc := newFineService(db, newTestConfig())
	ctx := context.Background()

	library := seedLibrary(t, db, "Central")
	user := seedUser(t, db, "alice", 5)
	first := seedBook(t, db, library.ID, uniqueISBN(1), 1)
	second := seedBook(t, db, library.ID, uniqueISBN(2), 1)
	seedOpenLoan(t, db, user, first, 20)
	seedOpenLoan(t, db, user, second, 20)

	out, err := svc.SweepOverdueFines(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 2, out.NewFines)

	var fine models.Fine
	require.NoError(t, db.Where("borrow_record_id = ?", out.Details[0].BorrowRecordID).First(&fine).Error)
	_, err = svc.PayFine(ctx, fine.ID, user.ID, &PayFineInput{PaymentMethod: "cash"})
	require.NoError(t, err)

	stats, err := svc.GetStatistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalCount)
	assert.Equal(t, int64(1), stats.PendingCount)
	assert.Equal(t, int64(1), stats.PaidCount)
	assert.Equal(t, 12.0, stats.PendingAmount)
	assert.Equal(t, 12.0, stats.PaidAmount)
}
