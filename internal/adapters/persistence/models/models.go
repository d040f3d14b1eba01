package models

import (
	"time"

	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	FullName  string         `gorm:"size:100" json:"full_name"`
	Role      string         `gorm:"size:20;default:'MEMBER'" json:"role"`
	MaxBooks  int            `gorm:"default:5" json:"max_books"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	BorrowedBooks []Book `gorm:"many2many:user_borrowed_books" json:"borrowed_books,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name,omitempty"`
	Role          string    `json:"role"`
	MaxBooks      int       `json:"max_books"`
	IsActive      bool      `json:"is_active"`
	BorrowedCount int       `json:"borrowed_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		Role:          u.Role,
		MaxBooks:      u.MaxBooks,
		IsActive:      u.IsActive,
		BorrowedCount: len(u.BorrowedBooks),
		CreatedAt:     u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog Tables
// ============================================================

// Library represents libraries table (branches)
type Library struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Address   string         `gorm:"size:255" json:"address"`
	City      string         `gorm:"size:100" json:"city"`
	Phone     string         `gorm:"size:20" json:"phone"`
	Email     string         `gorm:"size:100" json:"email"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Books []Book `gorm:"foreignKey:LibraryID" json:"books,omitempty"`
}

func (Library) TableName() string {
	return "libraries"
}

// Book represents books table
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	ISBN            string         `gorm:"uniqueIndex;size:20;not null" json:"isbn"`
	Title           string         `gorm:"size:255;not null;index" json:"title"`
	Author          string         `gorm:"size:100;not null;index" json:"author"`
	Publisher       string         `gorm:"size:100" json:"publisher"`
	PublishedYear   int            `json:"published_year"`
	Category        string         `gorm:"size:50;index" json:"category"`
	Description     string         `gorm:"type:text" json:"description"`
	LibraryID       uint           `gorm:"not null;index" json:"library_id"`
	TotalCopies     int            `gorm:"not null;default:1" json:"total_copies"`
	AvailableCopies int            `gorm:"not null;default:1" json:"available_copies"`
	AverageRating   float64        `gorm:"type:decimal(3,2);default:0" json:"average_rating"`
	RatingCount     int            `gorm:"default:0" json:"rating_count"`
	IsActive        bool           `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Library    *Library `gorm:"foreignKey:LibraryID" json:"library,omitempty"`
	BorrowedBy []User   `gorm:"many2many:user_borrowed_books" json:"borrowed_by,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO
type BookResponse struct {
	ID              uint    `json:"id"`
	ISBN            string  `json:"isbn"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Publisher       string  `json:"publisher,omitempty"`
	PublishedYear   int     `json:"published_year,omitempty"`
	Category        string  `json:"category,omitempty"`
	Description     string  `json:"description,omitempty"`
	LibraryID       uint    `json:"library_id"`
	LibraryName     string  `json:"library_name,omitempty"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
	AverageRating   float64 `json:"average_rating"`
	RatingCount     int     `json:"rating_count"`
	IsActive        bool    `json:"is_active"`
}

func (b *Book) ToResponse() *BookResponse {
	resp := &BookResponse{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Author:          b.Author,
		Publisher:       b.Publisher,
		PublishedYear:   b.PublishedYear,
		Category:        b.Category,
		Description:     b.Description,
		LibraryID:       b.LibraryID,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		AverageRating:   b.AverageRating,
		RatingCount:     b.RatingCount,
		IsActive:        b.IsActive,
	}

	if b.Library != nil {
		resp.LibraryName = b.Library.Name
	}

	return resp
}

// ============================================================
// Circulation Tables
// ============================================================

// BorrowRecord represents borrow_records table
type BorrowRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	BookID     uint       `gorm:"not null;index" json:"book_id"`
	LibraryID  uint       `gorm:"not null;index" json:"library_id"`
	BorrowDate time.Time  `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time  `gorm:"not null;index" json:"due_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date"`
	IsReturned bool       `gorm:"default:false;index" json:"is_returned"`
	FineAmount float64    `gorm:"type:decimal(10,2);default:0" json:"fine_amount"`
	FineID     *uint      `json:"fine_id"`
	Notes      string     `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book    *Book    `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Library *Library `gorm:"foreignKey:LibraryID" json:"library,omitempty"`
	Fine    *Fine    `gorm:"foreignKey:FineID" json:"fine,omitempty"`
}

func (BorrowRecord) TableName() string {
	return "borrow_records"
}

// BorrowRecordResponse DTO
type BorrowRecordResponse struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"user_id"`
	Username   string     `json:"username,omitempty"`
	BookID     uint       `json:"book_id"`
	BookTitle  string     `json:"book_title,omitempty"`
	LibraryID  uint       `json:"library_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	IsReturned bool       `json:"is_returned"`
	FineAmount float64    `json:"fine_amount"`
	FineID     *uint      `json:"fine_id"`
	Notes      string     `json:"notes,omitempty"`
}

func (br *BorrowRecord) ToResponse() *BorrowRecordResponse {
	resp := &BorrowRecordResponse{
		ID:         br.ID,
		UserID:     br.UserID,
		BookID:     br.BookID,
		LibraryID:  br.LibraryID,
		BorrowDate: br.BorrowDate,
		DueDate:    br.DueDate,
		ReturnDate: br.ReturnDate,
		IsReturned: br.IsReturned,
		FineAmount: br.FineAmount,
		FineID:     br.FineID,
		Notes:      br.Notes,
	}

	if br.User != nil {
		resp.Username = br.User.Username
	}
	if br.Book != nil {
		resp.BookTitle = br.Book.Title
	}

	return resp
}

// Fine represents fines table
type Fine struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	BorrowRecordID  uint       `gorm:"not null;index" json:"borrow_record_id"`
	BookID          uint       `gorm:"not null;index" json:"book_id"`
	LibraryID       uint       `gorm:"not null;index" json:"library_id"`
	Amount          float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency        string     `gorm:"size:10;default:'TRY'" json:"currency"`
	Reason          string     `gorm:"size:20;not null" json:"reason"`
	Status          string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	DaysOverdue     int        `gorm:"default:0" json:"days_overdue"`
	Description     string     `gorm:"type:text" json:"description"`
	DueDate         time.Time  `gorm:"not null" json:"due_date"`
	CalculationDate time.Time  `json:"calculation_date"`
	PaidDate        *time.Time `json:"paid_date"`
	PaymentMethod   *string    `gorm:"size:20" json:"payment_method"`
	PaymentRef      *string    `gorm:"size:100" json:"payment_reference"`
	IssuedBy        *uint      `json:"issued_by"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BorrowRecord *BorrowRecord `gorm:"foreignKey:BorrowRecordID" json:"borrow_record,omitempty"`
	Book         *Book         `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Library      *Library      `gorm:"foreignKey:LibraryID" json:"library,omitempty"`
	Issuer       *User         `gorm:"foreignKey:IssuedBy" json:"issuer,omitempty"`
}

func (Fine) TableName() string {
	return "fines"
}

// IsActive reports whether the fine still counts against its record.
// Cancelled and waived fines no longer do.
func (f *Fine) IsActive() bool {
	return f.Status == string(domain.FineStatusPending) || f.Status == string(domain.FineStatusPaid)
}

// FineResponse DTO
type FineResponse struct {
	ID             uint       `json:"id"`
	UserID         uint       `json:"user_id"`
	Username       string     `json:"username,omitempty"`
	BorrowRecordID uint       `json:"borrow_record_id"`
	BookTitle      string     `json:"book_title,omitempty"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	DaysOverdue    int        `json:"days_overdue"`
	Description    string     `json:"description,omitempty"`
	DueDate        time.Time  `json:"due_date"`
	PaidDate       *time.Time `json:"paid_date"`
	PaymentMethod  *string    `json:"payment_method"`
}

func (f *Fine) ToResponse() *FineResponse {
	resp := &FineResponse{
		ID:             f.ID,
		UserID:         f.UserID,
		BorrowRecordID: f.BorrowRecordID,
		Amount:         f.Amount,
		Currency:       f.Currency,
		Reason:         f.Reason,
		Status:         f.Status,
		DaysOverdue:    f.DaysOverdue,
		Description:    f.Description,
		DueDate:        f.DueDate,
		PaidDate:       f.PaidDate,
		PaymentMethod:  f.PaymentMethod,
	}

	if f.User != nil {
		resp.Username = f.User.Username
	}
	if f.Book != nil {
		resp.BookTitle = f.Book.Title
	}

	return resp
}

// ============================================================
// Review Tables
// ============================================================

// Review represents reviews table
type Review struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index:idx_reviews_user_book,unique" json:"user_id"`
	BookID    uint           `gorm:"not null;index:idx_reviews_user_book,unique" json:"book_id"`
	Rating    int            `gorm:"not null" json:"rating"`
	Comment   string         `gorm:"type:text" json:"comment"`
	Helpful   int            `gorm:"default:0" json:"helpful"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

// ReviewResponse DTO
type ReviewResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	BookID    uint      `json:"book_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Helpful   int       `json:"helpful"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Review) ToResponse() *ReviewResponse {
	resp := &ReviewResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		BookID:    r.BookID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Helpful:   r.Helpful,
		CreatedAt: r.CreatedAt,
	}

	if r.User != nil {
		resp.Username = r.User.Username
	}

	return resp
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Library{},
		&Book{},
		&BorrowRecord{},
		&Fine{},
		&Review{},
	)
}
