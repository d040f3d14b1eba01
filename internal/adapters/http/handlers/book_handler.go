package handlers

import (
	"errors"
	"strconv"

	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/pagination"
	"openshelf/internal/pkg/response"
	"openshelf/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog and circulation endpoints
type BookHandler struct {
	bookService *services.BookService
	loanService *services.LoanService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService, loanService *services.LoanService) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		loanService: loanService,
	}
}

// ListBooks lists books with search and filters
// @Summary List books
// @Description Search the catalog by title/author with category, library and availability filters
// @Tags Books
// @Produce json
// @Param q query string false "Search in title or author"
// @Param category query string false "Category filter"
// @Param library_id query int false "Library filter"
// @Param available query bool false "Only books with available copies"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) ListBooks(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	libraryID, _ := strconv.ParseUint(c.Query("library_id", "0"), 10, 32)

	filter := repositories.BookFilter{
		Query:         c.Query("q"),
		Category:      c.Query("category"),
		LibraryID:     uint(libraryID),
		OnlyAvailable: c.QueryBool("available", false),
	}

	result, err := h.bookService.ListBooks(c.Context(), filter, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	return response.Success(c, "Books retrieved successfully", result)
}

// SearchBooks searches the catalog
// @Summary Search books
// @Description Search books by title, author, category or description
// @Tags Books
// @Accept json
// @Produce json
// @Param body body services.SearchBooksInput true "Search parameters"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books/search [post]
func (h *BookHandler) SearchBooks(c *fiber.Ctx) error {
	var input services.SearchBooksInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, validation.Messages(err))
	}

	result, err := h.bookService.SearchBooks(c.Context(), &input)
	if err != nil {
		return response.InternalServerError(c, "Failed to search books")
	}

	return response.Success(c, "Books retrieved successfully", result)
}

// GetBook returns a single book
// @Summary Get book
// @Description Get a book by ID
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetBookByID(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFoundSvc):
			return response.NotFound(c, "Book not found")
		default:
			return response.InternalServerError(c, "Failed to get book")
		}
	}

	return response.Success(c, "Book retrieved successfully", book)
}

// CreateBook adds a book to the catalog (librarian/admin)
// @Summary Create book
// @Description Add a new book to the catalog
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateBookInput true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books [post]
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var input services.CreateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, validation.Messages(err))
	}

	book, err := h.bookService.CreateBook(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLibraryNotFound):
			return response.NotFound(c, "Library not found")
		case errors.Is(err, services.ErrISBNAlreadyUsed):
			return response.Conflict(c, "A book with this ISBN already exists")
		case errors.Is(err, services.ErrInvalidCopies):
			return response.BadRequest(c, "Total copies must be at least 1")
		default:
			return response.InternalServerError(c, "Failed to create book")
		}
	}

	return response.Created(c, "Book created successfully", book)
}

// UpdateBook updates a book (librarian/admin)
// @Summary Update book
// @Description Update book details and copy counts
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.UpdateBookInput true "Book data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [put]
func (h *BookHandler) UpdateBook(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.UpdateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, validation.Messages(err))
	}

	book, err := h.bookService.UpdateBook(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFoundSvc):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrInvalidCopies):
			return response.BadRequest(c, "Total copies cannot go below copies currently on loan")
		default:
			return response.InternalServerError(c, "Failed to update book")
		}
	}

	return response.Success(c, "Book updated successfully", book)
}

// DeleteBook removes a book from the catalog (librarian/admin)
// @Summary Delete book
// @Description Soft delete a book; refused while copies are on loan
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id} [delete]
func (h *BookHandler) DeleteBook(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.bookService.DeleteBook(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFoundSvc):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrBookStillOnLoan):
			return response.Conflict(c, "Book has copies on loan and cannot be deleted")
		default:
			return response.InternalServerError(c, "Failed to delete book")
		}
	}

	return response.Success(c, "Book deleted successfully", nil)
}

// BorrowBook borrows a book for the current user
// @Summary Borrow book
// @Description Borrow an available copy of a book
// @Tags Circulation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BorrowInput true "Borrow data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/borrow [post]
func (h *BookHandler) BorrowBook(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.BorrowInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	record, err := h.loanService.Borrow(c.Context(), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrBookNotAvailable):
			return response.Conflict(c, "No copies of this book are available")
		case errors.Is(err, services.ErrBorrowerNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrBorrowLimitReached):
			return response.Conflict(c, "You have reached your borrowing limit")
		case errors.Is(err, services.ErrAlreadyBorrowed):
			return response.Conflict(c, "You have already borrowed this book")
		default:
			return response.InternalServerError(c, "Failed to borrow book")
		}
	}

	return response.Created(c, "Book borrowed successfully", record.ToResponse())
}

// ReturnBook returns a borrowed book
// @Summary Return book
// @Description Return a borrowed book, calculating overdue fines if applicable
// @Tags Circulation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.ReturnInput false "Return data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/return [put]
func (h *BookHandler) ReturnBook(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	bookID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.ReturnInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	if input.ManualFine != nil && *input.ManualFine < 0 {
		return response.BadRequest(c, "Manual fine cannot be negative")
	}

	result, err := h.loanService.Return(c.Context(), userID, uint(bookID), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowRecordNotFound):
			return response.NotFound(c, "No open borrow record found for this book")
		default:
			return response.InternalServerError(c, "Failed to return book")
		}
	}

	return response.Success(c, "Book returned successfully", result)
}

// MyBorrowRecords lists the current user's borrow records
// @Summary My borrow records
// @Description List the authenticated user's borrow history
// @Tags Circulation
// @Produce json
// @Security BearerAuth
// @Param open query bool false "Only open (not returned) records"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /books/my-records [get]
func (h *BookHandler) MyBorrowRecords(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	openOnly := c.QueryBool("open", false)

	records, total, err := h.loanService.ListUserRecords(c.Context(), userID, openOnly, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list borrow records")
	}

	return response.Success(c, "Borrow records retrieved successfully", pagination.NewResponse(records, params, total))
}

// GetBorrowRecord returns a single borrow record (librarian/admin)
// @Summary Get borrow record
// @Description Get a borrow record by ID
// @Tags Circulation
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrow record ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrow-records/{id} [get]
func (h *BookHandler) GetBorrowRecord(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid record ID")
	}

	record, err := h.loanService.GetRecordByID(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBorrowRecordNotFound):
			return response.NotFound(c, "Borrow record not found")
		default:
			return response.InternalServerError(c, "Failed to get borrow record")
		}
	}

	return response.Success(c, "Borrow record retrieved successfully", record)
}
