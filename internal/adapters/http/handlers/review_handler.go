package handlers

import (
	"errors"
	"strconv"

	"openshelf/internal/core/domain"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/pagination"
	"openshelf/internal/pkg/response"
	"openshelf/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles book review endpoints
type ReviewHandler struct {
	reviewService *services.ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ListBookReviews lists reviews for a book
// @Summary List book reviews
// @Description List reviews for a book with its average rating
// @Tags Reviews
// @Produce json
// @Param id path int true "Book ID"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /books/{id}/reviews [get]
func (h *ReviewHandler) ListBookReviews(c *fiber.Ctx) error {
	bookID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	params := pagination.GetParams(c)

	result, err := h.reviewService.ListBookReviews(c.Context(), uint(bookID), params.Page, params.Limit)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReviewedBookGone):
			return response.NotFound(c, "Book not found")
		default:
			return response.InternalServerError(c, "Failed to list reviews")
		}
	}

	return response.Success(c, "Reviews retrieved successfully", result)
}

// MyReviews lists the current user's reviews
// @Summary My reviews
// @Description List reviews written by the authenticated user
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /reviews/my [get]
func (h *ReviewHandler) MyReviews(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	reviews, total, err := h.reviewService.ListUserReviews(c.Context(), userID, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list reviews")
	}

	return response.Success(c, "Reviews retrieved successfully", pagination.NewResponse(reviews, params, total))
}

// TopRatedBooks lists the highest rated books
// @Summary Top rated books
// @Description List the best rated books in the catalog
// @Tags Reviews
// @Produce json
// @Param limit query int false "Number of books"
// @Success 200 {object} response.Response
// @Router /reviews/top-rated [get]
func (h *ReviewHandler) TopRatedBooks(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	books, err := h.reviewService.TopRatedBooks(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list top rated books")
	}

	return response.Success(c, "Top rated books retrieved successfully", books)
}

// MarkHelpful marks a review as helpful
// @Summary Mark review helpful
// @Description Increment the helpful counter on a review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reviews/{id}/helpful [post]
func (h *ReviewHandler) MarkHelpful(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid review ID")
	}

	review, err := h.reviewService.MarkHelpful(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReviewNotFound):
			return response.NotFound(c, "Review not found")
		default:
			return response.InternalServerError(c, "Failed to mark review as helpful")
		}
	}

	return response.Success(c, "Review marked as helpful", review)
}

// CreateReview creates a review for a book
// @Summary Create review
// @Description Rate and review a book (one review per user per book)
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateReviewInput true "Review data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /reviews [post]
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateReviewInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, validation.Messages(err))
	}

	review, err := h.reviewService.CreateReview(c.Context(), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReviewedBookGone):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrInvalidRating):
			return response.BadRequest(c, "Rating must be between 1 and 5")
		case errors.Is(err, services.ErrAlreadyReviewed):
			return response.Conflict(c, "You have already reviewed this book")
		default:
			return response.InternalServerError(c, "Failed to create review")
		}
	}

	return response.Created(c, "Review created successfully", review)
}

// UpdateReview updates the current user's review
// @Summary Update review
// @Description Update a review owned by the authenticated user
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Param body body services.UpdateReviewInput true "Review data"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid review ID")
	}

	var input services.UpdateReviewInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, validation.Messages(err))
	}

	review, err := h.reviewService.UpdateReview(c.Context(), uint(id), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrReviewNotFound):
			return response.NotFound(c, "Review not found")
		case errors.Is(err, services.ErrNotReviewOwner):
			return response.Forbidden(c, "You can only update your own reviews")
		case errors.Is(err, services.ErrInvalidRating):
			return response.BadRequest(c, "Rating must be between 1 and 5")
		default:
			return response.InternalServerError(c, "Failed to update review")
		}
	}

	return response.Success(c, "Review updated successfully", review)
}

// DeleteReview deletes a review (owner or admin)
// @Summary Delete review
// @Description Delete a review owned by the authenticated user, or any review as admin
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path int true "Review ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	role, _ := c.Locals("role").(string)
	isAdmin := role == string(domain.RoleAdmin)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid review ID")
	}

	if err := h.reviewService.DeleteReview(c.Context(), uint(id), userID, isAdmin); err != nil {
		switch {
		case errors.Is(err, services.ErrReviewNotFound):
			return response.NotFound(c, "Review not found")
		case errors.Is(err, services.ErrNotReviewOwner):
			return response.Forbidden(c, "You can only delete your own reviews")
		default:
			return response.InternalServerError(c, "Failed to delete review")
		}
	}

	return response.Success(c, "Review deleted successfully", nil)
}
