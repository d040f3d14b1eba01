package handlers

import (
	"errors"
	"strconv"
	"time"

	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/pagination"
	"openshelf/internal/pkg/response"
	"openshelf/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// FineHandler handles fine endpoints
type FineHandler struct {
	fineService *services.FineService
	scheduler   *services.FineSweepScheduler
}

// NewFineHandler creates a new fine handler
func NewFineHandler(fineService *services.FineService, scheduler *services.FineSweepScheduler) *FineHandler {
	return &FineHandler{
		fineService: fineService,
		scheduler:   scheduler,
	}
}

// MyFines lists the current user's fines
// @Summary My fines
// @Description List the authenticated user's fines with pending total
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter (pending, paid, cancelled, waived)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /fines/my [get]
func (h *FineHandler) MyFines(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	result, err := h.fineService.ListUserFines(c.Context(), userID, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list fines")
	}

	return response.Success(c, "Fines retrieved successfully", result)
}

// ListFines lists all fines (librarian/admin)
// @Summary List fines
// @Description List all fines with user, status and reason filters
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "User filter"
// @Param status query string false "Status filter"
// @Param reason query string false "Reason filter"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /fines [get]
func (h *FineHandler) ListFines(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	userID, _ := strconv.ParseUint(c.Query("user_id", "0"), 10, 32)
	libraryID, _ := strconv.ParseUint(c.Query("library_id", "0"), 10, 32)

	filter := repositories.FineFilter{
		UserID:    uint(userID),
		LibraryID: uint(libraryID),
		Status:    c.Query("status"),
		Reason:    c.Query("reason"),
	}

	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}

	result, err := h.fineService.ListAllFines(c.Context(), filter, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list fines")
	}

	return response.Success(c, "Fines retrieved successfully", result)
}

// GetFine returns a single fine (librarian/admin)
// @Summary Get fine
// @Description Get a fine by ID
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fine ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /fines/{id} [get]
func (h *FineHandler) GetFine(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid fine ID")
	}

	fine, err := h.fineService.GetFineByID(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFineNotFound):
			return response.NotFound(c, "Fine not found")
		default:
			return response.InternalServerError(c, "Failed to get fine")
		}
	}

	return response.Success(c, "Fine retrieved successfully", fine)
}

// GetSettings returns the active fine policy
// @Summary Fine settings
// @Description Get the configured fine calculation policy
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /fines/settings [get]
func (h *FineHandler) GetSettings(c *fiber.Ctx) error {
	return response.Success(c, "Fine settings retrieved successfully", h.fineService.GetSettings())
}

// GetStatistics returns aggregate fine statistics (librarian/admin)
// @Summary Fine statistics
// @Description Get fine counts and amounts grouped by status
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /fines/statistics [get]
func (h *FineHandler) GetStatistics(c *fiber.Ctx) error {
	stats, err := h.fineService.GetStatistics(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get fine statistics")
	}

	return response.Success(c, "Fine statistics retrieved successfully", stats)
}

// CalculateFines runs the overdue fine sweep on demand (librarian/admin)
// @Summary Run fine sweep
// @Description Calculate fines for all open overdue borrow records
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /fines/calculate [post]
func (h *FineHandler) CalculateFines(c *fiber.Ctx) error {
	result, err := h.fineService.SweepOverdueFines(c.Context(), time.Now())
	if err != nil {
		return response.InternalServerError(c, "Failed to calculate fines")
	}

	return response.Success(c, "Fine sweep completed", result)
}

// PayFine pays one of the current user's pending fines
// @Summary Pay fine
// @Description Pay a pending fine owned by the authenticated user
// @Tags Fines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fine ID"
// @Param body body services.PayFineInput true "Payment data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /fines/{id}/pay [post]
func (h *FineHandler) PayFine(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid fine ID")
	}

	var input services.PayFineInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, validation.Messages(err))
	}

	fine, err := h.fineService.PayFine(c.Context(), uint(id), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFineNotFound):
			return response.NotFound(c, "Fine not found or already settled")
		default:
			return response.InternalServerError(c, "Failed to pay fine")
		}
	}

	return response.Success(c, "Fine paid successfully", fine)
}

// fineActionRequest carries the optional reason for cancel/waive
type fineActionRequest struct {
	Reason string `json:"reason"`
}

// CancelFine cancels a fine (admin)
// @Summary Cancel fine
// @Description Cancel an active fine with an optional reason
// @Tags Fines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fine ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /fines/{id}/cancel [post]
func (h *FineHandler) CancelFine(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid fine ID")
	}

	var req fineActionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	fine, err := h.fineService.CancelFine(c.Context(), uint(id), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFineNotFound):
			return response.NotFound(c, "Fine not found or already settled")
		default:
			return response.InternalServerError(c, "Failed to cancel fine")
		}
	}

	return response.Success(c, "Fine cancelled successfully", fine)
}

// WaiveFine waives a fine (admin)
// @Summary Waive fine
// @Description Waive an active fine with an optional reason
// @Tags Fines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fine ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /fines/{id}/waive [post]
func (h *FineHandler) WaiveFine(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid fine ID")
	}

	var req fineActionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	fine, err := h.fineService.WaiveFine(c.Context(), uint(id), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFineNotFound):
			return response.NotFound(c, "Fine not found or already settled")
		default:
			return response.InternalServerError(c, "Failed to waive fine")
		}
	}

	return response.Success(c, "Fine waived successfully", fine)
}

// SchedulerStatus reports the sweep scheduler state (admin)
// @Summary Sweep scheduler status
// @Description Get the fine sweep scheduler's running state and next run time
// @Tags Fines
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /fines/scheduler [get]
func (h *FineHandler) SchedulerStatus(c *fiber.Ctx) error {
	return response.Success(c, "Scheduler status retrieved successfully", fiber.Map{
		"running":  h.scheduler.IsRunning(),
		"next_run": h.scheduler.NextRunTime(),
	})
}
