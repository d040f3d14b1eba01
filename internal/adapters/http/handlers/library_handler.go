package handlers

import (
	"errors"
	"strconv"

	"openshelf/internal/core/services"
	"openshelf/internal/pkg/pagination"
	"openshelf/internal/pkg/response"
	"openshelf/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// LibraryHandler handles library branch endpoints
type LibraryHandler struct {
	libraryService *services.LibraryService
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(libraryService *services.LibraryService) *LibraryHandler {
	return &LibraryHandler{libraryService: libraryService}
}

// ListLibraries lists all library branches
// @Summary List libraries
// @Description List all library branches
// @Tags Libraries
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /libraries [get]
func (h *LibraryHandler) ListLibraries(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	libraries, total, err := h.libraryService.ListLibraries(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list libraries")
	}

	return response.Success(c, "Libraries retrieved successfully", pagination.NewResponse(libraries, params, total))
}

// GetLibrary returns a single library branch
// @Summary Get library
// @Description Get a library branch by ID
// @Tags Libraries
// @Produce json
// @Param id path int true "Library ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /libraries/{id} [get]
func (h *LibraryHandler) GetLibrary(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid library ID")
	}

	library, err := h.libraryService.GetLibraryByID(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLibraryNotFoundSvc):
			return response.NotFound(c, "Library not found")
		default:
			return response.InternalServerError(c, "Failed to get library")
		}
	}

	return response.Success(c, "Library retrieved successfully", library)
}

// CreateLibrary creates a library branch (admin)
// @Summary Create library
// @Description Create a new library branch
// @Tags Libraries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateLibraryInput true "Library data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /libraries [post]
func (h *LibraryHandler) CreateLibrary(c *fiber.Ctx) error {
	var input services.CreateLibraryInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, validation.Messages(err))
	}

	library, err := h.libraryService.CreateLibrary(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLibraryNameTaken):
			return response.Conflict(c, "A library with this name already exists")
		default:
			return response.InternalServerError(c, "Failed to create library")
		}
	}

	return response.Created(c, "Library created successfully", library)
}

// UpdateLibrary updates a library branch (admin)
// @Summary Update library
// @Description Update a library branch
// @Tags Libraries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Library ID"
// @Param body body services.UpdateLibraryInput true "Library data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /libraries/{id} [put]
func (h *LibraryHandler) UpdateLibrary(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid library ID")
	}

	var input services.UpdateLibraryInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, validation.Messages(err))
	}

	library, err := h.libraryService.UpdateLibrary(c.Context(), uint(id), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLibraryNotFoundSvc):
			return response.NotFound(c, "Library not found")
		case errors.Is(err, services.ErrLibraryNameTaken):
			return response.Conflict(c, "A library with this name already exists")
		default:
			return response.InternalServerError(c, "Failed to update library")
		}
	}

	return response.Success(c, "Library updated successfully", library)
}

// DeleteLibrary deletes a library branch (admin)
// @Summary Delete library
// @Description Soft delete a library branch; refused while it holds active books
// @Tags Libraries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Library ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /libraries/{id} [delete]
func (h *LibraryHandler) DeleteLibrary(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid library ID")
	}

	if err := h.libraryService.DeleteLibrary(c.Context(), uint(id)); err != nil {
		switch {
		case errors.Is(err, services.ErrLibraryNotFoundSvc):
			return response.NotFound(c, "Library not found")
		case errors.Is(err, services.ErrLibraryHasActiveBooks):
			return response.Conflict(c, "Library still has active books")
		default:
			return response.InternalServerError(c, "Failed to delete library")
		}
	}

	return response.Success(c, "Library deleted successfully", nil)
}

// GetLibraryStats returns circulation stats for a branch
// @Summary Library statistics
// @Description Get book and copy counts for a library branch
// @Tags Libraries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Library ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /libraries/{id}/stats [get]
func (h *LibraryHandler) GetLibraryStats(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid library ID")
	}

	stats, err := h.libraryService.GetLibraryStats(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLibraryNotFoundSvc):
			return response.NotFound(c, "Library not found")
		default:
			return response.InternalServerError(c, "Failed to get library statistics")
		}
	}

	return response.Success(c, "Library statistics retrieved successfully", stats)
}
