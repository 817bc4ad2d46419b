package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apperr"
	"rental-service/internal/booking"
	"rental-service/internal/models"
	"rental-service/internal/telemetry"
)

type RentalService interface {
	CreateRental(ctx context.Context, req booking.NewRental) (models.Rental, error)
	Transition(ctx context.Context, rentalID int64, actor models.Actor, target models.RentalStatus) (models.Rental, error)
	RecordPaymentReference(ctx context.Context, rentalID int64, actor models.Actor, reference string) (models.Rental, error)
	GetRental(ctx context.Context, rentalID int64, actor models.Actor) (models.Rental, error)
	ListRentals(ctx context.Context, userID int64) ([]models.Rental, error)
}

// RentalHandler exposes booking and the rental lifecycle.
type RentalHandler struct {
	rentals RentalService
	audit   *telemetry.AuditEmitter
}

func NewRentalHandler(rentals RentalService, audit *telemetry.AuditEmitter) *RentalHandler {
	return &RentalHandler{rentals: rentals, audit: audit}
}

// CreateRental books a listing for the caller.
func (h *RentalHandler) CreateRental(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req struct {
		ListingID int64 `json:"listing_id" binding:"required"`
		OwnerID   int64 `json:"owner_id"`
		dateRangeRequest
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, err := req.parse()
	if err != nil {
		respondError(c, err)
		return
	}

	rental, err := h.rentals.CreateRental(c.Request.Context(), booking.NewRental{
		ListingID: req.ListingID,
		RenterID:  actor.UserID,
		OwnerID:   req.OwnerID,
		Start:     start,
		End:       end,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "rental created "+rental.Code, "rental:"+strconv.FormatInt(rental.ID, 10))
	c.JSON(http.StatusCreated, rental)
}

func (h *RentalHandler) ListRentals(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	rentals, err := h.rentals.ListRentals(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if rentals == nil {
		rentals = []models.Rental{}
	}
	c.JSON(http.StatusOK, gin.H{"rentals": rentals})
}

func (h *RentalHandler) GetRental(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	rentalID, ok := int64Param(c, "rental_id")
	if !ok {
		return
	}
	rental, err := h.rentals.GetRental(c.Request.Context(), rentalID, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rental)
}

// Transition moves the rental to the requested status.
func (h *RentalHandler) Transition(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	rentalID, ok := int64Param(c, "rental_id")
	if !ok {
		return
	}
	var req struct {
		Status models.RentalStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		respondError(c, apperr.Invalid("unknown rental status "+string(req.Status)))
		return
	}

	rental, err := h.rentals.Transition(c.Request.Context(), rentalID, actor, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "rental moved to "+string(rental.Status), "rental:"+strconv.FormatInt(rental.ID, 10))
	c.JSON(http.StatusOK, rental)
}

// RecordPayment attaches a payment reference to an open rental.
func (h *RentalHandler) RecordPayment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	rentalID, ok := int64Param(c, "rental_id")
	if !ok {
		return
	}
	var req struct {
		Reference string `json:"reference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rental, err := h.rentals.RecordPaymentReference(c.Request.Context(), rentalID, actor, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rental)
}
