package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rental-service/internal/apperr"
	"rental-service/internal/booking"
	"rental-service/internal/models"
	"rental-service/internal/telemetry"
)

type ListingService interface {
	CreateListing(ctx context.Context, req booking.NewListing) (models.Listing, error)
	GetListing(ctx context.Context, listingID int64) (models.Listing, error)
	SetListingStatus(ctx context.Context, listingID int64, actor models.Actor, status models.ListingStatus) (models.Listing, error)
}

type AvailabilityService interface {
	BlockedRanges(ctx context.Context, listingID int64) ([]models.DateRange, error)
	IsDateBlocked(ctx context.Context, listingID int64, day time.Time) (bool, error)
	ValidateRange(ctx context.Context, listingID int64, start, end time.Time) (int, error)
}

// ListingHandler serves the listing registry and its availability calendar.
type ListingHandler struct {
	listings ListingService
	calendar AvailabilityService
	audit    *telemetry.AuditEmitter
}

func NewListingHandler(listings ListingService, calendar AvailabilityService, audit *telemetry.AuditEmitter) *ListingHandler {
	return &ListingHandler{listings: listings, calendar: calendar, audit: audit}
}

// CreateListing registers a listing owned by the caller.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req struct {
		Title           string          `json:"title" binding:"required"`
		DailyPrice      decimal.Decimal `json:"daily_price"`
		SecurityDeposit decimal.Decimal `json:"security_deposit"`
		Currency        string          `json:"currency" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listings.CreateListing(c.Request.Context(), booking.NewListing{
		OwnerID:         actor.UserID,
		Title:           req.Title,
		DailyPrice:      req.DailyPrice,
		SecurityDeposit: req.SecurityDeposit,
		Currency:        req.Currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "listing created", "listing")
	c.JSON(http.StatusCreated, listing)
}

func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, ok := int64Param(c, "listing_id")
	if !ok {
		return
	}
	listing, err := h.listings.GetListing(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// SetListingStatus publishes, pauses or reactivates a listing.
func (h *ListingHandler) SetListingStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	listingID, ok := int64Param(c, "listing_id")
	if !ok {
		return
	}
	var req struct {
		Status models.ListingStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listings.SetListingStatus(c.Request.Context(), listingID, actor, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "listing status changed to "+string(listing.Status), "listing")
	c.JSON(http.StatusOK, listing)
}

// Availability returns the blocked ranges of a listing, or whether a single
// day is blocked when ?date= is given.
func (h *ListingHandler) Availability(c *gin.Context) {
	listingID, ok := int64Param(c, "listing_id")
	if !ok {
		return
	}

	if raw := c.Query("date"); raw != "" {
		day, err := models.ParseDay(raw)
		if err != nil {
			respondError(c, apperr.Invalid("date must be YYYY-MM-DD"))
			return
		}
		blocked, err := h.calendar.IsDateBlocked(c.Request.Context(), listingID, day)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"listing_id": listingID, "date": raw, "blocked": blocked})
		return
	}

	ranges, err := h.calendar.BlockedRanges(c.Request.Context(), listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if ranges == nil {
		ranges = []models.DateRange{}
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": listingID, "blocked": ranges})
}

// CheckAvailability validates a candidate range without booking it.
func (h *ListingHandler) CheckAvailability(c *gin.Context) {
	listingID, ok := int64Param(c, "listing_id")
	if !ok {
		return
	}
	var req dateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, err := req.parse()
	if err != nil {
		respondError(c, err)
		return
	}

	days, err := h.calendar.ValidateRange(c.Request.Context(), listingID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing_id": listingID, "available": true, "days": days})
}

type dateRangeRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

func (r dateRangeRequest) parse() (time.Time, time.Time, error) {
	start, err := models.ParseDay(r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Invalid("start_date must be YYYY-MM-DD")
	}
	end, err := models.ParseDay(r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Invalid("end_date must be YYYY-MM-DD")
	}
	return start, end, nil
}
