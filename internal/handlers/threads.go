package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/telemetry"
)

type ThreadResolver interface {
	ResolveThread(ctx context.Context, listingID, partyA, partyB int64, rentalID *int64) (models.Thread, error)
	ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
}

type MessageLedger interface {
	Thread(ctx context.Context, ref models.ThreadRef) (models.Thread, error)
	Send(ctx context.Context, ref models.ThreadRef, senderID int64, body string) (models.Message, error)
	ListMessages(ctx context.Context, ref models.ThreadRef) ([]models.Message, error)
	MarkRead(ctx context.Context, ref models.ThreadRef, readerID int64) (int64, error)
}

type UnreadCounter interface {
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

// ThreadHandler serves conversations, rental threads and their messages.
type ThreadHandler struct {
	resolver ThreadResolver
	ledger   MessageLedger
	unread   UnreadCounter
	audit    *telemetry.AuditEmitter
}

func NewThreadHandler(resolver ThreadResolver, ledger MessageLedger, unread UnreadCounter, audit *telemetry.AuditEmitter) *ThreadHandler {
	return &ThreadHandler{resolver: resolver, ledger: ledger, unread: unread, audit: audit}
}

// ResolveThread returns the thread between the caller and recipient_id about
// listing_id, or the rental thread when rental_id is given.
func (h *ThreadHandler) ResolveThread(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req struct {
		ListingID   int64  `json:"listing_id"`
		RecipientID int64  `json:"recipient_id"`
		RentalID    *int64 `json:"rental_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RentalID == nil && req.ListingID <= 0 {
		respondError(c, apperr.Invalid("listing_id or rental_id is required"))
		return
	}

	thread, err := h.resolver.ResolveThread(c.Request.Context(), req.ListingID, actor.UserID, req.RecipientID, req.RentalID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *ThreadHandler) ListConversations(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	summaries, err := h.resolver.ListConversations(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// ListMessages returns a thread's history to one of its participants.
func (h *ThreadHandler) ListMessages(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	ref, ok := threadParam(c)
	if !ok {
		return
	}
	if !h.authorize(c, ref, actor) {
		return
	}

	msgs, err := h.ledger.ListMessages(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"thread": ref, "messages": msgs})
}

func (h *ThreadHandler) PostMessage(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	ref, ok := threadParam(c)
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.ledger.Send(c.Request.Context(), ref, actor.UserID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	emitAudit(c, h.audit, "message sent", ref.String())
	c.JSON(http.StatusCreated, msg)
}

func (h *ThreadHandler) MarkRead(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	ref, ok := threadParam(c)
	if !ok {
		return
	}

	flipped, err := h.ledger.MarkRead(c.Request.Context(), ref, actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": ref, "marked_read": flipped})
}

// UnreadCount returns the caller's unread total across all threads.
func (h *ThreadHandler) UnreadCount(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	count, err := h.unread.UnreadCount(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *ThreadHandler) authorize(c *gin.Context, ref models.ThreadRef, actor models.Actor) bool {
	thread, err := h.ledger.Thread(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !thread.IsParty(actor.UserID) {
		respondError(c, apperr.Forbidden("not a participant of this thread"))
		return false
	}
	return true
}
