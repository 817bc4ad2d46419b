package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	FindConversation(ctx context.Context, listingID, partyA, partyB int64) (models.Conversation, error)
	CreateConversation(ctx context.Context, listingID, senderID, recipientID int64) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, listing_id, sender_id, recipient_id, last_message_text, last_message_at, last_message_id, created_at, updated_at`

func orderedPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// FindConversation looks up the conversation for a listing and an unordered pair.
func (r *ConversationRepo) FindConversation(ctx context.Context, listingID, partyA, partyB int64) (models.Conversation, error) {
	low, high := orderedPair(partyA, partyB)
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations
        WHERE listing_id=$1 AND LEAST(sender_id, recipient_id)=$2 AND GREATEST(sender_id, recipient_id)=$3`, listingID, low, high)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// CreateConversation inserts a conversation; when a concurrent caller already
// created one for the same pair, that row is returned instead.
func (r *ConversationRepo) CreateConversation(ctx context.Context, listingID, senderID, recipientID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `INSERT INTO conversations (listing_id, sender_id, recipient_id) VALUES ($1, $2, $3)
        ON CONFLICT (listing_id, LEAST(sender_id, recipient_id), GREATEST(sender_id, recipient_id)) DO NOTHING
        RETURNING `+conversationColumns, listingID, senderID, recipientID)
	if errors.Is(err, sql.ErrNoRows) {
		return r.FindConversation(ctx, listingID, senderID, recipientID)
	}
	if code, _ := pqCode(err); code == pqForeignKeyViolation {
		return models.Conversation{}, ErrListingNotFound
	}
	return conv, err
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListConversations returns the user's conversations with their unread counts,
// most recently active first.
func (r *ConversationRepo) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	query := `SELECT c.id, c.listing_id, c.sender_id, c.recipient_id, c.last_message_text, c.last_message_at,
               c.last_message_id, c.created_at, c.updated_at,
               COUNT(m.id) FILTER (WHERE m.sender_id <> $1 AND m.is_read = FALSE) AS unread_count
        FROM conversations c
        LEFT JOIN messages m ON m.conversation_id = c.id
        WHERE c.sender_id = $1 OR c.recipient_id = $1
        GROUP BY c.id
        ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC`
	summaries := []models.ConversationSummary{}
	err := r.db.SelectContext(ctx, &summaries, query, userID)
	return summaries, err
}
