package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

// MessageRepository defines interactions for thread messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, thread models.ThreadRef, senderID int64, body string) (models.Message, error)
	ListMessages(ctx context.Context, thread models.ThreadRef) ([]models.Message, error)
	MarkRead(ctx context.Context, thread models.ThreadRef, readerID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

type messageRow struct {
	ID             int64         `db:"id"`
	ConversationID sql.NullInt64 `db:"conversation_id"`
	RentalID       sql.NullInt64 `db:"rental_id"`
	SenderID       int64         `db:"sender_id"`
	Body           string        `db:"body"`
	IsRead         bool          `db:"is_read"`
	CreatedAt      time.Time     `db:"created_at"`
}

func (row messageRow) toModel() models.Message {
	thread := models.RentalThread(row.RentalID.Int64)
	if row.ConversationID.Valid {
		thread = models.ConversationThread(row.ConversationID.Int64)
	}
	return models.Message{
		ID:        row.ID,
		Thread:    thread,
		SenderID:  row.SenderID,
		Body:      row.Body,
		Read:      row.IsRead,
		CreatedAt: row.CreatedAt,
	}
}

const messageColumns = `id, conversation_id, rental_id, sender_id, body, is_read, created_at`

// parentColumn maps a validated thread kind onto its foreign key column.
func parentColumn(kind models.ThreadKind) string {
	if kind == models.ThreadConversation {
		return "conversation_id"
	}
	return "rental_id"
}

// CreateMessage stores a message. For conversations the denormalized last
// message is updated in the same transaction and only moves forward in
// (created_at, id) order, so concurrent sends leave the newest message in place.
func (r *MessageRepo) CreateMessage(ctx context.Context, thread models.ThreadRef, senderID int64, body string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var row messageRow
	err = tx.QueryRowxContext(ctx, `INSERT INTO messages (`+parentColumn(thread.Kind)+`, sender_id, body)
        VALUES ($1, $2, $3) RETURNING `+messageColumns, thread.ID, senderID, body).StructScan(&row)
	if err != nil {
		if code, _ := pqCode(err); code == pqForeignKeyViolation {
			return models.Message{}, ErrThreadNotFound
		}
		return models.Message{}, err
	}

	if thread.Kind == models.ThreadConversation {
		_, err = tx.ExecContext(ctx, `UPDATE conversations
            SET last_message_text=$2, last_message_at=$3, last_message_id=$4, updated_at=NOW()
            WHERE id=$1 AND (last_message_at IS NULL OR (last_message_at, last_message_id) < ($3, $4))`,
			thread.ID, row.Body, row.CreatedAt, row.ID)
		if err != nil {
			return models.Message{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return row.toModel(), nil
}

// ListMessages returns the thread ordered by creation time, ties broken by id.
func (r *MessageRepo) ListMessages(ctx context.Context, thread models.ThreadRef) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+` FROM messages
        WHERE `+parentColumn(thread.Kind)+`=$1
        ORDER BY created_at ASC, id ASC`, thread.ID)
	if err != nil {
		return nil, err
	}
	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toModel())
	}
	return msgs, nil
}

// MarkRead flips every unread message not sent by the reader and returns how many changed.
func (r *MessageRepo) MarkRead(ctx context.Context, thread models.ThreadRef, readerID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE
        WHERE `+parentColumn(thread.Kind)+`=$1 AND sender_id <> $2 AND is_read = FALSE`, thread.ID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount sums unread messages addressed to the user across conversations and rentals.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COUNT(m.id)
        FROM messages m
        LEFT JOIN conversations c ON c.id = m.conversation_id
        LEFT JOIN rentals r ON r.id = m.rental_id
        WHERE m.sender_id <> $1 AND m.is_read = FALSE
        AND ((c.id IS NOT NULL AND (c.sender_id = $1 OR c.recipient_id = $1))
          OR (r.id IS NOT NULL AND (r.renter_id = $1 OR r.owner_id = $1)))`
	var count int64
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}
