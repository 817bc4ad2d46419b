package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return sqlx.NewDb(conn, "postgres"), mock
}

var (
	messageCols      = []string{"id", "conversation_id", "rental_id", "sender_id", "body", "is_read", "created_at"}
	conversationCols = []string{"id", "listing_id", "sender_id", "recipient_id", "last_message_text", "last_message_at", "last_message_id", "created_at", "updated_at"}
)

func TestCreateMessageAdvancesSummaryInSameTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	sentAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages (conversation_id, sender_id, body)")).
		WithArgs(int64(5), int64(2), "hi").
		WillReturnRows(sqlmock.NewRows(messageCols).AddRow(int64(7), int64(5), nil, int64(2), "hi", false, sentAt))
	// Zero rows affected: a newer message already owns the summary.
	mock.ExpectExec(regexp.QuoteMeta("(last_message_at, last_message_id) < ($3, $4)")).
		WithArgs(int64(5), "hi", sentAt, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	msg, err := repo.CreateMessage(context.Background(), models.ConversationThread(5), 2, "hi")
	require.NoError(t, err)
	assert.Equal(t, int64(7), msg.ID)
	assert.Equal(t, models.ConversationThread(5), msg.Thread)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMessageOnRentalSkipsSummary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	sentAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages (rental_id, sender_id, body)")).
		WithArgs(int64(3), int64(2), "keys?").
		WillReturnRows(sqlmock.NewRows(messageCols).AddRow(int64(8), nil, int64(3), int64(2), "keys?", false, sentAt))
	mock.ExpectCommit()

	msg, err := repo.CreateMessage(context.Background(), models.RentalThread(3), 2, "keys?")
	require.NoError(t, err)
	assert.Equal(t, models.RentalThread(3), msg.Thread)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMessageMissingParentRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages")).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	_, err := repo.CreateMessage(context.Background(), models.ConversationThread(404), 2, "hi")
	assert.ErrorIs(t, err, ErrThreadNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConversationConflictReselects(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConversationRepo(db)
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// The concurrent winner stored (ownerID=1, renterID=2); DO NOTHING yields no row.
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (listing_id, LEAST(sender_id, recipient_id), GREATEST(sender_id, recipient_id)) DO NOTHING")).
		WithArgs(int64(10), int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows(conversationCols))
	mock.ExpectQuery(regexp.QuoteMeta("LEAST(sender_id, recipient_id)=$2 AND GREATEST(sender_id, recipient_id)=$3")).
		WithArgs(int64(10), int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(conversationCols).
			AddRow(int64(4), int64(10), int64(1), int64(2), "", nil, nil, created, created))

	conv, err := repo.CreateConversation(context.Background(), 10, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), conv.ID)
	assert.Equal(t, int64(1), conv.SenderID)
	assert.Nil(t, conv.LastMessageAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConversationMissingListing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConversationRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO conversations")).
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := repo.CreateConversation(context.Background(), 404, 2, 1)
	assert.ErrorIs(t, err, ErrListingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCountJoinsBothParents(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)

	mock.ExpectQuery(`LEFT JOIN conversations c ON c.id = m.conversation_id\s+LEFT JOIN rentals r ON r.id = m.rental_id`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.UnreadCount(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
