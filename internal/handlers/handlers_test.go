package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rental-service/internal/apperr"
	"rental-service/internal/booking"
	"rental-service/internal/middleware"
	"rental-service/internal/mocks"
	"rental-service/internal/models"
	"rental-service/internal/telemetry"
)

var owner = models.Actor{UserID: 1}
var renter = models.Actor{UserID: 2}

func asActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorKey, actor)
		c.Next()
	}
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func day(s string) time.Time {
	d, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func setupListingRouter(handler *ListingHandler, actor models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asActor(actor))
	r.POST("/listings", handler.CreateListing)
	r.GET("/listings/:listing_id", handler.GetListing)
	r.PATCH("/listings/:listing_id/status", handler.SetListingStatus)
	r.GET("/listings/:listing_id/availability", handler.Availability)
	r.POST("/listings/:listing_id/availability/check", handler.CheckAvailability)
	return r
}

func TestCreateListingSuccess(t *testing.T) {
	listings := new(mocks.ListingServiceMock)
	router := setupListingRouter(NewListingHandler(listings, nil, nil), owner)

	listings.On("CreateListing", mock.Anything, mock.MatchedBy(func(req booking.NewListing) bool {
		return req.OwnerID == 1 && req.DailyPrice.Equal(decimal.NewFromInt(20)) && req.Currency == "EUR"
	})).Return(models.Listing{ID: 7, OwnerID: 1, Status: models.ListingDraft}, nil).Once()

	rec := do(router, http.MethodPost, "/listings", `{"title":"Drill","daily_price":"20","security_deposit":"50","currency":"EUR"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	listings.AssertExpectations(t)
}

func TestCreateListingRejectsMissingTitle(t *testing.T) {
	router := setupListingRouter(NewListingHandler(new(mocks.ListingServiceMock), nil, nil), owner)

	rec := do(router, http.MethodPost, "/listings", `{"daily_price":"20","currency":"EUR"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetListingStatusForbidden(t *testing.T) {
	listings := new(mocks.ListingServiceMock)
	router := setupListingRouter(NewListingHandler(listings, nil, nil), renter)

	listings.On("SetListingStatus", mock.Anything, int64(7), renter, models.ListingActive).
		Return(nil, apperr.Forbidden("only the owner can change a listing")).Once()

	rec := do(router, http.MethodPatch, "/listings/7/status", `{"status":"active"}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	listings.AssertExpectations(t)
}

func TestAvailabilityForDay(t *testing.T) {
	calendar := new(mocks.AvailabilityServiceMock)
	router := setupListingRouter(NewListingHandler(nil, calendar, nil), renter)

	calendar.On("IsDateBlocked", mock.Anything, int64(7), day("2024-06-02")).Return(true, nil).Once()

	rec := do(router, http.MethodGet, "/listings/7/availability?date=2024-06-02", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["blocked"])
	calendar.AssertExpectations(t)
}

func TestAvailabilityRejectsBadDate(t *testing.T) {
	router := setupListingRouter(NewListingHandler(nil, new(mocks.AvailabilityServiceMock), nil), renter)

	rec := do(router, http.MethodGet, "/listings/7/availability?date=June", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockedRanges(t *testing.T) {
	calendar := new(mocks.AvailabilityServiceMock)
	router := setupListingRouter(NewListingHandler(nil, calendar, nil), renter)

	calendar.On("BlockedRanges", mock.Anything, int64(7)).
		Return([]models.DateRange{{Start: day("2024-06-01"), End: day("2024-06-03")}}, nil).Once()

	rec := do(router, http.MethodGet, "/listings/7/availability", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `{"start":"2024-06-01","end":"2024-06-03"}`)
}

func TestCheckAvailabilityConflict(t *testing.T) {
	calendar := new(mocks.AvailabilityServiceMock)
	router := setupListingRouter(NewListingHandler(nil, calendar, nil), renter)

	requested := models.DateRange{Start: day("2024-06-03"), End: day("2024-06-05")}
	calendar.On("ValidateRange", mock.Anything, int64(7), requested.Start, requested.End).
		Return(0, &apperr.ConflictError{ListingID: 7, Range: requested, Reason: "dates overlap an existing booking"}).Once()

	rec := do(router, http.MethodPost, "/listings/7/availability/check", `{"start_date":"2024-06-03","end_date":"2024-06-05"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not available from 2024-06-03 to 2024-06-05")
}

func setupRentalRouter(handler *RentalHandler, actor models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asActor(actor))
	r.POST("/rentals", handler.CreateRental)
	r.GET("/rentals", handler.ListRentals)
	r.GET("/rentals/:rental_id", handler.GetRental)
	r.POST("/rentals/:rental_id/transition", handler.Transition)
	r.POST("/rentals/:rental_id/payment", handler.RecordPayment)
	return r
}

func TestCreateRentalSuccess(t *testing.T) {
	rentals := new(mocks.RentalServiceMock)
	router := setupRentalRouter(NewRentalHandler(rentals, nil), renter)

	rentals.On("CreateRental", mock.Anything, booking.NewRental{
		ListingID: 7, RenterID: 2, Start: day("2024-06-01"), End: day("2024-06-03"),
	}).Return(models.Rental{ID: 3, Code: "BBR-AB12", Status: models.RentalWaitingForPayment, TotalPrice: decimal.NewFromInt(60)}, nil).Once()

	rec := do(router, http.MethodPost, "/rentals", `{"listing_id":7,"start_date":"2024-06-01","end_date":"2024-06-03"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.Rental
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "BBR-AB12", resp.Code)
	assert.True(t, resp.TotalPrice.Equal(decimal.NewFromInt(60)))
	rentals.AssertExpectations(t)
}

func TestCreateRentalInvalidRange(t *testing.T) {
	rentals := new(mocks.RentalServiceMock)
	router := setupRentalRouter(NewRentalHandler(rentals, nil), renter)

	rentals.On("CreateRental", mock.Anything, mock.Anything).Return(nil, apperr.ErrInvalidRange).Once()

	rec := do(router, http.MethodPost, "/rentals", `{"listing_id":7,"start_date":"2024-06-05","end_date":"2024-06-01"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransitionErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "renter marks paid", err: apperr.Forbidden("renter cannot move rental to paid"), status: http.StatusForbidden},
		{name: "no such edge", err: &apperr.TransitionError{From: models.RentalCompleted, To: models.RentalPaid}, status: http.StatusUnprocessableEntity},
		{name: "missing rental", err: apperr.NotFound("rental", 3), status: http.StatusNotFound},
		{name: "storage", err: apperr.ErrStorage, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rentals := new(mocks.RentalServiceMock)
			router := setupRentalRouter(NewRentalHandler(rentals, nil), renter)
			rentals.On("Transition", mock.Anything, int64(3), renter, models.RentalPaid).Return(nil, tt.err).Once()

			rec := do(router, http.MethodPost, "/rentals/3/transition", `{"status":"paid"}`)

			require.Equal(t, tt.status, rec.Code)
			rentals.AssertExpectations(t)
		})
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	rentals := new(mocks.RentalServiceMock)
	router := setupRentalRouter(NewRentalHandler(rentals, nil), owner)

	rec := do(router, http.MethodPost, "/rentals/3/transition", `{"status":"refunded"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	rentals.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListRentalsEmpty(t *testing.T) {
	rentals := new(mocks.RentalServiceMock)
	router := setupRentalRouter(NewRentalHandler(rentals, nil), renter)
	rentals.On("ListRentals", mock.Anything, int64(2)).Return(nil, nil).Once()

	rec := do(router, http.MethodGet, "/rentals", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rentals":[]}`, rec.Body.String())
}

func TestRecordPayment(t *testing.T) {
	rentals := new(mocks.RentalServiceMock)
	router := setupRentalRouter(NewRentalHandler(rentals, nil), owner)
	rentals.On("RecordPaymentReference", mock.Anything, int64(3), owner, "bank transfer 991").
		Return(models.Rental{ID: 3, PaymentReference: "bank transfer 991"}, nil).Once()

	rec := do(router, http.MethodPost, "/rentals/3/payment", `{"reference":"bank transfer 991"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	rentals.AssertExpectations(t)
}

func setupThreadRouter(handler *ThreadHandler, actor models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asActor(actor))
	r.POST("/threads/resolve", handler.ResolveThread)
	r.GET("/threads/:kind/:id/messages", handler.ListMessages)
	r.POST("/threads/:kind/:id/messages", handler.PostMessage)
	r.POST("/threads/:kind/:id/read", handler.MarkRead)
	r.GET("/conversations", handler.ListConversations)
	r.GET("/me/unread", handler.UnreadCount)
	return r
}

func TestResolveThread(t *testing.T) {
	resolver := new(mocks.ThreadResolverMock)
	router := setupThreadRouter(NewThreadHandler(resolver, nil, nil, nil), renter)

	resolver.On("ResolveThread", mock.Anything, int64(7), int64(2), int64(1), (*int64)(nil)).
		Return(models.Thread{Ref: models.ConversationThread(4), ListingID: 7, PartyA: 2, PartyB: 1}, nil).Once()

	rec := do(router, http.MethodPost, "/threads/resolve", `{"listing_id":7,"recipient_id":1}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"thread":{"kind":"conversation","id":4}`)
	resolver.AssertExpectations(t)
}

func TestResolveThreadRequiresTarget(t *testing.T) {
	router := setupThreadRouter(NewThreadHandler(new(mocks.ThreadResolverMock), nil, nil, nil), renter)

	rec := do(router, http.MethodPost, "/threads/resolve", `{"recipient_id":1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMessagesForbiddenForOutsider(t *testing.T) {
	ledger := new(mocks.MessageLedgerMock)
	router := setupThreadRouter(NewThreadHandler(nil, ledger, nil, nil), models.Actor{UserID: 9})

	ref := models.RentalThread(3)
	ledger.On("Thread", mock.Anything, ref).Return(models.Thread{Ref: ref, PartyA: 1, PartyB: 2}, nil).Once()

	rec := do(router, http.MethodGet, "/threads/rental/3/messages", "")

	require.Equal(t, http.StatusForbidden, rec.Code)
	ledger.AssertNotCalled(t, "ListMessages", mock.Anything, mock.Anything)
}

func TestListMessagesSuccess(t *testing.T) {
	ledger := new(mocks.MessageLedgerMock)
	router := setupThreadRouter(NewThreadHandler(nil, ledger, nil, nil), renter)

	ref := models.ConversationThread(4)
	ledger.On("Thread", mock.Anything, ref).Return(models.Thread{Ref: ref, PartyA: 1, PartyB: 2}, nil).Once()
	ledger.On("ListMessages", mock.Anything, ref).Return([]models.Message{{ID: 1, Thread: ref, SenderID: 1, Body: "Hello"}}, nil).Once()

	rec := do(router, http.MethodGet, "/threads/conversation/4/messages", "")

	require.Equal(t, http.StatusOK, rec.Code)
	ledger.AssertExpectations(t)
}

func TestPostMessageEmpty(t *testing.T) {
	ledger := new(mocks.MessageLedgerMock)
	router := setupThreadRouter(NewThreadHandler(nil, ledger, nil, nil), renter)

	ledger.On("Send", mock.Anything, models.ConversationThread(4), int64(2), "   ").Return(nil, apperr.ErrEmptyMessage).Once()

	rec := do(router, http.MethodPost, "/threads/conversation/4/messages", `{"body":"   "}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	ledger.AssertExpectations(t)
}

func TestPostMessageUnknownKind(t *testing.T) {
	router := setupThreadRouter(NewThreadHandler(nil, new(mocks.MessageLedgerMock), nil, nil), renter)

	rec := do(router, http.MethodPost, "/threads/group/4/messages", `{"body":"hi"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkReadAndUnread(t *testing.T) {
	ledger := new(mocks.MessageLedgerMock)
	unread := new(mocks.UnreadCounterMock)
	router := setupThreadRouter(NewThreadHandler(nil, ledger, unread, nil), owner)

	ledger.On("MarkRead", mock.Anything, models.ConversationThread(4), int64(1)).Return(int64(2), nil).Once()
	unread.On("UnreadCount", mock.Anything, int64(1)).Return(int64(0), nil).Once()

	rec := do(router, http.MethodPost, "/threads/conversation/4/read", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"marked_read":2`)

	rec = do(router, http.MethodGet, "/me/unread", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread":0}`, rec.Body.String())
}

func TestHandlersRequireActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/conversations", NewThreadHandler(new(mocks.ThreadResolverMock), nil, nil, nil).ListConversations)

	rec := do(r, http.MethodGet, "/conversations", "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fixedRooms map[string]int

func (r fixedRooms) Size(room string) int { return r[room] }

func TestDebugThreadRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.rental-service", "rental-service", "test")
	router := gin.New()
	router.Use(asActor(owner))
	RegisterDebugRoutes(router, emitter, fixedRooms{"rental:3": 2}, true)

	publisher.On("Publish", mock.Anything, "audit.rental-service", mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.Payload.Subject == "rental:3" && env.UserID != nil && *env.UserID == owner.UserID
	})).Return(nil).Once()

	rec := do(router, http.MethodPost, "/debug/threads/rental/3/audit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertExpectations(t)

	rec = do(router, http.MethodGet, "/debug/threads/rental/3/subscribers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Subscribers int `json:"subscribers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Subscribers)

	rec = do(router, http.MethodPost, "/debug/threads/group/3/audit", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterDebugRoutes(router, nil, fixedRooms{}, false)

	rec := do(router, http.MethodGet, "/debug/threads/rental/3/subscribers", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
