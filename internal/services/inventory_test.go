package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gettogether/internal/gateway"
	"gettogether/internal/models"
	"gettogether/internal/status"
)

// fakeRecordStore keeps records in memory, keyed by collection name and id.
type fakeRecordStore struct {
	records map[string]*core.Record
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: map[string]*core.Record{}}
}

func (f *fakeRecordStore) put(record *core.Record) {
	f.records[record.Collection().Name+"/"+record.Id] = record
}

func (f *fakeRecordStore) FindRecordById(collectionModelOrIdentifier any, recordId string, _ ...func(q *dbx.SelectQuery) error) (*core.Record, error) {
	name, _ := collectionModelOrIdentifier.(string)
	record, ok := f.records[name+"/"+recordId]
	if !ok {
		return nil, fmt.Errorf("record %s/%s not found", name, recordId)
	}
	return record, nil
}

func (f *fakeRecordStore) SaveWithContext(_ context.Context, model core.Model) error {
	record, ok := model.(*core.Record)
	if !ok {
		return fmt.Errorf("unexpected model %T", model)
	}
	f.put(record)
	return nil
}

func (f *fakeRecordStore) DB() dbx.Builder { return nil }

type MockBookingNotifier struct {
	mock.Mock
}

func (m *MockBookingNotifier) BookingConfirmed(booking *models.Booking, event *models.Event, userEmail string) {
	m.Called(booking, event, userEmail)
}

func (m *MockBookingNotifier) TicketCancelled(booking *models.Booking, event *models.Event, ticket *models.TicketDetail, userEmail, organizerEmail string) {
	m.Called(booking, event, ticket, userEmail, organizerEmail)
}

func testEventsCollection() *core.Collection {
	c := core.NewBaseCollection(models.CollectionEvents)
	c.Fields.Add(
		&core.TextField{Name: "name"},
		&core.TextField{Name: "location"},
		&core.DateField{Name: "date"},
		&core.DateField{Name: "booking_expiry"},
		&core.NumberField{Name: "price"},
		&core.NumberField{Name: "total_tickets", OnlyInt: true},
		&core.NumberField{Name: "available_tickets", OnlyInt: true},
		&core.TextField{Name: "organizer"},
		&core.TextField{Name: "status"},
	)
	return c
}

func testBookingsCollection() *core.Collection {
	c := core.NewBaseCollection(models.CollectionBookings)
	c.Fields.Add(
		&core.TextField{Name: "booking_id"},
		&core.TextField{Name: "user"},
		&core.TextField{Name: "event"},
		&core.NumberField{Name: "quantity", OnlyInt: true},
		&core.NumberField{Name: "total_price"},
		&core.JSONField{Name: "attendee_details", MaxSize: 1 << 20},
		&core.TextField{Name: "status"},
		&core.TextField{Name: "payment_status"},
		&core.TextField{Name: "razorpay_order_id"},
		&core.TextField{Name: "razorpay_payment_id"},
		&core.TextField{Name: "razorpay_signature"},
		&core.JSONField{Name: "ticket_numbers", MaxSize: 1 << 20},
		&core.JSONField{Name: "ticket_details", MaxSize: 1 << 20},
		&core.JSONField{Name: "cancelled_tickets", MaxSize: 1 << 20},
		&core.JSONField{Name: "verified_tickets", MaxSize: 1 << 20},
		&core.BoolField{Name: "is_expired"},
		&core.DateField{Name: "expiry_checked_at"},
	)
	return c
}

func seedEvent(t *testing.T, store *fakeRecordStore, available int) *core.Record {
	t.Helper()

	record := core.NewRecord(testEventsCollection())
	record.Id = "evt1"
	record.Set("name", "GopherConf")
	record.Set("date", time.Now().Add(24*time.Hour))
	record.Set("booking_expiry", time.Now().Add(12*time.Hour))
	record.Set("price", 500.0)
	record.Set("total_tickets", 10)
	record.Set("available_tickets", available)
	record.Set("organizer", "org1")
	record.Set("status", models.EventStatusPublish)
	store.put(record)
	return record
}

func seedUser(t *testing.T, store *fakeRecordStore, id, email string) {
	t.Helper()

	record := core.NewRecord(core.NewAuthCollection(models.CollectionUsers))
	record.Id = id
	record.Set("email", email)
	store.put(record)
}

func seedBooking(t *testing.T, store *fakeRecordStore, booking *models.Booking) *core.Record {
	t.Helper()

	record := core.NewRecord(testBookingsCollection())
	record.Id = "bk1"
	require.NoError(t, booking.ApplyTo(record))
	store.put(record)
	return record
}

func pendingBooking(quantity int) *models.Booking {
	attendees := make([]models.AttendeeDetail, 0, quantity)
	for i := 0; i < quantity; i++ {
		attendees = append(attendees, models.AttendeeDetail{
			Name:  "Attendee " + string(rune('A'+i)),
			Email: "attendee@example.com",
			Phone: "+919876543210",
		})
	}
	booking := models.NewBooking("GT-1-AA", "u1", "evt1", quantity, decimal.NewFromInt(500), attendees)
	booking.RazorpayOrderID = "order_1"
	return booking
}

func TestVerifyPayment_DecrementsInventoryByQuantity(t *testing.T) {
	store := newFakeRecordStore()
	eventRecord := seedEvent(t, store, 10)
	seedUser(t, store, "u1", "u1@example.com")
	seedBooking(t, store, pendingBooking(2))

	db, redisMock := redismock.NewClientMock()
	defer redisMock.ClearExpect()
	redisMock.ExpectHSet("payment:order_1", "status", models.PaymentStatusCompleted).SetVal(1)

	notifier := &MockBookingNotifier{}
	notifier.On("BookingConfirmed", mock.Anything, mock.Anything, "u1@example.com").Return()

	service := &PaymentService{
		app:       store,
		Redis:     db,
		notifier:  notifier,
		keySecret: "secret",
		now:       time.Now,
	}

	signature := gateway.Hmac256([]byte("order_1|pay_1"), []byte("secret"))
	booking, err := service.VerifyPayment(context.Background(), VerifyPaymentRequest{
		RazorpayOrderID:   "order_1",
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: signature,
		BookingID:         "bk1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Len(t, booking.TicketNumbers, 2)
	assert.Equal(t, 8, eventRecord.GetInt("available_tickets"))

	// Allow the fire-and-forget notification to run
	time.Sleep(50 * time.Millisecond)
	notifier.AssertExpectations(t)
	require.NoError(t, redisMock.ExpectationsWereMet())
}

func TestVerifyPayment_RejectsCancelledBooking(t *testing.T) {
	store := newFakeRecordStore()
	eventRecord := seedEvent(t, store, 10)
	seedUser(t, store, "u1", "u1@example.com")

	booking := pendingBooking(1)
	require.NoError(t, booking.CancelWhole())
	seedBooking(t, store, booking)

	db, _ := redismock.NewClientMock()
	service := &PaymentService{
		app:       store,
		Redis:     db,
		notifier:  &MockBookingNotifier{},
		keySecret: "secret",
		now:       time.Now,
	}

	signature := gateway.Hmac256([]byte("order_1|pay_1"), []byte("secret"))
	_, err := service.VerifyPayment(context.Background(), VerifyPaymentRequest{
		RazorpayOrderID:   "order_1",
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: signature,
		BookingID:         "bk1",
	})

	assert.ErrorIs(t, err, status.ErrBookingNotPending)
	assert.Equal(t, 10, eventRecord.GetInt("available_tickets"))
}

func TestCancelTicket_ReturnsOneToInventory(t *testing.T) {
	store := newFakeRecordStore()
	eventRecord := seedEvent(t, store, 8)
	seedUser(t, store, "u1", "u1@example.com")
	seedUser(t, store, "org1", "org1@example.com")

	booking := pendingBooking(2)
	require.NoError(t, booking.Confirm("pay_1", "sig_1", []string{"TKT-1", "TKT-2"}))
	seedBooking(t, store, booking)

	notifier := &MockBookingNotifier{}
	notifier.On("TicketCancelled", mock.Anything, mock.Anything, mock.Anything, "u1@example.com", "org1@example.com").Return()

	service := &LifecycleService{
		app:      store,
		notifier: notifier,
		now:      time.Now,
	}

	ticket, updated, err := service.CancelTicket(context.Background(), CancelTicketParams{
		BookingID:    "bk1",
		TicketNumber: "TKT-1",
		ActorID:      "u1",
		ActorRole:    ActorUser,
	})

	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCancelled, ticket.Status)
	assert.Equal(t, models.RefundPending, ticket.RefundStatus)
	assert.Equal(t, models.BookingStatusConfirmed, updated.Status)
	assert.Equal(t, 9, eventRecord.GetInt("available_tickets"))

	time.Sleep(50 * time.Millisecond)
	notifier.AssertExpectations(t)
}
