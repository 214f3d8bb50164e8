package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/payment"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
)

type fixture struct {
	svc       *ReservationService
	store     *memStore
	gateway   *fakeGateway
	publisher *fakePublisher
	acc       *fakeAccessories

	personID    uuid.UUID
	groupID     uuid.UUID
	accessoryID uuid.UUID
	pickup      time.Time
	clock       time.Time
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:       newMemStore(),
		gateway:     &fakeGateway{},
		publisher:   &fakePublisher{},
		personID:    uuid.New(),
		groupID:     uuid.New(),
		accessoryID: uuid.New(),
		pickup:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		clock:       time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC),
	}
	f.acc = &fakeAccessories{byID: map[uuid.UUID]model.Accessory{
		f.accessoryID: {ID: f.accessoryID, Name: "GPS", DailyRate: 20},
	}}
	if opts.SuccessURL == "" {
		opts.SuccessURL = "http://app/payment/success/{paymentId}"
		opts.CancelURL = "http://app/payment/cancel/{paymentId}"
	}
	f.svc = NewReservationService(
		fakePersons{f.personID: {ID: f.personID, FullName: "Ana"}},
		fakeGroups{f.groupID: {ID: f.groupID, Name: "SUV", DailyRate: 100}},
		f.acc,
		f.store,
		memPayments{f.store},
		f.gateway,
		f.publisher,
		opts,
		quietLogger(),
	)
	var clockMu sync.Mutex
	f.svc.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

func (f *fixture) input(method model.PaymentMethod) CreateReservationInput {
	return CreateReservationInput{
		PersonID:      f.personID,
		GroupID:       f.groupID,
		AccessoryIDs:  []uuid.UUID{f.accessoryID},
		PickupAt:      f.pickup,
		ReturnAt:      f.pickup.Add(48 * time.Hour),
		PaymentMethod: method,
	}
}

func TestCreateReservation_OnlinePayment(t *testing.T) {
	f := newFixture(t, Options{})

	out, err := f.svc.CreateReservation(context.Background(), f.input(model.OnlinePayment))

	require.NoError(t, err)
	res := out.Reservation
	assert.Equal(t, 240.0, res.TotalAmount)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, "https://checkout.example/cs_test", out.PaymentURL)
	require.NotNil(t, out.Payment)
	assert.Equal(t, model.PaymentPending, out.Payment.Status)
	assert.Equal(t, 240.0, out.Payment.Amount)
	assert.Equal(t, "cs_test", out.Payment.SessionID)
	assert.Equal(t, res.ID, out.Payment.ReservationID)

	require.Len(t, f.gateway.reqs, 1)
	req := f.gateway.reqs[0]
	assert.Equal(t, 240.0, req.Amount)
	assert.Equal(t, "http://app/payment/success/"+out.Payment.ID.String(), req.SuccessURL)
	assert.Equal(t, "http://app/payment/cancel/"+out.Payment.ID.String(), req.CancelURL)
	assert.Equal(t, res.ID.String(), req.ReservationRef)

	stored, err := f.svc.GetReservation(context.Background(), res.ID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(*res))
	assert.Equal(t, []queue.EventType{queue.ReservationCreated}, f.publisher.types())
	assert.Equal(t, out.PaymentURL, f.publisher.events[0].PaymentURL)
}

func TestConfirmPayment_ConfirmsBoth(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	out, err := f.svc.CreateReservation(ctx, f.input(model.OnlinePayment))
	require.NoError(t, err)
	f.gateway.markPaid("cs_test")

	got, err := f.svc.ConfirmPayment(ctx, out.Payment.ID)

	require.NoError(t, err)
	assert.True(t, got.Applied)
	assert.Equal(t, model.PaymentConfirmed, got.Payment.Status)
	assert.Equal(t, model.ReservationConfirmed, got.Reservation.Status)
	res, err := f.svc.GetReservation(ctx, out.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, res.Status)
	assert.Equal(t, []queue.EventType{queue.ReservationCreated, queue.ReservationConfirmed}, f.publisher.types())
}

func TestCancelPayment_CancelsBoth(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	out, err := f.svc.CreateReservation(ctx, f.input(model.OnlinePayment))
	require.NoError(t, err)

	got, err := f.svc.CancelPayment(ctx, out.Payment.ID)

	require.NoError(t, err)
	assert.True(t, got.Applied)
	assert.Equal(t, model.PaymentCancelled, got.Payment.Status)
	assert.Equal(t, model.ReservationCancelled, got.Reservation.Status)
	assert.Equal(t, []queue.EventType{queue.ReservationCreated, queue.ReservationCancelled}, f.publisher.types())
	assert.Equal(t, []string{"cs_test"}, f.gateway.expired)
}

func TestConfirmPayment_UnpaidSessionDoesNotConfirm(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	out, err := f.svc.CreateReservation(ctx, f.input(model.OnlinePayment))
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, out.Payment.ID)

	assert.ErrorIs(t, err, ErrPaymentNotPaid)
	assert.ErrorIs(t, err, ErrStateConflict)
	res, err := f.svc.GetReservation(ctx, out.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, []queue.EventType{queue.ReservationCreated}, f.publisher.types())

	f.gateway.markPaid("cs_test")
	got, err := f.svc.ConfirmPayment(ctx, out.Payment.ID)
	require.NoError(t, err)
	assert.True(t, got.Applied)
}

func TestConfirmPayment_ProviderDownLeavesPending(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	out, err := f.svc.CreateReservation(ctx, f.input(model.OnlinePayment))
	require.NoError(t, err)
	f.gateway.paidErr = errors.New("timeout")

	_, err = f.svc.ConfirmPayment(ctx, out.Payment.ID)

	var ge *payment.GatewayError
	assert.ErrorAs(t, err, &ge)
	res, err := f.svc.GetReservation(ctx, out.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Status)
}

func TestCancelPayment_PaidSessionIsConflict(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	out, err := f.svc.CreateReservation(ctx, f.input(model.OnlinePayment))
	require.NoError(t, err)
	f.gateway.markPaid("cs_test")

	_, err = f.svc.CancelPayment(ctx, out.Payment.ID)

	assert.ErrorIs(t, err, ErrStateConflict)
	res, err := f.svc.GetReservation(ctx, out.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Empty(t, f.gateway.expired)
}

func TestConfirmPayment_RedeliveryIsNoop(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	out, err := f.svc.CreateReservation(ctx, f.input(model.OnlinePayment))
	require.NoError(t, err)
	f.gateway.markPaid("cs_test")
	first, err := f.svc.ConfirmPayment(ctx, out.Payment.ID)
	require.NoError(t, err)

	again, err := f.svc.ConfirmPayment(ctx, out.Payment.ID)

	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, model.PaymentConfirmed, again.Payment.Status)
	assert.Equal(t, first.Payment.UpdatedAt, again.Payment.UpdatedAt)
	assert.Equal(t, []queue.EventType{queue.ReservationCreated, queue.ReservationConfirmed}, f.publisher.types())
}

func TestCancelAfterConfirm_IsConflict(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	out, err := f.svc.CreateReservation(ctx, f.input(model.OnlinePayment))
	require.NoError(t, err)
	f.gateway.markPaid("cs_test")
	_, err = f.svc.ConfirmPayment(ctx, out.Payment.ID)
	require.NoError(t, err)

	_, err = f.svc.CancelPayment(ctx, out.Payment.ID)

	assert.ErrorIs(t, err, ErrStateConflict)
	res, err := f.svc.GetReservation(ctx, out.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, res.Status)
}

func TestSettle_ConcurrentCallbacksApplyOnce(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	out, err := f.svc.CreateReservation(ctx, f.input(model.OnlinePayment))
	require.NoError(t, err)
	f.gateway.markPaid("cs_test")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		applied  int
		conflict int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			settle := f.svc.ConfirmPayment
			if i%2 == 1 {
				settle = f.svc.CancelPayment
			}
			got, err := settle(ctx, out.Payment.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrStateConflict):
				conflict++
			case err == nil && got.Applied:
				applied++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, 10, conflict)
	assert.Len(t, f.publisher.types(), 2)
}

func TestSettle_UnknownPayment(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.svc.ConfirmPayment(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrPaymentNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateReservation_StoreNeverCallsGateway(t *testing.T) {
	f := newFixture(t, Options{})

	out, err := f.svc.CreateReservation(context.Background(), f.input(model.PayAtCounter))

	require.NoError(t, err)
	assert.Empty(t, f.gateway.reqs)
	assert.Nil(t, out.Payment)
	assert.Empty(t, out.PaymentURL)
	assert.Equal(t, model.ReservationConfirmed, out.Reservation.Status)
	assert.Equal(t, 240.0, out.Reservation.TotalAmount)
	reservations, payments := f.store.count()
	assert.Equal(t, 1, reservations)
	assert.Zero(t, payments)
	assert.Equal(t, []queue.EventType{queue.ReservationCreated}, f.publisher.types())
}

func TestCreateReservation_StoreStatusFromOptions(t *testing.T) {
	f := newFixture(t, Options{StoreStatus: model.ReservationPending})

	out, err := f.svc.CreateReservation(context.Background(), f.input(model.PayAtCounter))

	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, out.Reservation.Status)
	assert.Empty(t, f.gateway.reqs)
}

func TestCreateReservation_MissingReferencesPersistNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, in *CreateReservationInput)
		want   error
	}{
		{"person", func(_ *fixture, in *CreateReservationInput) { in.PersonID = uuid.New() }, ErrPersonNotFound},
		{"group", func(_ *fixture, in *CreateReservationInput) { in.GroupID = uuid.New() }, ErrGroupNotFound},
		{"accessory", func(f *fixture, in *CreateReservationInput) {
			in.AccessoryIDs = []uuid.UUID{f.accessoryID, uuid.New()}
		}, ErrAccessoryNotFound},
	}
	for _, tt := range tests {
		for _, method := range []model.PaymentMethod{model.OnlinePayment, model.PayAtCounter} {
			t.Run(tt.name+"/"+string(method), func(t *testing.T) {
				f := newFixture(t, Options{})
				in := f.input(method)
				tt.mutate(f, &in)

				_, err := f.svc.CreateReservation(context.Background(), in)

				assert.ErrorIs(t, err, tt.want)
				assert.ErrorIs(t, err, repository.ErrNotFound)
				reservations, payments := f.store.count()
				assert.Zero(t, reservations)
				assert.Zero(t, payments)
				assert.Empty(t, f.gateway.reqs)
				assert.Empty(t, f.publisher.types())
			})
		}
	}
}

func TestCreateReservation_GatewayFailurePersistsNothing(t *testing.T) {
	f := newFixture(t, Options{})
	f.gateway.err = errors.New("invalid api key")

	_, err := f.svc.CreateReservation(context.Background(), f.input(model.OnlinePayment))

	var ge *payment.GatewayError
	assert.ErrorAs(t, err, &ge)
	reservations, payments := f.store.count()
	assert.Zero(t, reservations)
	assert.Zero(t, payments)
	assert.Empty(t, f.publisher.types())
}

func TestCreateReservation_StoreFailureExpiresSession(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.createErr = errors.New("deadlock")

	_, err := f.svc.CreateReservation(context.Background(), f.input(model.OnlinePayment))

	assert.Error(t, err)
	assert.Equal(t, []string{"cs_test"}, f.gateway.expired)
	assert.Empty(t, f.publisher.types())
}

func TestCreateReservation_PublisherFailureDoesNotFail(t *testing.T) {
	f := newFixture(t, Options{})
	f.publisher.err = errBrokerDown

	out, err := f.svc.CreateReservation(context.Background(), f.input(model.PayAtCounter))

	require.NoError(t, err)
	assert.NotNil(t, out.Reservation)
}

func TestCreateReservation_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreateReservationInput)
	}{
		{"return before pickup", func(in *CreateReservationInput) { in.ReturnAt = in.PickupAt.Add(-time.Hour) }},
		{"return equals pickup", func(in *CreateReservationInput) { in.ReturnAt = in.PickupAt }},
		{"sub-second range", func(in *CreateReservationInput) { in.ReturnAt = in.PickupAt.Add(500 * time.Millisecond) }},
		{"unknown method", func(in *CreateReservationInput) { in.PaymentMethod = "CASH" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			in := f.input(model.OnlinePayment)
			tt.mutate(&in)

			_, err := f.svc.CreateReservation(context.Background(), in)

			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, f.gateway.reqs)
			reservations, _ := f.store.count()
			assert.Zero(t, reservations)
		})
	}
}

func TestCreateReservation_PricesWholeSeconds(t *testing.T) {
	f := newFixture(t, Options{})
	in := f.input(model.PayAtCounter)
	in.PickupAt = f.pickup.Add(300 * time.Millisecond)
	in.ReturnAt = f.pickup.Add(48*time.Hour + 900*time.Millisecond)

	out, err := f.svc.CreateReservation(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 240.0, out.Reservation.TotalAmount)
	assert.True(t, out.Reservation.PickupAt.Equal(f.pickup), out.Reservation.PickupAt)
	assert.True(t, out.Reservation.ReturnAt.Equal(f.pickup.Add(48*time.Hour)), out.Reservation.ReturnAt)
}

func TestCreateReservation_DuplicateAccessoriesCollapsed(t *testing.T) {
	f := newFixture(t, Options{})
	in := f.input(model.PayAtCounter)
	in.AccessoryIDs = []uuid.UUID{f.accessoryID, f.accessoryID}

	out, err := f.svc.CreateReservation(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 240.0, out.Reservation.TotalAmount)
	assert.Equal(t, []uuid.UUID{f.accessoryID}, out.Reservation.AccessoryIDs)
}

func TestGetReservation_NotFound(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.svc.GetReservation(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestListReservations(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		out, err := f.svc.CreateReservation(ctx, f.input(model.PayAtCounter))
		require.NoError(t, err)
		ids = append(ids, out.Reservation.ID)
	}

	page0, err := f.svc.ListReservations(ctx, uuid.Nil, 0, 2)
	require.NoError(t, err)
	require.Len(t, page0, 2)
	assert.Equal(t, ids[0], page0[0].ID)
	assert.Equal(t, ids[1], page0[1].ID)

	page1, err := f.svc.ListReservations(ctx, uuid.Nil, 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 1)
	assert.Equal(t, ids[2], page1[0].ID)

	past, err := f.svc.ListReservations(ctx, uuid.Nil, 50, 2)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestListReservations_ByPerson(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	mine, err := f.svc.CreateReservation(ctx, f.input(model.PayAtCounter))
	require.NoError(t, err)
	other := uuid.New()
	require.NoError(t, f.store.Create(ctx, &model.Reservation{ID: uuid.New(), PersonID: other, CreatedAt: f.clock}, nil))

	got, err := f.svc.ListReservations(ctx, f.personID, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.Reservation.ID, got[0].ID)

	all, err := f.svc.ListReservations(ctx, uuid.Nil, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListReservations_Bounds(t *testing.T) {
	f := newFixture(t, Options{MaxPageSize: 10})
	ctx := context.Background()

	for _, tc := range [][2]int{{0, 0}, {0, -1}, {0, 11}, {-1, 5}} {
		_, err := f.svc.ListReservations(ctx, uuid.Nil, tc[0], tc[1])
		assert.ErrorIs(t, err, ErrValidation, "page=%d size=%d", tc[0], tc[1])
	}

	huge, err := f.svc.ListReservations(ctx, uuid.Nil, int(^uint(0)>>1), 10)
	require.NoError(t, err)
	assert.Empty(t, huge)
}

func TestParseStoreStatus(t *testing.T) {
	st, err := ParseStoreStatus(" pending ")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, st)

	_, err = ParseStoreStatus("CANCELLED")
	assert.Error(t, err)
}

func TestExpandURL(t *testing.T) {
	id := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	got := expandURL("https://x/success/{paymentId}?r={paymentId}", id)
	assert.Equal(t, 2, strings.Count(got, id.String()))
}
