package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"joservice/database/repository/memory"
	"joservice/models"
	"joservice/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.TransitionEvent
}

func (r *recordingSink) Dispatch(e models.TransitionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) Events() []models.TransitionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TransitionEvent(nil), r.events...)
}

var (
	requesterU1 = models.Principal{ID: "U1", Role: models.RoleRequester}
	providerP1  = models.Principal{ID: "P1", Role: models.RoleProvider}
	providerP2  = models.Principal{ID: "P2", Role: models.RoleProvider}
	requesterU2 = models.Principal{ID: "U2", Role: models.RoleRequester}
)

func newTestService(t *testing.T) (*DefaultBookingService, *memory.DB, *recordingSink) {
	t.Helper()
	db := memory.New()
	db.Providers.Put(models.Provider{ID: "P1", FullName: "Pat Plumber"})
	db.Providers.Put(models.Provider{ID: "P2", FullName: "Other Provider"})
	sink := &recordingSink{}
	svc, err := NewDefaultBookingService(db.Bookings, db.Providers, sink, utils.NewKeyedMutex(), zap.NewNop())
	require.NoError(t, err)
	return svc, db, sink
}

func seedBooking(t *testing.T, db *memory.DB, id string, status models.BookingStatus) {
	t.Helper()
	require.NoError(t, db.Bookings.Create(context.Background(), &models.Booking{
		ID:              id,
		RequesterID:     "U1",
		ProviderID:      "P1",
		ServiceDateTime: time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC),
		Status:          status,
	}))
}

func storedStatus(t *testing.T, db *memory.DB, id string) models.BookingStatus {
	t.Helper()
	b, err := db.Bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b.Status
}

func TestNewDefaultBookingServiceRejectsNilDeps(t *testing.T) {
	_, err := NewDefaultBookingService(nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestRequestTransitionAllCombinations(t *testing.T) {
	actors := map[models.Role]models.Principal{
		models.RoleRequester: requesterU1,
		models.RoleProvider:  providerP1,
	}

	for _, current := range models.AllStatuses {
		for _, target := range models.AllStatuses {
			for role, actor := range actors {
				name := string(current) + "->" + string(target) + "/" + role.String()
				t.Run(name, func(t *testing.T) {
					svc, db, sink := newTestService(t)
					seedBooking(t, db, "B1", current)

					updated, err := svc.RequestTransition(context.Background(), "B1", actor, target)

					rule, edge := lookupRule(current, target)
					switch {
					case !edge:
						assert.ErrorIs(t, err, utils.ErrInvalidTransition)
					case rule.actor != role:
						assert.ErrorIs(t, err, utils.ErrForbidden)
					default:
						require.NoError(t, err)
						assert.Equal(t, target, updated.Status)
						assert.Equal(t, target, storedStatus(t, db, "B1"))
						require.Len(t, sink.Events(), 1)
						return
					}
					assert.Nil(t, updated)
					assert.Equal(t, current, storedStatus(t, db, "B1"))
					assert.Empty(t, sink.Events())
				})
			}
		}
	}
}

func TestTerminalStatusesNeverChange(t *testing.T) {
	for _, status := range models.AllStatuses {
		if !status.IsTerminal() {
			continue
		}
		assert.Empty(t, transitionTable[status], status)
		assert.Empty(t, AllowedTransitions(status, models.RoleProvider))
		assert.Empty(t, AllowedTransitions(status, models.RoleRequester))
	}
}

func TestHappyPathEmitsOneEventPerTransition(t *testing.T) {
	svc, db, sink := newTestService(t)
	seedBooking(t, db, "B1", models.StatusPending)
	ctx := context.Background()

	_, err := svc.RequestTransition(ctx, "B1", providerP1, models.StatusAccepted)
	require.NoError(t, err)
	_, err = svc.RequestTransition(ctx, "B1", providerP1, models.StatusInProgress)
	require.NoError(t, err)
	b, err := svc.RequestTransition(ctx, "B1", providerP1, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, b.Status)

	events := sink.Events()
	require.Len(t, events, 3)
	assert.Equal(t, models.StatusPending, events[0].PreviousStatus)
	assert.Equal(t, models.StatusAccepted, events[0].NewStatus)
	assert.Equal(t, models.RoleProvider, events[0].ActorRole)
	assert.Equal(t, models.StatusCompleted, events[2].NewStatus)
	assert.Equal(t, "U1", events[2].RequesterID)
}

func TestRequesterCancelsAcceptedBooking(t *testing.T) {
	svc, db, sink := newTestService(t)
	seedBooking(t, db, "B1", models.StatusAccepted)

	b, err := svc.RequestTransition(context.Background(), "B1", requesterU1, models.StatusCancelledByUser)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelledByUser, b.Status)
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, models.RoleRequester, sink.Events()[0].ActorRole)
}

func TestForeignPartiesSeeNotFound(t *testing.T) {
	svc, db, sink := newTestService(t)
	seedBooking(t, db, "B1", models.StatusPending)
	ctx := context.Background()

	_, err := svc.RequestTransition(ctx, "B1", providerP2, models.StatusAccepted)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = svc.RequestTransition(ctx, "B1", requesterU2, models.StatusCancelledByUser)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	// Same ID as the requester, but acting as a provider.
	_, err = svc.RequestTransition(ctx, "B1", models.Principal{ID: "U1", Role: models.RoleProvider}, models.StatusAccepted)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = svc.RequestTransition(ctx, "missing", providerP1, models.StatusAccepted)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = svc.GetBooking(ctx, providerP2, "B1")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.Equal(t, models.StatusPending, storedStatus(t, db, "B1"))
	assert.Empty(t, sink.Events())
}

func TestUnknownTargetIsInvalidTransition(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedBooking(t, db, "B1", models.StatusPending)

	_, err := svc.RequestTransition(context.Background(), "B1", providerP1, models.BookingStatus("archived"))
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestConcurrentAcceptAndDeclineExactlyOneWins(t *testing.T) {
	for i := 0; i < 50; i++ {
		svc, db, sink := newTestService(t)
		seedBooking(t, db, "B1", models.StatusPending)

		targets := []models.BookingStatus{models.StatusAccepted, models.StatusDeclinedByProvider}
		errs := make([]error, len(targets))
		var wg sync.WaitGroup
		start := make(chan struct{})
		for j, target := range targets {
			wg.Add(1)
			go func(j int, target models.BookingStatus) {
				defer wg.Done()
				<-start
				_, errs[j] = svc.RequestTransition(context.Background(), "B1", providerP1, target)
			}(j, target)
		}
		close(start)
		wg.Wait()

		var wins int
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.True(t, errors.Is(err, utils.ErrInvalidTransition), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, wins)
		assert.Len(t, sink.Events(), 1)
	}
}

func TestCreateBookingEmitsCreationEvent(t *testing.T) {
	svc, db, sink := newTestService(t)
	ctx := context.Background()

	b, err := svc.CreateBooking(ctx, requesterU1, models.CreateBookingRequest{
		ProviderID:      "P1",
		ServiceDateTime: time.Date(2026, 6, 2, 9, 30, 0, 0, time.UTC),
		ServiceLocation: "12 Elm St",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, models.StatusPending, storedStatus(t, db, b.ID))

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Empty(t, events[0].PreviousStatus)
	assert.Equal(t, models.StatusPending, events[0].NewStatus)
	assert.Equal(t, "P1", events[0].ProviderID)

	view, err := svc.GetBooking(ctx, providerP1, b.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.BookingStatus{models.StatusAccepted, models.StatusDeclinedByProvider}, view.AllowedTransitions)
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _, sink := newTestService(t)
	ctx := context.Background()
	when := time.Date(2026, 6, 2, 9, 30, 0, 0, time.UTC)

	_, err := svc.CreateBooking(ctx, providerP1, models.CreateBookingRequest{ProviderID: "P1", ServiceDateTime: when})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = svc.CreateBooking(ctx, requesterU1, models.CreateBookingRequest{ProviderID: "P1"})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = svc.CreateBooking(ctx, requesterU1, models.CreateBookingRequest{ProviderID: "ghost", ServiceDateTime: when})
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.Empty(t, sink.Events())
}

func TestListForPartyScopesFiltersAndPages(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	seed := []struct {
		id          string
		requesterID string
		providerID  string
		status      models.BookingStatus
		dayOffset   int
	}{
		{"b1", "U1", "P1", models.StatusPending, 0},
		{"b2", "U1", "P1", models.StatusAccepted, 1},
		{"b3", "U1", "P2", models.StatusPending, 2},
		{"b4", "U2", "P1", models.StatusPending, 3},
		{"b5", "U1", "P1", models.StatusCompleted, 4},
	}
	for _, s := range seed {
		require.NoError(t, db.Bookings.Create(ctx, &models.Booking{
			ID:              s.id,
			RequesterID:     s.requesterID,
			ProviderID:      s.providerID,
			Status:          s.status,
			ServiceDateTime: base.AddDate(0, 0, s.dayOffset),
		}))
	}

	cases := []struct {
		name       string
		actor      models.Principal
		opts       models.BookingListOptions
		wantIDs    []string
		wantTotal  int64
		wantPages  int
		wantPageNo int
	}{
		{"requester sees own, newest first", requesterU1, models.BookingListOptions{}, []string{"b5", "b3", "b2", "b1"}, 4, 1, 1},
		{"provider sees bookings made with them", providerP1, models.BookingListOptions{}, []string{"b5", "b4", "b2", "b1"}, 4, 1, 1},
		{"other provider", providerP2, models.BookingListOptions{}, []string{"b3"}, 1, 1, 1},
		{"status filter", requesterU1, models.BookingListOptions{Status: models.StatusPending}, []string{"b3", "b1"}, 2, 1, 1},
		{"first page", providerP1, models.BookingListOptions{Page: 1, Limit: 3}, []string{"b5", "b4", "b2"}, 4, 2, 1},
		{"second page", providerP1, models.BookingListOptions{Page: 2, Limit: 3}, []string{"b1"}, 4, 2, 2},
		{"past the end", providerP1, models.BookingListOptions{Page: 5, Limit: 3}, nil, 4, 2, 5},
		{"no bookings", models.Principal{ID: "U9", Role: models.RoleRequester}, models.BookingListOptions{}, nil, 0, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := svc.ListForParty(ctx, tc.actor, tc.opts)
			require.NoError(t, err)

			var ids []string
			for _, v := range page.Bookings {
				ids = append(ids, v.Booking.ID)
				assert.True(t, v.Booking.IsParty(tc.actor))
				assert.Equal(t, AllowedTransitions(v.Booking.Status, tc.actor.Role), v.AllowedTransitions)
			}
			assert.Equal(t, tc.wantIDs, ids)
			assert.Equal(t, tc.wantTotal, page.TotalBookings)
			assert.Equal(t, tc.wantPages, page.TotalPages)
			assert.Equal(t, tc.wantPageNo, page.CurrentPage)
		})
	}
}

func TestListForPartyRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ListForParty(context.Background(), requesterU1, models.BookingListOptions{Status: "archived"})
	assert.Equal(t, utils.CodeValidation, utils.CodeOf(err))

	_, err = svc.ListForParty(context.Background(), models.Principal{}, models.BookingListOptions{})
	assert.Equal(t, utils.CodeValidation, utils.CodeOf(err))
}
