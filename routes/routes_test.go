package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"joservice/database/repository/memory"
	"joservice/handlers"
	"joservice/models"
	"joservice/services/booking"
	"joservice/services/notification"
	"joservice/services/rating"
	"joservice/services/realtime"
	"joservice/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router        *gin.Engine
	db            *memory.DB
	notifications *notification.DefaultNotificationService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	db := memory.New()
	db.Providers.Put(models.Provider{ID: "P1", FullName: "Pat", ServiceType: "plumbing"})
	locker := utils.NewKeyedMutex()

	registry := realtime.NewRegistry(time.Second, logger)
	notifications, err := notification.NewDefaultNotificationService(notification.Config{
		Notifications:  db.Notifications,
		Providers:      db.Providers,
		Realtime:       registry,
		Logger:         logger,
		PersistBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	bookings, err := booking.NewDefaultBookingService(db.Bookings, db.Providers, notifications, locker, logger)
	require.NoError(t, err)
	agg, err := rating.NewAggregator(db.Ratings, db.Providers, locker, logger)
	require.NoError(t, err)
	ratings, err := rating.NewDefaultRatingService(db.Bookings, db.Ratings, db.Providers, agg, nil, logger)
	require.NoError(t, err)

	bh := handlers.NewBookingHandler(bookings)
	rh := handlers.NewRatingHandler(ratings)
	nh := handlers.NewNotificationHandler(notifications)
	dh := handlers.NewDeviceHandler(db.Devices)
	wh := handlers.NewWebSocketHandler(registry, nil)

	r := gin.New()
	r.Use(utils.ErrorHandler())
	RegisterRoutes(r, &handlers.HandlerBundle{
		CreateBookingHandler:     bh.CreateBookingHandler,
		GetBookingHandler:        bh.GetBookingHandler,
		ListBookingsHandler:      bh.ListBookingsHandler,
		TransitionBookingHandler: bh.TransitionBookingHandler,
		SubmitRatingHandler:      rh.SubmitRatingHandler,
		RemoveRatingHandler:      rh.RemoveRatingHandler,
		GetProviderRatingHandler: rh.GetProviderRatingHandler,
		ListNotificationsHandler: nh.ListNotificationsHandler,
		UnreadCountHandler:       nh.UnreadCountHandler,
		MarkAsReadHandler:        nh.MarkAsReadHandler,
		MarkAllAsReadHandler:     nh.MarkAllAsReadHandler,
		RegisterDeviceHandler:    dh.RegisterDeviceHandler,
		UnregisterDeviceHandler:  dh.UnregisterDeviceHandler,
		WebSocketHandler:         wh.ServeWS,
		HealthHandler:            handlers.HealthHandler,
	})
	return &testServer{router: r, db: db, notifications: notifications}
}

func token(t *testing.T, id string, role models.Role) string {
	t.Helper()
	tok, err := utils.GenerateToken(models.Principal{ID: id, Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.notifications.Shutdown(ctx))
}

func TestTransitionEndpointMapsErrors(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.db.Bookings.Create(context.Background(), &models.Booking{
		ID: "B1", RequesterID: "U1", ProviderID: "P1", Status: models.StatusPending,
	}))
	p1 := token(t, "P1", models.RoleProvider)
	p2 := token(t, "P2", models.RoleProvider)
	u1 := token(t, "U1", models.RoleRequester)

	cases := []struct {
		name   string
		tok    string
		target models.BookingStatus
		code   int
	}{
		{"no token", "", models.StatusAccepted, http.StatusUnauthorized},
		{"foreign provider", p2, models.StatusAccepted, http.StatusNotFound},
		{"requester accepting", u1, models.StatusAccepted, http.StatusForbidden},
		{"skipping ahead", p1, models.StatusCompleted, http.StatusConflict},
		{"accept", p1, models.StatusAccepted, http.StatusOK},
		{"accept again", p1, models.StatusAccepted, http.StatusConflict},
	}
	for _, tc := range cases {
		w := s.do(t, http.MethodPatch, "/api/bookings/B1/status", tc.tok, models.TransitionRequest{Status: tc.target})
		assert.Equal(t, tc.code, w.Code, "%s: %s", tc.name, w.Body.String())
	}

	w := s.do(t, http.MethodPatch, "/api/bookings/B1/status", p1, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/api/bookings/B1/status", p1, models.TransitionRequest{Status: "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	stored, err := s.db.Bookings.GetByID(context.Background(), "B1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, stored.Status)
}

func TestPartyBookingLists(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	for i, b := range []models.Booking{
		{ID: "B1", RequesterID: "U1", ProviderID: "P1", Status: models.StatusPending},
		{ID: "B2", RequesterID: "U1", ProviderID: "P1", Status: models.StatusCompleted},
		{ID: "B3", RequesterID: "U2", ProviderID: "P1", Status: models.StatusPending},
		{ID: "B4", RequesterID: "U1", ProviderID: "P2", Status: models.StatusAccepted},
	} {
		b.ServiceDateTime = base.AddDate(0, 0, i)
		require.NoError(t, s.db.Bookings.Create(ctx, &b))
	}
	u1 := token(t, "U1", models.RoleRequester)
	p1 := token(t, "P1", models.RoleProvider)

	cases := []struct {
		name      string
		path      string
		tok       string
		code      int
		wantIDs   []string
		wantTotal int64
		wantPages int
	}{
		{"requester list", "/api/bookings/user", u1, http.StatusOK, []string{"B4", "B2", "B1"}, 3, 1},
		{"provider list", "/api/bookings/provider", p1, http.StatusOK, []string{"B3", "B2", "B1"}, 3, 1},
		{"status filter", "/api/bookings/provider?status=pending", p1, http.StatusOK, []string{"B3", "B1"}, 2, 1},
		{"paging", "/api/bookings/user?page=2&limit=2", u1, http.StatusOK, []string{"B1"}, 3, 2},
		{"provider on requester list", "/api/bookings/user", p1, http.StatusForbidden, nil, 0, 0},
		{"requester on provider list", "/api/bookings/provider", u1, http.StatusForbidden, nil, 0, 0},
		{"unknown status", "/api/bookings/user?status=archived", u1, http.StatusBadRequest, nil, 0, 0},
		{"no token", "/api/bookings/user", "", http.StatusUnauthorized, nil, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tc.path, tc.tok, nil)
			require.Equal(t, tc.code, w.Code, w.Body.String())
			if tc.code != http.StatusOK {
				return
			}
			var page models.BookingPage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			var ids []string
			for _, v := range page.Bookings {
				ids = append(ids, v.Booking.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
			assert.Equal(t, tc.wantTotal, page.TotalBookings)
			assert.Equal(t, tc.wantPages, page.TotalPages)
		})
	}

	// Items carry the viewer's next moves.
	w := s.do(t, http.MethodGet, "/api/bookings/provider?status=pending&limit=1", p1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page models.BookingPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Bookings, 1)
	assert.ElementsMatch(t,
		[]models.BookingStatus{models.StatusAccepted, models.StatusDeclinedByProvider},
		page.Bookings[0].AllowedTransitions)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	u1 := token(t, "U1", models.RoleRequester)
	p1 := token(t, "P1", models.RoleProvider)

	w := s.do(t, http.MethodPost, "/api/bookings", p1, models.CreateBookingRequest{ProviderID: "P1", ServiceDateTime: time.Now().Add(24 * time.Hour)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/bookings", u1, models.CreateBookingRequest{ProviderID: "P1", ServiceDateTime: time.Now().Add(24 * time.Hour)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Booking.ID

	for _, status := range []models.BookingStatus{models.StatusAccepted, models.StatusInProgress, models.StatusCompleted} {
		w = s.do(t, http.MethodPatch, "/api/bookings/"+id+"/status", p1, models.TransitionRequest{Status: status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, "/api/bookings/"+id+"/rating", u1, models.SubmitRatingRequest{Stars: 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/api/bookings/"+id+"/rating", u1, models.SubmitRatingRequest{Stars: 5})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/providers/P1/rating", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.ProviderRatingSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 4.0, summary.AverageRating)
	assert.Equal(t, 1, summary.TotalRatings)

	s.drain(t)

	// Provider got the creation notice; the requester got accepted, started and completed.
	w = s.do(t, http.MethodGet, "/api/notifications/unread-count", p1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"unreadCount":1}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/notifications?limit=2", u1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page models.NotificationPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Notifications, 2)

	w = s.do(t, http.MethodPatch, "/api/notifications/"+page.Notifications[0].ID+"/read", p1, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/api/notifications/read-all", u1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":3}`, w.Body.String())
}

func TestDeviceTokenEndpoints(t *testing.T) {
	s := newTestServer(t)
	u1 := token(t, "U1", models.RoleRequester)

	w := s.do(t, http.MethodPut, "/api/devices/fcm-token", u1, models.FCMTokenRequest{Token: "tok-1"})
	require.Equal(t, http.StatusNoContent, w.Code)

	tokens, err := s.db.Devices.ListTokens(context.Background(), models.Principal{ID: "U1", Role: models.RoleRequester})
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-1"}, tokens)

	w = s.do(t, http.MethodDelete, "/api/devices/fcm-token", u1, models.FCMTokenRequest{Token: "tok-1"})
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
