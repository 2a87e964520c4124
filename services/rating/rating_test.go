package rating

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"joservice/database/repository"
	"joservice/database/repository/memory"
	"joservice/models"
	"joservice/services/tasks"
	"joservice/utils"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	requesterU1 = models.Principal{ID: "U1", Role: models.RoleRequester}
	requesterU2 = models.Principal{ID: "U2", Role: models.RoleRequester}
	providerP1  = models.Principal{ID: "P1", Role: models.RoleProvider}
)

type failingProviders struct {
	repository.ProviderRepository
}

func (failingProviders) UpdateRatingAggregate(context.Context, string, float64, int) error {
	return errors.New("write concern timeout")
}

type recordingQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (q *recordingQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newTestService(t *testing.T, providers repository.ProviderRepository, db *memory.DB, queue tasks.Enqueuer) *DefaultRatingService {
	t.Helper()
	agg, err := NewAggregator(db.Ratings, providers, utils.NewKeyedMutex(), zap.NewNop())
	require.NoError(t, err)
	svc, err := NewDefaultRatingService(db.Bookings, db.Ratings, providers, agg, queue, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func seed(t *testing.T, db *memory.DB, id string, status models.BookingStatus) {
	t.Helper()
	require.NoError(t, db.Bookings.Create(context.Background(), &models.Booking{
		ID: id, RequesterID: "U1", ProviderID: "P1", Status: status,
	}))
}

func providerAggregate(t *testing.T, db *memory.DB) (float64, int) {
	t.Helper()
	p, err := db.Providers.GetByID(context.Background(), "P1")
	require.NoError(t, err)
	return p.AverageRating, p.TotalRatings
}

func setup(t *testing.T) (*DefaultRatingService, *memory.DB) {
	t.Helper()
	db := memory.New()
	db.Providers.Put(models.Provider{ID: "P1"})
	return newTestService(t, db.Providers, db, nil), db
}

func TestSubmitRatingUpdatesAggregate(t *testing.T) {
	svc, db := setup(t)
	seed(t, db, "B1", models.StatusCompleted)

	r, err := svc.SubmitRating(context.Background(), requesterU1, "B1", models.SubmitRatingRequest{Stars: 4, Comment: " great "})
	require.NoError(t, err)
	assert.Equal(t, "great", r.Comment)
	assert.Equal(t, "P1", r.ProviderID)

	avg, total := providerAggregate(t, db)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 1, total)
}

func TestDuplicateRatingLeavesAggregateUntouched(t *testing.T) {
	svc, db := setup(t)
	seed(t, db, "B1", models.StatusCompleted)
	ctx := context.Background()

	_, err := svc.SubmitRating(ctx, requesterU1, "B1", models.SubmitRatingRequest{Stars: 4})
	require.NoError(t, err)
	_, err = svc.SubmitRating(ctx, requesterU1, "B1", models.SubmitRatingRequest{Stars: 1})
	assert.ErrorIs(t, err, utils.ErrDuplicateRating)

	avg, total := providerAggregate(t, db)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 1, total)
}

func TestSubmitRatingRejections(t *testing.T) {
	svc, db := setup(t)
	seed(t, db, "done", models.StatusCompleted)
	seed(t, db, "open", models.StatusInProgress)
	ctx := context.Background()

	cases := []struct {
		name    string
		actor   models.Principal
		booking string
		req     models.SubmitRatingRequest
		want    error
	}{
		{"unknown booking", requesterU1, "nope", models.SubmitRatingRequest{Stars: 5}, utils.ErrNotFound},
		{"other requester", requesterU2, "done", models.SubmitRatingRequest{Stars: 5}, utils.ErrNotFound},
		{"provider", providerP1, "done", models.SubmitRatingRequest{Stars: 5}, utils.ErrForbidden},
		{"too few stars", requesterU1, "done", models.SubmitRatingRequest{Stars: 0}, utils.ErrValidation},
		{"too many stars", requesterU1, "done", models.SubmitRatingRequest{Stars: 6}, utils.ErrValidation},
		{"long comment", requesterU1, "done", models.SubmitRatingRequest{Stars: 3, Comment: strings.Repeat("a", models.MaxRatingComment+1)}, utils.ErrValidation},
		{"not completed", requesterU1, "open", models.SubmitRatingRequest{Stars: 5}, utils.ErrBookingNotCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitRating(ctx, tc.actor, tc.booking, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	avg, total := providerAggregate(t, db)
	assert.Zero(t, avg)
	assert.Zero(t, total)
}

func TestAverageIsRoundedToTwoDecimals(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	for i, stars := range []int{5, 4, 4} {
		id := fmt.Sprintf("B%d", i)
		seed(t, db, id, models.StatusCompleted)
		_, err := svc.SubmitRating(ctx, requesterU1, id, models.SubmitRatingRequest{Stars: stars})
		require.NoError(t, err)
	}

	avg, total := providerAggregate(t, db)
	assert.Equal(t, 4.33, avg)
	assert.Equal(t, 3, total)
}

func TestRemoveRatingRecomputes(t *testing.T) {
	svc, db := setup(t)
	seed(t, db, "B1", models.StatusCompleted)
	ctx := context.Background()

	_, err := svc.SubmitRating(ctx, requesterU1, "B1", models.SubmitRatingRequest{Stars: 2})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RemoveRating(ctx, requesterU2, "B1"), utils.ErrNotFound)
	require.NoError(t, svc.RemoveRating(ctx, requesterU1, "B1"))
	assert.ErrorIs(t, svc.RemoveRating(ctx, requesterU1, "B1"), utils.ErrNotFound)

	avg, total := providerAggregate(t, db)
	assert.Zero(t, avg)
	assert.Zero(t, total)

	// The booking can be rated again once its rating is gone.
	_, err = svc.SubmitRating(ctx, requesterU1, "B1", models.SubmitRatingRequest{Stars: 5})
	require.NoError(t, err)
}

func TestConcurrentSubmissionsConverge(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	const n = 20
	for i := 0; i < n; i++ {
		seed(t, db, fmt.Sprintf("B%d", i), models.StatusCompleted)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stars := 1 + i%5
			_, err := svc.SubmitRating(ctx, requesterU1, fmt.Sprintf("B%d", i), models.SubmitRatingRequest{Stars: stars})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	avg, total := providerAggregate(t, db)
	assert.Equal(t, n, total)
	assert.Equal(t, 3.0, avg)
}

func TestAggregationFailureQueuesRecompute(t *testing.T) {
	db := memory.New()
	db.Providers.Put(models.Provider{ID: "P1"})
	queue := &recordingQueue{}
	svc := newTestService(t, failingProviders{ProviderRepository: db.Providers}, db, queue)
	seed(t, db, "B1", models.StatusCompleted)

	r, err := svc.SubmitRating(context.Background(), requesterU1, "B1", models.SubmitRatingRequest{Stars: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, tasks.TypeRecomputeRating, queue.tasks[0].Type())
	payload, err := tasks.ParseRecomputeRating(queue.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, "P1", payload.ProviderID)

	// The rating itself is stored even though the aggregate is stale.
	_, err = db.Ratings.GetByBookingID(context.Background(), "B1")
	require.NoError(t, err)
}

func TestGetProviderRating(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	seed(t, db, "B1", models.StatusCompleted)
	_, err := svc.SubmitRating(ctx, requesterU1, "B1", models.SubmitRatingRequest{Stars: 3})
	require.NoError(t, err)

	summary, err := svc.GetProviderRating(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, summary.AverageRating)
	assert.Equal(t, 1, summary.TotalRatings)
	assert.Len(t, summary.Recent, 1)

	_, err = svc.GetProviderRating(ctx, "ghost")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.67, roundRating(14.0/3.0))
	assert.Equal(t, 2.5, roundRating(2.5))
	assert.Equal(t, 0.0, roundRating(0))
}
