package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eventradar/internal/events"
	"eventradar/internal/users"
	"eventradar/pkg/geo"
	"eventradar/pkg/metrics"
)

type scannerFixture struct {
	*dispatcherFixture
	scanner *Scanner
}

func newScannerFixture(t *testing.T, workers int) *scannerFixture {
	t.Helper()
	fx := newDispatcherFixture(t)
	scanner := NewScanner(fx.events, fx.dispatch, workers, zap.NewNop(), metrics.NewUnregistered())
	return &scannerFixture{dispatcherFixture: fx, scanner: scanner}
}

func (fx *scannerFixture) addUpcoming(date time.Time, status string) *events.Event {
	organizer := fx.users.add(&users.User{Name: "organizer"})
	ev := fx.events.add(musicEventAt(10, 40))
	ev.OrganizerID = organizer.ID
	ev.Date = date
	ev.Status = status
	return ev
}

func TestScanQueuesSingleUpcomingEvent(t *testing.T) {
	fx := newScannerFixture(t, 2)
	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	fx.addUpcoming(tomorrow, events.StatusActive)

	result, err := fx.scanner.ScanAndQueue(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.QueuedCount)
	assert.Equal(t, 1, fx.publisher.count())
}

func TestScanSkipsEventsOutsideWindowOrInactive(t *testing.T) {
	fx := newScannerFixture(t, 2)
	now := time.Now().UTC()

	fx.addUpcoming(now.Add(12*time.Hour), events.StatusActive)
	fx.addUpcoming(now.Add(10*24*time.Hour), events.StatusActive)   // beyond window
	fx.addUpcoming(now.Add(12*time.Hour), events.StatusCancelled)   // not active
	fx.addUpcoming(now.Add(-12*time.Hour), events.StatusActive)     // already past

	result, err := fx.scanner.ScanAndQueue(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.QueuedCount)
}

func TestScanIsolatesPerEventFailures(t *testing.T) {
	fx := newScannerFixture(t, 1)
	now := time.Now().UTC()

	fx.addUpcoming(now.Add(6*time.Hour), events.StatusActive)
	// An event whose organizer cannot be resolved fails its dispatch but
	// must not abort the rest of the scan.
	broken := fx.events.add(musicEventAt(10, 40))
	broken.Date = now.Add(8 * time.Hour)
	fx.addUpcoming(now.Add(10*time.Hour), events.StatusActive)

	result, err := fx.scanner.ScanAndQueue(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.QueuedCount)
}

func TestScanDefaultsDaysAhead(t *testing.T) {
	fx := newScannerFixture(t, 2)
	fx.addUpcoming(time.Now().UTC().Add(12*time.Hour), events.StatusActive)

	result, err := fx.scanner.ScanAndQueue(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.QueuedCount)
}

func TestScanWithNoUpcomingEvents(t *testing.T) {
	fx := newScannerFixture(t, 4)
	result, err := fx.scanner.ScanAndQueue(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, result.QueuedCount)
	assert.Zero(t, fx.publisher.count())
}

func TestScanDispatchesEveryEventExactlyOnce(t *testing.T) {
	fx := newScannerFixture(t, 4)
	now := time.Now().UTC()
	for i := 0; i < 9; i++ {
		fx.addUpcoming(now.Add(time.Duration(i+1)*time.Hour), events.StatusActive)
	}

	result, err := fx.scanner.ScanAndQueue(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 9, result.QueuedCount)
	assert.Equal(t, 9, fx.publisher.count())
}

func TestServiceRateLimitsScans(t *testing.T) {
	fx := newScannerFixture(t, 1)
	svc := NewService(fx.dispatch, fx.scanner)

	var limited bool
	for i := 0; i < 10; i++ {
		if _, err := svc.ScanAndQueue(context.Background(), 1); err != nil {
			assert.ErrorIs(t, err, ErrRateLimited)
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of scans should hit the rate limit")
}

func TestServiceDispatchDelegates(t *testing.T) {
	fx := newScannerFixture(t, 1)
	svc := NewService(fx.dispatch, fx.scanner)

	organizer := fx.users.add(&users.User{Name: "organizer"})
	ev := fx.events.add(musicEventAt(10, 40))
	ev.OrganizerID = organizer.ID
	fx.users.add(&users.User{
		Name:                "fan",
		Location:            &geo.Point{Longitude: 10, Latitude: 40.01},
		PreferredCategories: []string{"music"},
	})

	result, err := svc.Dispatch(context.Background(), ev.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, result.Status)
	assert.Equal(t, 1, result.RecipientCount)
}
