package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	args := m.Called(userID, event, data)
	return args.Error(0)
}

func (m *mockNotifier) BroadcastToModerators(event string, data any) error {
	args := m.Called(event, data)
	return args.Error(0)
}

type recordingPublisher struct {
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.events = append(p.events, e)
	return p.err
}

func TestHubPublisher_NotifiesSellerAndModerators(t *testing.T) {
	notifier := new(mockNotifier)
	sellerID := uuid.New()
	e := Event{Type: ListingTransitioned, SellerID: &sellerID, ActorID: uuid.New(), From: "PENDING", To: "ACTIVE"}

	notifier.On("BroadcastToUser", sellerID, ListingTransitioned, e).Return(nil)
	notifier.On("BroadcastToModerators", ListingTransitioned, e).Return(nil)

	require.NoError(t, NewHubPublisher(notifier).Publish(context.Background(), e))
	notifier.AssertExpectations(t)
}

func TestHubPublisher_SkipsSellerForOwnAction(t *testing.T) {
	notifier := new(mockNotifier)
	sellerID := uuid.New()
	e := Event{Type: ListingTransitioned, SellerID: &sellerID, ActorID: sellerID}

	notifier.On("BroadcastToModerators", ListingTransitioned, e).Return(nil)

	require.NoError(t, NewHubPublisher(notifier).Publish(context.Background(), e))
	notifier.AssertNotCalled(t, "BroadcastToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestFanout_ErrorsDoNotStopDelivery(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("redis недоступен")}
	ok := &recordingPublisher{}
	f := NewFanout(time.Second, failing, ok)

	err := f.Publish(context.Background(), Event{Type: ReportCreated})

	assert.NoError(t, err)
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)
}

func TestFanout_IgnoresCancelledRequestContext(t *testing.T) {
	ctxPub := &ctxPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, NewFanout(time.Second, ctxPub).Publish(ctx, Event{Type: ReportDismissed}))
	assert.NoError(t, ctxPub.seen)
}

type ctxPublisher struct {
	seen error
}

func (p *ctxPublisher) Publish(ctx context.Context, _ Event) error {
	p.seen = ctx.Err()
	return nil
}
