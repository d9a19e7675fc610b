package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

func newTestNotifier(sender Sender, events []string) *Notifier {
	return NewNotifier([]Sender{sender}, events, slog.New(slog.DiscardHandler))
}

func TestNotify_AllowedEventIsDelivered(t *testing.T) {
	rec := &recordingSender{}
	n := newTestNotifier(rec, []string{"trade_executed", "opportunity_detected"})

	require.NoError(t, n.Notify(context.Background(), "opportunity_detected", "Opportunity detected", "AAPL"))
	assert.Equal(t, []string{"Opportunity detected"}, rec.sent())
}

func TestNotify_FilteredEventIsDropped(t *testing.T) {
	rec := &recordingSender{}
	n := newTestNotifier(rec, []string{"trade_executed"})

	require.NoError(t, n.Notify(context.Background(), "opportunity_detected", "Opportunity detected", "AAPL"))
	assert.Empty(t, rec.sent())
}

func TestNotify_EmptyFilterAllowsEverything(t *testing.T) {
	rec := &recordingSender{}
	n := newTestNotifier(rec, nil)

	require.NoError(t, n.Notify(context.Background(), "anything", "Anything", "body"))
	assert.Equal(t, []string{"Anything"}, rec.sent())
}

func TestNotifyAll_BypassesEventFilter(t *testing.T) {
	rec := &recordingSender{}
	n := newTestNotifier(rec, []string{"trade_executed"})

	require.NoError(t, n.NotifyAll(context.Background(), "Simulator started", "mode full"))
	assert.Equal(t, []string{"Simulator started"}, rec.sent())
}

func TestNotify_SenderErrorIsReturned(t *testing.T) {
	rec := &recordingSender{err: errors.New("webhook down")}
	n := newTestNotifier(rec, nil)

	err := n.Notify(context.Background(), "trade_executed", "Trade executed", "AAPL")
	assert.Error(t, err)
}
