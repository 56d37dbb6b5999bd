package event_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/etrivia/internal/domain"
	"github.com/victornm/etrivia/internal/event"
)

func TestBus_PublishSubscribe(t *testing.T) {
	type (
		inputs struct {
			published   []event.Event
			subscribers []subscriber
		}

		outputs struct {
			received map[string][]event.Event
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"a single subscriber should receive correct event": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName(domain.EventNameSessionStarted),
						eventWithName(domain.EventNameAnswerRecorded),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{domain.EventNameSessionStarted},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName(domain.EventNameSessionStarted)}, out.received["s1"])
			},
		},

		"a single subscriber should receive all dispatched event": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName(domain.EventNameSessionStarted),
						eventWithName(domain.EventNameSessionStarted),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{domain.EventNameSessionStarted},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName(domain.EventNameSessionStarted), eventWithName(domain.EventNameSessionStarted)}, out.received["s1"])
			},
		},

		"an event should be dispatched to all subscribers": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName(domain.EventNameSessionStarted),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{domain.EventNameSessionStarted},
						},
						{
							name:        "s2",
							subscribeTo: []string{domain.EventNameSessionStarted},
						},
						{
							name:        "s3",
							subscribeTo: []string{domain.EventNameSessionStarted},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName(domain.EventNameSessionStarted)}, out.received["s1"])
				assert.ElementsMatch(t, []event.Event{eventWithName(domain.EventNameSessionStarted)}, out.received["s2"])
				assert.ElementsMatch(t, []event.Event{eventWithName(domain.EventNameSessionStarted)}, out.received["s3"])
			},
		},

		"multiple events should be dispatched correctly multiple subscribers": {
			arrange: func() inputs {
				return inputs{
					published: []event.Event{
						eventWithName(domain.EventNameSessionStarted),
						eventWithName(domain.EventNameAnswerRecorded),
						eventWithName(domain.EventNameSessionStarted),
						eventWithName(domain.EventNameSessionFinished),
					},
					subscribers: []subscriber{
						{
							name:        "s1",
							subscribeTo: []string{domain.EventNameSessionStarted},
						},
						{
							name:        "s2",
							subscribeTo: []string{domain.EventNameSessionStarted, domain.EventNameAnswerRecorded},
						},
						{
							name:        "s3",
							subscribeTo: []string{domain.EventNameSessionFinished, domain.EventNameAnswerRecorded},
						},
					},
				}
			},

			assert: func(t *testing.T, out outputs) {
				assert.ElementsMatch(t, []event.Event{eventWithName(domain.EventNameSessionStarted), eventWithName(domain.EventNameSessionStarted)}, out.received["s1"])
				assert.ElementsMatch(t, []event.Event{eventWithName(domain.EventNameSessionStarted), eventWithName(domain.EventNameSessionStarted), eventWithName(domain.EventNameAnswerRecorded)}, out.received["s2"])
				assert.ElementsMatch(t, []event.Event{eventWithName(domain.EventNameAnswerRecorded), eventWithName(domain.EventNameSessionFinished)}, out.received["s3"])
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			mu := sync.Mutex{}
			out := outputs{received: make(map[string][]event.Event)}

			b := event.NewBus()
			for _, s := range in.subscribers {
				s := s
				for _, e := range s.subscribeTo {
					b.Subscribe(e, func(ctx context.Context, e event.Event) error {
						mu.Lock()
						out.received[s.name] = append(out.received[s.name], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range in.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, out)
		})
	}
}

func TestBus_HandlerPanicDoesNotStopOthers(t *testing.T) {
	b := event.NewBus(event.WithPoolSize(1))

	var (
		mu       sync.Mutex
		received int
	)
	b.Subscribe(domain.EventNameSessionFinished, func(ctx context.Context, e event.Event) error {
		panic("boom")
	})
	b.Subscribe(domain.EventNameSessionFinished, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		received++
		mu.Unlock()
		return nil
	})

	b.Publish(context.Background(), eventWithName(domain.EventNameSessionFinished))
	b.Publish(context.Background(), eventWithName(domain.EventNameSessionFinished))
	b.Stop()

	require.Equal(t, 2, received)
}

func TestBus_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	b := event.NewBus(event.WithPoolSize(1))

	release := make(chan struct{})
	b.Subscribe(domain.EventNameSessionFinished, func(ctx context.Context, e event.Event) error {
		<-release
		return nil
	})

	var (
		mu       sync.Mutex
		received int
	)
	b.Subscribe(domain.EventNameAnswerRecorded, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		received++
		mu.Unlock()
		return nil
	})

	b.Publish(context.Background(), eventWithName(domain.EventNameSessionFinished))

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Publish(context.Background(), eventWithName(domain.EventNameAnswerRecorded))
		b.Publish(context.Background(), eventWithName(domain.EventNameAnswerRecorded))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked behind a slow subscriber")
	}

	close(release)
	b.Stop()

	require.Equal(t, 2, received)
}

func TestBus_HandlerContextHasTimeout(t *testing.T) {
	b := event.NewBus(event.WithTimeout(time.Minute))

	var deadline bool
	b.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
		_, deadline = ctx.Deadline()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Publish(ctx, eventWithName(domain.EventNameLeaderboardUpdated))
	b.Stop()

	require.True(t, deadline, "handler should run with its own deadline even when the publisher's context is canceled")
}

type eventWithName string

func (e eventWithName) Name() string {
	return string(e)
}

type subscriber struct {
	name        string
	subscribeTo []string
}
