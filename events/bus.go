package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/libs/pubsub"
	"github.com/tendermint/tendermint/libs/pubsub/query"

	"surety-node/modules"
)

// TypeKey is the composite key every published event carries its type under.
const TypeKey = "surety.event"

const (
	DefaultBufferCapacity = 100
	DefaultOutCapacity    = 100
)

// Bus fans contract events out to subscribers. It implements modules.Publisher.
type Bus struct {
	server *pubsub.Server
	logger log.Logger
}

var _ modules.Publisher = (*Bus)(nil)

func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Bus{
		server: pubsub.NewServer(pubsub.BufferCapacity(capacity)),
		logger: log.NewNopLogger(),
	}
}

func (bus *Bus) SetLogger(logger log.Logger) {
	bus.logger = logger
	bus.server.SetLogger(logger)
}

func (bus *Bus) Start() error { return bus.server.Start() }

func (bus *Bus) Stop() error { return bus.server.Stop() }

// Publish never returns an error to the contract: a failed delivery is logged and dropped.
func (bus *Bus) Publish(event modules.Event) {
	if err := bus.server.PublishWithEvents(context.Background(), event, Tags(event)); err != nil {
		bus.logger.Error("Failed to publish event", "type", event.EventType(), "err", err)
	}
}

// Tags indexes an event for queries: its type under TypeKey and every attribute as
// "<type>.<key>", e.g. "OracleRequest.index".
func Tags(event modules.Event) map[string][]string {
	tags := map[string][]string{TypeKey: {event.EventType()}}
	for _, attribute := range event.Attributes() {
		key := event.EventType() + "." + attribute.Key
		tags[key] = append(tags[key], attribute.Value)
	}
	return tags
}

// QueryFor matches events of one type, or every event when eventType is empty.
func QueryFor(eventType string) pubsub.Query {
	if eventType == "" {
		return query.Empty{}
	}
	return query.MustParse(fmt.Sprintf("%s = '%s'", TypeKey, eventType))
}

// TypesQuery matches events of any of the listed types.
type TypesQuery []string

var _ pubsub.Query = TypesQuery(nil)

func QueryForAny(eventTypes ...string) TypesQuery { return TypesQuery(eventTypes) }

func (q TypesQuery) Matches(tags map[string][]string) (bool, error) {
	for _, eventType := range tags[TypeKey] {
		for _, wanted := range q {
			if eventType == wanted {
				return true, nil
			}
		}
	}
	return false, nil
}

func (q TypesQuery) String() string {
	conditions := make([]string, len(q))
	for i, eventType := range q {
		conditions[i] = fmt.Sprintf("%s = '%s'", TypeKey, eventType)
	}
	return strings.Join(conditions, " OR ")
}

// Subscribe registers a new client for events matching q.
func (bus *Bus) Subscribe(ctx context.Context, q pubsub.Query) (*Subscription, error) {
	client := uuid.New().String()
	subscription, err := bus.server.Subscribe(ctx, client, q, DefaultOutCapacity)
	if err != nil {
		return nil, err
	}
	bus.logger.Debug("Subscribed", "client", client, "query", q.String())
	return &Subscription{client: client, query: q, bus: bus, subscription: subscription}, nil
}

var ErrSubscriptionClosed = errors.New("subscription closed")

// ErrOutOfCapacity cancels a subscriber that fell more than its buffer behind.
var ErrOutOfCapacity = pubsub.ErrOutOfCapacity

type Subscription struct {
	client       string
	query        pubsub.Query
	bus          *Bus
	subscription *pubsub.Subscription
}

func (s *Subscription) ID() string { return s.client }

// Next blocks until an event arrives, the subscription is cancelled or ctx is done.
func (s *Subscription) Next(ctx context.Context) (modules.Event, error) {
	select {
	case message := <-s.subscription.Out():
		event, ok := message.Data().(modules.Event)
		if !ok {
			return nil, fmt.Errorf("unexpected message %T", message.Data())
		}
		return event, nil
	case <-s.subscription.Cancelled():
		if err := s.subscription.Err(); err != nil && !errors.Is(err, pubsub.ErrUnsubscribed) {
			return nil, err
		}
		return nil, ErrSubscriptionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Subscription) Close(ctx context.Context) error {
	err := s.bus.server.Unsubscribe(ctx, s.client, s.query)
	if errors.Is(err, pubsub.ErrSubscriptionNotFound) {
		return nil
	}
	return err
}
