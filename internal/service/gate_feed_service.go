package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/observability"
)

// Departure event types.
const (
	DepartureEventApproved   = "departure.approved"
	DepartureEventCheckedOut = "departure.checked_out"
)

const (
	gateFeedBufferSize   = 32
	gateFeedPingInterval = 30 * time.Second
	gateFeedRecentEvents = 512
)

// DepartureEvent describes a committed change to a departure record.
type DepartureEvent struct {
	Type       string                `json:"type"`
	Departure  dto.DepartureResponse `json:"departure"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// DepartureEventPublisher receives departure events after the store commit.
// Publishing is best-effort and must not fail the originating request.
type DepartureEventPublisher interface {
	PublishDeparture(ctx context.Context, event DepartureEvent)
}

// GateFeedOptions describes a connected gate feed client.
type GateFeedOptions struct {
	UserID        string
	Role          models.Role
	CorrelationID string
}

// GateFeedService fans departure events out to connected gate screens, across
// nodes via Redis pub/sub and NATS when configured.
type GateFeedService interface {
	DepartureEventPublisher
	Subscribe() (<-chan DepartureEvent, func())
	ServeConnection(conn *websocket.Conn, opts GateFeedOptions)
	Start(ctx context.Context) error
}

type gateFeedService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
	mu           sync.RWMutex
	subscribers  map[chan DepartureEvent]struct{}
	relayed      *recentIDs
}

// gateFeedEnvelope is the cross-node wire format. ID is shared by the copies
// sent over each transport so receivers deliver the event once.
type gateFeedEnvelope struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Event  DepartureEvent `json:"event"`
}

// recentIDs remembers the last limit ids seen.
type recentIDs struct {
	mu    sync.Mutex
	limit int
	seen  map[string]struct{}
	order []string
}

func newRecentIDs(limit int) *recentIDs {
	return &recentIDs{limit: limit, seen: make(map[string]struct{}, limit)}
}

// add reports whether id was new.
func (r *recentIDs) add(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[id]; ok {
		return false
	}
	if len(r.order) >= r.limit {
		delete(r.seen, r.order[0])
		r.order = r.order[1:]
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)
	return true
}

// NewGateFeedService constructs the gate feed. redisClient and natsConn are optional.
func NewGateFeedService(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) GateFeedService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":departures"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".departures"
	}

	return &gateFeedService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "gate_feed_service").Logger(),
		nodeID:       uuid.NewString(),
		subscribers:  make(map[chan DepartureEvent]struct{}),
		relayed:      newRecentIDs(gateFeedRecentEvents),
	}
}

// Start subscribes to the cross-node transports. The Redis subscription is
// confirmed before Start returns; consumption stops when ctx is done.
func (s *gateFeedService) Start(ctx context.Context) error {
	if s.redis != nil && s.redisChannel != "" {
		pubsub := s.redis.Subscribe(ctx, s.redisChannel)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return err
		}
		go s.consumeRedis(ctx, pubsub)
	}

	if s.nats != nil && s.natsSubject != "" {
		sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
			s.handleEnvelope(msg.Data)
		})
		if err != nil {
			return err
		}
		go func() {
			<-ctx.Done()
			if err := sub.Drain(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to drain gate feed nats subscription")
			}
		}()
	}

	return nil
}

func (s *gateFeedService) PublishDeparture(ctx context.Context, event DepartureEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	s.broadcast(event, "local")

	payload, err := json.Marshal(gateFeedEnvelope{ID: uuid.NewString(), Source: s.nodeID, Event: event})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode departure event")
		return
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish departure event to redis")
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish departure event to nats")
		}
	}
}

func (s *gateFeedService) Subscribe() (<-chan DepartureEvent, func()) {
	channel := make(chan DepartureEvent, gateFeedBufferSize)

	s.mu.Lock()
	s.subscribers[channel] = struct{}{}
	s.mu.Unlock()
	observability.GateFeedClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, channel)
			s.mu.Unlock()
			observability.GateFeedClients().Dec()
		})
	}

	return channel, cleanup
}

// ServeConnection streams departure events to conn until the client goes away.
// Inbound messages are ignored; reading only detects disconnects.
func (s *gateFeedService) ServeConnection(conn *websocket.Conn, opts GateFeedOptions) {
	events, cleanup := s.Subscribe()
	defer cleanup()

	logger := s.logger.With().
		Str("user_id", opts.UserID).
		Str("role", opts.Role.String()).
		Str("correlation_id", opts.CorrelationID).
		Logger()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug().Err(err).Msg("gate feed read loop ended")
				return
			}
		}
	}()

	ticker := time.NewTicker(gateFeedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-events:
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("gate feed write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				logger.Debug().Err(err).Msg("gate feed ping failed")
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *gateFeedService) broadcast(event DepartureEvent, origin string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for subscriber := range s.subscribers {
		select {
		case subscriber <- event:
		default:
			s.logger.Warn().Str("type", event.Type).Msg("dropping departure event for slow gate feed client")
		}
	}

	observability.GateFeedEvents().WithLabelValues(event.Type, origin).Inc()
}

func (s *gateFeedService) consumeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			s.logger.Error().Err(err).Msg("gate feed redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *gateFeedService) handleEnvelope(payload []byte) {
	var envelope gateFeedEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid departure event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}
	if envelope.ID != "" && !s.relayed.add(envelope.ID) {
		return
	}

	s.broadcast(envelope.Event, "remote")
}
