package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/observability"
)

const (
	// EventInsert announces a newly created submission.
	EventInsert = "INSERT"
	// EventUpdate announces a status or score change on a submission.
	EventUpdate = "UPDATE"

	feedRedisTTL       = 30 * time.Minute
	feedSendBufferSize = 32
)

// SubmissionEvent is the payload fanned out to feed subscribers whenever a
// submission changes.
type SubmissionEvent struct {
	Type       string                 `json:"type"`
	ExamID     uint                   `json:"exam_id"`
	Submission dto.SubmissionResponse `json:"submission"`
	OccurredAt time.Time              `json:"occurred_at"`
	Source     string                 `json:"source,omitempty"`
}

// SubmissionBroadcaster fans submission events out to connected clients and
// to peer nodes.
type SubmissionBroadcaster interface {
	Publish(ctx context.Context, event SubmissionEvent) error
}

// FeedConnectionOptions wraps metadata extracted during the HTTP upgrade.
type FeedConnectionOptions struct {
	UserID        string
	ExamID        uint
	CorrelationID string
	Context       context.Context
}

// RealtimeService manages websocket submission-feed connections.
type RealtimeService interface {
	SubmissionBroadcaster
	ServeConnection(conn *websocket.Conn, opts FeedConnectionOptions)
	Start(ctx context.Context)
}

type realtimeService struct {
	redis       *redis.Client
	redisStream string
	redisCache  string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	hub         *feedHub
	nodeID      string
}

// feedHub tracks active feed clients grouped by exam.
type feedHub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*feedClient]struct{}
	log   zerolog.Logger
}

type feedClient struct {
	conn    *websocket.Conn
	send    chan SubmissionEvent
	options FeedConnectionOptions
	service *realtimeService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context
}

// NewRealtimeService creates the submission feed service.
func NewRealtimeService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) RealtimeService {
	hub := &feedHub{
		rooms: make(map[uint]map[*feedClient]struct{}),
		log:   logger.With().Str("component", "feed_hub").Logger(),
	}

	streamChannel := ""
	cachePrefix := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":submissions"
		cachePrefix = channelBase + ":submissions:last"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".submissions"
	}

	return &realtimeService{
		redis:       redisClient,
		redisStream: streamChannel,
		redisCache:  cachePrefix,
		nats:        natsConn,
		natsSubject: natsSubject,
		logger:      logger.With().Str("component", "realtime_service").Logger(),
		hub:         hub,
		nodeID:      uuid.NewString(),
	}
}

func (s *realtimeService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *realtimeService) ServeConnection(conn *websocket.Conn, opts FeedConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &feedClient{
		conn:    conn,
		send:    make(chan SubmissionEvent, feedSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	s.hub.register(client)
	observability.FeedConnectionsTotal().Inc()

	if last := s.fetchLastEvent(baseCtx, opts.ExamID); last != nil {
		select {
		case client.send <- *last:
		default:
			s.logger.Debug().Uint("exam_id", opts.ExamID).Msg("dropping cached feed event due to slow consumer")
		}
	}

	go client.writer()
	client.reader()
}

// Publish delivers the event to local subscribers and relays it to peer nodes
// via redis and NATS.
func (s *realtimeService) Publish(ctx context.Context, event SubmissionEvent) error {
	event.Source = s.nodeID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	observability.SubmissionEventsTotal().WithLabelValues(event.Type).Inc()
	s.hub.broadcast(event.ExamID, event)
	s.cacheLastEvent(ctx, event)

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *realtimeService) cacheLastEvent(ctx context.Context, event SubmissionEvent) {
	if s.redis == nil || s.redisCache == "" {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal feed event for cache")
		return
	}

	key := fmt.Sprintf("%s:%d", s.redisCache, event.ExamID)
	if err := s.redis.Set(ctx, key, payload, feedRedisTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache feed event")
	}
}

func (s *realtimeService) fetchLastEvent(ctx context.Context, examID uint) *SubmissionEvent {
	if s.redis == nil || s.redisCache == "" {
		return nil
	}

	key := fmt.Sprintf("%s:%d", s.redisCache, examID)
	result, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var event SubmissionEvent
	if err := json.Unmarshal([]byte(result), &event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached feed event")
		return nil
	}

	return &event
}

func (s *realtimeService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("feed redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *realtimeService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "educasol-feed", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats feed subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain feed nats subscription")
		}
	}()
}

func (s *realtimeService) handleEvent(data []byte) {
	var event SubmissionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid feed event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	observability.SubmissionEventsTotal().WithLabelValues(event.Type).Inc()
	s.hub.broadcast(event.ExamID, event)
}

func (h *feedHub) register(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	examID := client.options.ExamID
	if _, exists := h.rooms[examID]; !exists {
		h.rooms[examID] = make(map[*feedClient]struct{})
	}
	h.rooms[examID][client] = struct{}{}
	h.log.Debug().Uint("exam_id", examID).Str("user_id", client.options.UserID).Msg("feed client connected")
}

func (h *feedHub) unregister(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	examID := client.options.ExamID
	if clients, ok := h.rooms[examID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, examID)
		}
	}
	h.log.Debug().Uint("exam_id", examID).Str("user_id", client.options.UserID).Msg("feed client disconnected")
}

func (h *feedHub) broadcast(examID uint, event SubmissionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Exam-scoped subscribers plus the firehose room at exam 0.
	for _, room := range []uint{examID, 0} {
		for client := range h.rooms[room] {
			select {
			case client.send <- event:
			default:
				h.log.Warn().Uint("exam_id", examID).Str("user_id", client.options.UserID).Msg("dropping feed event for slow client")
			}
		}
		if examID == 0 {
			break
		}
	}
}

// The feed is one-directional. The reader only drains control frames until
// the peer disconnects.
func (c *feedClient) reader() {
	defer c.close()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.service.logger.Debug().Err(err).Msg("feed read loop ended")
			return
		}
	}
}

func (c *feedClient) writer() {
	defer c.close()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.service.logger.Debug().Err(err).Msg("feed write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("feed ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}

// ApplyEvent reconciles a submission list with a feed event. Inserts that
// reference an already known submission degrade to updates, and updates for
// unknown submissions append, so replaying events is idempotent.
func ApplyEvent(submissions []dto.SubmissionResponse, event SubmissionEvent) []dto.SubmissionResponse {
	for i := range submissions {
		if submissions[i].ID == event.Submission.ID {
			updated := make([]dto.SubmissionResponse, len(submissions))
			copy(updated, submissions)
			updated[i] = event.Submission
			return updated
		}
	}

	updated := make([]dto.SubmissionResponse, 0, len(submissions)+1)
	updated = append(updated, event.Submission)
	updated = append(updated, submissions...)
	return updated
}
