// Package events publishes recruiting domain events to Kafka and consumes
// them in background workers.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gartstein/recruit/internal/recruit/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CandidateIngested  EventType = "candidate_ingested"
	MatchScored        EventType = "match_scored"
	MatchStatusChanged EventType = "match_status_changed"
)

// Event is keyed by candidate so that all events of one candidate land on
// the same partition.
type Event struct {
	Type           EventType          `json:"type"`
	OrganizationID uuid.UUID          `json:"organizationId"`
	CandidateID    uuid.UUID          `json:"candidateId"`
	PostID         *uuid.UUID         `json:"postId,omitempty"`
	MatchID        *uuid.UUID         `json:"matchId,omitempty"`
	Score          int                `json:"score,omitempty"`
	Status         models.MatchStatus `json:"status,omitempty"`
	OccurredAt     time.Time          `json:"occurredAt"`
}

// NewMatchEvent builds a match scoped event.
func NewMatchEvent(eventType EventType, m *models.Match) Event {
	postID, matchID := m.PostID, m.ID
	return Event{
		Type:           eventType,
		OrganizationID: m.OrganizationID,
		CandidateID:    m.CandidateID,
		PostID:         &postID,
		MatchID:        &matchID,
		Score:          m.Score,
		Status:         m.Status,
		OccurredAt:     time.Now().UTC(),
	}
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	loop      sync.WaitGroup
}

func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	// Create topic if it doesn't exist
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := newProducer(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}, logger)
	p.start()
	return p, nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, 1000),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}
}

// Produce enqueues event without blocking. The event is dropped when the
// queue is full.
func (p *Producer) Produce(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("candidate_id", event.CandidateID.String()),
		)
	}
}

// CandidateIngested hands scoring of a new candidate to the scorer worker.
func (p *Producer) CandidateIngested(_ context.Context, orgID, candidateID uuid.UUID) {
	p.Produce(Event{Type: CandidateIngested, OrganizationID: orgID, CandidateID: candidateID})
}

func (p *Producer) start() {
	p.loop.Add(1)
	go func() {
		defer p.loop.Done()
		p.eventLoop()
	}()
}

// eventLoop sends queued events until Close, then flushes what is left.
func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			for {
				select {
				case event := <-p.events:
					p.sendEvent(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("candidate_id", event.CandidateID.String()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.CandidateID.String()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("candidate_id", event.CandidateID.String()),
		)
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	p.loop.Wait()
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
