package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-moderation/internal/logger"
)

const (
	ListingCreated      = "listing.created"
	ListingTransitioned = "listing.transitioned"
	ReportCreated       = "report.created"
	ReportResolved      = "report.resolved"
	ReportDismissed     = "report.dismissed"
)

// Event - уведомление о состоявшемся изменении. Публикуется после записи в хранилище;
// потеря события не откатывает изменение.
type Event struct {
	Type       string     `json:"type"`
	ListingID  *uuid.UUID `json:"listing_id,omitempty"`
	ReportID   *uuid.UUID `json:"report_id,omitempty"`
	SellerID   *uuid.UUID `json:"seller_id,omitempty"`
	From       string     `json:"from,omitempty"`
	To         string     `json:"to,omitempty"`
	Action     string     `json:"action,omitempty"`
	ActorID    uuid.UUID  `json:"actor_id"`
	ActorRole  string     `json:"actor_role"`
	Reason     *string    `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop ничего не публикует.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// RedisPublisher публикует события в канал Redis Pub/Sub для других сервисов маркетплейса.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: не удалось сериализовать событие: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("events: публикация в %s: %w", p.channel, err)
	}
	return nil
}

// Notifier - получатель событий в реальном времени (WebSocket хаб).
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
	BroadcastToModerators(event string, data any) error
}

// HubPublisher раздаёт события подключённым клиентам: продавцу - о его объявлении,
// модераторам - всё, что меняет очередь.
type HubPublisher struct {
	notifier Notifier
}

func NewHubPublisher(notifier Notifier) *HubPublisher {
	return &HubPublisher{notifier: notifier}
}

func (p *HubPublisher) Publish(_ context.Context, e Event) error {
	if e.SellerID != nil && *e.SellerID != e.ActorID {
		if err := p.notifier.BroadcastToUser(*e.SellerID, e.Type, e); err != nil {
			return err
		}
	}
	return p.notifier.BroadcastToModerators(e.Type, e)
}

// Fanout рассылает событие всем публикаторам. Ошибки только логируются:
// событие не должно влиять на результат операции.
type Fanout struct {
	publishers []Publisher
	timeout    time.Duration
}

func NewFanout(timeout time.Duration, publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers, timeout: timeout}
}

func (f *Fanout) Publish(ctx context.Context, e Event) error {
	// Операция уже записана; отмена запроса клиентом не должна отменять рассылку.
	ctx = context.WithoutCancel(ctx)
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	for _, p := range f.publishers {
		if err := p.Publish(ctx, e); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"event":     e.Type,
				"publisher": fmt.Sprintf("%T", p),
			}).WithError(err).Warn("не удалось опубликовать событие")
		}
	}
	return nil
}
