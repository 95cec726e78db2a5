package listing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-moderation/internal/domain/entity"
	"github.com/ignatzorin/market-moderation/internal/domain/repository"
	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/infrastructure/events"
	"github.com/ignatzorin/market-moderation/internal/logger"
	"github.com/ignatzorin/market-moderation/internal/metrics"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/pkg/keylock"
)

// Engine - единственная точка изменения статуса объявления. Все действия продавца,
// модератора и системы проходят через ApplyTransition и таблицу переходов entity.Listing.
type Engine struct {
	listings  repository.ListingRepository
	locks     *keylock.Locker
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

type EngineOption func(*Engine)

func WithPublisher(p events.Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(listings repository.ListingRepository, locks *keylock.Locker, opts ...EngineOption) *Engine {
	e := &Engine{
		listings:  listings,
		locks:     locks,
		publisher: events.Noop{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyTransition проверяет и применяет действие над объявлением.
//
// Порядок проверок: полномочия роли, существование объявления, владение, таблица переходов.
// Одновременно для одного объявления выполняется только один переход. Если запись
// проиграла гонку (другой экземпляр сервиса успел изменить объявление), состояние
// перечитывается и действие проверяется заново: недопустимое действие возвращает
// InvalidTransition, допустимое - Conflict, повтор остаётся за вызывающим.
func (e *Engine) ApplyTransition(ctx context.Context, listingID uuid.UUID, actor valueobject.Actor, req entity.TransitionRequest) (*entity.Listing, error) {
	l, result, err := e.apply(ctx, listingID, actor, req)
	log := logger.WithActor(actor.ID.String(), string(actor.Role)).WithFields(logrus.Fields{
		"listing_id": listingID,
		"action":     req.Action,
	})
	if err != nil {
		e.metrics.ObserveTransitionFailure(string(req.Action), err)
		log.WithError(err).Info("переход объявления отклонён")
		return nil, err
	}

	if result.Transitioned {
		e.metrics.ObserveTransition(string(req.Action), string(result.From), string(result.To))
		log.WithFields(logrus.Fields{"from": result.From, "to": result.To}).Info("статус объявления изменён")
		e.publishTransition(ctx, l, actor, req, result)
	}
	return l, nil
}

func (e *Engine) apply(ctx context.Context, listingID uuid.UUID, actor valueobject.Actor, req entity.TransitionRequest) (*entity.Listing, entity.TransitionResult, error) {
	if _, err := entity.NewListingAction(string(req.Action)); err != nil {
		return nil, entity.TransitionResult{}, err
	}
	if !entity.CanRequest(actor, req.Action) {
		return nil, entity.TransitionResult{}, apperror.ErrForbidden
	}

	unlock, err := e.locks.Lock(ctx, listingID)
	if err != nil {
		return nil, entity.TransitionResult{}, err
	}
	defer unlock()

	l, err := e.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, entity.TransitionResult{}, hideMissing(err, actor, req.Action)
	}

	now := e.now()
	result, err := l.Apply(actor, req, now)
	if err != nil {
		return nil, entity.TransitionResult{}, err
	}
	if !result.Changed {
		return l, result, nil
	}

	err = e.listings.Save(ctx, l)
	if err == nil {
		return l, result, nil
	}
	if !apperror.IsConflict(err) {
		return nil, entity.TransitionResult{}, err
	}

	fresh, findErr := e.listings.FindByID(ctx, listingID)
	if findErr != nil {
		return nil, entity.TransitionResult{}, hideMissing(findErr, actor, req.Action)
	}
	if _, revalidateErr := fresh.Apply(actor, req, now); revalidateErr != nil {
		return nil, entity.TransitionResult{}, revalidateErr
	}
	return nil, entity.TransitionResult{}, apperror.ErrConflict
}

func (e *Engine) publishTransition(ctx context.Context, l *entity.Listing, actor valueobject.Actor, req entity.TransitionRequest, result entity.TransitionResult) {
	listingID := l.ID
	sellerID := l.SellerID
	var reason *string
	if history := l.History(); len(history) > 0 {
		reason = history[len(history)-1].Reason
	}

	_ = e.publisher.Publish(ctx, events.Event{
		Type:       events.ListingTransitioned,
		ListingID:  &listingID,
		SellerID:   &sellerID,
		From:       string(result.From),
		To:         string(result.To),
		Action:     string(req.Action),
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		Reason:     reason,
		OccurredAt: l.UpdatedAt,
	})
}

// hideMissing отвечает Forbidden вместо NotFound на действия владельца, если вызывающий
// не модератор: продавец не должен узнавать, существует ли чужое объявление.
func hideMissing(err error, actor valueobject.Actor, action entity.ListingAction) error {
	if apperror.IsNotFound(err) && entity.RequiresOwner(action) && !actor.IsModerator() {
		return apperror.ErrForbidden
	}
	return err
}
