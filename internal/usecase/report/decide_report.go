package report

import (
	"context"
	"strings"
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
	"github.com/ignatzorin/market-moderation/internal/usecase/listing"
	"github.com/ignatzorin/market-moderation/internal/validation"
)

// Действия над пользователями выполняет другой сервис, здесь они не поддерживаются.
var unsupportedCascades = map[string]bool{
	"suspend_user":   true,
	"warn_user":      true,
	"remove_listing": true,
}

// CascadeInput - дополнительный переход объявления, выполняемый при решении жалобы.
// Действие проходит через движок объявлений от имени модератора и проверяется
// той же таблицей переходов.
type CascadeInput struct {
	Action string
	Reason string
}

type DecideReportInput struct {
	Notes   string
	Cascade *CascadeInput
}

type DecideReportUseCase struct {
	reports   repository.ReportRepository
	engine    *listing.Engine
	locks     *keylock.Locker
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewDecideReportUseCase(reports repository.ReportRepository, engine *listing.Engine, locks *keylock.Locker, publisher events.Publisher, m *metrics.Metrics) *DecideReportUseCase {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &DecideReportUseCase{
		reports:   reports,
		engine:    engine,
		locks:     locks,
		publisher: publisher,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Resolve переводит жалобу в RESOLVED и при необходимости выполняет каскадный переход объявления.
func (uc *DecideReportUseCase) Resolve(ctx context.Context, reportID uuid.UUID, moderator valueobject.Actor, input DecideReportInput) (*entity.Report, error) {
	r, err := uc.decide(ctx, reportID, moderator, entity.ReportActionResolve, input)
	uc.metrics.ObserveReportDecision(entity.ReportActionResolve, err)
	return r, err
}

// Dismiss переводит жалобу в DISMISSED. Каскад при отклонении жалобы не допускается.
func (uc *DecideReportUseCase) Dismiss(ctx context.Context, reportID uuid.UUID, moderator valueobject.Actor, input DecideReportInput) (*entity.Report, error) {
	r, err := uc.decide(ctx, reportID, moderator, entity.ReportActionDismiss, input)
	uc.metrics.ObserveReportDecision(entity.ReportActionDismiss, err)
	return r, err
}

func (uc *DecideReportUseCase) decide(ctx context.Context, reportID uuid.UUID, moderator valueobject.Actor, action string, input DecideReportInput) (*entity.Report, error) {
	if !moderator.IsModerator() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateModerationText("комментарий к решению", input.Notes, validation.MaxResolutionNotesLength); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	cascade, err := parseCascade(action, input.Cascade)
	if err != nil {
		return nil, err
	}

	unlock, err := uc.locks.Lock(ctx, reportID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r, err := uc.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := r.CheckDecidable(action); err != nil {
		return nil, err
	}

	log := logger.Log.WithFields(logrus.Fields{
		"report_id":    reportID,
		"action":       action,
		"moderator_id": moderator.ID,
	})

	if cascade != nil {
		if r.EntityType != valueobject.ReportedEntityListing {
			return nil, apperror.Validation("каскадное действие возможно только для жалобы на объявление")
		}
		if _, err := uc.engine.ApplyTransition(ctx, r.EntityID, moderator, *cascade); err != nil {
			return nil, err
		}
		log.WithField("cascade", cascade.Action).Info("каскадный переход объявления выполнен")
	}

	now := uc.now()
	if action == entity.ReportActionResolve {
		err = r.Resolve(moderator, input.Notes, now)
	} else {
		err = r.Dismiss(moderator, input.Notes, now)
	}
	if err != nil {
		return nil, err
	}

	if err := uc.reports.Save(ctx, r); err != nil {
		if !apperror.IsConflict(err) {
			return nil, err
		}
		// жалобу успели рассмотреть в другом экземпляре сервиса
		fresh, findErr := uc.reports.FindByID(ctx, reportID)
		if findErr != nil {
			return nil, findErr
		}
		if decidableErr := fresh.CheckDecidable(action); decidableErr != nil {
			return nil, decidableErr
		}
		return nil, err
	}

	log.WithField("status", r.Status).Info("жалоба рассмотрена")
	uc.publishDecision(ctx, r, moderator, action)
	return r, nil
}

func parseCascade(action string, in *CascadeInput) (*entity.TransitionRequest, error) {
	if in == nil || strings.TrimSpace(in.Action) == "" {
		return nil, nil
	}
	if action == entity.ReportActionDismiss {
		return nil, apperror.Validation("каскадное действие недоступно при отклонении жалобы")
	}

	name := strings.ToLower(strings.TrimSpace(in.Action))
	if unsupportedCascades[name] {
		return nil, apperror.Validation("каскадное действие не поддерживается: " + in.Action)
	}
	listingAction, err := entity.NewListingAction(name)
	if err != nil {
		return nil, err
	}
	// модератор от своего имени может только одобрить или отклонить объявление
	if listingAction != entity.ActionApprove && listingAction != entity.ActionReject {
		return nil, apperror.Validation("каскадное действие не поддерживается: " + in.Action)
	}
	return &entity.TransitionRequest{Action: listingAction, Reason: in.Reason}, nil
}

func (uc *DecideReportUseCase) publishDecision(ctx context.Context, r *entity.Report, moderator valueobject.Actor, action string) {
	eventType := events.ReportResolved
	if action == entity.ReportActionDismiss {
		eventType = events.ReportDismissed
	}
	reportID := r.ID
	e := events.Event{
		Type:       eventType,
		ReportID:   &reportID,
		From:       string(valueobject.ReportStatusPending),
		To:         string(r.Status),
		Action:     action,
		ActorID:    moderator.ID,
		ActorRole:  string(moderator.Role),
		Reason:     r.ResolutionNotes,
		OccurredAt: *r.ResolvedAt,
	}
	if r.EntityType == valueobject.ReportedEntityListing {
		listingID := r.EntityID
		e.ListingID = &listingID
	}
	_ = uc.publisher.Publish(ctx, e)
}
