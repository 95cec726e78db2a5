package entity

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-moderation/internal/domain/valueobject"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
	"github.com/ignatzorin/market-moderation/internal/validation"
)

type ListingAction string

const (
	ActionApprove    ListingAction = "approve"
	ActionReject     ListingAction = "reject"
	ActionDeactivate ListingAction = "deactivate"
	ActionReactivate ListingAction = "reactivate"
	ActionResubmit   ListingAction = "resubmit"
	ActionRecordSale ListingAction = "record_sale"
)

// authority - кто вправе запросить действие.
type authority int

const (
	authorityOwner authority = iota
	authorityModerator
	authoritySystem
)

var actionAuthority = map[ListingAction]authority{
	ActionApprove:    authorityModerator,
	ActionReject:     authorityModerator,
	ActionDeactivate: authorityOwner,
	ActionReactivate: authorityOwner,
	ActionResubmit:   authorityOwner,
	ActionRecordSale: authoritySystem,
}

type transitionRule struct {
	From   valueobject.ListingStatus
	Action ListingAction
	To     valueobject.ListingStatus
}

// transitionTable - единственное место, где описаны допустимые переходы объявления.
var transitionTable = []transitionRule{
	{valueobject.ListingStatusPending, ActionApprove, valueobject.ListingStatusActive},
	{valueobject.ListingStatusPending, ActionReject, valueobject.ListingStatusRejected},
	{valueobject.ListingStatusActive, ActionDeactivate, valueobject.ListingStatusInactive},
	{valueobject.ListingStatusActive, ActionRecordSale, valueobject.ListingStatusSold},
	{valueobject.ListingStatusInactive, ActionReactivate, valueobject.ListingStatusPending},
	{valueobject.ListingStatusInactive, ActionDeactivate, valueobject.ListingStatusInactive},
	{valueobject.ListingStatusRejected, ActionDeactivate, valueobject.ListingStatusInactive},
	{valueobject.ListingStatusRejected, ActionResubmit, valueobject.ListingStatusPending},
}

func NewListingAction(action string) (ListingAction, error) {
	a := ListingAction(strings.ToLower(strings.TrimSpace(action)))
	if _, ok := actionAuthority[a]; !ok {
		return "", apperror.Validation("неизвестное действие: " + action)
	}
	return a, nil
}

// AllowedActions возвращает действия, допустимые из статуса, в порядке таблицы.
func AllowedActions(from valueobject.ListingStatus) []string {
	var actions []string
	for _, rule := range transitionTable {
		if rule.From == from {
			actions = append(actions, string(rule.Action))
		}
	}
	return actions
}

func findRule(from valueobject.ListingStatus, action ListingAction) (transitionRule, bool) {
	for _, rule := range transitionTable {
		if rule.From == from && rule.Action == action {
			return rule, true
		}
	}
	return transitionRule{}, false
}

// RequiresOwner сообщает, что действие выполняет только владелец объявления.
func RequiresOwner(action ListingAction) bool {
	return actionAuthority[action] == authorityOwner
}

// CanRequest проверяет полномочия актора на действие, не глядя на конкретное объявление
// (кроме владения). Вызывается до проверки таблицы, чтобы не раскрывать статус посторонним.
func CanRequest(actor valueobject.Actor, action ListingAction) bool {
	switch actionAuthority[action] {
	case authorityModerator:
		return actor.IsModerator()
	case authoritySystem:
		return actor.IsSystem()
	default:
		return actor.ID != uuid.Nil && !actor.IsSystem()
	}
}

// ListingFields - редактируемые продавцом поля объявления.
type ListingFields struct {
	Title             string
	Description       string
	Price             valueobject.Price
	Quantity          int
	CategoryID        uuid.UUID
	Type              valueobject.ListingType
	OriginDescription string
}

func (f ListingFields) Validate() error {
	if err := validation.ValidateListingTitle(f.Title); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := validation.ValidateListingDescription(f.Description); err != nil {
		return apperror.Validation(err.Error())
	}
	if !f.Price.Amount.IsPositive() {
		return apperror.Validation("цена должна быть больше нуля")
	}
	if err := validation.ValidateLength("единица цены", f.Price.Unit, 0, validation.MaxPriceUnitLength); err != nil {
		return apperror.Validation(err.Error())
	}
	if f.Quantity < 1 {
		return apperror.Validation("количество должно быть не меньше одного")
	}
	if f.Quantity > math.MaxInt32 {
		return apperror.Validation("слишком большое количество")
	}
	if f.CategoryID == uuid.Nil {
		return apperror.Validation("категория обязательна")
	}
	if f.Type != valueobject.ListingTypeMaterial && f.Type != valueobject.ListingTypeProduct {
		return apperror.Validation("тип объявления должен быть MATERIAL или PRODUCT")
	}
	if err := validation.ValidateLength("описание происхождения", f.OriginDescription, 0, validation.MaxOriginDescriptionLength); err != nil {
		return apperror.Validation(err.Error())
	}
	return nil
}

// HistoryEntry - неизменяемая запись журнала переходов.
type HistoryEntry struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	From      valueobject.ListingStatus // пусто для создания
	To        valueobject.ListingStatus
	Action    string
	ActorID   uuid.UUID
	ActorRole valueobject.Role
	Reason    *string // причина отклонения или заметка модератора
	CreatedAt time.Time
}

type ListingImage struct {
	ID        uuid.UUID
	ListingID uuid.UUID
	Path      string
	CreatedAt time.Time
}

type Listing struct {
	ID       uuid.UUID
	SellerID uuid.UUID
	ListingFields
	Status          valueobject.ListingStatus
	RejectionReason *string
	ModeratedBy     *uuid.UUID
	ModeratedAt     *time.Time
	ModerationNotes *string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Images []ListingImage

	history    []HistoryEntry
	newEntries []HistoryEntry
}

// TransitionRequest - действие над объявлением с полезной нагрузкой.
type TransitionRequest struct {
	Action       ListingAction
	Reason       string
	Notes        string
	Fields       *ListingFields
	QuantitySold int
}

// TransitionResult описывает, что произошло с объявлением.
type TransitionResult struct {
	From         valueobject.ListingStatus
	To           valueobject.ListingStatus
	Transitioned bool // статус прошёл по строке таблицы и записан в журнал
	Changed      bool // объявление нужно сохранить
}

func NewListing(sellerID uuid.UUID, fields ListingFields, now time.Time) (*Listing, error) {
	if sellerID == uuid.Nil {
		return nil, apperror.Validation("продавец обязателен")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	l := &Listing{
		ID:            uuid.New(),
		SellerID:      sellerID,
		ListingFields: fields,
		Status:        valueobject.ListingStatusPending,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	l.appendHistory(HistoryEntry{
		To:        valueobject.ListingStatusPending,
		Action:    "create",
		ActorID:   sellerID,
		ActorRole: valueobject.RoleSeller,
		CreatedAt: now,
	})
	return l, nil
}

func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l.SellerID == userID
}

// Apply проверяет действие по таблице переходов и применяет его.
func (l *Listing) Apply(actor valueobject.Actor, req TransitionRequest, now time.Time) (TransitionResult, error) {
	if !CanRequest(actor, req.Action) {
		return TransitionResult{}, apperror.ErrForbidden
	}
	if actionAuthority[req.Action] == authorityOwner && !l.IsOwnedBy(actor.ID) {
		return TransitionResult{}, apperror.ErrForbidden
	}

	rule, ok := findRule(l.Status, req.Action)
	if !ok {
		return TransitionResult{}, apperror.InvalidTransition(string(l.Status), string(req.Action), AllowedActions(l.Status))
	}

	result := TransitionResult{From: l.Status, To: rule.To}

	switch req.Action {
	case ActionApprove:
		l.markModerated(actor, now)
		l.RejectionReason = nil
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			l.ModerationNotes = &notes
		}
		l.moveTo(rule, actor, optional(req.Notes), now)

	case ActionReject:
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			return TransitionResult{}, apperror.Validation("причина отклонения обязательна")
		}
		l.markModerated(actor, now)
		l.RejectionReason = &reason
		l.moveTo(rule, actor, &reason, now)

	case ActionDeactivate:
		if rule.From == rule.To {
			result.To = l.Status
			return result, nil
		}
		l.RejectionReason = nil
		l.moveTo(rule, actor, nil, now)

	case ActionReactivate:
		l.moveTo(rule, actor, nil, now)

	case ActionResubmit:
		if req.Fields == nil {
			return TransitionResult{}, apperror.Validation("для повторной отправки нужны исправленные поля")
		}
		if err := req.Fields.Validate(); err != nil {
			return TransitionResult{}, err
		}
		l.ListingFields = *req.Fields
		l.RejectionReason = nil
		l.moveTo(rule, actor, nil, now)

	case ActionRecordSale:
		if req.QuantitySold <= 0 {
			return TransitionResult{}, apperror.Validation("количество проданного должно быть больше нуля")
		}
		if req.QuantitySold > l.Quantity {
			return TransitionResult{}, apperror.Validation("продано больше, чем есть в наличии")
		}
		l.Quantity -= req.QuantitySold
		l.UpdatedAt = now
		if l.Quantity > 0 {
			result.To = l.Status
			result.Changed = true
			return result, nil
		}
		l.moveTo(rule, actor, nil, now)
	}

	result.Transitioned = true
	result.Changed = true
	return result, nil
}

func (l *Listing) moveTo(rule transitionRule, actor valueobject.Actor, reason *string, now time.Time) {
	l.appendHistory(HistoryEntry{
		From:      rule.From,
		To:        rule.To,
		Action:    string(rule.Action),
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Reason:    reason,
		CreatedAt: now,
	})
	l.Status = rule.To
	l.UpdatedAt = now
}

func (l *Listing) markModerated(actor valueobject.Actor, now time.Time) {
	id := actor.ID
	at := now
	l.ModeratedBy = &id
	l.ModeratedAt = &at
}

func (l *Listing) appendHistory(entry HistoryEntry) {
	entry.ID = uuid.New()
	entry.ListingID = l.ID
	l.history = append(l.history, entry)
	l.newEntries = append(l.newEntries, entry)
}

// History возвращает копию журнала переходов.
func (l *Listing) History() []HistoryEntry {
	return append([]HistoryEntry(nil), l.history...)
}

// PendingHistory возвращает записи, добавленные с момента загрузки и ещё не сохранённые.
func (l *Listing) PendingHistory() []HistoryEntry {
	return append([]HistoryEntry(nil), l.newEntries...)
}

// MarkPersisted вызывается хранилищем после успешной записи.
func (l *Listing) MarkPersisted() {
	l.newEntries = nil
}

// HydrateHistory используется хранилищами при чтении объявления.
func (l *Listing) HydrateHistory(entries []HistoryEntry) {
	l.history = append([]HistoryEntry(nil), entries...)
	l.newEntries = nil
}

// Clone возвращает независимую копию объявления.
func (l *Listing) Clone() *Listing {
	c := *l
	c.RejectionReason = cloneString(l.RejectionReason)
	c.ModerationNotes = cloneString(l.ModerationNotes)
	if l.ModeratedBy != nil {
		id := *l.ModeratedBy
		c.ModeratedBy = &id
	}
	if l.ModeratedAt != nil {
		at := *l.ModeratedAt
		c.ModeratedAt = &at
	}
	c.Images = append([]ListingImage(nil), l.Images...)
	c.history = append([]HistoryEntry(nil), l.history...)
	c.newEntries = append([]HistoryEntry(nil), l.newEntries...)
	return &c
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
