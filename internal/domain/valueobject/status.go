package valueobject

import (
	"strings"

	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "PENDING"
	ListingStatusActive   ListingStatus = "ACTIVE"
	ListingStatusRejected ListingStatus = "REJECTED"
	ListingStatusInactive ListingStatus = "INACTIVE"
	ListingStatusSold     ListingStatus = "SOLD"
)

// AllListingStatuses перечисляет статусы в порядке отображения.
var AllListingStatuses = []ListingStatus{
	ListingStatusPending,
	ListingStatusActive,
	ListingStatusRejected,
	ListingStatusInactive,
	ListingStatusSold,
}

func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusPending, ListingStatusActive, ListingStatusRejected, ListingStatusInactive, ListingStatusSold:
		return true
	}
	return false
}

func (s ListingStatus) String() string {
	return string(s)
}

// NewListingStatus принимает статус в любом регистре и возвращает каноничное значение.
func NewListingStatus(status string) (ListingStatus, error) {
	s := ListingStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус объявления: " + status)
	}
	return s, nil
}

// ListingBucket - вкладка продавца, объединяющая несколько статусов.
type ListingBucket string

const (
	BucketActive   ListingBucket = "active"
	BucketPending  ListingBucket = "pending"
	BucketInactive ListingBucket = "inactive"
)

var bucketStatuses = map[ListingBucket][]ListingStatus{
	BucketActive:   {ListingStatusActive, ListingStatusSold},
	BucketPending:  {ListingStatusPending},
	BucketInactive: {ListingStatusRejected, ListingStatusInactive},
}

// Bucket возвращает вкладку, к которой относится статус.
// Проданное объявление остаётся в активной линии.
func (s ListingStatus) Bucket() ListingBucket {
	for bucket, statuses := range bucketStatuses {
		for _, st := range statuses {
			if st == s {
				return bucket
			}
		}
	}
	return ""
}

// Statuses возвращает статусы вкладки. Используется и для подсчётов, и для фильтрации списков.
func (b ListingBucket) Statuses() []ListingStatus {
	return append([]ListingStatus(nil), bucketStatuses[b]...)
}

func NewListingBucket(tab string) (ListingBucket, error) {
	b := ListingBucket(strings.ToLower(strings.TrimSpace(tab)))
	if _, ok := bucketStatuses[b]; !ok {
		return "", apperror.Validation("некорректная вкладка: " + tab)
	}
	return b, nil
}

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "PENDING"
	ReportStatusResolved  ReportStatus = "RESOLVED"
	ReportStatusDismissed ReportStatus = "DISMISSED"
)

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

// IsTerminal сообщает, что жалоба уже рассмотрена и больше не меняется.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusResolved || s == ReportStatusDismissed
}

func NewReportStatus(status string) (ReportStatus, error) {
	s := ReportStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !s.IsValid() {
		return "", apperror.Validation("некорректный статус жалобы: " + status)
	}
	return s, nil
}

type ListingType string

const (
	ListingTypeMaterial ListingType = "MATERIAL"
	ListingTypeProduct  ListingType = "PRODUCT"
)

func NewListingType(t string) (ListingType, error) {
	lt := ListingType(strings.ToUpper(strings.TrimSpace(t)))
	if lt != ListingTypeMaterial && lt != ListingTypeProduct {
		return "", apperror.Validation("тип объявления должен быть MATERIAL или PRODUCT")
	}
	return lt, nil
}

type ReportedEntityType string

const (
	ReportedEntityListing ReportedEntityType = "listing"
	ReportedEntityUser    ReportedEntityType = "user"
	ReportedEntityReview  ReportedEntityType = "review"
)

func NewReportedEntityType(t string) (ReportedEntityType, error) {
	et := ReportedEntityType(strings.ToLower(strings.TrimSpace(t)))
	switch et {
	case ReportedEntityListing, ReportedEntityUser, ReportedEntityReview:
		return et, nil
	}
	return "", apperror.Validation("некорректный тип объекта жалобы")
}
