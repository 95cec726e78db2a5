package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinListingTitleLength       = 3
	MaxListingTitleLength       = 200
	MinListingDescriptionLength = 10
	MaxListingDescriptionLength = 5000
	MaxOriginDescriptionLength  = 1000
	MaxPriceUnitLength          = 32
	MaxReportReasonLength       = 1000
	MaxResolutionNotesLength    = 2000
	MaxRejectionReasonLength    = 1000
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateListingTitle проверяет заголовок объявления.
func ValidateListingTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("заголовок объявления обязателен")
	}

	return ValidateLength("заголовок объявления", title, MinListingTitleLength, MaxListingTitleLength)
}

// ValidateListingDescription проверяет описание объявления.
func ValidateListingDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("описание объявления обязательно")
	}

	return ValidateLength("описание объявления", description, MinListingDescriptionLength, MaxListingDescriptionLength)
}

// ValidateModerationText проверяет причину отклонения или заметку модератора.
func ValidateModerationText(fieldName, text string, max int) error {
	return ValidateLength(fieldName, strings.TrimSpace(text), 0, max)
}
