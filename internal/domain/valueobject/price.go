package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

// MaxPriceAmount - наибольшая цена, которую вмещает колонка NUMERIC(14, 2).
var MaxPriceAmount = decimal.RequireFromString("999999999999.99")

// PriceScale - число знаков после запятой в цене.
const PriceScale = 2

type Price struct {
	Amount decimal.Decimal
	Unit   string
}

// NewPrice проверяет, что цена строго положительная, не длиннее копеек и помещается
// в хранилище. Единица по умолчанию - за штуку.
func NewPrice(amount decimal.Decimal, unit string) (Price, error) {
	if !amount.IsPositive() {
		return Price{}, apperror.Validation("цена должна быть больше нуля")
	}
	if !amount.Equal(amount.Truncate(PriceScale)) {
		return Price{}, apperror.Validation("в цене не больше двух знаков после запятой")
	}
	if amount.GreaterThan(MaxPriceAmount) {
		return Price{}, apperror.Validation("цена не может превышать " + MaxPriceAmount.StringFixed(PriceScale))
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "unit"
	}
	return Price{Amount: amount, Unit: unit}, nil
}

// ParsePrice разбирает строковое представление цены из запроса.
func ParsePrice(raw, unit string) (Price, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Price{}, apperror.Validation("некорректный формат цены")
	}
	return NewPrice(amount, unit)
}

func (p Price) String() string {
	return fmt.Sprintf("%s / %s", p.Amount.StringFixed(2), p.Unit)
}
