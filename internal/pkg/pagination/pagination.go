package pagination

import "github.com/ignatzorin/market-moderation/internal/pkg/apperror"

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page - окно выборки после нормализации параметров запроса.
type Page struct {
	Skip  int
	Limit int
}

// Policy задаёт лимиты по умолчанию для списочных методов.
type Policy struct {
	DefaultLimit int
	MaxLimit     int
}

func DefaultPolicy() Policy {
	return Policy{DefaultLimit: DefaultLimit, MaxLimit: MaxLimit}
}

// Normalize проверяет skip и приводит limit к допустимому диапазону:
// limit <= 0 заменяется значением по умолчанию, слишком большой обрезается до максимума.
func (p Policy) Normalize(skip, limit int) (Page, error) {
	if skip < 0 {
		return Page{}, apperror.Validation("skip не может быть отрицательным")
	}

	maxLimit := p.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	defaultLimit := p.DefaultLimit
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(DefaultLimit, maxLimit)
	}

	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}

	return Page{Skip: skip, Limit: limit}, nil
}
