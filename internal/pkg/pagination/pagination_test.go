package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

func TestPolicy_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		skip  int
		limit int
		want  Page
	}{
		{"defaults", 0, 0, Page{Skip: 0, Limit: DefaultLimit}},
		{"negative limit", 5, -3, Page{Skip: 5, Limit: DefaultLimit}},
		{"within range", 10, 50, Page{Skip: 10, Limit: 50}},
		{"clamped", 0, 10000, Page{Skip: 0, Limit: MaxLimit}},
		{"skip past end is allowed", 1000, 10, Page{Skip: 1000, Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultPolicy().Normalize(tt.skip, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_NegativeSkip(t *testing.T) {
	_, err := DefaultPolicy().Normalize(-1, 10)
	assert.True(t, apperror.IsValidation(err))
}

func TestPolicy_CustomLimits(t *testing.T) {
	p := Policy{DefaultLimit: 5, MaxLimit: 30}

	got, err := p.Normalize(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Limit)

	got, err = p.Normalize(0, 31)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Limit)
}

func TestPolicy_DefaultAboveMaxFallsBack(t *testing.T) {
	got, err := Policy{DefaultLimit: 50, MaxLimit: 10}.Normalize(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Limit)
}
