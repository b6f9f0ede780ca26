package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	base := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		aAccount string
		aDate    time.Time
		aAmount  float64
		aDesc    string
		bAccount string
		bDate    time.Time
		bAmount  float64
		bDesc    string
		wantSame bool
	}{
		{
			name:     "identical rows collide",
			aAccount: "acc1", aDate: base, aAmount: 12.50, aDesc: "COFFEE SHOP",
			bAccount: "acc1", bDate: base, bAmount: 12.50, bDesc: "COFFEE SHOP",
			wantSame: true,
		},
		{
			name:     "time of day is ignored",
			aAccount: "acc1", aDate: base.Add(2 * time.Hour), aAmount: 12.50, aDesc: "COFFEE SHOP",
			bAccount: "acc1", bDate: base.Add(23 * time.Hour), bAmount: 12.50, bDesc: "COFFEE SHOP",
			wantSame: true,
		},
		{
			name:     "case and surrounding whitespace are ignored",
			aAccount: "acc1", aDate: base, aAmount: 12.50, aDesc: "  Coffee Shop ",
			bAccount: "acc1", bDate: base, bAmount: 12.50, bDesc: "coffee shop",
			wantSame: true,
		},
		{
			name:     "sub-cent float drift is absorbed",
			aAccount: "acc1", aDate: base, aAmount: 12.50, aDesc: "COFFEE SHOP",
			bAccount: "acc1", bDate: base, bAmount: 12.499999999, bDesc: "COFFEE SHOP",
			wantSame: true,
		},
		{
			name:     "a cent of difference separates",
			aAccount: "acc1", aDate: base, aAmount: 12.50, aDesc: "COFFEE SHOP",
			bAccount: "acc1", bDate: base, bAmount: 12.51, bDesc: "COFFEE SHOP",
			wantSame: false,
		},
		{
			name:     "different day separates",
			aAccount: "acc1", aDate: base, aAmount: 12.50, aDesc: "COFFEE SHOP",
			bAccount: "acc1", bDate: base.AddDate(0, 0, 1), bAmount: 12.50, bDesc: "COFFEE SHOP",
			wantSame: false,
		},
		{
			name:     "different account separates",
			aAccount: "acc1", aDate: base, aAmount: 12.50, aDesc: "COFFEE SHOP",
			bAccount: "acc2", bDate: base, bAmount: 12.50, bDesc: "COFFEE SHOP",
			wantSame: false,
		},
		{
			name:     "interior spacing is significant",
			aAccount: "acc1", aDate: base, aAmount: 12.50, aDesc: "COFFEE SHOP",
			bAccount: "acc1", bDate: base, bAmount: 12.50, bDesc: "COFFEE  SHOP",
			wantSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := CanonicalKey(tt.aAccount, tt.aDate, tt.aAmount, tt.aDesc)
			b := CanonicalKey(tt.bAccount, tt.bDate, tt.bAmount, tt.bDesc)
			if tt.wantSame {
				assert.Equal(t, a, b)
			} else {
				assert.NotEqual(t, a, b)
			}
		})
	}
}

func TestGenerateCanonicalKey(t *testing.T) {
	entry := LedgerEntry{
		AccountID:   "acc1",
		Date:        time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		Amount:      42.00,
		Description: "Electric Bill",
	}

	key := entry.GenerateCanonicalKey()
	assert.NotEmpty(t, key)
	assert.Equal(t, key, entry.CanonicalKey)

	// Already-set keys are kept.
	entry.Description = "changed"
	assert.Equal(t, key, entry.GenerateCanonicalKey())
}
