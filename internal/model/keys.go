package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalKey builds the normalized duplicate-detection identity for a
// transaction. The date is truncated to the calendar day, the amount is
// rounded to integer minor-currency units so float drift cannot split
// identical rows, and the description is lower-cased and trimmed. Two rows
// collide only when they are byte-identical after this normalization; it is
// not a fuzzy match.
func CanonicalKey(accountID string, date time.Time, amount float64, description string) string {
	cents := decimal.NewFromFloat(amount).Round(2).Shift(2).IntPart()
	data := fmt.Sprintf("%s:%s:%d:%s",
		accountID,
		date.Format("2006-01-02"),
		cents,
		strings.ToLower(strings.TrimSpace(description)))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// GenerateCanonicalKey fills in the entry's CanonicalKey if unset.
func (e *LedgerEntry) GenerateCanonicalKey() string {
	if e.CanonicalKey == "" {
		e.CanonicalKey = CanonicalKey(e.AccountID, e.Date, e.Amount, e.Description)
	}
	return e.CanonicalKey
}
