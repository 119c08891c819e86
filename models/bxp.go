package models

import (
	"time"

	"gorm.io/datatypes"
)

// BXPBalances are the additive point categories of a wallet's ledger.
type BXPBalances struct {
	Welcome     float64 `json:"welcome"`
	Referrals   float64 `json:"referrals"`
	Referred    float64 `json:"referred"`
	Submissions float64 `json:"submissions"`
	Wins        float64 `json:"wins"`
}

// Total sums every category.
func (b BXPBalances) Total() float64 {
	return b.Welcome + b.Referrals + b.Referred + b.Submissions + b.Wins
}

// BXPLedger stores one BXP balance object per wallet (denormalized, read-modify-write)
type BXPLedger struct {
	Wallet    string                          `gorm:"primaryKey" json:"wallet"`
	Data      datatypes.JSONType[BXPBalances] `json:"data"`
	UpdatedAt time.Time                       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Balances unwraps the JSON column.
func (l *BXPLedger) Balances() BXPBalances {
	return l.Data.Data()
}

// SetBalances replaces the JSON column.
func (l *BXPLedger) SetBalances(b BXPBalances) {
	l.Data = datatypes.NewJSONType(b)
}
