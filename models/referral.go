package models

import "time"

// Referral is an append-only edge: referrer brought referred onto the platform.
// A (referrer, referred) pair is recorded once; repeats are dropped on insert.
type Referral struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReferrerWallet string    `gorm:"not null;index;uniqueIndex:idx_referral_pair" json:"referrerWallet"`
	ReferredWallet string    `gorm:"not null;uniqueIndex:idx_referral_pair" json:"referredWallet"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// ReferralCode maps a short shareable code to the wallet that owns it.
// One active code per wallet; codes are unique across wallets.
type ReferralCode struct {
	Wallet    string    `gorm:"primaryKey" json:"wallet"`
	Code      string    `gorm:"not null;uniqueIndex" json:"code"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
