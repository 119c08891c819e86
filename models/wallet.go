package models

import (
	"time"

	"gorm.io/datatypes"
)

// WalletSeen tracks wallet presence, not identity.
// Table name: wallets
type WalletSeen struct {
	Wallet    string    `gorm:"primaryKey" json:"wallet"`
	FirstSeen time.Time `gorm:"not null" json:"firstSeen"`
	LastSeen  time.Time `gorm:"not null;index" json:"lastSeen"`
}

func (WalletSeen) TableName() string { return "wallets" }

// Profile holds the opaque profile blob the frontend saves for a wallet.
type Profile struct {
	Wallet    string         `gorm:"primaryKey" json:"wallet"`
	Data      datatypes.JSON `json:"data"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BetaAccess is a read-only gate from the API's point of view; rows are
// managed with the `beta` CLI command.
type BetaAccess struct {
	Wallet    string    `gorm:"primaryKey" json:"wallet"`
	Active    bool      `gorm:"not null;default:false" json:"active"`
	GrantedAt time.Time `gorm:"autoCreateTime" json:"grantedAt"`
}

func (BetaAccess) TableName() string { return "beta_access" }
