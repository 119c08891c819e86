package models

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// MigrateModels lists every table the service owns, in creation order.
var MigrateModels = []any{
	&Profile{},
	&BXPLedger{},
	&Referral{},
	&WalletSeen{},
	&ReferralCode{},
	&BetaAccess{},
	&BountyApplication{},
	&Bounty{},
	&Submission{},
	&Vote{},
}

// Migrate creates or updates the schema. Run once at startup or via `fairbounty migrate`.
func Migrate(db *gorm.DB) error {
	for _, model := range MigrateModels {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	log.Printf("✅ [MIGRATE] %d tables up to date", len(MigrateModels))
	return nil
}
