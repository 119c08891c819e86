package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"fairbounty/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WinBaseBXP is the credit for winning a bounty before the tier multiplier.
const WinBaseBXP = 100

// TierMultipliers scale the win credit by the submitter's tier.
var TierMultipliers = map[int]float64{
	1: 1.0,
	2: 1.25,
	3: 1.5,
	4: 2.0,
	5: 3.0,
}

// WinCredit returns floor(WinBaseBXP * multiplier); unknown tiers use 1.0.
func WinCredit(tier int) float64 {
	mult, ok := TierMultipliers[tier]
	if !ok {
		mult = 1.0
	}
	return math.Floor(WinBaseBXP * mult)
}

type BXPService struct {
	DB *gorm.DB
}

func NewBXPService(db *gorm.DB) *BXPService {
	return &BXPService{DB: db}
}

// ClaimWelcomeResult is the in-band outcome of a welcome claim.
type ClaimWelcomeResult struct {
	Success        bool `json:"success,omitempty"`
	AlreadyClaimed bool `json:"already_claimed,omitempty"`
}

// GetBXP returns the wallet's balances, or nil when it has no ledger.
func (s *BXPService) GetBXP(ctx context.Context, wallet string) (*models.BXPBalances, error) {
	var ledger models.BXPLedger
	err := s.DB.WithContext(ctx).Where("wallet = ?", wallet).First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b := ledger.Balances()
	return &b, nil
}

// lockLedger loads the wallet's ledger FOR UPDATE inside tx. found is false when absent.
func lockLedger(tx *gorm.DB, wallet string) (ledger models.BXPLedger, found bool, err error) {
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("wallet = ?", wallet).
		First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger, false, nil
	}
	if err != nil {
		return ledger, false, err
	}
	return ledger, true, nil
}

func saveLedger(tx *gorm.DB, ledger *models.BXPLedger) error {
	return tx.Model(&models.BXPLedger{}).
		Where("wallet = ?", ledger.Wallet).
		Update("data", ledger.Data).Error
}

// ClaimWelcome credits the one-time welcome bonus. A ledger whose welcome is
// already non-zero is left alone.
func (s *BXPService) ClaimWelcome(ctx context.Context, wallet string, amount float64) (*ClaimWelcomeResult, error) {
	result := &ClaimWelcomeResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger, found, err := lockLedger(tx, wallet)
		if err != nil {
			return err
		}

		if !found {
			ledger = models.BXPLedger{Wallet: wallet}
			ledger.SetBalances(models.BXPBalances{Welcome: amount})
			if err := tx.Create(&ledger).Error; err != nil {
				return err
			}
			result.Success = true
			return nil
		}

		bal := ledger.Balances()
		if bal.Welcome != 0 {
			result.AlreadyClaimed = true
			return nil
		}
		bal.Welcome = amount
		ledger.SetBalances(bal)
		if err := saveLedger(tx, &ledger); err != nil {
			return err
		}
		result.Success = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent first claim created the ledger before us
		return &ClaimWelcomeResult{AlreadyClaimed: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim welcome for %s: %w", wallet, err)
	}
	if result.Success {
		log.Printf("🎁 [BXP] Welcome bonus %g credited to %s", amount, wallet)
	}
	return result, nil
}

// ProcessReferral credits referrerAmount to the referrer's referrals bucket and
// records the referral edge. referredAmount is accepted for API compatibility
// but is not applied to any ledger.
func (s *BXPService) ProcessReferral(ctx context.Context, referrerWallet, referredWallet string, referrerAmount, referredAmount float64) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := creditLedger(tx, referrerWallet, true, func(b *models.BXPBalances) {
			b.Referrals += referrerAmount
		}); err != nil {
			return err
		}

		edge := models.Referral{ReferrerWallet: referrerWallet, ReferredWallet: referredWallet}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
	})
	if err != nil {
		return fmt.Errorf("process referral %s → %s: %w", referrerWallet, referredWallet, err)
	}
	log.Printf("🤝 [BXP] Referral %s → %s: +%g to referrer (referred amount %g not applied)",
		referrerWallet, referredWallet, referrerAmount, referredAmount)
	return nil
}

// creditLedger applies fn to the wallet's balances inside tx. When the wallet
// has no ledger it is created from zero if create is set, otherwise the credit
// is skipped and false is returned.
func creditLedger(tx *gorm.DB, wallet string, create bool, fn func(*models.BXPBalances)) (bool, error) {
	ledger, found, err := lockLedger(tx, wallet)
	if err != nil {
		return false, err
	}
	if !found {
		if !create {
			return false, nil
		}
		var bal models.BXPBalances
		fn(&bal)
		ledger = models.BXPLedger{Wallet: wallet}
		ledger.SetBalances(bal)
		if err := tx.Create(&ledger).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	bal := ledger.Balances()
	fn(&bal)
	ledger.SetBalances(bal)
	if err := saveLedger(tx, &ledger); err != nil {
		return false, err
	}
	return true, nil
}
