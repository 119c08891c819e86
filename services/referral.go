package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"fairbounty/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxSuffixAttempts bounds how many random suffixes are tried for a taken code.
const maxSuffixAttempts = 5

var ErrReferralCodeUnavailable = errors.New("referral code unavailable")

type ReferralService struct {
	DB *gorm.DB

	// suffix returns a 3-digit number appended to codes owned by another wallet.
	suffix func() int
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{
		DB:     db,
		suffix: func() int { return 100 + rand.Intn(900) },
	}
}

// ReferredWallet is one entry in a referrer's list.
type ReferredWallet struct {
	Wallet      string    `json:"wallet"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GetReferrals lists the wallets referred by wallet, newest first, with the
// display name from their profile when they have one.
func (s *ReferralService) GetReferrals(ctx context.Context, wallet string) ([]ReferredWallet, error) {
	db := s.DB.WithContext(ctx)

	var edges []models.Referral
	if err := db.Where("referrer_wallet = ?", wallet).
		Order("created_at DESC").Order("id DESC").
		Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("get referrals for %s: %w", wallet, err)
	}

	out := make([]ReferredWallet, 0, len(edges))
	if len(edges) == 0 {
		return out, nil
	}

	referred := make([]string, len(edges))
	for i, e := range edges {
		referred[i] = e.ReferredWallet
	}
	var profiles []models.Profile
	if err := db.Where("wallet IN ?", referred).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("load referred profiles for %s: %w", wallet, err)
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.Wallet] = displayNameFromProfile(p.Data)
	}

	for _, e := range edges {
		out = append(out, ReferredWallet{
			Wallet:      e.ReferredWallet,
			DisplayName: names[e.ReferredWallet],
			CreatedAt:   e.CreatedAt,
		})
	}
	return out, nil
}

// SetReferralCode stores code for wallet and returns the code actually stored.
// A code already owned by another wallet gets a random 3-digit suffix.
func (s *ReferralService) SetReferralCode(ctx context.Context, wallet, code string) (string, error) {
	code = cleanText(code)
	finalCode := code

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := codeOwnedByOther(tx, code, wallet)
		if err != nil {
			return err
		}
		if taken {
			finalCode = ""
			for attempt := 0; attempt < maxSuffixAttempts; attempt++ {
				candidate := fmt.Sprintf("%s%03d", code, s.suffix())
				taken, err := codeOwnedByOther(tx, candidate, wallet)
				if err != nil {
					return err
				}
				if !taken {
					finalCode = candidate
					break
				}
			}
			if finalCode == "" {
				return ErrReferralCodeUnavailable
			}
		}

		rc := models.ReferralCode{Wallet: wallet, Code: finalCode, CreatedAt: time.Now()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "created_at"}),
		}).Create(&rc).Error
	})
	if err != nil {
		return "", fmt.Errorf("set referral code %q for %s: %w", code, wallet, err)
	}
	if finalCode != code {
		log.Printf("🔁 [REFERRAL] Code %q taken, assigned %q to %s", code, finalCode, wallet)
	}
	return finalCode, nil
}

func codeOwnedByOther(tx *gorm.DB, code, wallet string) (bool, error) {
	var n int64
	err := tx.Model(&models.ReferralCode{}).
		Where("code = ? AND wallet <> ?", code, wallet).
		Count(&n).Error
	return n > 0, err
}

// GetReferralCode returns the wallet's code, or nil when it has none.
func (s *ReferralService) GetReferralCode(ctx context.Context, wallet string) (*string, error) {
	var rc models.ReferralCode
	err := s.DB.WithContext(ctx).Where("wallet = ?", wallet).First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rc.Code, nil
}

// ResolveReferral maps a code to its owner wallet. When no code matches, a code
// that is itself a wallet with a profile resolves to that wallet. nil otherwise.
func (s *ReferralService) ResolveReferral(ctx context.Context, code string) (*string, error) {
	db := s.DB.WithContext(ctx)
	code = cleanText(code)

	var rc models.ReferralCode
	err := db.Where("code = ?", code).First(&rc).Error
	if err == nil {
		return &rc.Wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var p models.Profile
	err = db.Select("wallet").Where("wallet = ?", code).First(&p).Error
	if err == nil {
		return &p.Wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return nil, nil
}
