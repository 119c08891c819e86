package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fairbounty/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileService owns everything keyed directly by wallet: profiles, presence,
// beta access and bounty applications.
type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// GetProfile returns the stored profile blob, or nil when the wallet has none.
func (s *ProfileService) GetProfile(ctx context.Context, wallet string) (json.RawMessage, error) {
	var p models.Profile
	err := s.DB.WithContext(ctx).Where("wallet = ?", wallet).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(p.Data), nil
}

// SaveProfile upserts the profile blob as-is.
func (s *ProfileService) SaveProfile(ctx context.Context, wallet string, profile json.RawMessage) error {
	p := models.Profile{
		Wallet:    wallet,
		Data:      datatypes.JSON(profile),
		UpdatedAt: time.Now(),
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&p).Error
}

// TrackWallet records that the wallet was seen now. first_seen is kept.
func (s *ProfileService) TrackWallet(ctx context.Context, wallet string) error {
	now := time.Now()
	w := models.WalletSeen{Wallet: wallet, FirstSeen: now, LastSeen: now}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen"}),
	}).Create(&w).Error
}

// HasBetaAccess reports whether the wallet holds an active beta grant.
// Lookup failures are logged and count as no access.
func (s *ProfileService) HasBetaAccess(ctx context.Context, wallet string) bool {
	var access models.BetaAccess
	err := s.DB.WithContext(ctx).Where("wallet = ?", wallet).First(&access).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("⚠️ [BETA] access lookup failed for %s, treating as no access: %v", wallet, err)
		}
		return false
	}
	return access.Active
}

// SetBetaAccess grants or revokes beta access. Used by the `beta` CLI command.
func (s *ProfileService) SetBetaAccess(ctx context.Context, wallet string, active bool) error {
	access := models.BetaAccess{Wallet: wallet, Active: active, GrantedAt: time.Now()}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "granted_at"}),
	}).Create(&access).Error; err != nil {
		return fmt.Errorf("set beta access for %s: %w", wallet, err)
	}
	return nil
}

// BountyApplicationInput is a free-form application to post bounties.
type BountyApplicationInput struct {
	Wallet      string          `json:"wallet"`
	DisplayName string          `json:"displayName"`
	FairScore   float64         `json:"fairScore"`
	Form        json.RawMessage `json:"form"`
}

// SubmitBountyApplication appends an application and returns its id.
func (s *ProfileService) SubmitBountyApplication(ctx context.Context, in BountyApplicationInput) (uint, error) {
	app := models.BountyApplication{
		Wallet:      in.Wallet,
		DisplayName: cleanText(in.DisplayName),
		FairScore:   in.FairScore,
		Form:        datatypes.JSON(in.Form),
	}
	if err := s.DB.WithContext(ctx).Create(&app).Error; err != nil {
		return 0, fmt.Errorf("submit bounty application for %s: %w", in.Wallet, err)
	}
	log.Printf("📝 [APPLY] Bounty application #%d from %s", app.ID, in.Wallet)
	return app.ID, nil
}

// displayNameFromProfile digs a display name out of an opaque profile blob.
func displayNameFromProfile(data datatypes.JSON) string {
	if len(data) == 0 {
		return ""
	}
	var fields struct {
		DisplayName string `json:"displayName"`
		Name        string `json:"name"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	if fields.DisplayName != "" {
		return fields.DisplayName
	}
	return fields.Name
}
