package services

import (
	"context"
	"fmt"
	"log"

	"fairbounty/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Stats is the public platform counter block shown on the landing page.
type Stats struct {
	TotalWallets      int64 `json:"totalWallets"`
	TotalProfiles     int64 `json:"totalProfiles"`
	TotalApplications int64 `json:"totalApplications"`
	OpenBounties      int64 `json:"openBounties"`
}

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// GetStats runs the four counts concurrently. The open-bounty count degrades
// to 0 when the bounties table is missing or unreadable.
func (s *StatsService) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&models.WalletSeen{}).Count(&stats.TotalWallets).Error
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&models.Profile{}).Count(&stats.TotalProfiles).Error
	})
	g.Go(func() error {
		return s.DB.WithContext(gctx).Model(&models.BountyApplication{}).Count(&stats.TotalApplications).Error
	})
	g.Go(func() error {
		stats.OpenBounties = s.countOpenBounties(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}

func (s *StatsService) countOpenBounties(ctx context.Context) int64 {
	db := s.DB.WithContext(ctx)
	if !db.Migrator().HasTable(&models.Bounty{}) {
		log.Println("⚠️ [STATS] bounties table not initialized, reporting 0 open bounties")
		return 0
	}
	var n int64
	if err := db.Model(&models.Bounty{}).Where("status = ?", models.BountyStatusOpen).Count(&n).Error; err != nil {
		log.Printf("⚠️ [STATS] open bounty count failed, reporting 0: %v", err)
		return 0
	}
	return n
}
