package services

import (
	"context"
	"testing"

	"fairbounty/internal/testutil"
	"fairbounty/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinCredit(t *testing.T) {
	cases := map[int]float64{
		1: 100,
		2: 125,
		3: 150,
		4: 200,
		5: 300,
		0: 100,
		9: 100,
	}
	for tier, want := range cases {
		assert.Equal(t, want, WinCredit(tier), "tier %d", tier)
	}
}

func TestGetBXPMissingLedger(t *testing.T) {
	svc := NewBXPService(testutil.NewDB(t))

	bxp, err := svc.GetBXP(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, bxp)
}

func TestClaimWelcomeOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewBXPService(testutil.NewDB(t))

	res, err := svc.ClaimWelcome(ctx, "W", 50)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyClaimed)

	res, err = svc.ClaimWelcome(ctx, "W", 50)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.AlreadyClaimed)

	bxp, err := svc.GetBXP(ctx, "W")
	require.NoError(t, err)
	require.NotNil(t, bxp)
	assert.Equal(t, float64(50), bxp.Welcome)
	assert.Equal(t, float64(50), bxp.Total())
}

func TestClaimWelcomeOnExistingLedger(t *testing.T) {
	ctx := context.Background()
	svc := NewBXPService(testutil.NewDB(t))

	require.NoError(t, svc.ProcessReferral(ctx, "R", "X", 20, 10))

	res, err := svc.ClaimWelcome(ctx, "R", 50)
	require.NoError(t, err)
	assert.True(t, res.Success)

	bxp, err := svc.GetBXP(ctx, "R")
	require.NoError(t, err)
	assert.Equal(t, models.BXPBalances{Welcome: 50, Referrals: 20}, *bxp)
}

func TestProcessReferral(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewBXPService(db)

	require.NoError(t, svc.ProcessReferral(ctx, "R", "X", 20, 10))

	referrer, err := svc.GetBXP(ctx, "R")
	require.NoError(t, err)
	require.NotNil(t, referrer)
	assert.Equal(t, float64(20), referrer.Referrals)

	// the referred amount is not credited anywhere
	referred, err := svc.GetBXP(ctx, "X")
	require.NoError(t, err)
	assert.Nil(t, referred)

	var edges int64
	require.NoError(t, db.Model(&models.Referral{}).Count(&edges).Error)
	assert.Equal(t, int64(1), edges)
}

func TestProcessReferralRepeatKeepsOneEdge(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewBXPService(db)

	require.NoError(t, svc.ProcessReferral(ctx, "R", "X", 20, 10))
	require.NoError(t, svc.ProcessReferral(ctx, "R", "X", 20, 10))

	var edges int64
	require.NoError(t, db.Model(&models.Referral{}).Count(&edges).Error)
	assert.Equal(t, int64(1), edges)

	referrer, err := svc.GetBXP(ctx, "R")
	require.NoError(t, err)
	assert.Equal(t, float64(40), referrer.Referrals)
}
