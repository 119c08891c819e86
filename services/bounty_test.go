package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"fairbounty/internal/testutil"
	"fairbounty/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBounty(t *testing.T, svc *BountyService, title, poster string) uint {
	t.Helper()
	id, err := svc.CreateBounty(context.Background(), BountyInput{
		Title:  title,
		Poster: poster,
		Reward: "50",
	})
	require.NoError(t, err)
	return id
}

func submit(t *testing.T, svc *BountyService, bountyID uint, wallet string, tier int) uint {
	t.Helper()
	id, err := svc.SubmitWork(context.Background(), SubmitWorkInput{
		BountyID: bountyID,
		Wallet:   wallet,
		Tier:     tier,
		Content:  "my entry",
		Links:    json.RawMessage(`["https://example.com"]`),
	})
	require.NoError(t, err)
	return id
}

func TestCreateBountyDefaults(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewBountyService(db)

	id := newBounty(t, svc, "  Logo Design ", "W1")

	var b models.Bounty
	require.NoError(t, db.First(&b, id).Error)
	assert.Equal(t, "Logo Design", b.Title)
	assert.Equal(t, "logo-design", b.Slug)
	assert.Equal(t, "50", b.Reward)
	assert.Equal(t, 1, b.MinTier)
	assert.Equal(t, models.BountyStatusOpen, b.Status)
	assert.Equal(t, int64(0), b.SubmissionCount)
	assert.True(t, b.IsBeta)
	assert.Empty(t, []string(b.Tags))
	assert.Nil(t, b.WinnerSubmissionID)
}

func TestListOpenBounties(t *testing.T) {
	ctx := context.Background()
	svc := NewBountyService(testutil.NewDB(t))

	first := newBounty(t, svc, "First", "W1")
	second := newBounty(t, svc, "Second", "W1")
	third := newBounty(t, svc, "Third", "W1")

	sub := submit(t, svc, second, "S1", 1)
	_, err := svc.SelectWinner(ctx, SelectWinnerInput{BountyID: second, SubmissionID: sub, PosterWallet: "W1"})
	require.NoError(t, err)

	bounties := svc.ListOpenBounties(ctx)
	require.Len(t, bounties, 2)
	assert.Equal(t, third, bounties[0].ID)
	assert.Equal(t, first, bounties[1].ID)
}

func TestListOpenBountiesCapped(t *testing.T) {
	svc := NewBountyService(testutil.NewDB(t))
	for i := 0; i < MaxOpenBounties+5; i++ {
		newBounty(t, svc, fmt.Sprintf("Bounty %d", i), "W1")
	}
	assert.Len(t, svc.ListOpenBounties(context.Background()), MaxOpenBounties)
}

func TestSubmitWorkOncePerWallet(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewBountyService(db)
	bountyID := newBounty(t, svc, "Logo", "W1")

	submit(t, svc, bountyID, "S1", 2)

	_, err := svc.SubmitWork(ctx, SubmitWorkInput{BountyID: bountyID, Wallet: "S1", Content: "again"})
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	submit(t, svc, bountyID, "S2", 1)

	var b models.Bounty
	require.NoError(t, db.First(&b, bountyID).Error)
	assert.Equal(t, int64(2), b.SubmissionCount)
}

func TestSubmitWorkUnknownBounty(t *testing.T) {
	svc := NewBountyService(testutil.NewDB(t))

	id, err := svc.SubmitWork(context.Background(), SubmitWorkInput{BountyID: 404, Wallet: "S1"})
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestCastVote(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewBountyService(db)
	bountyID := newBounty(t, svc, "Logo", "W1")
	subID := submit(t, svc, bountyID, "S1", 1)

	require.NoError(t, svc.CastVote(ctx, VoteInput{SubmissionID: subID, VoterWallet: "V1", VoteType: models.VoteUp, VoteWeight: 3}))
	assert.ErrorIs(t, svc.CastVote(ctx, VoteInput{SubmissionID: subID, VoterWallet: "V1", VoteType: models.VoteUp}), ErrAlreadyVoted)
	require.NoError(t, svc.CastVote(ctx, VoteInput{SubmissionID: subID, VoterWallet: "V2", VoteType: models.VoteDown}))

	var sub models.Submission
	require.NoError(t, db.First(&sub, subID).Error)
	assert.Equal(t, float64(2), sub.Score)
	assert.Equal(t, float64(3), sub.Upvotes)
	assert.Equal(t, float64(1), sub.Downvotes)

	var votes int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&votes).Error)
	assert.Equal(t, int64(2), votes)
}

func TestListSubmissionsOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewBountyService(testutil.NewDB(t))
	bountyID := newBounty(t, svc, "Logo", "W1")

	low := submit(t, svc, bountyID, "S1", 1)
	high := submit(t, svc, bountyID, "S2", 1)
	tie := submit(t, svc, bountyID, "S3", 1)
	submit(t, svc, newBounty(t, svc, "Other", "W1"), "S1", 1)

	require.NoError(t, svc.CastVote(ctx, VoteInput{SubmissionID: low, VoterWallet: "V1", VoteType: models.VoteDown}))
	require.NoError(t, svc.CastVote(ctx, VoteInput{SubmissionID: high, VoterWallet: "V1", VoteType: models.VoteUp, VoteWeight: 5}))

	subs := svc.ListSubmissions(ctx, bountyID)
	require.Len(t, subs, 3)
	assert.Equal(t, high, subs[0].ID)
	assert.Equal(t, tie, subs[1].ID)
	assert.Equal(t, low, subs[2].ID)

	assert.Empty(t, svc.ListSubmissions(ctx, 999))
}

func TestSelectWinner(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewBountyService(db)
	bxp := NewBXPService(db)

	bountyID := newBounty(t, svc, "Logo", "W1")
	subID := submit(t, svc, bountyID, "S1", 3)
	other := submit(t, svc, bountyID, "S2", 1)
	_, err := bxp.ClaimWelcome(ctx, "S1", 50)
	require.NoError(t, err)

	_, err = svc.SelectWinner(ctx, SelectWinnerInput{BountyID: bountyID, SubmissionID: subID, PosterWallet: "S1"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	awarded, err := svc.SelectWinner(ctx, SelectWinnerInput{BountyID: bountyID, SubmissionID: subID, PosterWallet: "W1"})
	require.NoError(t, err)
	assert.Equal(t, float64(150), awarded)

	balances, err := bxp.GetBXP(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, float64(150), balances.Wins)
	assert.Equal(t, float64(200), balances.Total())

	var b models.Bounty
	require.NoError(t, db.First(&b, bountyID).Error)
	assert.Equal(t, models.BountyStatusCompleted, b.Status)
	require.NotNil(t, b.WinnerSubmissionID)
	assert.Equal(t, subID, *b.WinnerSubmissionID)

	var sub models.Submission
	require.NoError(t, db.First(&sub, subID).Error)
	assert.Equal(t, models.SubmissionStatusWinner, sub.Status)

	// only the losing entry stays listed
	subs := svc.ListSubmissions(ctx, bountyID)
	require.Len(t, subs, 1)
	assert.Equal(t, other, subs[0].ID)

	_, err = svc.SelectWinner(ctx, SelectWinnerInput{BountyID: bountyID, SubmissionID: other, PosterWallet: "W1"})
	assert.ErrorIs(t, err, ErrWinnerAlreadySelected)
}

func TestSelectWinnerWithoutLedger(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewBountyService(db)

	bountyID := newBounty(t, svc, "Logo", "W1")
	subID := submit(t, svc, bountyID, "S1", 5)

	awarded, err := svc.SelectWinner(ctx, SelectWinnerInput{BountyID: bountyID, SubmissionID: subID, PosterWallet: "W1"})
	require.NoError(t, err)
	assert.Zero(t, awarded)

	var ledger models.BXPLedger
	err = db.Where("wallet = ?", "S1").First(&ledger).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSelectWinnerUnknownBounty(t *testing.T) {
	svc := NewBountyService(testutil.NewDB(t))

	_, err := svc.SelectWinner(context.Background(), SelectWinnerInput{BountyID: 7, SubmissionID: 1, PosterWallet: "W1"})
	assert.ErrorIs(t, err, ErrBountyNotFound)
}

func TestCastVoteFractionalWeight(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewBountyService(db)
	subID := submit(t, svc, newBounty(t, svc, "Logo", "W1"), "S1", 1)

	require.NoError(t, svc.CastVote(ctx, VoteInput{SubmissionID: subID, VoterWallet: "V1", VoteType: models.VoteUp, VoteWeight: 1.25}))
	require.NoError(t, svc.CastVote(ctx, VoteInput{SubmissionID: subID, VoterWallet: "V2", VoteType: models.VoteDown, VoteWeight: 0.5}))

	var sub models.Submission
	require.NoError(t, db.First(&sub, subID).Error)
	assert.InDelta(t, 0.75, sub.Score, 1e-9)
	assert.InDelta(t, 1.25, sub.Upvotes, 1e-9)
	assert.InDelta(t, 0.5, sub.Downvotes, 1e-9)

	var vote models.Vote
	require.NoError(t, db.Where("voter_wallet = ?", "V1").First(&vote).Error)
	assert.InDelta(t, 1.25, vote.VoteWeight, 1e-9)
}
