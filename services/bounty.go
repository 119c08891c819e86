package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fairbounty/models"

	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxOpenBounties caps the open bounty listing.
const MaxOpenBounties = 100

// In-band rejections. Their messages are returned to the caller verbatim.
var (
	ErrAlreadySubmitted      = errors.New("Already submitted")
	ErrAlreadyVoted          = errors.New("Already voted")
	ErrBountyNotFound        = errors.New("Bounty not found")
	ErrNotAuthorized         = errors.New("Not authorized")
	ErrWinnerAlreadySelected = errors.New("Winner already selected")
)

type BountyService struct {
	DB *gorm.DB
}

func NewBountyService(db *gorm.DB) *BountyService {
	return &BountyService{DB: db}
}

// BountyInput is the create-bounty payload. Status, counters and the beta flag
// are not client controlled.
type BountyInput struct {
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	ProjectName        string            `json:"projectName"`
	Category           string            `json:"category"`
	PrizeType          string            `json:"prizeType"`
	Reward             models.FlexString `json:"reward"`
	Currency           string            `json:"currency"`
	MemeToken          string            `json:"memeToken"`
	NFTName            string            `json:"nftName"`
	NFTImage           string            `json:"nftImage"`
	MinTier            int               `json:"minTier"`
	Tags               []string          `json:"tags"`
	Deadline           string            `json:"deadline"`
	Poster             string            `json:"poster"`
	PosterName         string            `json:"posterName"`
	ContactMethod      string            `json:"contactMethod"`
	ContactInfo        string            `json:"contactInfo"`
	Requirements       string            `json:"requirements"`
	EvaluationCriteria string            `json:"evaluationCriteria"`
}

// CreateBounty inserts an open beta bounty and returns its id.
func (s *BountyService) CreateBounty(ctx context.Context, in BountyInput) (uint, error) {
	title := cleanText(in.Title)
	minTier := in.MinTier
	if minTier < 1 {
		minTier = 1
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	b := models.Bounty{
		Title:              title,
		Slug:               slug.Make(title),
		Description:        in.Description,
		ProjectName:        cleanText(in.ProjectName),
		Category:           in.Category,
		PrizeType:          in.PrizeType,
		Reward:             in.Reward.String(),
		Currency:           in.Currency,
		MemeToken:          in.MemeToken,
		NFTName:            in.NFTName,
		NFTImage:           in.NFTImage,
		MinTier:            minTier,
		Tags:               datatypes.NewJSONSlice(tags),
		Deadline:           in.Deadline,
		Poster:             in.Poster,
		PosterName:         cleanText(in.PosterName),
		Status:             models.BountyStatusOpen,
		SubmissionCount:    0,
		ContactMethod:      in.ContactMethod,
		ContactInfo:        in.ContactInfo,
		Requirements:       in.Requirements,
		EvaluationCriteria: in.EvaluationCriteria,
		IsBeta:             true,
	}
	if err := s.DB.WithContext(ctx).Create(&b).Error; err != nil {
		return 0, fmt.Errorf("create bounty %q: %w", title, err)
	}
	log.Printf("✅ [BOUNTY] Created bounty #%d %q by %s", b.ID, b.Title, b.Poster)
	return b.ID, nil
}

// ListOpenBounties returns up to MaxOpenBounties open bounties, newest first.
// Query failures are logged and yield an empty list.
func (s *BountyService) ListOpenBounties(ctx context.Context) []models.Bounty {
	bounties := []models.Bounty{}
	if err := s.DB.WithContext(ctx).
		Where("status = ?", models.BountyStatusOpen).
		Order("created_at DESC").Order("id DESC").
		Limit(MaxOpenBounties).
		Find(&bounties).Error; err != nil {
		log.Printf("⚠️ [BOUNTY] listing open bounties failed, returning none: %v", err)
		return []models.Bounty{}
	}
	return bounties
}

// SubmitWorkInput is one wallet's entry for a bounty.
type SubmitWorkInput struct {
	BountyID    uint            `json:"bountyId"`
	Wallet      string          `json:"wallet"`
	DisplayName string          `json:"displayName"`
	Tier        int             `json:"tier"`
	Content     string          `json:"content"`
	Links       json.RawMessage `json:"links"`
}

// SubmitWork inserts a submission, at most one per (bounty, wallet), and then
// bumps the bounty's submission count on a best-effort basis.
func (s *BountyService) SubmitWork(ctx context.Context, in SubmitWorkInput) (uint, error) {
	tier := in.Tier
	if tier < 1 {
		tier = 1
	}
	sub := models.Submission{
		BountyID:    in.BountyID,
		Wallet:      in.Wallet,
		DisplayName: cleanText(in.DisplayName),
		Tier:        tier,
		Content:     in.Content,
		Links:       datatypes.JSON(in.Links),
		Status:      models.SubmissionStatusActive,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Submission{}).
			Where("bounty_id = ? AND wallet = ?", in.BountyID, in.Wallet).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadySubmitted
		}
		return tx.Create(&sub).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrAlreadySubmitted
	}
	if err != nil {
		return 0, err
	}

	res := s.DB.WithContext(ctx).Model(&models.Bounty{}).
		Where("id = ?", in.BountyID).
		UpdateColumn("submission_count", gorm.Expr("submission_count + 1"))
	switch {
	case res.Error != nil:
		log.Printf("⚠️ [BOUNTY] submission_count increment failed for bounty #%d: %v", in.BountyID, res.Error)
	case res.RowsAffected == 0:
		log.Printf("⚠️ [BOUNTY] submission #%d references unknown bounty #%d", sub.ID, in.BountyID)
	}

	log.Printf("📨 [BOUNTY] Submission #%d for bounty #%d by %s", sub.ID, in.BountyID, in.Wallet)
	return sub.ID, nil
}

// ListSubmissions returns the bounty's active submissions by score, then age.
// Query failures are logged and yield an empty list.
func (s *BountyService) ListSubmissions(ctx context.Context, bountyID uint) []models.Submission {
	subs := []models.Submission{}
	if err := s.DB.WithContext(ctx).
		Where("bounty_id = ? AND status = ?", bountyID, models.SubmissionStatusActive).
		Order("score DESC").Order("created_at ASC").Order("id ASC").
		Find(&subs).Error; err != nil {
		log.Printf("⚠️ [BOUNTY] listing submissions for bounty #%d failed, returning none: %v", bountyID, err)
		return []models.Submission{}
	}
	return subs
}

// VoteInput is one vote on a submission. A zero weight counts as 1.
type VoteInput struct {
	SubmissionID uint            `json:"submissionId"`
	VoterWallet  string          `json:"voterWallet"`
	VoteType     models.VoteType `json:"voteType"`
	VoteWeight   float64         `json:"voteWeight"`
}

// CastVote records a vote, at most one per (submission, voter), and moves the
// submission's score and up/down counter by the vote weight.
func (s *BountyService) CastVote(ctx context.Context, in VoteInput) error {
	weight := in.VoteWeight
	if weight == 0 {
		weight = 1
	}
	voteType := models.VoteDown
	if in.VoteType == models.VoteUp {
		voteType = models.VoteUp
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Vote{}).
			Where("submission_id = ? AND voter_wallet = ?", in.SubmissionID, in.VoterWallet).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyVoted
		}

		vote := models.Vote{
			SubmissionID: in.SubmissionID,
			VoterWallet:  in.VoterWallet,
			VoteType:     voteType,
			VoteWeight:   weight,
		}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}

		updates := map[string]any{}
		if voteType == models.VoteUp {
			updates["score"] = gorm.Expr("score + ?", weight)
			updates["upvotes"] = gorm.Expr("upvotes + ?", weight)
		} else {
			updates["score"] = gorm.Expr("score - ?", weight)
			updates["downvotes"] = gorm.Expr("downvotes + ?", weight)
		}
		res := tx.Model(&models.Submission{}).Where("id = ?", in.SubmissionID).UpdateColumns(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			log.Printf("⚠️ [VOTE] vote by %s references unknown submission #%d", in.VoterWallet, in.SubmissionID)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyVoted
	}
	return err
}

// SelectWinnerInput names the winning submission; only the poster may choose.
type SelectWinnerInput struct {
	BountyID     uint   `json:"bountyId"`
	SubmissionID uint   `json:"submissionId"`
	PosterWallet string `json:"posterWallet"`
}

// SelectWinner completes the bounty, marks the winning submission and credits
// the winner's BXP wins by the tier-scaled win credit. A winner without a
// ledger gets nothing. Returns the BXP actually credited.
func (s *BountyService) SelectWinner(ctx context.Context, in SelectWinnerInput) (float64, error) {
	var awarded float64
	var winnerWallet string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bounty models.Bounty
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", in.BountyID).
			First(&bounty).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBountyNotFound
			}
			return err
		}
		if bounty.Poster != in.PosterWallet {
			return ErrNotAuthorized
		}
		if bounty.Status == models.BountyStatusCompleted {
			return ErrWinnerAlreadySelected
		}

		submissionID := in.SubmissionID
		if err := tx.Model(&models.Bounty{}).Where("id = ?", bounty.ID).Updates(map[string]any{
			"status":               models.BountyStatusCompleted,
			"winner_submission_id": submissionID,
			"updated_at":           time.Now(),
		}).Error; err != nil {
			return err
		}

		var sub models.Submission
		err := tx.Where("id = ?", submissionID).First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("⚠️ [WINNER] bounty #%d completed with unknown submission #%d, no BXP credited", bounty.ID, submissionID)
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Submission{}).Where("id = ?", sub.ID).
			Update("status", models.SubmissionStatusWinner).Error; err != nil {
			return err
		}

		winnerWallet = sub.Wallet
		credit := WinCredit(sub.Tier)
		credited, err := creditLedger(tx, sub.Wallet, false, func(b *models.BXPBalances) {
			b.Wins += credit
		})
		if err != nil {
			return err
		}
		if credited {
			awarded = credit
		} else {
			log.Printf("ℹ️ [WINNER] %s has no BXP ledger, skipping win credit", sub.Wallet)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("🏆 [WINNER] Bounty #%d won by submission #%d (%s), +%g BXP",
		in.BountyID, in.SubmissionID, winnerWallet, awarded)
	return awarded, nil
}
