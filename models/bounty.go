package models

import (
	"time"

	"gorm.io/datatypes"
)

type BountyStatus string

const (
	BountyStatusOpen      BountyStatus = "open"
	BountyStatusCompleted BountyStatus = "completed"
)

// Bounty is a posted task. Lifecycle: open → submissions accrue → poster
// selects a winner → completed.
type Bounty struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	Title              string                      `gorm:"not null" json:"title"`
	Slug               string                      `gorm:"index" json:"slug"`
	Description        string                      `gorm:"type:text" json:"description"`
	ProjectName        string                      `json:"projectName"`
	Category           string                      `gorm:"index" json:"category"`
	PrizeType          string                      `json:"prizeType"` // token | meme | nft | other
	Reward             string                      `json:"reward"`
	Currency           string                      `json:"currency"`
	MemeToken          string                      `json:"memeToken,omitempty"`
	NFTName            string                      `json:"nftName,omitempty"`
	NFTImage           string                      `json:"nftImage,omitempty"`
	MinTier            int                         `gorm:"default:1" json:"minTier"`
	Tags               datatypes.JSONSlice[string] `json:"tags"`
	Deadline           string                      `json:"deadline"`
	Poster             string                      `gorm:"index;not null" json:"poster"`
	PosterName         string                      `json:"posterName"`
	Status             BountyStatus                `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	SubmissionCount    int64                       `gorm:"not null;default:0" json:"submissionCount"`
	WinnerSubmissionID *uint                       `json:"winnerSubmissionId"`
	ContactMethod      string                      `json:"contactMethod"`
	ContactInfo        string                      `json:"contactInfo"`
	Requirements       string                      `gorm:"type:text" json:"requirements"`
	EvaluationCriteria string                      `gorm:"type:text" json:"evaluationCriteria"`
	IsBeta             bool                        `gorm:"not null;default:false" json:"isBeta"`
	CreatedAt          time.Time                   `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt          time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BountyApplication is a free-form, append-only application from a wallet
// that wants to post bounties.
type BountyApplication struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Wallet      string         `gorm:"index;not null" json:"wallet"`
	DisplayName string         `json:"displayName"`
	FairScore   float64        `json:"fairScore"`
	Form        datatypes.JSON `json:"form"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

type SubmissionStatus string

const (
	SubmissionStatusActive SubmissionStatus = "active"
	SubmissionStatusWinner SubmissionStatus = "winner"
)

// Submission is one wallet's entry for a bounty. Score is kept up to date by votes.
type Submission struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	BountyID    uint             `gorm:"not null;uniqueIndex:idx_submission_bounty_wallet" json:"bountyId"`
	Wallet      string           `gorm:"not null;uniqueIndex:idx_submission_bounty_wallet" json:"wallet"`
	DisplayName string           `json:"displayName"`
	Tier        int              `gorm:"not null;default:1" json:"tier"`
	Content     string           `gorm:"type:text" json:"content"`
	Links       datatypes.JSON   `json:"links"`
	Score       float64          `gorm:"not null;default:0" json:"score"`
	Upvotes     float64          `gorm:"not null;default:0" json:"upvotes"`
	Downvotes   float64          `gorm:"not null;default:0" json:"downvotes"`
	Status      SubmissionStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"createdAt"`
}

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Vote is immutable once cast.
type Vote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;uniqueIndex:idx_vote_submission_voter" json:"submissionId"`
	VoterWallet  string    `gorm:"not null;uniqueIndex:idx_vote_submission_voter" json:"voterWallet"`
	VoteType     VoteType  `gorm:"type:varchar(8);not null" json:"voteType"`
	VoteWeight   float64   `gorm:"not null;default:1" json:"voteWeight"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
