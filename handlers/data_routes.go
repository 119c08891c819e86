package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"fairbounty/metrics"
	"fairbounty/middleware"
	"fairbounty/models"
	"fairbounty/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// actionHandler parses its own typed request and returns a typed response.
// A non-nil error becomes an HTTP 500.
type actionHandler func(c *fiber.Ctx) (any, error)

// DataAPI serves /api/data, dispatching on the `action` query parameter.
type DataAPI struct {
	profiles  *services.ProfileService
	bxp       *services.BXPService
	referrals *services.ReferralService
	bounties  *services.BountyService
	stats     *services.StatsService

	actions map[string]actionHandler
}

func NewDataAPI(db *gorm.DB) *DataAPI {
	api := &DataAPI{
		profiles:  services.NewProfileService(db),
		bxp:       services.NewBXPService(db),
		referrals: services.NewReferralService(db),
		bounties:  services.NewBountyService(db),
		stats:     services.NewStatsService(db),
	}
	api.actions = map[string]actionHandler{
		"get-profile":       api.getProfile,
		"save-profile":      api.saveProfile,
		"get-bxp":           api.getBXP,
		"claim-welcome":     api.claimWelcome,
		"process-referral":  api.processReferral,
		"get-referrals":     api.getReferrals,
		"track-wallet":      api.trackWallet,
		"get-stats":         api.getStats,
		"submit-bounty-app": api.submitBountyApp,
		"set-referral-code": api.setReferralCode,
		"get-referral-code": api.getReferralCode,
		"resolve-referral":  api.resolveReferral,
		"check-beta":        api.checkBeta,
		"create-bounty":     api.createBounty,
		"get-bounties":      api.getBounties,
		"submit-work":       api.submitWork,
		"get-submissions":   api.getSubmissions,
		"vote":              api.vote,
		"select-winner":     api.selectWinner,
	}
	return api
}

func SetupDataRoutes(app *fiber.App, api *DataAPI) {
	app.Use("/api/data", middleware.PermissiveCORS(fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions))
	app.Get("/api/data", api.Dispatch)
	app.Post("/api/data", api.Dispatch)
}

// Dispatch looks the action up in the route table and writes its result.
func (api *DataAPI) Dispatch(c *fiber.Ctx) error {
	action := c.Query("action")
	handler, ok := api.actions[action]
	if !ok {
		metrics.DataActions.WithLabelValues("", metrics.OutcomeUnknown).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown action: " + action,
		})
	}

	start := time.Now()
	out, err := handler(c)
	metrics.DataActionDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DataActions.WithLabelValues(action, metrics.OutcomeError).Inc()
		log.Printf("❌ [DATA] action=%s id=%s failed: %v", action, middleware.RequestID(c), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	outcome := metrics.OutcomeOK
	if r, ok := out.(interface{ Rejected() bool }); ok && r.Rejected() {
		outcome = metrics.OutcomeRejected
	}
	metrics.DataActions.WithLabelValues(action, outcome).Inc()
	return c.JSON(out)
}

// bindBody decodes the JSON body into out. An empty body leaves out zeroed.
func bindBody(c *fiber.Ctx, out any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	return c.App().Config().JSONDecoder(body, out)
}

// --- typed contracts ---

type walletQuery struct {
	Wallet string `query:"wallet"`
}

type walletBody struct {
	Wallet string `json:"wallet"`
}

// writeResult is the in-band outcome of a mutating action.
type writeResult struct {
	Success      bool   `json:"success"`
	ID           uint   `json:"id,omitempty"`
	Error        string `json:"error,omitempty"`
	AlreadyVoted bool   `json:"alreadyVoted,omitempty"`
}

func (r writeResult) Rejected() bool { return !r.Success }

type claimWelcomeResponse struct {
	*services.ClaimWelcomeResult
}

func (r claimWelcomeResponse) Rejected() bool { return r.AlreadyClaimed }

// --- profiles & presence ---

type profileResponse struct {
	Profile json.RawMessage `json:"profile"`
}

func (api *DataAPI) getProfile(c *fiber.Ctx) (any, error) {
	var q walletQuery
	if err := c.QueryParser(&q); err != nil {
		return nil, err
	}
	profile, err := api.profiles.GetProfile(c.UserContext(), q.Wallet)
	if err != nil {
		return nil, err
	}
	return profileResponse{Profile: profile}, nil
}

type saveProfileRequest struct {
	Wallet  string          `json:"wallet"`
	Profile json.RawMessage `json:"profile"`
}

func (api *DataAPI) saveProfile(c *fiber.Ctx) (any, error) {
	var req saveProfileRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	if err := api.profiles.SaveProfile(c.UserContext(), req.Wallet, req.Profile); err != nil {
		return nil, err
	}
	return writeResult{Success: true}, nil
}

func (api *DataAPI) trackWallet(c *fiber.Ctx) (any, error) {
	var req walletBody
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	if err := api.profiles.TrackWallet(c.UserContext(), req.Wallet); err != nil {
		return nil, err
	}
	return writeResult{Success: true}, nil
}

type checkBetaResponse struct {
	HasAccess bool `json:"hasAccess"`
}

func (api *DataAPI) checkBeta(c *fiber.Ctx) (any, error) {
	var q walletQuery
	if err := c.QueryParser(&q); err != nil {
		return nil, err
	}
	return checkBetaResponse{HasAccess: api.profiles.HasBetaAccess(c.UserContext(), q.Wallet)}, nil
}

func (api *DataAPI) submitBountyApp(c *fiber.Ctx) (any, error) {
	var req services.BountyApplicationInput
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	id, err := api.profiles.SubmitBountyApplication(c.UserContext(), req)
	if err != nil {
		return nil, err
	}
	return writeResult{Success: true, ID: id}, nil
}

type statsResponse struct {
	Stats *services.Stats `json:"stats"`
}

func (api *DataAPI) getStats(c *fiber.Ctx) (any, error) {
	stats, err := api.stats.GetStats(c.UserContext())
	if err != nil {
		return nil, err
	}
	return statsResponse{Stats: stats}, nil
}

// --- BXP ---

type bxpResponse struct {
	BXP *models.BXPBalances `json:"bxp"`
}

func (api *DataAPI) getBXP(c *fiber.Ctx) (any, error) {
	var q walletQuery
	if err := c.QueryParser(&q); err != nil {
		return nil, err
	}
	bxp, err := api.bxp.GetBXP(c.UserContext(), q.Wallet)
	if err != nil {
		return nil, err
	}
	return bxpResponse{BXP: bxp}, nil
}

type claimWelcomeRequest struct {
	Wallet string  `json:"wallet"`
	Amount float64 `json:"amount"`
}

func (api *DataAPI) claimWelcome(c *fiber.Ctx) (any, error) {
	var req claimWelcomeRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	res, err := api.bxp.ClaimWelcome(c.UserContext(), req.Wallet, req.Amount)
	if err != nil {
		return nil, err
	}
	return claimWelcomeResponse{res}, nil
}

type processReferralRequest struct {
	ReferrerWallet string  `json:"referrerWallet"`
	ReferredWallet string  `json:"referredWallet"`
	ReferrerAmount float64 `json:"referrerAmount"`
	ReferredAmount float64 `json:"referredAmount"`
}

func (api *DataAPI) processReferral(c *fiber.Ctx) (any, error) {
	var req processReferralRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	if err := api.bxp.ProcessReferral(c.UserContext(),
		req.ReferrerWallet, req.ReferredWallet, req.ReferrerAmount, req.ReferredAmount); err != nil {
		return nil, err
	}
	return writeResult{Success: true}, nil
}

// --- referrals ---

type referralsResponse struct {
	Referrals []services.ReferredWallet `json:"referrals"`
	Count     int                       `json:"count"`
}

func (api *DataAPI) getReferrals(c *fiber.Ctx) (any, error) {
	var q walletQuery
	if err := c.QueryParser(&q); err != nil {
		return nil, err
	}
	refs, err := api.referrals.GetReferrals(c.UserContext(), q.Wallet)
	if err != nil {
		return nil, err
	}
	return referralsResponse{Referrals: refs, Count: len(refs)}, nil
}

type setReferralCodeRequest struct {
	Wallet string `json:"wallet"`
	Code   string `json:"code"`
}

type setReferralCodeResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
}

func (api *DataAPI) setReferralCode(c *fiber.Ctx) (any, error) {
	var req setReferralCodeRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	code, err := api.referrals.SetReferralCode(c.UserContext(), req.Wallet, req.Code)
	if err != nil {
		return nil, err
	}
	return setReferralCodeResponse{Success: true, Code: code}, nil
}

type referralCodeResponse struct {
	Code *string `json:"code"`
}

func (api *DataAPI) getReferralCode(c *fiber.Ctx) (any, error) {
	var q walletQuery
	if err := c.QueryParser(&q); err != nil {
		return nil, err
	}
	code, err := api.referrals.GetReferralCode(c.UserContext(), q.Wallet)
	if err != nil {
		return nil, err
	}
	return referralCodeResponse{Code: code}, nil
}

type resolveReferralResponse struct {
	Wallet *string `json:"wallet"`
}

func (api *DataAPI) resolveReferral(c *fiber.Ctx) (any, error) {
	wallet, err := api.referrals.ResolveReferral(c.UserContext(), c.Query("code"))
	if err != nil {
		return nil, err
	}
	return resolveReferralResponse{Wallet: wallet}, nil
}

// --- bounties ---

// createBountyRequest accepts the bounty either bare or wrapped in bountyData.
type createBountyRequest struct {
	services.BountyInput
	BountyData *services.BountyInput `json:"bountyData"`
}

func (api *DataAPI) createBounty(c *fiber.Ctx) (any, error) {
	var req createBountyRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	in := req.BountyInput
	if req.BountyData != nil {
		in = *req.BountyData
	}
	id, err := api.bounties.CreateBounty(c.UserContext(), in)
	if err != nil {
		return nil, err
	}
	return writeResult{Success: true, ID: id}, nil
}

type bountiesResponse struct {
	Bounties []models.Bounty `json:"bounties"`
}

func (api *DataAPI) getBounties(c *fiber.Ctx) (any, error) {
	return bountiesResponse{Bounties: api.bounties.ListOpenBounties(c.UserContext())}, nil
}

func (api *DataAPI) submitWork(c *fiber.Ctx) (any, error) {
	var req services.SubmitWorkInput
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	id, err := api.bounties.SubmitWork(c.UserContext(), req)
	if errors.Is(err, services.ErrAlreadySubmitted) {
		return writeResult{Success: false, Error: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	return writeResult{Success: true, ID: id}, nil
}

type submissionsQuery struct {
	BountyID uint `query:"bountyId"`
}

type submissionsResponse struct {
	Submissions []models.Submission `json:"submissions"`
}

func (api *DataAPI) getSubmissions(c *fiber.Ctx) (any, error) {
	var q submissionsQuery
	if err := c.QueryParser(&q); err != nil {
		log.Printf("⚠️ [DATA] get-submissions: bad bountyId %q: %v", c.Query("bountyId"), err)
		return submissionsResponse{Submissions: []models.Submission{}}, nil
	}
	return submissionsResponse{Submissions: api.bounties.ListSubmissions(c.UserContext(), q.BountyID)}, nil
}

func (api *DataAPI) vote(c *fiber.Ctx) (any, error) {
	var req services.VoteInput
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	err := api.bounties.CastVote(c.UserContext(), req)
	if errors.Is(err, services.ErrAlreadyVoted) {
		return writeResult{Success: false, AlreadyVoted: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return writeResult{Success: true}, nil
}

type selectWinnerResponse struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error,omitempty"`
	BXPAwarded *float64 `json:"bxpAwarded,omitempty"`
}

func (r selectWinnerResponse) Rejected() bool { return !r.Success }

func (api *DataAPI) selectWinner(c *fiber.Ctx) (any, error) {
	var req services.SelectWinnerInput
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	awarded, err := api.bounties.SelectWinner(c.UserContext(), req)
	switch {
	case errors.Is(err, services.ErrBountyNotFound),
		errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrWinnerAlreadySelected):
		return selectWinnerResponse{Success: false, Error: err.Error()}, nil
	case err != nil:
		return nil, err
	}
	return selectWinnerResponse{Success: true, BXPAwarded: &awarded}, nil
}
