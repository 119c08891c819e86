package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"fairbounty/metrics"
	"fairbounty/middleware"
	"fairbounty/services"

	"github.com/gofiber/fiber/v2"
)

// ScoreFetcher is the part of the FairScale client the proxy depends on.
type ScoreFetcher interface {
	FetchScore(ctx context.Context, wallet string) (json.RawMessage, error)
}

func SetupScoreRoutes(app *fiber.App, scores ScoreFetcher) {
	app.Use("/api/fairscore", middleware.PermissiveCORS(fiber.MethodGet, fiber.MethodOptions))
	app.Get("/api/fairscore", GetFairScore(scores))
}

// GetFairScore relays FairScale's score for ?wallet=. Unknown wallets get a
// zeroed fallback payload instead of an error.
func GetFairScore(scores ScoreFetcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		wallet := c.Query("wallet")
		if err := services.ValidateWallet(wallet); err != nil {
			metrics.ScoreRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		body, err := scores.FetchScore(c.UserContext(), wallet)
		if errors.Is(err, services.ErrScoreNotFound) {
			metrics.ScoreRequests.WithLabelValues(metrics.OutcomeFallback).Inc()
			log.Printf("ℹ️ [SCORE] %s unknown to FairScale, serving fallback", wallet)
			return c.JSON(services.FallbackScore(wallet, time.Now()))
		}
		var upstream *services.UpstreamStatusError
		if errors.As(err, &upstream) {
			metrics.ScoreRequests.WithLabelValues(metrics.OutcomeUpstream).Inc()
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":  "FairScale API error",
				"status": upstream.StatusCode,
			})
		}
		if err != nil {
			metrics.ScoreRequests.WithLabelValues(metrics.OutcomeError).Inc()
			log.Printf("❌ [SCORE] %s: %v", wallet, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		metrics.ScoreRequests.WithLabelValues(metrics.OutcomeOK).Inc()
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	}
}
