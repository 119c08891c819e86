package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
	"unicode/utf16"

	"fairbounty/utils"
)

// Wallet addresses (base58) are 32 to 44 characters.
const (
	MinWalletLength = 32
	MaxWalletLength = 44
)

var (
	ErrWalletRequired = errors.New("Wallet address required")
	ErrInvalidWallet  = errors.New("Invalid wallet address")
	ErrScoreNotFound  = errors.New("wallet not found on FairScale")
)

// UpstreamStatusError is a non-2xx, non-404 answer from FairScale.
type UpstreamStatusError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("FairScale API returned %d", e.StatusCode)
}

// ValidateWallet checks presence and length of a wallet address. Length is
// counted in UTF-16 code units, as browsers count it.
func ValidateWallet(wallet string) error {
	if wallet == "" {
		return ErrWalletRequired
	}
	if n := len(utf16.Encode([]rune(wallet))); n < MinWalletLength || n > MaxWalletLength {
		return ErrInvalidWallet
	}
	return nil
}

// FairScaleClient fetches reputation scores from the FairScale API.
type FairScaleClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewFairScaleClient(baseURL, apiKey string, timeout time.Duration) *FairScaleClient {
	if apiKey == "" {
		log.Println("⚠️  FAIRSCALE_API_KEY not set, score requests will be unauthenticated")
	}
	return &FairScaleClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  utils.NewHTTPClient(timeout),
	}
}

// FetchScore returns FairScale's JSON body for wallet unchanged.
// A 404 yields ErrScoreNotFound and other non-2xx answers an *UpstreamStatusError.
func (c *FairScaleClient) FetchScore(ctx context.Context, wallet string) (json.RawMessage, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid FairScale URL %q: %w", c.BaseURL, err)
	}
	q := u.Query()
	q.Set("wallet", wallet)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("fairkey", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FairScale request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read FairScale response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrScoreNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("FairScale /score returned %d: %s", resp.StatusCode, string(body))
		return nil, &UpstreamStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("FairScale returned invalid JSON")
	}
	return json.RawMessage(body), nil
}

// FallbackScore is served when FairScale does not know the wallet yet.
func FallbackScore(wallet string, now time.Time) map[string]any {
	return map[string]any{
		"wallet":         wallet,
		"fairscore":      0,
		"fairscore_base": 0,
		"social_score":   0,
		"tier":           "unranked",
		"badges":         []any{},
		"actions":        []any{},
		"timestamp":      now.UTC().Format(time.RFC3339),
		"_fallback":      true,
	}
}
