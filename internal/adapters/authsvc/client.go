// internal/adapters/authsvc/client.go
package authsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"kos_service/internal/adapters/observability"
	"kos_service/internal/domain"
)

const ownerPath = "/api/owner"

// Client talks to the auth service (token verification) and the owner service.
// It never retries: a doubtful answer fails closed.
type Client struct {
	verifyURL string
	ownerBase string
	hc         *http.Client
	rl         *rate.Limiter
}

type Options struct {
	VerifyURL    string // full verification endpoint, used as-is
	OwnerBaseURL string // empty disables owner validation
	Timeout       time.Duration
	RPS           int
}

func New(o Options) (*Client, error) {
	if o.VerifyURL == "" {
		return nil, fmt.Errorf("auth verify URL is required")
	}
	if o.Timeout <= 0 {
		o.Timeout = 3 * time.Second
	}
	if o.RPS <= 0 {
		o.RPS = 50
	}
	return &Client{
		verifyURL: o.VerifyURL,
		ownerBase: strings.TrimRight(o.OwnerBaseURL, "/"),
		hc:        &http.Client{Timeout: o.Timeout},
		rl:        rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
	}, nil
}

// OwnerValidationEnabled reports whether an owner service is configured.
func (c *Client) OwnerValidationEnabled() bool { return c.ownerBase != "" }

type verifyResponse struct {
	Data struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	} `json:"data"`
}

// Verify exchanges a bearer token for a principal.
func (c *Client) Verify(ctx context.Context, token string) (domain.Principal, error) {
	resp, err := c.post(ctx, "verify", c.verifyURL, nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if err != nil {
		return domain.Principal{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		log.Warn().Int("status", resp.StatusCode).Msg("token verification rejected")
		return domain.Principal{}, fmt.Errorf("verify: status %d: %w", resp.StatusCode, domain.ErrUnauthenticated)
	}

	var vr verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&vr); err != nil {
		return domain.Principal{}, fmt.Errorf("verify: decode body: %v: %w", err, domain.ErrUnauthenticated)
	}
	if strings.TrimSpace(vr.Data.UserID) == "" {
		return domain.Principal{}, fmt.Errorf("verify: response without userId: %w", domain.ErrUnauthenticated)
	}

	p := domain.Principal{ID: vr.Data.UserID}
	if vr.Data.Role != "" {
		p.Capabilities = []domain.Capability{domain.Capability(vr.Data.Role)}
	}
	return p, nil
}

// ValidateOwner asks the owner service whether ownerID is a known owner.
func (c *Client) ValidateOwner(ctx context.Context, ownerID string) error {
	body, _ := json.Marshal(map[string]string{"id": ownerID})
	log.Info().Str("owner_id", ownerID).Msg("validating owner")
	resp, err := c.post(ctx, "owner", c.ownerBase+ownerPath, body, func(r *http.Request) {
		r.Header.Set("Content-Type", "application/json")
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Str("owner_id", ownerID).Int("status", resp.StatusCode).Msg("owner validation failed")
		return fmt.Errorf("owner service status %d: %w", resp.StatusCode, domain.ErrInvalidOwner)
	}
	return nil
}

// post sends a single request. Any failure to obtain a response, including the
// limiter wait or a timeout, is reported as domain.ErrUpstreamUnavailable.
func (c *Client) post(ctx context.Context, endpoint, url string, body []byte, decorate func(*http.Request)) (*http.Response, error) {
	start := time.Now()
	if err := c.rl.Wait(ctx); err != nil {
		observability.ObserveExternal("auth", endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%s: rate limiter: %v: %w", endpoint, err, domain.ErrUpstreamUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %v: %w", endpoint, err, domain.ErrUpstreamUnavailable)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "kos-service/1.0")
	decorate(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("auth", endpoint, 0, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error().Err(err).Str("endpoint", endpoint).Msg("auth service timed out")
		} else {
			log.Error().Err(err).Str("endpoint", endpoint).Msg("auth service unreachable")
		}
		return nil, fmt.Errorf("%s: %v: %w", endpoint, err, domain.ErrUpstreamUnavailable)
	}
	observability.ObserveExternal("auth", endpoint, resp.StatusCode, time.Since(start))
	return resp, nil
}
