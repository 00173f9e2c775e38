package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/logger"

	"golang.org/x/time/rate"
)

// maxErrorBodyBytes caps how much of an error response is kept in the returned error
const maxErrorBodyBytes = 4096

// HoldActionConfig configures the hold action HTTP client
type HoldActionConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RatePerSecond  float64
	IgnoreNotFound bool
}

// HoldActionRepository calls the external service that places and releases movement holds
type HoldActionRepository struct {
	client         *http.Client
	limiter        *rate.Limiter
	baseURL        string
	ignoreNotFound bool
	logger         logger.Logger
}

// NewHoldActionRepository creates a new hold action client. client may carry its own
// transport (e.g. an oauth2 token source); a nil client gets a plain one.
func NewHoldActionRepository(cfg HoldActionConfig, client *http.Client, logger logger.Logger) *HoldActionRepository {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	return &HoldActionRepository{
		client:         client,
		limiter:        rate.NewLimiter(limit, 1),
		baseURL:        cfg.BaseURL,
		ignoreNotFound: cfg.IgnoreNotFound,
		logger:         logger,
	}
}

var _ repository.HoldActionRepository = (*HoldActionRepository)(nil)

type holdRequest struct {
	HoldRequired bool `json:"holdRequired"`
}

// SetHold places (hold=true) or releases (hold=false) the hold on a movement
func (r *HoldActionRepository) SetHold(ctx context.Context, movementID string, hold bool) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("hold action rate limiter: %w", err)
	}

	jsonData, err := json.Marshal(holdRequest{HoldRequired: hold})
	if err != nil {
		return fmt.Errorf("failed to marshal hold request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/movements/%s/hold", r.baseURL, url.PathEscape(movementID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		if r.ignoreNotFound {
			r.logger.Warn("Hold action target not found, ignoring", "movementId", movementID, "hold", hold)
			return nil
		}
		return fmt.Errorf("hold action for %s: %w", movementID, repository.ErrMovementNotFound)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		r.logger.Info("Hold action applied", "movementId", movementID, "hold", hold)
		return nil
	default:
		return fmt.Errorf("hold action service returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
}

// readErrorBody returns a JSON error body re-encoded compactly, or any other body as text
func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil {
		return fmt.Sprintf("<unreadable body: %v>", err)
	}

	var errorBody map[string]interface{}
	if err := json.Unmarshal(data, &errorBody); err == nil {
		if compact, err := json.Marshal(errorBody); err == nil {
			return string(compact)
		}
	}
	return strings.TrimSpace(string(data))
}
