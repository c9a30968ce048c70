package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/GoPolymarket/vaultscope/internal/pkg/metrics"
)

const vaultsAllPath = "/vaults/all"

// VaultAPI fetches the raw vault list from one REST endpoint.
type VaultAPI struct {
	source  string
	baseURL string
	client  *http.Client
}

func NewVaultAPI(source, baseURL string, timeout time.Duration) *VaultAPI {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &VaultAPI{
		source:  source,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *VaultAPI) FetchVaults(ctx context.Context) ([]model.RawVault, error) {
	if a.baseURL == "" {
		return nil, apperrors.NewSourceFailure(a.source, fmt.Errorf("base url not configured"))
	}

	start := time.Now()
	raws, err := a.fetch(ctx)
	metrics.UpstreamLatency.WithLabelValues(a.source).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(a.source, "error").Inc()
		return nil, apperrors.NewSourceFailure(a.source, err)
	}
	metrics.UpstreamRequests.WithLabelValues(a.source, "ok").Inc()
	return raws, nil
}

func (a *VaultAPI) fetch(ctx context.Context) ([]model.RawVault, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+vaultsAllPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raws []model.RawVault
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode vaults: %w", err)
	}
	return raws, nil
}
