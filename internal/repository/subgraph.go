package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/GoPolymarket/vaultscope/internal/pkg/metrics"
)

const subgraphSource = "subgraph"

const strategiesQuery = `query GetStrategiesByVaults($ids: [ID!]) {
  vaults(where: { id_in: $ids }) {
    id
    strategies {
      name
      address
    }
  }
}`

type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphError struct {
	Message string `json:"message"`
}

type strategiesResponse struct {
	Data struct {
		Vaults []model.SubgraphVault `json:"vaults"`
	} `json:"data"`
	Errors []graphError `json:"errors"`
}

// Subgraph resolves vault strategies from the vaults subgraph.
type Subgraph struct {
	url    string
	client *http.Client
}

func NewSubgraph(url string, timeout time.Duration) *Subgraph {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Subgraph{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

// StrategiesByVaults returns the strategies keyed by lowercase vault address.
// Vaults the subgraph does not know are absent from the map.
func (s *Subgraph) StrategiesByVaults(ctx context.Context, vaults []string) (map[string][]model.SubgraphStrategy, error) {
	if len(vaults) == 0 {
		return nil, apperrors.NewInvalidArgument("expected at least one vault address")
	}
	if s.url == "" {
		return nil, apperrors.NewSourceFailure(subgraphSource, fmt.Errorf("subgraph url not configured"))
	}

	ids := make([]string, len(vaults))
	for i, v := range vaults {
		ids[i] = model.NormalizeAddress(v)
	}

	start := time.Now()
	resp, err := s.query(ctx, graphRequest{Query: strategiesQuery, Variables: map[string]any{"ids": ids}})
	metrics.UpstreamLatency.WithLabelValues(subgraphSource).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(subgraphSource, "error").Inc()
		return nil, apperrors.NewSourceFailure(subgraphSource, err)
	}
	metrics.UpstreamRequests.WithLabelValues(subgraphSource, "ok").Inc()

	out := make(map[string][]model.SubgraphStrategy, len(resp.Data.Vaults))
	for _, v := range resp.Data.Vaults {
		out[model.NormalizeAddress(v.ID)] = v.Strategies
	}
	return out, nil
}

func (s *Subgraph) query(ctx context.Context, body graphRequest) (*strategiesResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var out strategiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode subgraph response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	return &out, nil
}
