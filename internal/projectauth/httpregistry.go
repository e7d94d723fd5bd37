package projectauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPRegistry is the concrete RegistryClient this core depends on: a
// thin client over the Postgres-backed project registry named in spec §1
// as an external collaborator. Only the wire shape the Authorizer needs
// is modeled here; the registry's own schema and storage are out of core
// scope.
type HTTPRegistry struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPRegistry builds an HTTPRegistry with a sane default timeout,
// matching the teacher adapters' pattern of a short-lived, dedicated
// client per external collaborator rather than http.DefaultClient.
func NewHTTPRegistry(baseURL, token string) *HTTPRegistry {
	return &HTTPRegistry{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

type registryProjectResponse struct {
	ID             string   `json:"id"`
	Enabled        bool     `json:"enabled"`
	RateLimited    bool     `json:"rate_limited"`
	QuotaUsed      uint64   `json:"quota_used"`
	QuotaMax       uint64   `json:"quota_max"`
	AllowedOrigins []string `json:"allowed_origins"`
	Features       []struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	} `json:"features"`
	Secret string `json:"secret"`
}

// FetchProject implements RegistryClient. A 404 maps to ErrNotFound, a
// 401/403 maps to ErrInvalidKey, and any other non-2xx or decode failure
// is a genuine transport error the Authorizer's cache protocol must not
// cache (spec §4.4 step 3 "on transport failure, do not cache").
func (r *HTTPRegistry) FetchProject(ctx context.Context, projectID string) (ProjectData, error) {
	url := fmt.Sprintf("%s/projects/%s", r.BaseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ProjectData{}, fmt.Errorf("projectauth: building registry request: %w", err)
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return ProjectData{}, fmt.Errorf("projectauth: registry call failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ProjectData{}, ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ProjectData{}, ErrInvalidKey
	default:
		return ProjectData{}, fmt.Errorf("projectauth: registry returned status %d", resp.StatusCode)
	}

	var body registryProjectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ProjectData{}, fmt.Errorf("projectauth: decoding registry response: %w", err)
	}
	if !body.Enabled {
		return ProjectData{}, ErrDisabled
	}

	features := make([]Feature, 0, len(body.Features))
	for _, f := range body.Features {
		features = append(features, Feature{ID: f.ID, Enabled: f.Enabled})
	}

	return ProjectData{
		ID:             body.ID,
		IsEnabled:      body.Enabled,
		IsRateLimited:  body.RateLimited,
		Quota:          Quota{Used: body.QuotaUsed, Max: body.QuotaMax, Valid: body.QuotaMax > 0},
		AllowedOrigins: body.AllowedOrigins,
		Features:       features,
		Secret:         body.Secret,
	}, nil
}
