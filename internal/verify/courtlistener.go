package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/veracite/veracite/internal/model"
	"github.com/veracite/veracite/internal/util"
)

// clClient is the HTTP plumbing shared by both CourtListener providers
type clClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

func newCLClient(cfg model.VerifyConfig, httpCfg model.HTTPConfig) *clClient {
	return &clClient{
		httpClient: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		baseURL:   strings.TrimRight(cfg.CourtListenerURL, "/"),
		token:     cfg.CourtListenerToken,
		userAgent: httpCfg.UserAgent,
	}
}

// do executes a request and reads a bounded body. Network errors and 5xx
// responses wrap model.ErrProviderUnavailable so the chain advances.
func (c *clClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", model.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2_000_000))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", model.ErrProviderUnavailable, err)
	}
	return body, nil
}

// LookupProvider is the primary structured step: CourtListener's
// citation-lookup endpoint resolves citation text directly to a case cluster.
type LookupProvider struct {
	client *clClient
}

// NewLookupProvider creates the citation-lookup provider
func NewLookupProvider(cfg model.VerifyConfig, httpCfg model.HTTPConfig) *LookupProvider {
	return &LookupProvider{client: newCLClient(cfg, httpCfg)}
}

// Name returns the provider name
func (p *LookupProvider) Name() string { return "courtlistener-lookup" }

// Source returns the trust tier
func (p *LookupProvider) Source() model.VerificationSource { return model.SourceLookup }

// citation-lookup response shape (one entry per recognized citation)
type clLookupEntry struct {
	Citation            string   `json:"citation"`
	NormalizedCitations []string `json:"normalized_citations"`
	Status              int      `json:"status"`
	Clusters            []struct {
		CaseName    string `json:"case_name"`
		DateFiled   string `json:"date_filed"`
		AbsoluteURL string `json:"absolute_url"`
		Citations   []struct {
			Volume   json.Number `json:"volume"`
			Reporter string      `json:"reporter"`
			Page     string      `json:"page"`
		} `json:"citations"`
	} `json:"clusters"`
}

// Lookup resolves a citation through the citation-lookup endpoint
func (p *LookupProvider) Lookup(ctx context.Context, citation string) (*LookupResult, error) {
	form := url.Values{"text": {citation}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.client.baseURL+"/api/rest/v4/citation-lookup/",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := p.client.do(req)
	if err != nil {
		return nil, err
	}

	var entries []clLookupEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, e := range entries {
		if e.Status != http.StatusOK || len(e.Clusters) == 0 {
			continue
		}
		cl := e.Clusters[0]
		return &LookupResult{
			Found:     true,
			CaseName:  cl.CaseName,
			Date:      cl.DateFiled,
			URL:       p.client.baseURL + cl.AbsoluteURL,
			Citations: clusterCitationStrings(cl.Citations),
		}, nil
	}
	return &LookupResult{Found: false}, nil
}

// SearchProvider is the second step: a citation-field search (not full-text,
// which would surface citing cases instead of the cited case). Its results
// still pass through the anti-contamination check.
type SearchProvider struct {
	client *clClient
}

// NewSearchProvider creates the citation-field search provider
func NewSearchProvider(cfg model.VerifyConfig, httpCfg model.HTTPConfig) *SearchProvider {
	return &SearchProvider{client: newCLClient(cfg, httpCfg)}
}

// Name returns the provider name
func (p *SearchProvider) Name() string { return "courtlistener-search" }

// Source returns the trust tier
func (p *SearchProvider) Source() model.VerificationSource { return model.SourceSearch }

type clSearchResponse struct {
	Results []struct {
		CaseName    string   `json:"caseName"`
		DateFiled   string   `json:"dateFiled"`
		AbsoluteURL string   `json:"absolute_url"`
		Citation    []string `json:"citation"`
	} `json:"results"`
}

// Lookup resolves a citation through the search endpoint's citation field
func (p *SearchProvider) Lookup(ctx context.Context, citation string) (*LookupResult, error) {
	q := url.Values{
		"type":     {"o"},
		"citation": {citation},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.client.baseURL+"/api/rest/v4/search/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	body, err := p.client.do(req)
	if err != nil {
		return nil, err
	}

	var resp clSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Results) == 0 {
		return &LookupResult{Found: false}, nil
	}

	r := resp.Results[0]
	return &LookupResult{
		Found:     true,
		CaseName:  r.CaseName,
		Date:      r.DateFiled,
		URL:       p.client.baseURL + r.AbsoluteURL,
		Citations: r.Citation,
	}, nil
}

func clusterCitationStrings(cites []struct {
	Volume   json.Number `json:"volume"`
	Reporter string      `json:"reporter"`
	Page     string      `json:"page"`
}) []string {
	out := make([]string, 0, len(cites))
	for _, c := range cites {
		out = append(out, fmt.Sprintf("%s %s %s", c.Volume.String(), c.Reporter, c.Page))
	}
	return out
}

// yearOf extracts the 4-digit year from an ISO date or bare year string
func yearOf(date string) string {
	if len(date) >= 4 {
		y := date[:4]
		for _, r := range y {
			if r < '0' || r > '9' {
				return ""
			}
		}
		return y
	}
	return ""
}
