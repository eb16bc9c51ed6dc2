package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/veracite/veracite/internal/model"
	"github.com/veracite/veracite/internal/util"
)

// WebProvider is the last chain step: a lookup restricted to a fixed
// allow-list of legal-content domains. A result is reported only when the
// located URL unambiguously encodes the queried volume/reporter/page, so a
// page that merely mentions the citation can never be accepted.
type WebProvider struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	domains    []string
	userAgent  string
	log        *zap.Logger
}

// NewWebProvider creates the allow-listed web fallback provider
func NewWebProvider(cfg model.VerifyConfig, httpCfg model.HTTPConfig, log *zap.Logger) *WebProvider {
	return &WebProvider{
		httpClient: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		robots:    util.NewRobotsChecker(httpCfg.UserAgent, httpCfg.Timeout),
		domains:   cfg.WebDomains,
		userAgent: httpCfg.UserAgent,
		log:       log,
	}
}

// Name returns the provider name
func (p *WebProvider) Name() string { return "web-fallback" }

// Source returns the trust tier
func (p *WebProvider) Source() model.VerificationSource { return model.SourceWebSearch }

var citationParts = regexp.MustCompile(`^(\d{1,4})\s+(.+?)\s+(\d{1,5})$`)

// Lookup tries each allow-listed domain in order. Domains with a
// deterministic citation URL scheme are probed directly; the rest are
// skipped (a full-text site search cannot satisfy the URL-pattern
// acceptance rule).
func (p *WebProvider) Lookup(ctx context.Context, citation string) (*LookupResult, error) {
	m := citationParts.FindStringSubmatch(citation)
	if m == nil {
		// Short forms and database citations have no volume/reporter/page to
		// encode; the web step cannot verify them.
		return &LookupResult{Found: false}, nil
	}
	volume, reporter, page := m[1], m[2], m[3]

	var lastErr error
	for _, domain := range p.domains {
		candidate := citationURL(domain, volume, reporter, page)
		if candidate == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.probe(ctx, candidate, volume, page)
		if err != nil {
			lastErr = err
			continue
		}
		if result != nil {
			return result, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return &LookupResult{Found: false}, nil
}

// citationURL builds the deterministic citation URL for domains that publish
// one; returns "" for domains without a usable scheme.
func citationURL(domain, volume, reporter, page string) string {
	switch domain {
	case "www.courtlistener.com", "courtlistener.com":
		// CourtListener's citation redirector.
		return fmt.Sprintf("https://www.courtlistener.com/c/%s/%s/%s/",
			url.PathEscape(reporter), volume, page)
	case "casetext.com":
		return fmt.Sprintf("https://casetext.com/search?q=%s",
			url.QueryEscape(fmt.Sprintf("%s %s %s", volume, reporter, page)))
	default:
		return ""
	}
}

// probe fetches a candidate URL and accepts it only when the final URL (after
// redirects) still encodes the queried volume and page.
func (p *WebProvider) probe(ctx context.Context, candidate, volume, page string) (*LookupResult, error) {
	if allowed, _, err := p.robots.CanFetch(ctx, candidate); err == nil && !allowed {
		p.log.Debug("robots.txt disallows fetch", zap.String("url", candidate))
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", model.ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	finalURL := resp.Request.URL.String()
	if !urlEncodesCitation(finalURL, volume, page) {
		// The site answered, but not with a page addressed by this citation.
		return nil, nil
	}

	name := pageTitle(io.LimitReader(resp.Body, 500_000))
	return &LookupResult{
		Found:    true,
		CaseName: cleanTitle(name),
		URL:      finalURL,
	}, nil
}

// urlEncodesCitation reports whether a URL path carries both the volume and
// page of the queried citation as distinct segments
func urlEncodesCitation(rawURL, volume, page string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' || r == '-' })
	hasVol, hasPage := false, false
	for _, s := range segments {
		if s == volume {
			hasVol = true
		}
		if s == page {
			hasPage = true
		}
	}
	return hasVol && hasPage
}

// pageTitle extracts the <title> text of an HTML page
func pageTitle(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// cleanTitle strips site branding from a page title ("Brown v. Board of
// Education, 347 U.S. 483 – CourtListener.com" -> case name portion)
func cleanTitle(title string) string {
	for _, sep := range []string{" – ", " | ", " - "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
			break
		}
	}
	// Drop a trailing citation from the title; the case name precedes the
	// first comma-digit boundary.
	if i := strings.Index(title, ", "); i > 0 {
		rest := title[i+2:]
		if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}
