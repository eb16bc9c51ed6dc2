package verify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/veracite/veracite/internal/cache"
	"github.com/veracite/veracite/internal/extract"
	"github.com/veracite/veracite/internal/model"
	"github.com/veracite/veracite/internal/worker"
)

// Verifier drives the ordered provider chain for one run. Results are
// memoized per normalized citation, so a citation appearing twenty times in a
// brief costs one chain traversal, and optionally persisted through a cache
// layer across runs.
type Verifier struct {
	providers []Provider
	retry     RetryPolicy
	limiter   *worker.Limiter
	sems      map[string]chan struct{}

	memo   map[string]*model.VerificationResult
	memoMu sync.Mutex

	store    cache.Cache
	storeTTL model.CacheConfig

	cfg model.VerifyConfig
	log *zap.Logger
}

// NewVerifier assembles the chain in trust order: citation lookup, then
// citation-field search, then the allow-listed web fallback.
func NewVerifier(cfg model.VerifyConfig, httpCfg model.HTTPConfig, store cache.Cache, cacheCfg model.CacheConfig, log *zap.Logger) *Verifier {
	providers := []Provider{
		NewLookupProvider(cfg, httpCfg),
		NewSearchProvider(cfg, httpCfg),
		NewWebProvider(cfg, httpCfg, log),
	}
	return newVerifierWith(providers, cfg, store, cacheCfg, log)
}

// newVerifierWith wires an explicit chain; tests inject mock providers here.
func newVerifierWith(providers []Provider, cfg model.VerifyConfig, store cache.Cache, cacheCfg model.CacheConfig, log *zap.Logger) *Verifier {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sems := make(map[string]chan struct{}, len(providers))
	for _, p := range providers {
		sems[p.Name()] = make(chan struct{}, concurrency)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Verifier{
		providers: providers,
		retry:     NewRetryPolicy(cfg),
		limiter:   worker.NewLimiter(rps, concurrency),
		sems:      sems,
		memo:      make(map[string]*model.VerificationResult),
		store:     store,
		storeTTL:  cacheCfg,
		cfg:       cfg,
		log:       log,
	}
}

// Verify resolves one citation against the chain. The same citation text
// always yields the same result within a run. Extracted context is used only
// for confidence scoring, never copied into canonical fields.
func (v *Verifier) Verify(ctx context.Context, citation string, extracted model.ExtractedContext) *model.VerificationResult {
	key := extract.CanonicalCitation(citation)

	v.memoMu.Lock()
	if cached, ok := v.memo[key]; ok {
		v.memoMu.Unlock()
		return cached
	}
	v.memoMu.Unlock()

	// A stored unverified result is retried: the source may have been down on
	// the earlier run. Verified results are reused as-is.
	result := v.loadStored(key)
	if result == nil || !result.Verified {
		result = v.runChain(ctx, citation)
		v.saveStored(key, result)
	}
	v.scoreResult(result, extracted)

	v.memoMu.Lock()
	v.memo[key] = result
	v.memoMu.Unlock()

	return result
}

// runChain walks the providers in trust order and stops at the first
// accepted result.
func (v *Verifier) runChain(ctx context.Context, citation string) *model.VerificationResult {
	for _, p := range v.providers {
		if ctx.Err() != nil {
			break
		}

		r, err := v.lookupOnce(ctx, p, citation)
		if err != nil {
			v.log.Warn("provider failed",
				zap.String("provider", p.Name()),
				zap.String("citation", citation),
				zap.Error(err))
			continue
		}
		if !accepted(p.Source(), citation, r) {
			continue
		}

		return &model.VerificationResult{
			Verified:      true,
			CanonicalName: r.CaseName,
			CanonicalDate: r.Date,
			CanonicalURL:  r.URL,
			Source:        p.Source(),
		}
	}
	return model.Unverified()
}

// lookupOnce applies the per-provider rate limit, concurrency cap, and retry
// policy around a single provider call.
func (v *Verifier) lookupOnce(ctx context.Context, p Provider, citation string) (*LookupResult, error) {
	sem := v.sems[p.Name()]
	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var result *LookupResult
	err := v.retry.Do(ctx, func() error {
		if err := v.limiter.Wait(ctx, p.Name()); err != nil {
			return err
		}
		r, err := p.Lookup(ctx, citation)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// scoreResult computes the confidence score and year-mismatch flag from the
// canonical record against the extracted prose context.
func (v *Verifier) scoreResult(result *model.VerificationResult, extracted model.ExtractedContext) {
	if !result.Verified {
		result.Confidence = 0
		return
	}

	score := 0.0
	if result.CanonicalName != "" {
		score += 2
	}
	if nameTokenOverlap(extracted.CaseName, result.CanonicalName) {
		score++
	}

	canonYear := yearOf(result.CanonicalDate)
	if extracted.DecisionYear != "" && canonYear != "" {
		if extracted.DecisionYear == canonYear {
			score++
		} else if yearGap(extracted.DecisionYear, canonYear) > v.cfg.YearToleranceYears {
			result.YearMismatch = true
		}
	}

	result.Confidence = score / 4.0
}

// loadStored reads a persisted result from the cross-run cache, if configured.
func (v *Verifier) loadStored(key string) *model.VerificationResult {
	if v.store == nil {
		return nil
	}
	data, ok := v.store.Get(cache.CacheKey(key))
	if !ok {
		return nil
	}
	var r model.VerificationResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil
	}
	return &r
}

// saveStored persists a result, overwriting an existing entry only when the
// new source is equally or more trusted. A concurrent run may have written a
// better result between our load and this save.
func (v *Verifier) saveStored(key string, r *model.VerificationResult) {
	if v.store == nil {
		return
	}
	if prev := v.loadStored(key); prev != nil && !r.Source.AtLeastAsTrusted(prev.Source) {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := v.store.Set(cache.CacheKey(key), data, v.storeTTL.DiskTTL); err != nil {
		v.log.Debug("cache write failed", zap.Error(err))
	}
}

// Result returns this run's memoized result for a citation, or nil if the
// citation was never verified in this run.
func (v *Verifier) Result(citation string) *model.VerificationResult {
	v.memoMu.Lock()
	defer v.memoMu.Unlock()
	return v.memo[extract.CanonicalCitation(citation)]
}

// CanonicalURL returns the verified URL for a citation if this run already
// resolved it, for cluster merging after verification.
func (v *Verifier) CanonicalURL(citation string) string {
	v.memoMu.Lock()
	defer v.memoMu.Unlock()
	if r, ok := v.memo[extract.CanonicalCitation(citation)]; ok && r.Verified {
		return r.CanonicalURL
	}
	return ""
}

// citationListContains checks whether a record's own citation list includes
// the queried citation, comparing canonicalized forms so reporter spelling
// variants ("Wash. 2d" vs "Wn.2d") still match.
func citationListContains(list []string, citation string) bool {
	want := extract.CanonicalCitation(citation)
	for _, c := range list {
		if extract.CanonicalCitation(c) == want {
			return true
		}
	}
	return false
}

var overlapStopwords = map[string]bool{
	"v.": true, "v": true, "vs.": true, "in": true, "re": true,
	"the": true, "of": true, "a": true, "an": true, "et": true,
	"al.": true, "al": true, "state": true, "united": true,
	"states": true, "people": true, "commonwealth": true,
}

// nameTokenOverlap reports whether the two case names share a meaningful
// token. Party names like "Smith" count; glue like "v." and generic parties
// like "State" do not.
func nameTokenOverlap(extracted, canonical string) bool {
	if extracted == "" || canonical == "" {
		return false
	}
	canonTokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(canonical)) {
		tok = strings.Trim(tok, ",;:")
		if tok != "" && !overlapStopwords[tok] {
			canonTokens[tok] = true
		}
	}
	for _, tok := range strings.Fields(strings.ToLower(extracted)) {
		tok = strings.Trim(tok, ",;:")
		if tok != "" && !overlapStopwords[tok] && canonTokens[tok] {
			return true
		}
	}
	return false
}

// yearGap returns the absolute difference between two 4-digit year strings.
func yearGap(a, b string) int {
	ya, yb := atoi4(a), atoi4(b)
	if ya == 0 || yb == 0 {
		return 0
	}
	if ya > yb {
		return ya - yb
	}
	return yb - ya
}

func atoi4(s string) int {
	if len(s) != 4 {
		return 0
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
