// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the per-reference resolution state machine over
// a batch of citations: identifier extraction, evidence lookup,
// similarity verification, classifier fallback, then whole-batch
// duplicate detection and statistics. References are processed
// sequentially; the mandatory inter-request pacing doubles as the
// throttle for the rate-limited upstream services.
package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/refcheck/internal/diagnose"
	"github.com/pdiddy/refcheck/internal/dupes"
	"github.com/pdiddy/refcheck/internal/extract"
	"github.com/pdiddy/refcheck/internal/stats"
	"github.com/pdiddy/refcheck/internal/store"
	"github.com/pdiddy/refcheck/internal/verify"
	"github.com/pdiddy/refcheck/pkg/types"
)

// EvidenceClient is the bibliographic lookup surface the pipeline needs
// from Crossref.
type EvidenceClient interface {
	LookupDOI(ctx context.Context, doi string) (*types.Candidate, error)
	Search(ctx context.Context, citation string) (*types.Candidate, error)
}

// IDClient is the PubMed enrichment surface: identifier resolution and
// retraction/correction notices.
type IDClient interface {
	LookupIDs(ctx context.Context, doi string) (pmid, pmcid string, err error)
	Corrections(ctx context.Context, doi, pmid string) (correctionDOI, retractionDOI string, err error)
}

// Runner executes resolution runs. One Runner serves one run at a time;
// its frequency counters are batch-local and rebuilt from the cache on
// resume, never shared across runs.
type Runner struct {
	Crossref   EvidenceClient
	PubMed     IDClient
	Classifier diagnose.Backend
	Store      *store.Store
	Log        *zap.Logger

	cfg     types.PipelineConfig
	limiter *rate.Limiter
	jitter  func() time.Duration
	nowFunc func() time.Time

	authorCount map[string]int
	doiCount    map[string]int
}

// New builds a Runner. Zero pacing values fall back to 1s between
// references and a 60s cool-down every 100.
func New(cr EvidenceClient, pm IDClient, cls diagnose.Backend, st *store.Store, log *zap.Logger, cfg types.PipelineConfig) *Runner {
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = time.Second
	}
	if cfg.CooldownEvery == 0 {
		cfg.CooldownEvery = 100
	}
	if cfg.CooldownEvery < 0 {
		cfg.CooldownEvery = 0
	}
	if cfg.CooldownPeriod <= 0 {
		cfg.CooldownPeriod = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	maxJitter := cfg.RequestDelay / 2
	return &Runner{
		Crossref:    cr,
		PubMed:      pm,
		Classifier:  cls,
		Store:       st,
		Log:         log,
		cfg:         cfg,
		limiter:     rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		jitter:      func() time.Duration { return time.Duration(rand.Int63n(int64(maxJitter) + 1)) },
		nowFunc:     time.Now,
		authorCount: make(map[string]int),
		doiCount:    make(map[string]int),
	}
}

// Run resolves a batch of citations, resuming from the incremental
// store when the run already has cached records. Cancellation is
// cooperative: the context is checked between references and a
// cancelled run still returns every record resolved so far, with
// statistics over the completed subset.
func (r *Runner) Run(ctx context.Context, runID, inputPath string, citations []string) (types.BatchResult, error) {
	// Store writes run on a detached context: a cancelled run must still
	// persist and report every record it completed.
	persist := context.WithoutCancel(ctx)

	if err := r.Store.BeginRun(persist, runID, inputPath, len(citations)); err != nil {
		return types.BatchResult{}, err
	}

	refs, next, err := r.Store.Resume(persist, runID, len(citations))
	if err != nil {
		return types.BatchResult{}, err
	}
	r.rebuildCounters(refs)
	if next > 0 {
		r.Log.Info("resuming from cache",
			zap.String("run", runID),
			zap.Int("cached", next),
			zap.Int("total", len(citations)))
	}

	var runErr error
	for i := next; i < len(citations); i++ {
		if ctx.Err() != nil {
			r.Log.Warn("run cancelled", zap.String("run", runID), zap.Int("completed", i))
			break
		}
		if r.cfg.CooldownEvery > 0 && i > 0 && i%r.cfg.CooldownEvery == 0 {
			r.Log.Info("cooling down",
				zap.String("run", runID),
				zap.Int("processed", i),
				zap.Duration("period", r.cfg.CooldownPeriod))
			if !sleepCtx(ctx, r.cfg.CooldownPeriod) {
				break
			}
		}
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}
		sleepCtx(ctx, r.jitter())

		ref, provisional := r.resolve(ctx, citations[i])
		if err := r.Store.Append(persist, runID, i, ref, provisional); err != nil {
			runErr = err
			r.Log.Error("persisting record failed", zap.String("run", runID), zap.Int("position", i), zap.Error(err))
			break
		}
		refs = append(refs, ref)

		r.Log.Info("resolved",
			zap.String("run", runID),
			zap.Int("position", i+1),
			zap.Int("total", len(citations)),
			zap.String("status", string(ref.MatchStatus)),
			zap.String("doi", ref.APIDOI),
			zap.Bool("provisional", provisional))
	}

	dupes.MarkDOIDuplicates(refs)
	pairs := dupes.MarkFuzzyDuplicates(refs)
	statistics := stats.Calculate(refs, len(citations), pairs)

	if runErr == nil && ctx.Err() == nil && len(refs) == len(citations) {
		if err := r.Store.CompleteRun(persist, runID); err != nil {
			r.Log.Warn("marking run complete failed", zap.String("run", runID), zap.Error(err))
		}
	}

	results := make([]types.Reference, len(refs))
	for i, ref := range refs {
		results[i] = *ref
	}
	return types.BatchResult{Statistics: statistics, Results: results}, runErr
}

// resolve runs the lookup/fallback state machine for one citation. The
// second return marks the record provisional: an evidence call timed
// out, so whatever that call would have contributed is missing and the
// record must be retried on resume instead of being cached as final.
// This covers PubMed enrichment timeouts on an otherwise matched
// record, not just unresolved misses.
func (r *Runner) resolve(ctx context.Context, citation string) (*types.Reference, bool) {
	ref := &types.Reference{
		OriginalText: citation,
		MatchStatus:  types.MatchNone,
		MatchedRef:   "Not Found",
		CleanedText:  dupes.CleanKey(citation),
	}

	sawTimeout := false

	var (
		cand *types.Candidate
		src  verify.Source
	)
	if doi := extract.DOI(citation); doi != "" {
		ref.ExtractedDOI = doi
		c, err := r.Crossref.LookupDOI(ctx, doi)
		if err != nil {
			sawTimeout = sawTimeout || isTimeout(err)
			r.Log.Warn("identifier lookup failed", zap.String("doi", doi), zap.Error(err))
		}
		if c != nil {
			cand, src = c, verify.SourceDOI
		}
	}
	if cand == nil {
		c, err := r.Crossref.Search(ctx, citation)
		if err != nil {
			sawTimeout = sawTimeout || isTimeout(err)
			r.Log.Warn("bibliographic search failed", zap.Error(err))
		}
		if c != nil {
			cand, src = c, verify.SourceSearch
		}
	}

	if cand != nil {
		res := verify.Against(citation, cand, src)
		if res.Keep {
			ref.MatchStatus = res.Status
			ref.MatchedRef = res.Formatted
			if src == verify.SourceDOI || res.Status == types.MatchOK {
				ref.APIDOI = cand.DOI
			}
			r.accept(ctx, ref, cand, &sawTimeout)
		} else {
			r.Log.Info("search candidate discarded",
				zap.Int("score", res.Score),
				zap.String("candidate_doi", cand.DOI))
			cand = nil
		}
	}

	if cand == nil {
		r.fallback(ctx, ref, citation)
	}

	return ref, sawTimeout
}

// accept copies an accepted candidate's metadata onto the record,
// enriches it from PubMed, and updates the batch counters.
func (r *Runner) accept(ctx context.Context, ref *types.Reference, cand *types.Candidate, sawTimeout *bool) {
	ref.Title = cand.Title
	ref.Journal = cand.JournalFull
	ref.HasRetraction = cand.HasRetraction
	ref.HasCorrection = cand.HasCorrection

	if cand.Year > 0 {
		ref.Year = strconv.Itoa(cand.Year)
		age := r.nowFunc().Year() - cand.Year
		ref.IsRecent5 = age <= 5
		ref.IsRecent3 = age <= 3
	}

	ref.AllAuthors = cand.ShortNames()

	if cand.DOI != "" && r.PubMed != nil {
		pmid, pmcid, err := r.PubMed.LookupIDs(ctx, cand.DOI)
		if err != nil {
			*sawTimeout = *sawTimeout || isTimeout(err)
			r.Log.Warn("pubmed id lookup failed", zap.String("doi", cand.DOI), zap.Error(err))
		}
		ref.PMID = pmid
		ref.PMCID = pmcid

		corr, retr, err := r.PubMed.Corrections(ctx, cand.DOI, pmid)
		if err != nil {
			*sawTimeout = *sawTimeout || isTimeout(err)
			r.Log.Warn("pubmed notice lookup failed", zap.String("doi", cand.DOI), zap.Error(err))
		}
		// Any source asserting a retraction or correction wins.
		if retr != "" {
			ref.HasRetraction = true
		}
		if corr != "" {
			ref.HasCorrection = true
		}
	}

	if ref.APIDOI != "" {
		r.doiCount[ref.APIDOI]++
	}
	for _, name := range ref.AllAuthors {
		if name != "" {
			r.authorCount[name]++
		}
	}
}

// fallback populates the classifier fields for a record no database
// could resolve.
func (r *Runner) fallback(ctx context.Context, ref *types.Reference, citation string) {
	ref.AllAuthors = extract.FallbackAuthors(citation)

	d, err := diagnose.Run(ctx, r.Classifier, citation)
	if err != nil {
		r.Log.Warn("classifier degraded to regex fallback", zap.Error(err))
	}
	ref.Diagnosis = d.Tag
	ref.DiagnosedTitle = d.Title
	ref.DiagnosedURL = d.URL
	ref.SearchQuery = d.SearchQuery
	if ref.Title == "" {
		ref.Title = d.Title
	}
}

// rebuildCounters restores the batch-local frequency counters from
// cached records so a resumed run counts exactly as a fresh one would.
func (r *Runner) rebuildCounters(refs []*types.Reference) {
	r.authorCount = make(map[string]int)
	r.doiCount = make(map[string]int)
	for _, ref := range refs {
		for _, name := range ref.AllAuthors {
			if name != "" {
				r.authorCount[name]++
			}
		}
		if ref.APIDOI != "" {
			r.doiCount[ref.APIDOI]++
		}
	}
}

// AuthorCounts returns the batch-local author frequency map.
func (r *Runner) AuthorCounts() map[string]int { return r.authorCount }

// DOICounts returns the batch-local identifier frequency map.
func (r *Runner) DOICounts() map[string]int { return r.doiCount }

// sleepCtx sleeps for d unless the context ends first. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// isTimeout reports whether an evidence call failed in a way that
// should be retried on a resumed run rather than cached as a miss.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
