package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/snaplist/internal/metrics"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tracklist"
)

const (
	DefaultQuerySuffix = " audio"
	DefaultMaxResults  = 5
	DefaultConcurrency = 4
	DefaultRateLimit   = 10.0

	// recommendationCount is the number of runner-up hits offered in single-query mode.
	recommendationCount = 2
)

// Resolution is the outcome of resolving one set of titles.
type Resolution struct {
	Videos          []models.ResolvedVideo
	Recommendations []models.ResolvedVideo
}

func emptyResolution() *Resolution {
	return &Resolution{Videos: []models.ResolvedVideo{}, Recommendations: []models.ResolvedVideo{}}
}

// Resolver maps normalized titles to playable videos.
type Resolver interface {
	Resolve(ctx context.Context, titles []string) (*Resolution, error)
}

// SearchOutcome is the per-title result of a fan-out search. Video is nil when the search had no hits or failed.
type SearchOutcome struct {
	Title string
	Video *services.SearchResult
	Err   error
}

// ResolverOpts configures both resolver strategies. Zero values select the defaults.
type ResolverOpts struct {
	QuerySuffix string             // Appended to each title in multi-title mode
	MaxResults  int                // Hits requested in single-query mode
	Concurrency int                // Parallel searches in multi-title mode
	RateLimit   float64            // Searches per second across the fan-out; negative disables limiting
	Logger      *log.Logger        // Optional
	Metrics     *metrics.Collector // Optional
}

// ResolverOptsFromConfig maps the [resolver] config section to [ResolverOpts].
func ResolverOptsFromConfig(cfg shared.ResolverConfig) ResolverOpts {
	return ResolverOpts{
		QuerySuffix: cfg.QuerySuffix,
		MaxResults:  cfg.MaxResults,
		Concurrency: cfg.Concurrency,
		RateLimit:   cfg.RateLimit,
	}
}

func (o ResolverOpts) withDefaults() ResolverOpts {
	if o.QuerySuffix == "" {
		o.QuerySuffix = DefaultQuerySuffix
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RateLimit == 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// MultiTitleResolver searches every title concurrently and keeps only processed videos.
type MultiTitleResolver struct {
	searcher    services.VideoSearcher
	detailer    services.VideoDetailer
	suffix      string
	concurrency int
	limiter     *rate.Limiter
	logger      *log.Logger
	metrics     *metrics.Collector
}

// NewMultiTitleResolver creates a multi-title resolver. The rate limiter is shared by every call.
func NewMultiTitleResolver(searcher services.VideoSearcher, detailer services.VideoDetailer, opts ResolverOpts) *MultiTitleResolver {
	opts = opts.withDefaults()

	limit := rate.Limit(opts.RateLimit)
	if opts.RateLimit < 0 {
		limit = rate.Inf
	}

	return &MultiTitleResolver{
		searcher:    searcher,
		detailer:    detailer,
		suffix:      opts.QuerySuffix,
		concurrency: opts.Concurrency,
		limiter:     rate.NewLimiter(limit, opts.Concurrency),
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// Search runs one single-hit search per title and returns the outcomes in title order.
//
// A failed search is recorded in its outcome and never cancels its siblings.
func (r *MultiTitleResolver) Search(ctx context.Context, titles []string) []SearchOutcome {
	outcomes := make([]SearchOutcome, len(titles))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, title := range titles {
		g.Go(func() error {
			outcomes[i] = r.searchOne(ctx, title)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (r *MultiTitleResolver) searchOne(ctx context.Context, title string) SearchOutcome {
	outcome := SearchOutcome{Title: title}

	if err := r.limiter.Wait(ctx); err != nil {
		outcome.Err = err
		return outcome
	}

	results, err := r.searcher.Search(ctx, title+r.suffix, 1)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if len(results) > 0 {
		outcome.Video = &results[0]
	}
	return outcome
}

// Resolve searches every title, looks up details for the first hits and keeps processed videos.
//
// Videos follow the order of the details response. A details failure yields an empty resolution and no error.
func (r *MultiTitleResolver) Resolve(ctx context.Context, titles []string) (*Resolution, error) {
	if len(titles) == 0 {
		return emptyResolution(), nil
	}

	ids := make([]string, 0, len(titles))
	for _, o := range r.Search(ctx, titles) {
		switch {
		case o.Err != nil:
			r.logger.Debug("search failed", "title", o.Title, "error", o.Err)
			r.metrics.SearchFailed()
		case o.Video == nil:
			r.logger.Debug("no search results", "title", o.Title)
		default:
			ids = append(ids, o.Video.VideoID)
		}
	}

	if len(ids) == 0 {
		return emptyResolution(), nil
	}

	details, err := r.details(ctx, ids)
	if err != nil {
		r.logger.Debug("video details lookup failed", "ids", len(ids), "error", err)
		return emptyResolution(), nil
	}

	res := emptyResolution()
	for _, d := range details {
		if d.Processed() {
			res.Videos = append(res.Videos, d.Video())
		} else {
			r.logger.Debug("skipping unprocessed video", "id", d.ID, "status", d.UploadStatus)
		}
	}
	return res, nil
}

// details looks IDs up in batches of [services.MaxDetailIDs], one call when they fit.
func (r *MultiTitleResolver) details(ctx context.Context, ids []string) ([]services.VideoDetail, error) {
	var details []services.VideoDetail
	for start := 0; start < len(ids); start += services.MaxDetailIDs {
		end := min(start+services.MaxDetailIDs, len(ids))
		batch, err := r.detailer.VideoDetails(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		details = append(details, batch...)
	}
	return details, nil
}

// SingleQueryResolver runs one search and offers the runner-up hits as recommendations.
type SingleQueryResolver struct {
	searcher   services.VideoSearcher
	maxResults int
	logger     *log.Logger
}

// NewSingleQueryResolver creates a single-query resolver requesting opts.MaxResults hits.
func NewSingleQueryResolver(searcher services.VideoSearcher, opts ResolverOpts) *SingleQueryResolver {
	opts = opts.withDefaults()
	return &SingleQueryResolver{searcher: searcher, maxResults: opts.MaxResults, logger: opts.Logger}
}

// Resolve searches titles[0]. A search failure is returned wrapped in [shared.ErrAPIRequest].
func (r *SingleQueryResolver) Resolve(ctx context.Context, titles []string) (*Resolution, error) {
	if len(titles) == 0 || titles[0] == "" {
		return emptyResolution(), nil
	}

	query := titles[0]
	results, err := r.searcher.Search(ctx, query, r.maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", shared.ErrAPIRequest, query, err)
	}

	res := emptyResolution()
	for _, hit := range results {
		res.Videos = append(res.Videos, hit.Video())
	}
	if len(res.Videos) > 1 {
		end := min(1+recommendationCount, len(res.Videos))
		res.Recommendations = append(res.Recommendations, res.Videos[1:end]...)
	}

	r.logger.Debug("single query resolved", "query", query, "videos", len(res.Videos))
	return res, nil
}

// NewResolver returns the strategy for mode.
func NewResolver(mode tracklist.Mode, searcher services.VideoSearcher, detailer services.VideoDetailer, opts ResolverOpts) Resolver {
	if mode == tracklist.ModeSingle {
		return NewSingleQueryResolver(searcher, opts)
	}
	return NewMultiTitleResolver(searcher, detailer, opts)
}
