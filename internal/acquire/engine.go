package acquire

import (
	"context"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"blogwatch/internal/classify"
	"blogwatch/internal/dates"
	"blogwatch/internal/domain"
)

// Config bounds a single acquisition run.
type Config struct {
	// MaxArticles caps what one strategy may return (archive crawl appends
	// beyond it; the retention trim applies the real bound).
	MaxArticles int
	// StrategyTimeout bounds each strategy independently.
	StrategyTimeout time.Duration
	// ArchivePageBudget limits how many archive pages one crawl may fetch.
	ArchivePageBudget int
	// ArchiveThreshold: crawl only when the chain produced fewer articles
	// than this and the host is known to paginate.
	ArchiveThreshold int
}

func (c Config) withDefaults() Config {
	if c.MaxArticles <= 0 {
		c.MaxArticles = 10
	}
	if c.StrategyTimeout <= 0 {
		c.StrategyTimeout = 10 * time.Second
	}
	if c.ArchivePageBudget <= 0 {
		c.ArchivePageBudget = 8
	}
	if c.ArchiveThreshold <= 0 {
		c.ArchiveThreshold = 50
	}
	return c
}

// Engine orchestrates the ordered strategy chain over one publication URL.
type Engine struct {
	client     *Client
	resolver   *dates.Resolver
	classifier *classify.Classifier
	logger     *slog.Logger
	cfg        Config
	strategies []Strategy
}

// NewEngine wires the chain in its fixed order: known-feed override,
// syndication discovery, platform probing, HTML extraction.
func NewEngine(client *Client, resolver *dates.Resolver, classifier *classify.Classifier, logger *slog.Logger, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		client:     client,
		resolver:   resolver,
		classifier: classifier,
		logger:     logger,
		cfg:        cfg,
		strategies: []Strategy{
			&knownFeedStrategy{client: client, resolver: resolver, cap: cfg.MaxArticles},
			&discoveryStrategy{client: client, resolver: resolver, cap: cfg.MaxArticles},
			&probeStrategy{client: client, resolver: resolver, cap: cfg.MaxArticles},
			&extractStrategy{resolver: resolver, cap: cfg.MaxArticles},
		},
	}
}

// Acquire resolves a canonical URL to a publication draft and its articles.
// checkContent runs the document-level blog classifier before any strategy
// (used when the URL alone was inconclusive).
//
// Returns *domain.FetchError when even blind probing cannot reach the site,
// domain.ErrClassificationRejected on a failed content check, and
// domain.ErrNoContentFound when every strategy came up empty.
func (e *Engine) Acquire(ctx context.Context, canonicalURL string, checkContent bool) (domain.Publication, []domain.Article, error) {
	target := &Target{URL: canonicalURL}

	doc, fetchErr := e.fetchRoot(ctx, canonicalURL)
	if fetchErr != nil {
		// The page itself is unreachable; a conventional feed endpoint may
		// still answer. Probe blind before giving up.
		e.logger.Warn("root fetch failed, probing blind", "url", canonicalURL, "error", fetchErr)
		if result := e.blindProbe(ctx, canonicalURL); result != nil {
			return result.Publication, result.Articles, nil
		}
		return domain.Publication{}, nil, fetchErr
	}
	target.Doc = doc

	if checkContent && !e.classifier.ClassifyContent(doc, canonicalURL) {
		return domain.Publication{}, nil, domain.ErrClassificationRejected
	}

	result := e.runChain(ctx, target)
	if result == nil {
		return domain.Publication{}, nil, domain.ErrNoContentFound
	}

	// Fill publication metadata gaps from the page head.
	if result.Publication.Title == "" || result.Publication.Title == "Unknown Feed" {
		fromDoc := publicationFromDoc(doc, canonicalURL)
		if result.Publication.Title == "" {
			result.Publication.Title = fromDoc.Title
		}
		if result.Publication.Description == "" {
			result.Publication.Description = fromDoc.Description
		}
	}

	if len(result.Articles) < e.cfg.ArchiveThreshold && isPaginatingPlatform(canonicalURL, doc) {
		seen := make(map[string]struct{}, len(result.Articles))
		for _, article := range result.Articles {
			seen[article.URL] = struct{}{}
		}
		extra := crawlArchive(ctx, e.client, doc, canonicalURL, e.resolver, e.cfg.ArchivePageBudget, seen)
		if len(extra) > 0 {
			e.logger.Debug("archive crawl appended", "url", canonicalURL, "count", len(extra))
			result.Articles = append(result.Articles, extra...)
		}
	}

	return result.Publication, result.Articles, nil
}

func (e *Engine) runChain(ctx context.Context, target *Target) *Result {
	for _, strategy := range e.strategies {
		stepCtx, cancel := context.WithTimeout(ctx, e.cfg.StrategyTimeout)
		result, err := strategy.Attempt(stepCtx, target)
		cancel()

		if err != nil {
			// Strategy failures are not fatal; the chain moves on.
			e.logger.Warn("strategy failed", "strategy", strategy.Name(), "url", target.URL, "error", err)
			continue
		}
		if result == nil || len(result.Articles) == 0 {
			e.logger.Debug("strategy empty", "strategy", strategy.Name(), "url", target.URL)
			continue
		}

		e.logger.Debug("strategy succeeded",
			"strategy", strategy.Name(), "url", target.URL, "articles", len(result.Articles))
		return result
	}
	return nil
}

func (e *Engine) fetchRoot(ctx context.Context, canonicalURL string) (*goquery.Document, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.StrategyTimeout)
	defer cancel()
	return e.client.Document(fetchCtx, canonicalURL)
}

func (e *Engine) blindProbe(ctx context.Context, canonicalURL string) *Result {
	probeCtx, cancel := context.WithTimeout(ctx, e.cfg.StrategyTimeout)
	defer cancel()

	result, err := probeEndpoints(probeCtx, e.client, canonicalURL, e.resolver, e.cfg.MaxArticles)
	if err != nil || result == nil || len(result.Articles) == 0 {
		return nil
	}
	return result
}
