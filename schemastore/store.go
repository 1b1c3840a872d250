package schemastore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signadot/tomlkit/debug"
	"github.com/signadot/tomlkit/schema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultCacheTTL     = 24 * time.Hour
	DefaultFetchRate    = 4
	DefaultFetchTimeout = 10 * time.Second
)

type Options struct {
	// CacheDir holds fetched remote schemas. Empty disables the disk cache.
	CacheDir string
	// CacheTTL is how long a cached schema is used without refetching.
	CacheTTL time.Duration
	// Offline serves remote schemas from the disk cache only.
	Offline bool
	// FetchRate limits remote fetches per second.
	FetchRate    float64
	FetchTimeout time.Duration
	HTTPClient   *http.Client
	// Registerer receives the store metrics, nil for none.
	Registerer prometheus.Registerer
}

// Store provides parsed schema documents by URI. It implements
// schema.Loader. Each document is fetched and parsed at most once, however
// many traversals ask for it concurrently.
type Store struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	metrics *metrics

	mu           sync.RWMutex
	docs         map[string]*schema.Document
	sources      map[string][]byte
	overlays     map[string][][]byte
	associations []*Association
	catalog      []*Association
}

func New(opts Options) *Store {
	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.FetchRate <= 0 {
		opts.FetchRate = DefaultFetchRate
	}
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.FetchTimeout}
	}
	burst := max(int(opts.FetchRate), 1)
	return &Store{
		opts:     opts,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(opts.FetchRate), burst),
		metrics:  newMetrics(opts.Registerer),
		docs:     map[string]*schema.Document{},
		sources:  map[string][]byte{},
		overlays: map[string][][]byte{},
	}
}

// docURI drops the fragment of a reference.
func docURI(uri string) string {
	u, _, _ := strings.Cut(uri, "#")
	return u
}

// Load returns the parsed document at uri. A remote document that is not
// available offline yields nil and no error, so that the locations it
// describes are treated as unconstrained.
func (s *Store) Load(ctx context.Context, uri string) (*schema.Document, error) {
	uri = docURI(uri)
	s.mu.RLock()
	doc, ok := s.docs[uri]
	s.mu.RUnlock()
	if ok {
		return doc, nil
	}
	// the load outlives a caller that gives up, so that its result is
	// cached for the next one.
	ch := s.group.DoChan(uri, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), uri)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if errors.Is(res.Err, ErrOffline) {
			log().Warn("schema unavailable offline", "uri", uri)
			return nil, nil
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*schema.Document), nil
	}
}

func (s *Store) load(ctx context.Context, uri string) (*schema.Document, error) {
	s.mu.RLock()
	doc, ok := s.docs[uri]
	s.mu.RUnlock()
	if ok {
		return doc, nil
	}
	data, err := s.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	patches := s.overlays[uri]
	s.mu.RUnlock()
	if len(patches) != 0 {
		if data, err = applyOverlays(data, patches); err != nil {
			return nil, fmt.Errorf("overlay for %s: %w", uri, err)
		}
	}
	doc, err = schema.Parse(uri, data)
	if err != nil {
		s.metrics.parseFailures.Inc()
		return nil, err
	}
	for _, w := range doc.Warnings {
		log().Debug("schema warning", "uri", uri, "warning", w)
	}
	if debug.Fetch() {
		debug.Logf("loaded %s: %d definitions\n", uri, len(doc.Definitions.Refs()))
	}
	s.mu.Lock()
	if prev, ok := s.docs[uri]; ok {
		doc = prev
	} else {
		s.docs[uri] = doc
	}
	s.mu.Unlock()
	return doc, nil
}

// Register makes data the content of uri, replacing any loaded document.
func (s *Store) Register(uri string, data []byte) {
	uri = docURI(uri)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[uri] = data
	delete(s.docs, uri)
}

// Invalidate drops the parsed document at uri so the next Load fetches it
// again. Cells of the dropped document that were already resolved into
// other documents stay valid.
func (s *Store) Invalidate(uri string) {
	uri = docURI(uri)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Loaded returns the URIs of the parsed documents.
func (s *Store) Loaded() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]string, 0, len(s.docs))
	for k := range s.docs {
		res = append(res, k)
	}
	return res
}

// Prefetch loads the documents at uris concurrently. It returns the
// errors of all failed loads joined.
func (s *Store) Prefetch(ctx context.Context, uris ...string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(8)
	for _, uri := range uris {
		g.Go(func() error {
			if _, err := s.Load(ctx, uri); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// ResolveFailed records a reference that could not be resolved during a
// traversal. The location is then unconstrained.
func (s *Store) ResolveFailed(uri, path string, err error) {
	s.metrics.resolveFailures.Inc()
	log().Warn("schema unresolved", "uri", uri, "path", path, "error", err)
}
