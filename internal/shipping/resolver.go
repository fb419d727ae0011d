package shipping

import (
	"context"
	"sort"
	"sync"
	"time"

	"gerai-be/internal/logger"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	// DefaultDebounce is the quiescence window after an input change
	// before a resolution fires. Address forms edit field by field;
	// without this every keystroke would hit the carrier APIs.
	DefaultDebounce = 500 * time.Millisecond

	recentResultsSize = 32
)

type resolution struct {
	quotes []Quote
	err    error
}

type inflightCall struct {
	done   chan struct{}
	quotes []Quote
	err    error
}

// Resolver turns (destination, manifest) changes into a ranked quote set.
//
// Every resolution is tagged with the RateRequestKey of the inputs that
// produced it; only a result whose key still matches the current inputs is
// applied, so a slow response for a superseded destination is dropped
// instead of overwriting newer state (last input wins). Identical keys
// share one provider call, and the most recent completed results are kept
// in a small LRU purely as a dedup window, not a TTL cache.
type Resolver struct {
	origin        Origin
	domestic      Provider
	international Provider
	debounce      time.Duration

	mu         sync.Mutex
	dest       Destination
	manifest   Manifest
	currentKey string
	timer      *time.Timer
	inflight   map[string]*inflightCall
	recent     *lru.Cache[string, resolution]

	quotes   []Quote
	selected *Quote
	lastErr  error
}

type ResolverOption func(*Resolver)

func WithDebounce(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.debounce = d }
}

func NewResolver(origin Origin, domestic, international Provider, opts ...ResolverOption) *Resolver {
	recent, _ := lru.New[string, resolution](recentResultsSize)
	r := &Resolver{
		origin:        origin,
		domestic:      domestic,
		international: international,
		debounce:      DefaultDebounce,
		inflight:      make(map[string]*inflightCall),
		recent:        recent,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetDestination records a destination change and schedules a debounced
// resolution.
func (r *Resolver) SetDestination(ctx context.Context, dest Destination) {
	r.mu.Lock()
	r.dest = dest
	r.currentKey = BuildRateRequestKey(r.origin, r.dest, r.manifest).String()
	r.mu.Unlock()

	r.schedule(ctx)
}

// SetManifest records a parcel manifest change and schedules a debounced
// resolution.
func (r *Resolver) SetManifest(ctx context.Context, manifest Manifest) {
	r.mu.Lock()
	r.manifest = manifest
	r.currentKey = BuildRateRequestKey(r.origin, r.dest, r.manifest).String()
	r.mu.Unlock()

	r.schedule(ctx)
}

func (r *Resolver) schedule(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	dest, manifest := r.dest, r.manifest
	r.timer = time.AfterFunc(r.debounce, func() {
		r.resolve(ctx, dest, manifest)
	})
}

// Resolve runs a resolution for the current inputs immediately, cancelling
// any pending debounce, and returns the applied state.
func (r *Resolver) Resolve(ctx context.Context) ([]Quote, *Quote, error) {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	dest, manifest := r.dest, r.manifest
	r.mu.Unlock()

	r.resolve(ctx, dest, manifest)
	return r.Quotes()
}

// Quotes returns the last applied resolution: the ranked set, the current
// selection, and the resolution error if the last attempt failed.
func (r *Resolver) Quotes() ([]Quote, *Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastErr != nil {
		return nil, nil, r.lastErr
	}

	quotes := make([]Quote, len(r.quotes))
	copy(quotes, r.quotes)

	var selected *Quote
	if r.selected != nil {
		q := *r.selected
		selected = &q
	}
	return quotes, selected, nil
}

// Select replaces the current selection with a quote from the
// last-resolved set. Anything outside that set is stale client state and
// is rejected.
func (r *Resolver) Select(courierCode, serviceCode string) (*Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.quotes {
		q := r.quotes[i]
		if q.CourierCode == courierCode && q.ServiceCode == serviceCode {
			r.selected = &r.quotes[i]
			out := q
			return &out, nil
		}
	}
	return nil, &UnknownQuoteError{CourierCode: courierCode, ServiceCode: serviceCode}
}

// Selected returns the current selection, if any.
func (r *Resolver) Selected() (*Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selected == nil {
		return nil, ErrNoSelection
	}
	q := *r.selected
	return &q, nil
}

func validateInputs(origin Origin, dest Destination, manifest Manifest) error {
	if origin.PostalCode == "" || dest.PostalCode == "" {
		return ErrMissingPostalCode
	}
	if origin.CountryCode == "" || dest.CountryCode == "" {
		return ErrMissingCountryCode
	}
	if len(manifest) == 0 {
		return ErrEmptyManifest
	}
	return nil
}

func (r *Resolver) resolve(ctx context.Context, dest Destination, manifest Manifest) {
	key := BuildRateRequestKey(r.origin, dest, manifest).String()

	if err := validateInputs(r.origin, dest, manifest); err != nil {
		r.apply(key, nil, err)
		return
	}

	// Reuse the most recently completed result for an identical key.
	if res, ok := r.recent.Get(key); ok {
		r.apply(key, res.quotes, res.err)
		return
	}

	// Join an in-flight call for the same key instead of duplicating it.
	r.mu.Lock()
	if call, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		<-call.done
		r.apply(key, call.quotes, call.err)
		return
	}
	call := &inflightCall{done: make(chan struct{})}
	r.inflight[key] = call
	r.mu.Unlock()

	quotes, err := r.fetch(ctx, dest, manifest)

	call.quotes, call.err = quotes, err
	close(call.done)

	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()

	if err == nil {
		r.recent.Add(key, resolution{quotes: quotes})
	}
	r.apply(key, quotes, err)
}

// fetch dispatches to the providers routed for the destination and merges
// their normalized quotes in deterministic order.
func (r *Resolver) fetch(ctx context.Context, dest Destination, manifest Manifest) ([]Quote, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "resolver"),
		zap.String("destination_country", dest.CountryCode),
		zap.String("destination_postal", dest.PostalCode),
	)

	var quotes []Quote

	if r.isDomestic(dest) {
		got, err := r.domestic.GetRates(ctx, r.origin, dest, manifest)
		if err != nil {
			// Absorbed: a failed provider contributes zero quotes.
			log.Warn("domestic provider failed", zap.Error(err))
		}
		quotes = append(quotes, got...)
	} else {
		got, err := r.international.GetRates(ctx, r.origin, dest, manifest)
		if err != nil {
			log.Warn("international provider failed", zap.Error(err))
		}
		if len(got) == 0 {
			// No live cross-border quote; fall back to an estimate so
			// international checkout is never a dead end.
			got = []Quote{estimatedInternationalQuote(manifest)}
		}
		quotes = append(quotes, got...)
	}

	if len(quotes) == 0 {
		return nil, ErrNoQuotesAvailable
	}

	sortQuotes(quotes)
	log.Info("rates resolved", zap.Int("quote_count", len(quotes)))
	return quotes, nil
}

func (r *Resolver) isDomestic(dest Destination) bool {
	return normalizeCountry(dest.CountryCode) == normalizeCountry(r.origin.CountryCode)
}

// apply commits a resolution only when its key still matches the current
// inputs. Stale responses are silently dropped.
func (r *Resolver) apply(key string, quotes []Quote, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key != r.currentKey {
		return
	}

	r.lastErr = err
	r.quotes = quotes

	if err != nil || len(quotes) == 0 {
		r.selected = nil
		return
	}

	// Keep a prior selection if the same courier/service survived the
	// re-resolve; otherwise auto-select the cheapest.
	if r.selected != nil {
		for i := range quotes {
			if quotes[i].CourierCode == r.selected.CourierCode &&
				quotes[i].ServiceCode == r.selected.ServiceCode {
				r.selected = &quotes[i]
				return
			}
		}
	}
	r.selected = &quotes[0]
}

// sortQuotes orders ascending by price, ties broken by min days, then
// courier code, then service code. Same input multiset, same output order.
func sortQuotes(quotes []Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		a, b := quotes[i], quotes[j]
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		if a.ETA.MinDays != b.ETA.MinDays {
			return a.ETA.MinDays < b.ETA.MinDays
		}
		if a.CourierCode != b.CourierCode {
			return a.CourierCode < b.CourierCode
		}
		return a.ServiceCode < b.ServiceCode
	})
}

// estimatedInternationalQuote prices a cross-border shipment from weight
// alone when no live quote exists.
func estimatedInternationalQuote(manifest Manifest) Quote {
	kg := (manifest.TotalWeightGrams() + 999) / 1000
	if kg < 1 {
		kg = 1
	}
	return Quote{
		CourierCode: "intl-post",
		CourierName: "International Post (estimated)",
		ServiceCode: "ESTIMATE",
		ServiceType: ServiceStandard,
		Price:       150000 + kg*85000,
		Currency:    "IDR",
		ETA:         ETA{MinDays: 10, MaxDays: 30},
		Provider:    ProviderInternational,
	}
}

func normalizeCountry(code string) string {
	return normalizePostal(code)
}
