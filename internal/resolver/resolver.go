// Package resolver implements balance resolution with per-class provider
// fallback and result caching.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainprobe/chainprobe/internal/cache"
	"github.com/chainprobe/chainprobe/internal/fetch"
	"github.com/chainprobe/chainprobe/internal/metrics"
	"github.com/chainprobe/chainprobe/internal/provider"
)

const (
	DefaultJitterBase   = 1 * time.Second
	DefaultJitterSpread = 1500 * time.Millisecond
)

// AllProvidersFailed tags a resolution in which every provider in the set
// was exhausted.
const AllProvidersFailed = "all providers failed"

// Status is the outcome tag of a resolution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Fetcher fetches a URL and returns the decoded JSON body.
type Fetcher interface {
	GetJSON(ctx context.Context, url string) (any, error)
}

// Result is the outcome of one resolution. Balance is in display units and
// only meaningful when Status is StatusSuccess.
type Result struct {
	Status  Status
	Address string
	Class   provider.Class
	Balance decimal.Decimal
	Source  string
	Reason  string
	Cached  bool
}

// Engine iterates a class's providers until one yields a balance: shuffled
// order for the native-coin set, declared priority order for token sets,
// with a randomized jitter delay between providers. Successful results are
// cached per (class, address); failures are never cached.
type Engine struct {
	registry *provider.Registry
	fetcher  Fetcher
	cache    *cache.TTLCache

	jitterBase   time.Duration
	jitterSpread time.Duration

	sleep func(context.Context, time.Duration) error
	intN  func(n int) int
	log   *slog.Logger
}

// Options configures an Engine. Zero fields fall back to defaults.
type Options struct {
	Registry *provider.Registry
	Fetcher  Fetcher
	Cache    *cache.TTLCache

	JitterBase   time.Duration
	JitterSpread time.Duration

	Logger *slog.Logger

	// Sleep and IntN replace the jitter wait and the random source, for
	// tests.
	Sleep func(context.Context, time.Duration) error
	IntN  func(n int) int
}

func New(opts Options) *Engine {
	e := &Engine{
		registry:     opts.Registry,
		fetcher:      opts.Fetcher,
		cache:        opts.Cache,
		jitterBase:   opts.JitterBase,
		jitterSpread: opts.JitterSpread,
		sleep:        opts.Sleep,
		intN:         opts.IntN,
		log:          opts.Logger,
	}
	if e.registry == nil {
		e.registry = provider.NewRegistry(provider.Options{})
	}
	if e.fetcher == nil {
		e.fetcher = fetch.New(fetch.Options{})
	}
	if e.cache == nil {
		e.cache = cache.New(cache.DefaultTTL)
	}
	if e.jitterBase <= 0 {
		e.jitterBase = DefaultJitterBase
	}
	if e.jitterSpread <= 0 {
		e.jitterSpread = DefaultJitterSpread
	}
	if e.sleep == nil {
		e.sleep = sleepContext
	}
	if e.intN == nil {
		e.intN = rand.IntN
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// Cache exposes the engine's cache for sweeping and health reporting.
func (e *Engine) Cache() *cache.TTLCache {
	return e.cache
}

// Registry exposes the engine's provider registry.
func (e *Engine) Registry() *provider.Registry {
	return e.registry
}

// Resolve returns the balance of the address for the asset class. A cached
// result is served as long as it is fresh. All provider failures are
// absorbed: the returned error is non-nil only for caller misuse or context
// cancellation, exhaustion of the provider set comes back as a Result with
// StatusFailed.
func (e *Engine) Resolve(ctx context.Context, address string, class provider.Class) (Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Result{}, fmt.Errorf("address must not be empty")
	}
	set, ok := e.registry.Lookup(class)
	if !ok {
		return Result{}, fmt.Errorf("unknown asset class %q", class)
	}

	if entry, ok := e.cache.Get(string(class), address); ok {
		metrics.CacheHitsTotal.WithLabelValues(string(class)).Inc()
		e.log.Debug("cache hit", "asset", class, "address", address, "source", entry.Source)
		return Result{
			Status:  StatusSuccess,
			Address: address,
			Class:   class,
			Balance: entry.Value,
			Source:  entry.Source,
			Cached:  true,
		}, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(string(class)).Inc()

	start := time.Now()
	result, err := e.resolve(ctx, address, set)
	if err != nil {
		return Result{}, err
	}

	metrics.ResolutionLatency.WithLabelValues(string(class)).Observe(time.Since(start).Seconds())
	metrics.ResolutionsTotal.WithLabelValues(string(class), string(result.Status)).Inc()

	if result.Status == StatusSuccess {
		e.cache.Put(string(class), address, result.Balance, result.Source)
		metrics.CacheEntries.Set(float64(e.cache.Len()))
	}
	return result, nil
}

func (e *Engine) resolve(ctx context.Context, address string, set provider.Set) (Result, error) {
	providers := e.order(set)

	var lastErr error
	for i, p := range providers {
		if i > 0 {
			if err := e.sleep(ctx, e.jitterDelay()); err != nil {
				return Result{}, err
			}
		}

		balance, err := e.tryProvider(ctx, address, set.Class, p)
		if err == nil {
			e.log.Info("balance resolved",
				"asset", set.Class,
				"address", address,
				"provider", p.Name(),
				"balance", balance)
			return Result{
				Status:  StatusSuccess,
				Address: address,
				Class:   set.Class,
				Balance: balance,
				Source:  p.Name(),
			}, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		lastErr = err
		e.log.Warn("provider failed", "asset", set.Class, "address", address, "provider", p.Name(), "error", err)
	}

	e.log.Error("all providers failed", "asset", set.Class, "address", address, "error", lastErr)
	return Result{
		Status:  StatusFailed,
		Address: address,
		Class:   set.Class,
		Source:  AllProvidersFailed,
		Reason:  failureReason(lastErr),
	}, nil
}

func (e *Engine) tryProvider(ctx context.Context, address string, class provider.Class, p provider.Provider) (decimal.Decimal, error) {
	metrics.ProviderAttemptsTotal.WithLabelValues(string(class), p.Name()).Inc()

	url := p.BalanceURL(address)
	e.log.Debug("querying provider", "asset", class, "provider", p.Name(), "url", url)

	payload, err := e.fetcher.GetJSON(ctx, url)
	if err != nil {
		metrics.ProviderFailuresTotal.WithLabelValues(string(class), p.Name()).Inc()
		return decimal.Zero, &provider.Error{Provider: p.Name(), Err: err}
	}

	balance, err := p.Normalize(payload)
	if err != nil {
		metrics.ProviderFailuresTotal.WithLabelValues(string(class), p.Name()).Inc()
		return decimal.Zero, &provider.Error{Provider: p.Name(), Err: err}
	}
	return balance, nil
}

// order copies the set's providers, shuffling the copy with a Fisher-Yates
// pass when the set asks for randomized order.
func (e *Engine) order(set provider.Set) []provider.Provider {
	out := make([]provider.Provider, len(set.Providers))
	copy(out, set.Providers)
	if set.Shuffle {
		for i := len(out) - 1; i > 0; i-- {
			j := e.intN(i + 1)
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (e *Engine) jitterDelay() time.Duration {
	d := e.jitterBase
	if e.jitterSpread > 0 {
		d += time.Duration(e.intN(int(e.jitterSpread)))
	}
	return d
}

// failureReason strips the provider prefix so the surfaced reason matches
// the normalizer's own wording.
func failureReason(err error) string {
	if err == nil {
		return AllProvidersFailed
	}
	var provErr *provider.Error
	if errors.As(err, &provErr) {
		return provErr.Err.Error()
	}
	return err.Error()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
