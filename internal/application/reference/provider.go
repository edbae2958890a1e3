package reference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dexdash/internal/adapters/logger"
	"dexdash/internal/adapters/refdata"
	"dexdash/internal/adapters/snapshot"
	"dexdash/internal/adapters/store"
	"dexdash/internal/application/amount"
	"dexdash/internal/application/ratelimiter"
)

var ErrNotLoaded = errors.New("reference data not loaded")

// Origin tells where a bundle's data came from.
type Origin string

const (
	OriginSource   Origin = "source"
	OriginSnapshot Origin = "snapshot"
)

// Source produces the current reference payload.
type Source interface {
	Load(ctx context.Context) (*refdata.Payload, error)
}

// SnapshotRepository persists built payloads for cold starts.
type SnapshotRepository interface {
	Save(ctx context.Context, p *refdata.Payload) (string, error)
	Latest(ctx context.Context) (*snapshot.Record, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Bundle is one consistent generation of stores and the service bound to
// them. Bundles are never mutated; a refresh publishes a new one.
type Bundle struct {
	Version  string
	Origin   Origin
	LoadedAt time.Time
	Assets   *store.AssetStore
	Chains   *store.ChainStore
	Amounts  *amount.Service
}

// Provider keeps the latest Bundle and refreshes it in the background.
// Readers call Current and never block on a refresh.
type Provider struct {
	source    Source
	snapshots SnapshotRepository
	keep      int
	limiter   *ratelimiter.RateLimiter
	logger    *logger.Logger

	current   atomic.Pointer[Bundle]
	refreshMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type Option func(*Provider)

// WithSnapshots persists every successful refresh and restores the latest
// snapshot when the source fails before anything was loaded. keep bounds how
// many snapshots are retained; 0 keeps all.
func WithSnapshots(repo SnapshotRepository, keep int) Option {
	return func(p *Provider) {
		p.snapshots = repo
		p.keep = keep
	}
}

// WithRateLimit throttles source loads. A denied load counts as a source
// failure, so the current bundle stays in place.
func WithRateLimit(rl *ratelimiter.RateLimiter) Option {
	return func(p *Provider) {
		p.limiter = rl
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewProvider(source Source, opts ...Option) *Provider {
	p := &Provider{
		source: source,
		logger: logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("reference")
	return p
}

// Current returns the latest bundle, or ErrNotLoaded before the first
// successful refresh.
func (p *Provider) Current() (*Bundle, error) {
	b := p.current.Load()
	if b == nil {
		return nil, ErrNotLoaded
	}
	return b, nil
}

// Refresh loads, builds and publishes a new bundle. When the source fails and
// nothing has been published yet, the latest stored snapshot is used instead.
// On any failure after the first load the previous bundle stays current.
func (p *Provider) Refresh(ctx context.Context) (*Bundle, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	payload, err := p.load(ctx)
	log := p.refreshLogger()
	if err == nil {
		var b *Bundle
		b, err = p.publish(ctx, payload, log)
		if err == nil {
			return b, nil
		}
	}

	log.WithError(err).Warn("failed to refresh reference data")

	if p.current.Load() != nil || p.snapshots == nil {
		return nil, fmt.Errorf("failed to refresh reference data: %w", err)
	}

	b, restoreErr := p.restore(ctx)
	if restoreErr != nil {
		return nil, fmt.Errorf("failed to refresh reference data: %w", errors.Join(err, restoreErr))
	}

	return b, nil
}

func (p *Provider) load(ctx context.Context) (*refdata.Payload, error) {
	if p.limiter != nil {
		if err := p.limiter.Allow(ctx); err != nil {
			return nil, fmt.Errorf("source load denied: %w", err)
		}
	}
	return p.source.Load(ctx)
}

// refreshLogger tags one refresh's log lines with the remaining load budget.
func (p *Provider) refreshLogger() *logger.Logger {
	if p.limiter == nil {
		return p.logger
	}
	return p.logger.WithFields(zap.Int("loads_remaining", p.limiter.Remaining()))
}

func (p *Provider) publish(ctx context.Context, payload *refdata.Payload, log *logger.Logger) (*Bundle, error) {
	b, err := newBundle(payload, p.logger)
	if err != nil {
		return nil, err
	}
	b.Origin = OriginSource
	b.Version = uuid.New().String()

	if p.snapshots != nil {
		id, err := p.snapshots.Save(ctx, payload)
		if err != nil {
			log.WithError(err).Error("failed to save snapshot")
		} else {
			b.Version = id
			p.prune(ctx)
		}
	}

	p.current.Store(b)

	log.Info("reference data refreshed",
		zap.String("version", b.Version),
		zap.Int("assets", b.Assets.Len()),
		zap.Int("chains", b.Chains.Len()),
	)

	return b, nil
}

func (p *Provider) restore(ctx context.Context) (*Bundle, error) {
	rec, err := p.snapshots.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}

	b, err := newBundle(rec.Payload, p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot %s: %w", rec.ID, err)
	}
	b.Origin = OriginSnapshot
	b.Version = rec.ID

	p.current.Store(b)

	p.logger.Info("reference data restored from snapshot",
		zap.String("version", b.Version),
		zap.Time("saved_at", rec.CreatedAt),
	)

	return b, nil
}

func (p *Provider) prune(ctx context.Context) {
	if p.keep <= 0 {
		return
	}
	removed, err := p.snapshots.Prune(ctx, p.keep)
	if err != nil {
		p.logger.Warn("failed to prune snapshots", zap.Error(err))
		return
	}
	if removed > 0 {
		p.logger.Debug("pruned snapshots", zap.Int64("removed", removed))
	}
}

func newBundle(payload *refdata.Payload, log *logger.Logger) (*Bundle, error) {
	snap, err := refdata.Build(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build reference data: %w", err)
	}

	assets := store.NewAssetStore(snap.Assets)

	return &Bundle{
		LoadedAt: time.Now(),
		Assets:   assets,
		Chains:   store.NewChainStore(snap.Chains),
		Amounts:  amount.NewService(assets, log),
	}, nil
}

// Start performs an initial refresh and then refreshes every interval until
// Stop is called or ctx is done. A failed initial refresh is logged, not
// returned, so a later tick can still succeed.
func (p *Provider) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid refresh interval: %s", interval)
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	// Errors are logged inside Refresh
	_, _ = p.Refresh(ctx)

	p.wg.Add(1)
	go p.updateLoop(ctx, interval, p.stopCh)

	return nil
}

// Stop ends the refresh loop and waits for it to exit.
func (p *Provider) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Provider) updateLoop(ctx context.Context, interval time.Duration, stopCh <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = p.Refresh(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
