package ledger

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"

	"github.com/stratafi/vault-engine/internal/lifecycle"
	"github.com/stratafi/vault-engine/internal/metrics"
	"github.com/stratafi/vault-engine/internal/vault"
)

// ConfigFetcher reads a fresh vault config snapshot from the ledger.
type ConfigFetcher interface {
	FetchVaultConfig(ctx context.Context, lp vault.LpDescriptor) (vault.Config, error)
}

// SnapshotHolder publishes the latest valid config snapshot. Snapshots
// are immutable, so readers share them without locking.
type SnapshotHolder struct {
	v atomic.Value // vault.Config
}

func NewSnapshotHolder() *SnapshotHolder {
	return &SnapshotHolder{}
}

// Current implements lifecycle.ConfigProvider.
func (h *SnapshotHolder) Current() (vault.Config, error) {
	cfg, ok := h.v.Load().(vault.Config)
	if !ok {
		return vault.Config{}, lifecycle.ErrNoConfig
	}
	return cfg, nil
}

// Ingest validates a snapshot and, only on success, makes it current.
// A rejected snapshot leaves the prior one in place.
func (h *SnapshotHolder) Ingest(cfg vault.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	h.v.Store(cfg)
	metrics.ConfigRate.Set(float64(cfg.Rate))
	metrics.ConfigWithdrawFeeBps.Set(float64(cfg.WithdrawFeeBps))
	return nil
}

// Poller refreshes the snapshot on a fixed cadence. It is the only
// background worker in the system; all time-based lifecycle behavior is
// derived on demand instead.
type Poller struct {
	tmb      tomb.Tomb
	fetcher  ConfigFetcher
	holder   *SnapshotHolder
	lp       vault.LpDescriptor
	interval time.Duration
}

func NewPoller(fetcher ConfigFetcher, holder *SnapshotHolder, lp vault.LpDescriptor, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		holder:   holder,
		lp:       lp,
		interval: interval,
	}
}

func (p *Poller) Start() {
	p.tmb.Go(p.loop)
}

func (p *Poller) Stop() error {
	p.tmb.Kill(nil)
	return p.tmb.Wait()
}

func (p *Poller) loop() error {
	p.refresh()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.tmb.Dying():
			return nil
		case <-ticker.C:
			p.refresh()
		}
	}
}

func (p *Poller) refresh() {
	ctx, cancel := context.WithTimeout(p.tmb.Context(nil), p.interval)
	defer cancel()

	cfg, err := p.fetcher.FetchVaultConfig(ctx, p.lp)
	if err != nil {
		logrus.Warnf("[LDG] vault config fetch failed, keeping prior snapshot: %s", err)
		metrics.ConfigRefreshTotal.WithLabelValues("fetch_error").Inc()
		return
	}

	if err := p.holder.Ingest(cfg); err != nil {
		logrus.Warnf("[LDG] vault config snapshot rejected, keeping prior: %s", err)
		metrics.ConfigRefreshTotal.WithLabelValues("invalid").Inc()
		return
	}

	logrus.Debugf("[LDG] vault config refreshed: rate=%d fee_bps=%d lock=%s",
		cfg.Rate, cfg.WithdrawFeeBps, cfg.LockDuration)
	metrics.ConfigRefreshTotal.WithLabelValues("ok").Inc()
}
