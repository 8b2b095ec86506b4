// Package keyrotator implements the Key Rotator: a
// file-backed pool of LLM API keys, rotating past any key whose balance
// drops below a configured threshold and re-keying the Analysis Worker's
// live LLM client in place.
package keyrotator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"intelhub/internal/domain/entity"
	"intelhub/internal/observability/metrics"
	"intelhub/internal/resilience/retry"
)

// BalanceChecker queries a key's remaining balance against the upstream
// LLM provider's billing API.
type BalanceChecker interface {
	CheckBalance(ctx context.Context, key string) (float64, error)
}

// KeySetter is implemented by an LLM ChatClient that supports swapping its
// active API key without reconstruction (internal/infra/llm.Claude and
// .OpenAI both do).
type KeySetter interface {
	SetAPIKey(key string)
}

// checkIntervalMin/Max clamp the periodic re-check interval.
const (
	checkIntervalMin = 30 * time.Second
	checkIntervalMax = 1800 * time.Second
)

// balanceTier is a static fallback re-check interval chosen by balance
// when the consumption rate cannot be estimated (consumption <= 0).
type balanceTier struct {
	minBalance float64
	interval   time.Duration
}

var fallbackTiers = []balanceTier{
	{minBalance: 100, interval: 30 * time.Minute},
	{minBalance: 10, interval: 5 * time.Minute},
	{minBalance: 0, interval: checkIntervalMin},
}

// Status is the snapshot returned by GetStatus.
type Status struct {
	Running     bool    `json:"running"`
	CurrentKey  string  `json:"current_key"`
	Balance     float64 `json:"balance"`
	UsableCount int     `json:"usable_count"`
	TotalCount  int     `json:"total_count"`
	Threshold   float64 `json:"threshold"`
}

// Rotator is the Key Rotator.
type Rotator struct {
	path      string
	checker   BalanceChecker
	client    KeySetter
	threshold float64
	retryCfg  retry.Config

	mu          sync.Mutex
	keys        map[string]*entity.KeyRecord
	order       []string // key discovery order, preserved across saves
	current     string
	lastBalance float64
	lastCheck   time.Time
	// consumptionRate is (prevBalance - lastBalance) / elapsed from the
	// two most recent balance samples of the active key, used by
	// nextInterval to estimate time-to-threshold.
	consumptionRate float64
	running         bool
}

// New creates a Key Rotator. keys is the initial ordered key list,
// consulted only the first time path does not already exist on disk.
func New(path string, keys []string, threshold float64, checker BalanceChecker, client KeySetter) *Rotator {
	r := &Rotator{
		path:      path,
		checker:   checker,
		client:    client,
		threshold: threshold,
		retryCfg:  retry.AIAPIConfig(),
		keys:      make(map[string]*entity.KeyRecord),
	}
	if err := r.load(); err != nil {
		slog.Warn("key rotator: no existing state, starting fresh", slog.Any("error", err))
		for _, k := range keys {
			r.keys[k] = &entity.KeyRecord{Key: k, Status: entity.KeyStatusUnknown}
			r.order = append(r.order, k)
		}
	}
	return r
}

func (r *Rotator) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}
	var state struct {
		Order   []string                      `json:"order"`
		Keys    map[string]*entity.KeyRecord  `json:"keys"`
		Current string                        `json:"current"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	r.order = state.Order
	r.keys = state.Keys
	r.current = state.Current
	return nil
}

// saveLocked persists state atomically via temp file + rename.
// Caller must hold r.mu.
func (r *Rotator) saveLocked() error {
	state := struct {
		Order   []string                      `json:"order"`
		Keys    map[string]*entity.KeyRecord  `json:"keys"`
		Current string                        `json:"current"`
	}{Order: r.order, Keys: r.keys, Current: r.current}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".keyrotator-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, r.path)
}

// Start runs the startup selection loop, then blocks,
// periodically re-checking the active key's balance, until ctx is
// canceled.
func (r *Rotator) Start(ctx context.Context) {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	if err := r.selectInitial(ctx); err != nil {
		slog.Error("key rotator: startup selection failed", slog.Any("error", err))
	}

	for {
		interval := r.nextInterval()
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			return
		case <-timer.C:
			r.recheck(ctx)
		}
	}
}

func (r *Rotator) selectInitial(ctx context.Context) error {
	r.mu.Lock()
	order := append([]string(nil), r.order...)
	r.mu.Unlock()

	for _, key := range order {
		r.mu.Lock()
		rec := r.keys[key]
		r.mu.Unlock()
		if rec == nil || !rec.Usable() {
			continue
		}

		if r.checker == nil {
			// No balance endpoint configured: the first non-disabled key is
			// selected as-is, awaiting validation.
			r.mu.Lock()
			r.current = key
			r.lastCheck = time.Now().UTC()
			_ = r.saveLocked()
			r.mu.Unlock()
			r.activate(key)
			return nil
		}

		balance, err := r.queryBalanceWithRetries(ctx, key)
		if err != nil {
			r.mu.Lock()
			rec.Status = entity.KeyStatusError
			_ = r.saveLocked()
			r.mu.Unlock()
			continue
		}

		r.mu.Lock()
		rec.Balance = balance
		rec.LastUsed = time.Now().UTC()
		if balance < r.threshold {
			rec.Disable()
			_ = r.saveLocked()
			r.mu.Unlock()
			continue
		}
		rec.Status = entity.KeyStatusValid
		r.current = key
		r.lastBalance = balance
		r.lastCheck = time.Now().UTC()
		r.consumptionRate = 0
		_ = r.saveLocked()
		r.mu.Unlock()

		r.activate(key)
		return nil
	}
	return fmt.Errorf("key rotator: %w", entity.ErrKeyExhausted)
}

func (r *Rotator) recheck(ctx context.Context) {
	r.mu.Lock()
	current := r.current
	prevBalance := r.lastBalance
	prevCheck := r.lastCheck
	r.mu.Unlock()
	if current == "" || r.checker == nil {
		return
	}

	balance, err := r.queryBalanceWithRetries(ctx, current)
	now := time.Now().UTC()
	if err != nil {
		r.mu.Lock()
		if rec := r.keys[current]; rec != nil {
			rec.Status = entity.KeyStatusError
			_ = r.saveLocked()
		}
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	rec := r.keys[current]
	rec.Balance = balance
	rec.LastUsed = now
	if elapsed := now.Sub(prevCheck); elapsed > 0 {
		r.consumptionRate = (prevBalance - balance) / elapsed.Seconds()
	}
	r.lastBalance = balance
	r.lastCheck = now

	if balance < r.threshold {
		rec.Disable()
		_ = r.saveLocked()
		r.mu.Unlock()
		slog.Warn("key rotator: active key dropped below threshold, rotating", slog.String("key", current))
		if err := r.selectInitial(ctx); err != nil {
			slog.Error("key rotator: rotation failed", slog.Any("error", err))
		}
		return
	}

	rec.Status = entity.KeyStatusValid
	_ = r.saveLocked()
	r.mu.Unlock()
}

// nextInterval computes the next periodic check delay.
func (r *Rotator) nextInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == "" || r.lastCheck.IsZero() {
		return checkIntervalMin
	}
	rec := r.keys[r.current]
	if rec == nil {
		return checkIntervalMin
	}

	// Consumption rate requires two samples; fall back to static tiers
	// until a second check has produced a rate estimate.
	if r.consumptionRate <= 0 {
		return tierInterval(rec.Balance)
	}

	timeToThreshold := (rec.Balance - r.threshold) / r.consumptionRate
	interval := time.Duration(0.2 * timeToThreshold * float64(time.Second))
	if interval < checkIntervalMin {
		return checkIntervalMin
	}
	if interval > checkIntervalMax {
		return checkIntervalMax
	}
	return interval
}

func tierInterval(balance float64) time.Duration {
	for _, tier := range fallbackTiers {
		if balance >= tier.minBalance {
			return tier.interval
		}
	}
	return checkIntervalMin
}

func (r *Rotator) queryBalanceWithRetries(ctx context.Context, key string) (float64, error) {
	var balance float64
	err := retry.WithBackoff(ctx, r.retryCfg, func() error {
		b, err := r.checker.CheckBalance(ctx, key)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	return balance, err
}

func (r *Rotator) activate(key string) {
	if r.client != nil {
		r.client.SetAPIKey(key)
	}
	metrics.RecordKeyRotation()
	slog.Info("key rotator: activated key", slog.String("key", redactKey(key)))
}

// GetStatus returns a point-in-time snapshot.
func (r *Rotator) GetStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	usable := 0
	for _, rec := range r.keys {
		if rec.Usable() {
			usable++
		}
	}
	return Status{
		Running:     r.running,
		CurrentKey:  redactKey(r.current),
		Balance:     r.lastBalance,
		UsableCount: usable,
		TotalCount:  len(r.keys),
		Threshold:   r.threshold,
	}
}

func redactKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
