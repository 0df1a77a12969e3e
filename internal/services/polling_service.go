package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/soliswatch/solis-agent/internal/models"
	"github.com/soliswatch/solis-agent/internal/utils"
	"github.com/soliswatch/solis-agent/pkg/soliscloud"
)

const (
	// maxFetchWorkers caps concurrent detail fetches at the account limit.
	maxFetchWorkers = 5

	// cycleTimeout bounds one full cycle independent of fleet size. Each
	// request already carries its own 30s transport timeout.
	cycleTimeout = 45 * time.Second
)

// PollingService drives the fixed-interval polling cycles against the
// SolisCloud API and owns the fleet snapshot. Per cycle it fetches detail for
// every configured serial, merges the successes into the snapshot and leaves
// failed inverters at their last known good value. A cycle fails as a whole
// only when every inverter failed.
type PollingService struct {
	serials  []string
	interval time.Duration
	api      soliscloud.API
	logger   zerolog.Logger

	snapshots    cmap.ConcurrentMap[string, models.DeviceSnapshot]
	lastUpdateOK atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPollingService initializes a new PollingService. The serial list is
// captured once and immutable for the life of the service.
func NewPollingService(serials []string, interval time.Duration, api soliscloud.API, logger zerolog.Logger) *PollingService {
	return &PollingService{
		serials:   serials,
		interval:  interval,
		api:       api,
		logger:    logger,
		snapshots: cmap.New[models.DeviceSnapshot](),
	}
}

// Start launches the polling loop in a separate goroutine. The first cycle
// runs immediately so consumers have data before the first tick.
func (p *PollingService) Start() error {
	if p.ctx != nil {
		p.logger.Warn().Msg("PollingService is already running")
		return errors.New("polling service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runPollLoop()
	}()

	p.logger.Info().
		Int("inverters", len(p.serials)).
		Dur("interval", p.interval).
		Msg("PollingService started successfully")
	return nil
}

// Stop gracefully stops the polling service, cancelling any in-flight
// requests. Results of a cancelled cycle are never committed.
func (p *PollingService) Stop() error {
	if p.ctx == nil {
		p.logger.Warn().Msg("PollingService is not running")
		return errors.New("polling service is not running")
	}

	p.cancel()
	p.wg.Wait()

	p.ctx = nil
	p.cancel = nil

	p.logger.Info().Msg("PollingService stopped successfully")
	return nil
}

// Fleet returns a copy of the latest known good snapshot per inverter. The
// inner field maps are shared but never mutated after commit, so handing them
// out is safe.
func (p *PollingService) Fleet() map[string]models.DeviceSnapshot {
	fleet := make(map[string]models.DeviceSnapshot, p.snapshots.Count())
	for item := range p.snapshots.IterBuffered() {
		fleet[item.Key] = item.Val
	}
	return fleet
}

// LastUpdateOK reports whether the most recent completed cycle fetched data
// for at least one inverter. It is false until the first cycle completes.
func (p *PollingService) LastUpdateOK() bool {
	return p.lastUpdateOK.Load()
}

// runPollLoop runs one cycle per tick. Cycles never overlap: the loop does
// not select again until runCycle returns.
func (p *PollingService) runPollLoop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runCycle(p.ctx)

	for {
		select {
		case <-ticker.C:
			p.runCycle(p.ctx)
		case <-p.ctx.Done():
			p.logger.Info().Msg("PollingService stopping gracefully")
			return
		}
	}
}

// runCycle fetches detail for every configured inverter concurrently and
// merges the successes into the fleet snapshot. A failed inverter keeps its
// previous snapshot entry untouched and never aborts the rest of the batch.
func (p *PollingService) runCycle(parent context.Context) models.CycleOutcome {
	cycleID := uuid.New().String()
	capturedAt := time.Now()

	ctx, cancel := context.WithTimeout(parent, cycleTimeout)
	defer cancel()

	workers := len(p.serials)
	if workers > maxFetchWorkers {
		workers = maxFetchWorkers
	}
	pool := utils.NewWorkerPool(workers)

	type fetchResult struct {
		sn     string
		fields map[string]any
	}

	var (
		mu        sync.Mutex
		results   []fetchResult
		succeeded []string
		failed    []string
	)

	for _, sn := range p.serials {
		sn := sn
		pool.Submit(func() {
			fields, err := p.api.InverterDetail(ctx, sn)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				p.logger.Warn().
					Err(err).
					Str("sn", sn).
					Str("cycle_id", cycleID).
					Msg("Failed to update inverter")
				failed = append(failed, sn)
				return
			}

			results = append(results, fetchResult{sn: sn, fields: fields})
			succeeded = append(succeeded, sn)
		})
	}

	pool.Wait()

	// The service was torn down mid-cycle; discard everything this cycle
	// fetched rather than committing a partial view.
	if parent.Err() != nil {
		p.logger.Debug().Str("cycle_id", cycleID).Msg("Cycle cancelled, discarding results")
		return models.CycleOutcome{CycleID: cycleID, OverallFailure: true}
	}

	for _, r := range results {
		p.snapshots.Set(r.sn, models.DeviceSnapshot{Fields: r.fields, CapturedAt: capturedAt})
	}

	outcome := models.CycleOutcome{
		CycleID:        cycleID,
		Succeeded:      succeeded,
		Failed:         failed,
		OverallFailure: len(succeeded) == 0,
	}
	p.lastUpdateOK.Store(!outcome.OverallFailure)

	if outcome.OverallFailure {
		p.logger.Error().
			Str("cycle_id", cycleID).
			Int("inverters", len(p.serials)).
			Msg("Failed to fetch data for any inverter")
	} else {
		p.logger.Debug().
			Str("cycle_id", cycleID).
			Int("succeeded", len(succeeded)).
			Int("failed", len(failed)).
			Msg("Polling cycle completed")
	}

	return outcome
}
