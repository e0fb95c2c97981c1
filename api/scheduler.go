/*
scheduler.go - Holiday cache warmer

PURPOSE:
  Periodically refreshes the holiday cache so salary calculations never wait
  on a provider and pick up edited holiday files and admin holidays.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Each run clears the cache and warms the current and next year
  - Provider failures are logged; the calendar keeps failing closed

CONFIGURATION:
  - Interval: How often to refresh (default: 6 hours)
  - Enabled:  Whether the warmer is active (default: true)

USAGE:
  warmer := NewCacheWarmer(cal, logger)
  warmer.Start()
  // ... later
  warmer.Stop()

SEE ALSO:
  - calendar/calendar.go: Warm, ClearCache
  - handlers.go: ClearHolidayCache endpoint (manual refresh)
*/
package api

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/payroll-engine/calendar"
)

// CacheWarmer refreshes the holiday cache in the background.
type CacheWarmer struct {
	Calendar *calendar.Calendar
	Interval time.Duration
	Enabled  bool
	Logger   logrus.FieldLogger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCacheWarmer creates a new warmer.
func NewCacheWarmer(cal *calendar.Calendar, logger logrus.FieldLogger) *CacheWarmer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CacheWarmer{
		Calendar: cal,
		Interval: 6 * time.Hour,
		Enabled:  true,
		Logger:   logger.WithField("component", "cache-warmer"),
		now:      time.Now,
	}
}

// Start begins the warmer. Calling Start twice is a no-op.
func (cw *CacheWarmer) Start() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.Enabled || cw.Interval <= 0 {
		cw.Logger.Info("Disabled, not starting")
		return
	}
	if cw.ticker != nil {
		return
	}

	cw.ticker = time.NewTicker(cw.Interval)
	cw.stop = make(chan struct{})
	cw.wg.Add(1)

	go cw.run(cw.ticker, cw.stop)

	cw.Logger.WithField("interval", cw.Interval).Info("Started")
}

// Stop stops the warmer and waits for a running refresh to finish.
func (cw *CacheWarmer) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.ticker != nil {
		cw.ticker.Stop()
		close(cw.stop)
		cw.wg.Wait()
		cw.ticker = nil
		cw.Logger.Info("Stopped")
	}
}

func (cw *CacheWarmer) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer cw.wg.Done()

	// Run immediately on start
	cw.RunNow()

	for {
		select {
		case <-ticker.C:
			cw.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow refreshes the cache immediately. Returns the warm error, if any.
func (cw *CacheWarmer) RunNow() error {
	year := cw.now().Year()
	started := time.Now()

	cw.Calendar.ClearCache()
	err := cw.Calendar.Warm(year, year+1)

	log := cw.Logger.WithFields(logrus.Fields{
		"location": cw.Calendar.Location().String(),
		"years":    []int{year, year + 1},
		"took":     time.Since(started),
	})
	if err != nil {
		log.WithError(err).Warn("Holiday cache refresh failed")
		return err
	}
	log.Debug("Holiday cache refreshed")
	return nil
}

// NextRunTime returns when the next scheduled refresh will occur.
func (cw *CacheWarmer) NextRunTime() time.Time {
	return cw.now().Add(cw.Interval)
}
