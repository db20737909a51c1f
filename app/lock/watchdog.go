package lock

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/metrics"
)

// startWatchdog launches the renewal goroutine. The ticker is created before
// the goroutine so that a mock clock sees it immediately.
func (h *Handle) startWatchdog(interval time.Duration) {
	ticker := h.locker.clock.Ticker(interval)
	go h.renewLoop(ticker.C, ticker.Stop, interval)
}

// stopWatchdog stops the renewal goroutine and waits for it to exit.
func (h *Handle) stopWatchdog() {
	if !h.watchdog {
		return
	}
	h.stopOnce.Do(func() { close(h.stopRenew) })
	<-h.renewDone
}

// renewLoop extends the lease to its full TTL on every tick while the store
// still holds our token. It exits on release, on cancellation of the
// acquiring context, or once the lease is lost. Transient store errors are
// tolerated until a whole TTL has passed without a successful renewal, at
// which point the lease has expired anyway.
func (h *Handle) renewLoop(ticks <-chan time.Time, stop func(), interval time.Duration) {
	defer close(h.renewDone)
	defer stop()

	log := logrus.WithFields(logrus.Fields{
		"key":   h.lease.Key,
		"token": shortToken(h.lease.Token),
	})
	lastRenewed := h.locker.clock.Now()

	for {
		select {
		case <-h.stopRenew:
			return
		case <-h.ctx.Done():
			log.Debug("watchdog stopped with holder context")
			return
		case <-ticks:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		extended, err := h.locker.store.CompareAndExpire(ctx, h.lease.Key, h.lease.Token, h.lease.TTL)
		cancel()

		switch {
		case err != nil:
			metrics.LeaseRenewTotal.WithLabelValues("error").Inc()
			if h.locker.clock.Since(lastRenewed) >= h.lease.TTL {
				metrics.LeaseRenewTotal.WithLabelValues("lost").Inc()
				h.markLost("no successful renewal within one TTL")
				return
			}
			log.WithError(err).Warn("lease renewal failed, retrying on next tick")
		case !extended:
			metrics.LeaseRenewTotal.WithLabelValues("lost").Inc()
			h.markLost("store no longer holds our token")
			return
		default:
			metrics.LeaseRenewTotal.WithLabelValues("success").Inc()
			lastRenewed = h.locker.clock.Now()
			log.Debug("lease renewed")
		}
	}
}
