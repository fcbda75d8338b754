package session

import (
	"context"
	"log/slog"
	"time"
)

// Housekeeper periodically prunes idle sessions so the store does not grow
// without bound.
type Housekeeper struct {
	Service  *Service
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeeper defaults the interval to one hour.
func NewHousekeeper(svc *Service, logger *slog.Logger, interval time.Duration) *Housekeeper {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Housekeeper{
		Service:  svc,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (h *Housekeeper) Start() {
	go h.run()
	h.Logger.Info("session housekeeping started", "interval", h.Interval)
}

// Stop blocks until an in-progress prune has finished.
func (h *Housekeeper) Stop() {
	close(h.stopCh)
	<-h.doneCh
	h.Logger.Info("session housekeeping stopped")
}

func (h *Housekeeper) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	h.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			h.RunOnce(context.Background())
		case <-h.stopCh:
			return
		}
	}
}

// RunOnce prunes idle sessions and logs the outcome.
func (h *Housekeeper) RunOnce(ctx context.Context) int {
	n, err := h.Service.Prune(ctx)
	if err != nil {
		h.Logger.Error("failed to prune idle sessions", "error", err)
		return 0
	}
	h.Logger.Info("session housekeeping completed", "pruned", n)
	return n
}
