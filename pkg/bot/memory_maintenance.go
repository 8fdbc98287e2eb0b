package bot

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// maintain prunes conversation turns and quota rows past their retention.
func (h *Handler) maintain(ctx context.Context) {
	logger := log.WithField("component", "maintenance")
	now := h.now()

	if h.turns != nil && h.cfg.ConversationRetention > 0 {
		n, err := h.turns.PruneTurns(ctx, now.Add(-h.cfg.ConversationRetention))
		if err != nil {
			logger.Errorf("Error pruning conversation turns: %v", err)
		} else if n > 0 {
			logger.Infof("Pruned %d conversation turns", n)
		}
	}

	if h.pruner != nil && h.cfg.UsageRetention > 0 {
		before := now.In(h.cfg.Location).Add(-h.cfg.UsageRetention).Format("2006-01-02")
		n, err := h.pruner.PruneUsage(ctx, before)
		if err != nil {
			logger.Errorf("Error pruning usage rows: %v", err)
		} else if n > 0 {
			logger.Infof("Pruned %d usage rows before %s", n, before)
		}
	}
}

// RunMaintenance runs maintain on every MaintenanceInterval until ctx ends.
func (h *Handler) RunMaintenance(ctx context.Context) {
	if h.cfg.MaintenanceInterval <= 0 {
		log.WithField("component", "maintenance").Info("Maintenance disabled")
		return
	}

	ticker := time.NewTicker(h.cfg.MaintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.maintain(ctx)
		}
	}
}
