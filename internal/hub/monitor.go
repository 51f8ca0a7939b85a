package hub

import (
	"log/slog"
	"time"
)

// evictStale reclaims connections whose liveness timestamp fell behind
// the eviction threshold. This is the only way resources come back from
// clients that vanished without a close frame (network partition,
// crash). It reuses the idempotent removeConnection path, so a sweep
// racing a clean disconnect is harmless.
func (h *Hub) evictStale() {
	cutoff := time.Now().Add(-h.opts.EvictAfter)
	stale := h.registry.Stale(cutoff)
	for _, id := range stale {
		slog.Warn("evicting stale connection", "connectionID", id, "evictAfter", h.opts.EvictAfter)
		h.removeConnection(id)
	}
	if len(stale) > 0 {
		slog.Info("heartbeat sweep complete", "evicted", len(stale))
	}
}
