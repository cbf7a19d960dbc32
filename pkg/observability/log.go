package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a logger at debug level. It implements all
// three hook interfaces.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks logging to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{Logger: l}
}

func (h *LogHooks) OnLayoutStart(_ context.Context, nodes int) {
	h.Logger.Debug("layout started", "nodes", nodes)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, nodes int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("layout failed", "nodes", nodes, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("layout finished", "nodes", nodes, "duration", d)
}

func (h *LogHooks) OnMetricsStart(_ context.Context, edges int) {
	h.Logger.Debug("metrics started", "edges", edges)
}

func (h *LogHooks) OnMetricsComplete(_ context.Context, d time.Duration, err error) {
	h.Logger.Debug("metrics finished", "duration", d, "err", err)
}

func (h *LogHooks) OnBatchRun(_ context.Context, dataset string, failed bool, d time.Duration) {
	h.Logger.Debug("batch run", "dataset", dataset, "failed", failed, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.Logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Info("response", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
