package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dukaan/backend/internal/analytics"
	"dukaan/backend/internal/domain"
)

type liveEvent struct {
	name string
	data any
}

// handleDashboardLive streams dashboard snapshots as server-sent events. The
// period defaults to live, which keeps refreshing today's figures until the
// client goes away.
func (a *API) handleDashboardLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("period"))
	if token == "" {
		token = string(analytics.PeriodLive)
	}

	updates := make(chan liveEvent, 1)
	quit := make(chan struct{})
	publish := func(resp domain.DashboardResponse, err error) {
		ev := liveEvent{name: "snapshot", data: resp}
		if err != nil {
			ev = liveEvent{name: "error", data: map[string]string{"error": "dashboard unavailable"}}
			a.log.Warn().Err(err).Msg("live dashboard refresh failed")
		}
		select {
		case updates <- ev:
		case <-quit:
		}
	}

	view, err := a.service.LiveView(r.Context(), publish)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.metrics.LiveViewerOpened()
	defer a.metrics.LiveViewerClosed()
	defer view.Stop()
	defer close(quit)

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	// updates is empty here, so the first snapshot never blocks.
	if err := view.SetPeriod(r.Context(), analytics.ParsePeriod(token)); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-updates:
			if err := writeEvent(w, ev); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, ev liveEvent) error {
	payload, err := json.Marshal(ev.data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, payload)
	return err
}
