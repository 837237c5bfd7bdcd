package server

import (
	"net/http"
	"time"

	"github.com/litescript/ls-orrery/internal/metrics"
)

const streamWriteWait = 10 * time.Second

// handleStream upgrades to a websocket and pushes the latest frame once per
// refresh interval until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Debug("stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	metrics.StreamOpened()
	defer metrics.StreamClosed()

	// Reader: the only purpose is to notice a close from the client.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var lastGen uint64
	send := func() error {
		snap := s.state.Snapshot()
		if snap.Frame == nil || (lastGen != 0 && snap.Frame.Table.Generation == lastGen) {
			return nil
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(snap.Frame); err != nil {
			return err
		}
		lastGen = snap.Frame.Table.Generation
		metrics.IncStreamMessages()
		return nil
	}

	if err := send(); err != nil {
		return
	}

	ticker := time.NewTicker(s.opts.Refresh)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := send(); err != nil {
				s.logger.Debug("stream write: %v", err)
				return
			}
		}
	}
}
