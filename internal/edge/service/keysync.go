package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/otsembank/otsem/pkg/jwtx"
)

// KeySyncService keeps the edge's verification keys in step with the API's
// published JWKS. It only runs when the edge verifies token signatures.
type KeySyncService struct {
	Keys       *jwtx.KeySet
	URL        string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Interval   time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewKeySyncService creates a key sync worker for url.
// If interval is 0 or negative, defaults to 10 minutes.
func NewKeySyncService(keys *jwtx.KeySet, url string, logger *slog.Logger, interval time.Duration) *KeySyncService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	return &KeySyncService{
		Keys:       keys,
		URL:        url,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
		Interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background worker. The first sync runs right away.
// Call Stop() to shut the worker down.
func (s *KeySyncService) Start() {
	go s.run()
	s.Logger.Info("key sync service started", "interval", s.Interval, "url", s.URL)
}

// Stop shuts the worker down, waiting for an in-progress sync.
func (s *KeySyncService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("key sync service stopped")
}

func (s *KeySyncService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.syncLogged()

	for {
		select {
		case <-ticker.C:
			s.syncLogged()
		case <-s.stopCh:
			return
		}
	}
}

func (s *KeySyncService) syncLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), s.HTTPClient.Timeout)
	defer cancel()

	if err := s.Sync(ctx); err != nil {
		// The previous key set stays in place.
		s.Logger.Error("key sync failed", "error", err)
	}
}

// Sync fetches the JWKS once and swaps it in. An empty set is refused so a
// bad deploy upstream can't lock every visitor out.
func (s *KeySyncService) Sync(ctx context.Context) error {
	set, err := jwtx.FetchJWKS(ctx, s.HTTPClient, s.URL)
	if err != nil {
		return err
	}
	if len(set.Keys) == 0 {
		return fmt.Errorf("jwks at %s has no keys", s.URL)
	}

	if err := s.Keys.ResetFromJWKS(set); err != nil {
		return fmt.Errorf("load jwks: %w", err)
	}

	s.Logger.Debug("verification keys synced", "keys", len(set.Keys))
	return nil
}
