package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Provider acquires access tokens.
type Provider interface {
	GetToken(ctx context.Context) (*Token, error)
	Close() error
}

// NewProvider picks the identity broker when it answers on D-Bus and falls
// back to the device code flow.
func NewProvider(ctx context.Context, clientID string, scopes []string) (Provider, error) {
	broker := NewBroker(clientID, scopes)
	if broker.IsAvailable(ctx) {
		slog.Info("using Microsoft Identity Broker for authentication")
		return broker, nil
	}
	broker.Close()

	slog.Info("broker not available, using device code flow")
	cacheFile, err := DefaultCacheFile()
	if err != nil {
		slog.Warn("token cache disabled", "error", err)
	}
	dc, err := NewDeviceCodeAuth(clientID, scopes, cacheFile, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("initialize device code auth: %w", err)
	}
	return dc, nil
}

var (
	_ Provider = (*Broker)(nil)
	_ Provider = (*DeviceCodeAuth)(nil)
)
