package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/public"
)

// DeviceCodeAuth acquires tokens with MSAL, silently from its token cache
// when possible and through the device code flow otherwise.
type DeviceCodeAuth struct {
	client public.Client
	scopes []string
	prompt io.Writer

	mu    sync.Mutex
	token *Token
}

// NewDeviceCodeAuth creates a device code client. The MSAL cache is kept at
// cacheFile when it is not empty. Sign-in instructions are written to prompt.
func NewDeviceCodeAuth(clientID string, scopes []string, cacheFile string, prompt io.Writer) (*DeviceCodeAuth, error) {
	if clientID == "" {
		clientID = DefaultClientID
	}
	if prompt == nil {
		prompt = os.Stderr
	}

	opts := []public.Option{public.WithAuthority(DefaultAuthority)}
	if cacheFile != "" {
		opts = append(opts, public.WithCache(&fileCache{path: cacheFile}))
	}

	client, err := public.New(clientID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create MSAL client: %w", err)
	}

	return &DeviceCodeAuth{
		client: client,
		scopes: scopes,
		prompt: prompt,
	}, nil
}

// GetToken returns a valid token, signing in interactively if nothing in the
// cache can be refreshed.
func (d *DeviceCodeAuth) GetToken(ctx context.Context) (*Token, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.token.Valid(time.Now()) {
		return d.token, nil
	}

	accounts, err := d.client.Accounts(ctx)
	if err != nil {
		slog.Debug("could not get cached accounts", "error", err)
	}
	for _, acct := range accounts {
		result, err := d.client.AcquireTokenSilent(ctx, d.scopes, public.WithSilentAccount(acct))
		if err != nil {
			slog.Debug("silent auth failed for account", "account", acct.PreferredUsername, "error", err)
			continue
		}
		d.token = &Token{
			AccessToken: result.AccessToken,
			ExpiresOn:   result.ExpiresOn,
			AccountID:   acct.HomeAccountID,
		}
		return d.token, nil
	}

	slog.Info("no cached credentials, starting device code flow")
	dc, err := d.client.AcquireTokenByDeviceCode(ctx, d.scopes)
	if err != nil {
		return nil, fmt.Errorf("start device code flow: %w", err)
	}

	fmt.Fprintf(d.prompt, "\nTo sign in to Microsoft 365, open %s\nand enter the code %s.\n\n",
		dc.Result.VerificationURL, dc.Result.UserCode)

	result, err := dc.AuthenticationResult(ctx)
	if err != nil {
		return nil, fmt.Errorf("device code auth: %w", err)
	}

	d.token = &Token{
		AccessToken: result.AccessToken,
		ExpiresOn:   result.ExpiresOn,
		AccountID:   result.Account.HomeAccountID,
	}
	return d.token, nil
}

// Close is a no-op for device code auth.
func (d *DeviceCodeAuth) Close() error {
	return nil
}

// fileCache persists the MSAL token cache to a file.
type fileCache struct {
	path string
}

func (f *fileCache) Replace(ctx context.Context, c cache.Unmarshaler, hints cache.ReplaceHints) error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.Unmarshal(data)
}

func (f *fileCache) Export(ctx context.Context, c cache.Marshaler, hints cache.ExportHints) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

// DefaultCacheFile returns the MSAL cache location under the user cache dir.
func DefaultCacheFile() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return filepath.Join(dir, "calrange", "msal_token_cache.json"), nil
}
