// Package auth acquires Microsoft Graph tokens for the ms365 preset source,
// through the identity broker on D-Bus or the device code flow.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

const (
	brokerService   = "com.microsoft.identity.broker1"
	brokerPath      = "/com/microsoft/identity/broker1"
	brokerInterface = "com.microsoft.identity.Broker1"

	// The broker only speaks protocol "0.0".
	brokerProtocolVersion = "0.0"

	// DefaultClientID is the Edge browser client, which the broker allows
	// for SSO and token acquisition.
	DefaultClientID = "d7b530a4-7680-4c23-a8bf-c52c121d2e87"

	DefaultRedirectURI = "https://login.microsoftonline.com/common/oauth2/nativeclient"
	DefaultAuthority   = "https://login.microsoftonline.com/common"

	authTypeToken = 1

	// Tokens are refreshed this long before they expire.
	expiryMargin = 5 * time.Minute
)

var (
	ErrBrokerNotAvailable = errors.New("microsoft identity broker not available")
	ErrNoAccounts         = errors.New("no accounts found in broker")
	ErrAuthFailed         = errors.New("authentication failed")
)

// Token is an OAuth2 access token.
type Token struct {
	AccessToken string
	ExpiresOn   time.Time
	AccountID   string
}

// Valid reports whether the token can still be used at now.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Add(expiryMargin).Before(t.ExpiresOn)
}

// Broker is a client for the Microsoft Identity Broker D-Bus service.
type Broker struct {
	conn      *dbus.Conn
	clientID  string
	scopes    []string
	sessionID string

	mu      sync.Mutex
	token   *Token
	account map[string]any // account object as returned by the broker
}

// NewBroker creates a broker client. An empty clientID uses DefaultClientID.
func NewBroker(clientID string, scopes []string) *Broker {
	if clientID == "" {
		clientID = DefaultClientID
	}
	return &Broker{
		clientID:  clientID,
		scopes:    scopes,
		sessionID: uuid.NewString(),
	}
}

func (b *Broker) connect() error {
	if b.conn != nil {
		return nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	b.conn = conn
	return nil
}

// Close closes the D-Bus connection.
func (b *Broker) Close() error {
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// IsAvailable reports whether the broker answers on the session bus.
func (b *Broker) IsAvailable(ctx context.Context) bool {
	if err := b.connect(); err != nil {
		return false
	}
	_, err := b.call(ctx, "getLinuxBrokerVersion", map[string]any{})
	return err == nil
}

// GetToken returns a cached token while it is valid, otherwise acquires one
// silently for the first broker account that allows it.
func (b *Broker) GetToken(ctx context.Context) (*Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.token.Valid(time.Now()) {
		return b.token, nil
	}

	if err := b.connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokerNotAvailable, err)
	}

	if b.account != nil {
		token, err := b.acquireSilently(ctx, b.account)
		if err == nil {
			b.token = token
			return token, nil
		}
		slog.Debug("silent auth with cached account failed", "error", err)
	}

	accounts, err := b.accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	for _, acct := range accounts {
		token, err := b.acquireSilently(ctx, acct)
		if err == nil {
			b.account = acct
			b.token = token
			return token, nil
		}
		username, _ := acct["username"].(string)
		slog.Debug("silent auth failed for account", "username", username, "error", err)
	}

	return nil, fmt.Errorf("%w: all accounts failed silent auth", ErrAuthFailed)
}

// call invokes a broker method: (protocolVersion, sessionId, requestJson) -> responseJson.
func (b *Broker) call(ctx context.Context, method string, request any) (map[string]any, error) {
	reqJSON, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	slog.Debug("calling broker", "method", method)

	obj := b.conn.Object(brokerService, brokerPath)
	call := obj.CallWithContext(ctx, brokerInterface+"."+method, 0,
		brokerProtocolVersion, b.sessionID, string(reqJSON))
	if call.Err != nil {
		return nil, fmt.Errorf("dbus call %s: %w", method, call.Err)
	}

	var respStr string
	if err := call.Store(&respStr); err != nil {
		return nil, fmt.Errorf("store response: %w", err)
	}
	return decodeBrokerResponse([]byte(respStr))
}

// decodeBrokerResponse unmarshals a broker reply and turns an embedded
// error object or string into an error.
func decodeBrokerResponse(data []byte) (map[string]any, error) {
	var resp map[string]any
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	switch e := resp["error"].(type) {
	case map[string]any:
		errJSON, _ := json.Marshal(e)
		return nil, fmt.Errorf("broker error: %s", errJSON)
	case string:
		if e != "" {
			return nil, fmt.Errorf("broker error: %s", e)
		}
	}
	return resp, nil
}

func (b *Broker) accounts(ctx context.Context) ([]map[string]any, error) {
	resp, err := b.call(ctx, "getAccounts", map[string]any{
		"clientId":    b.clientID,
		"redirectUri": DefaultRedirectURI,
	})
	if err != nil {
		return nil, err
	}

	raw, _ := resp["accounts"].([]any)
	accounts := make([]map[string]any, 0, len(raw))
	for _, a := range raw {
		if m, ok := a.(map[string]any); ok {
			accounts = append(accounts, m)
		}
	}
	return accounts, nil
}

// authParameters builds the token request for account. The authority is
// tenant specific when the account carries a realm.
func (b *Broker) authParameters(account map[string]any) map[string]any {
	authority := DefaultAuthority
	if realm, ok := account["realm"].(string); ok && realm != "" {
		authority = "https://login.microsoftonline.com/" + realm
	}

	scopes := b.scopes
	if len(scopes) == 0 {
		scopes = []string{"https://graph.microsoft.com/.default"}
	}

	params := map[string]any{
		"account":           account,
		"authority":         authority,
		"authorizationType": authTypeToken,
		"clientId":          b.clientID,
		"redirectUri":       DefaultRedirectURI,
		"requestedScopes":   scopes,
	}
	if username, ok := account["username"].(string); ok {
		params["username"] = username
	}
	return params
}

func (b *Broker) acquireSilently(ctx context.Context, account map[string]any) (*Token, error) {
	resp, err := b.call(ctx, "acquireTokenSilently", map[string]any{
		"authParameters": b.authParameters(account),
	})
	if err != nil {
		return nil, err
	}
	return tokenFromResponse(resp, account, time.Now())
}

// tokenFromResponse extracts the access token from an acquireTokenSilently
// reply. The token sits either at the top level or inside
// brokerTokenResponse; a missing expiry means one hour from now.
func tokenFromResponse(resp, account map[string]any, now time.Time) (*Token, error) {
	accessToken, _ := resp["accessToken"].(string)
	if accessToken == "" {
		if nested, ok := resp["brokerTokenResponse"].(map[string]any); ok {
			if errObj, ok := nested["error"].(map[string]any); ok {
				errJSON, _ := json.Marshal(errObj)
				return nil, fmt.Errorf("token response error: %s", errJSON)
			}
			accessToken, _ = nested["accessToken"].(string)
		}
	}
	if accessToken == "" {
		return nil, errors.New("no access token in response")
	}

	expiresOn := now.Add(time.Hour)
	if exp, ok := resp["expiresOn"].(float64); ok {
		expiresOn = time.Unix(int64(exp), 0)
	}

	accountID, _ := resp["accountId"].(string)
	if accountID == "" {
		accountID, _ = account["localAccountId"].(string)
	}

	return &Token{
		AccessToken: accessToken,
		ExpiresOn:   expiresOn,
		AccountID:   accountID,
	}, nil
}
