package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/devex-hq/devex-api/internal/config"
)

// UserInfo is the identity a provider reports after a successful exchange.
// Username is the provider handle, used as the preferred DevEx username.
type UserInfo struct {
	ID        string
	Provider  string
	Email     string
	Name      string
	Username  string
	AvatarURL string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

// NewProviders returns the providers that have a client id configured.
func NewProviders(cfg *config.Config) map[string]Provider {
	providers := make(map[string]Provider)
	if cfg.GitHub.ClientID != "" {
		p := NewGitHubProvider(cfg.GitHub)
		providers[p.Name()] = p
	}
	if cfg.Google.ClientID != "" {
		p := NewGoogleProvider(cfg.Google)
		providers[p.Name()] = p
	}
	return providers
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
