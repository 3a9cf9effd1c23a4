// Package credentials keeps engine API keys in the integration_tokens table
// so operators can rotate them without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/sqlinline"
)

const (
	ProviderOpenAI    = "openai"
	ProviderStability = "stability"
	ProviderReplicate = "replicate"
)

// Providers lists every provider a token may be stored for.
var Providers = []string{ProviderOpenAI, ProviderStability, ProviderReplicate}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Token returns the stored token, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	if err := checkProvider(provider); err != nil {
		return "", err
	}
	var token string
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider).Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Resolve prefers the configured key and falls back to the stored one.
func (s *Store) Resolve(ctx context.Context, provider, configured string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	return s.Token(ctx, provider)
}

// SetToken stores or replaces the provider's token.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	if err := checkProvider(provider); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	raw, err := json.Marshal(map[string]any{"source": "photogenctl"})
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

func checkProvider(provider string) error {
	for _, p := range Providers {
		if p == provider {
			return nil
		}
	}
	return fmt.Errorf("unknown provider %q", provider)
}
