// Package line sends messages through LINE Notify. Each recipient
// authorizes with their own personal access token.
package line

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultEndpoint is the LINE Notify API.
const DefaultEndpoint = "https://notify-api.line.me/api/notify"

// Notifier posts messages to a LINE Notify compatible endpoint.
type Notifier struct {
	endpoint string
	base     *http.Client
	log      *zap.Logger
}

// NewNotifier returns a notifier. An empty endpoint selects DefaultEndpoint
// and a nil base client selects http.DefaultClient.
func NewNotifier(endpoint string, base *http.Client, log *zap.Logger) *Notifier {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if base == nil {
		base = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{endpoint: endpoint, base: base, log: log}
}

// SendMessage posts text authorized by token.
func (n *Notifier) SendMessage(ctx context.Context, token, text string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("messaging token is empty")
	}
	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, n.base),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
	)

	form := url.Values{"message": {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("line notify: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("line notify: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	n.log.Debug("line message sent", zap.Int("bytes", len(text)))
	return nil
}
