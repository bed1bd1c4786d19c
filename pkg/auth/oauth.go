// Package auth obtains an authenticated HTTP client for the Google APIs,
// either through the installed-app OAuth flow with a cached token or through
// application default credentials.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/sheets/v4"
)

const (
	// ClientSecretsFile is the downloaded OAuth client of a desktop app,
	// read from the application directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the access and refresh token next to it.
	TokenFile = "token.json"

	// LocalhostAuthPort receives the OAuth redirect.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// Scopes are the scopes of every Google collaborator.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	docs.DocumentsScope,
	gmail.GmailSendScope,
}

// Options selects how the client is authenticated.
type Options struct {
	// Dir holds the client secrets and the token cache.
	Dir string
	// ADC uses application default credentials instead of the OAuth flow.
	ADC    bool
	Logger *zap.Logger
	// Prompt receives the authorization URL; defaults to stdout.
	Prompt io.Writer
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// GetConfig creates an oauth2.Config from the client secrets file in dir.
// A localhost or out-of-band redirect is pinned to LocalhostAuthPort.
func GetConfig(dir string, scopes []string, log *zap.Logger) (*oauth2.Config, error) {
	if log == nil {
		log = zap.NewNop()
	}
	clientSecretsFile := filepath.Join(dir, ClientSecretsFile)
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", clientSecretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	if config.RedirectURL == "urn:ietf:wg:oauth:2.0:oob" || config.RedirectURL == "" {
		config.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
		log.Debug("using localhost redirect", zap.String("redirect", config.RedirectURL))
		return config, nil
	}
	parsedURL, err := url.Parse(config.RedirectURL)
	if err != nil {
		log.Warn("could not parse redirect URL, using it as is", zap.String("redirect", config.RedirectURL), zap.Error(err))
		return config, nil
	}
	if parsedURL.Hostname() != "localhost" && parsedURL.Hostname() != "127.0.0.1" {
		log.Warn("redirect URL is not a localhost callback", zap.String("redirect", config.RedirectURL))
		return config, nil
	}
	if parsedURL.Port() != LocalhostAuthPort {
		parsedURL.Host = net.JoinHostPort(parsedURL.Hostname(), LocalhostAuthPort)
		config.RedirectURL = parsedURL.String()
		log.Debug("pinned localhost redirect port", zap.String("redirect", config.RedirectURL))
	}
	return config, nil
}

// GetClient returns an authenticated client. With the OAuth flow it loads
// the cached token, or runs the browser authorization and caches the result.
func GetClient(ctx context.Context, opts Options, scopes []string) (*http.Client, error) {
	log := opts.logger()
	if opts.ADC {
		client, err := google.DefaultClient(ctx, scopes...)
		if err != nil {
			return nil, fmt.Errorf("application default credentials: %w", err)
		}
		return client, nil
	}

	config, err := GetConfig(opts.Dir, scopes, log)
	if err != nil {
		return nil, err
	}

	tokenFile := filepath.Join(opts.Dir, TokenFile)
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		log.Info("no cached token, starting web authorization", zap.String("path", tokenFile))
		listener, err := net.Listen("tcp", ":"+LocalhostAuthPort)
		if err != nil {
			return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
		}
		tok, err = getTokenFromWeb(ctx, config, listener, opts.Prompt, log)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	// Refresh eagerly so a rotated token is cached before any API call.
	current, err := config.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		log.Debug("token refreshed, updating cache")
		if err := saveToken(tokenFile, current); err != nil {
			log.Warn("could not cache refreshed token", zap.Error(err))
		}
	}
	return config.Client(ctx, current), nil
}

// getTokenFromWeb runs the authorization code flow: it prints the consent URL
// and waits on listener for the redirect carrying the code.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config, listener net.Listener, prompt io.Writer, log *zap.Logger) (*oauth2.Token, error) {
	defer listener.Close()
	if prompt == nil {
		prompt = os.Stdout
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				select {
				case errCh <- errors.New("authorization code not found in redirect URL"):
				default:
				}
				return
			}
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		<-done
	}()

	// AccessTypeOffline is required for a refresh token.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(prompt, "Please open the following URL in your browser to authorize taskdispatch:\n%s\n", authURL)
	log.Info("waiting for authorization code", zap.String("redirect", config.RedirectURL))

	timer := time.NewTimer(authTimeout)
	defer timer.Stop()
	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, errors.New("authorization timed out, please try again")
	}
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken writes token to path, readable by the owner only.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// Revoke deletes the cached token so the next run re-authorizes.
func Revoke(dir string) error {
	err := os.Remove(filepath.Join(dir, TokenFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
