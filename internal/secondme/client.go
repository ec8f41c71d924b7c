// Package secondme implements the HTTP client for the SecondMe identity
// provider: the OAuth authorization-code and refresh flows plus the
// bearer-token API surface used by the rest of the service.
package secondme

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"sobercircle/internal/config"
)

// Scopes requested during the authorization redirect.
var Scopes = []string{"user.info", "user.info.shades", "user.info.softmemory", "chat", "note.add"}

var (
	// ErrProviderStatus is returned when the provider answers with a non-success HTTP status.
	ErrProviderStatus = errors.New("provider returned non-success status")
	// ErrAPIStatus is returned when the provider's response envelope carries a non-zero code.
	ErrAPIStatus = errors.New("provider returned application error")
	// ErrMalformedResponse is returned when a response is missing required fields.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Token is a token pair issued by the provider. RefreshToken is empty on
// refresh responses, which only rotate the access token.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// UserInfo identifies the provider-side account.
type UserInfo struct {
	UserID string
	Name   string
}

// Client calls the SecondMe OAuth endpoints and API.
type Client struct {
	client  *http.Client
	oauth   *oauth2.Config
	apiBase string
}

// NewClient constructs a Client from the provider settings.
func NewClient(httpClient *http.Client, settings config.SecondMe) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		client:  httpClient,
		apiBase: settings.APIBaseURL,
		oauth: &oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			RedirectURL:  settings.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  settings.OAuthBaseURL + "/oauth/authorize",
				TokenURL: settings.TokenEndpoint,
			},
		},
	}
}

// AuthCodeURL builds the provider's authorize URL carrying the CSRF state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

type exchangeRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	GrantType    string `json:"grant_type"`
	RedirectURI  string `json:"redirect_uri"`
}

type exchangeResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Exchange converts an authorization code into a token pair.
//
// SecondMe's token endpoint takes a JSON body rather than the form encoding of
// RFC 6749, so the exchange is issued directly instead of through oauth2.Config.
func (c *Client) Exchange(ctx context.Context, code string) (Token, error) {
	payload := exchangeRequest{
		ClientID:     c.oauth.ClientID,
		ClientSecret: c.oauth.ClientSecret,
		Code:         code,
		GrantType:    "authorization_code",
		RedirectURI:  c.oauth.RedirectURL,
	}

	var parsed exchangeResponse
	if err := c.postJSON(ctx, c.oauth.Endpoint.TokenURL, payload, &parsed); err != nil {
		return Token{}, fmt.Errorf("token exchange: %w", err)
	}

	if parsed.AccessToken == "" || parsed.RefreshToken == "" || parsed.ExpiresIn <= 0 {
		return Token{}, fmt.Errorf("token exchange: %w", ErrMalformedResponse)
	}

	return Token{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresIn:    parsed.ExpiresIn,
	}, nil
}

type refreshRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	GrantType    string `json:"grant_type"`
}

type refreshData struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Refresh obtains a new access token for the given refresh token. A single
// attempt, no retries; callers decide what a failure means.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	payload := refreshRequest{
		ClientID:     c.oauth.ClientID,
		ClientSecret: c.oauth.ClientSecret,
		RefreshToken: refreshToken,
		GrantType:    "refresh_token",
	}

	var data refreshData
	if err := c.postEnveloped(ctx, c.apiBase+"/api/oauth/token", payload, &data); err != nil {
		return Token{}, fmt.Errorf("token refresh: %w", err)
	}

	if data.AccessToken == "" || data.ExpiresIn <= 0 {
		return Token{}, fmt.Errorf("token refresh: %w", ErrMalformedResponse)
	}

	return Token{AccessToken: data.AccessToken, ExpiresIn: data.ExpiresIn}, nil
}

type userInfoData struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// UserInfo fetches the provider-side account identity for the access token.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (UserInfo, error) {
	var data userInfoData
	if err := c.callAPI(ctx, accessToken, http.MethodGet, "/api/secondme/user/info", nil, &data); err != nil {
		return UserInfo{}, fmt.Errorf("user info: %w", err)
	}

	if data.UserID == "" {
		return UserInfo{}, fmt.Errorf("user info: %w", ErrMalformedResponse)
	}

	return UserInfo{UserID: data.UserID, Name: data.Name}, nil
}

// Chat sends a message to the user's AI companion.
func (c *Client) Chat(ctx context.Context, accessToken, message string) error {
	payload := struct {
		Message string `json:"message"`
	}{Message: message}

	if err := c.callAPI(ctx, accessToken, http.MethodPost, "/api/secondme/chat/completions", payload, nil); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

// AddNote stores a note in the user's provider-side memory.
func (c *Client) AddNote(ctx context.Context, accessToken, content string) error {
	payload := struct {
		Content string `json:"content"`
	}{Content: content}

	if err := c.callAPI(ctx, accessToken, http.MethodPost, "/api/secondme/note/add", payload, nil); err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	return nil
}

// envelope is the {code, message, data} wrapper every SecondMe API response uses.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// postJSON issues a JSON POST and decodes the bare response body into out.
func (c *Client) postJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// postEnveloped issues a JSON POST and unwraps the {code, data} envelope.
func (c *Client) postEnveloped(ctx context.Context, url string, payload, out any) error {
	var env envelope
	if err := c.postJSON(ctx, url, payload, &env); err != nil {
		return err
	}
	return unwrap(env, out)
}

// callAPI issues a bearer-authenticated API call and unwraps the envelope.
func (c *Client) callAPI(ctx context.Context, accessToken, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return unwrap(env, out)
}

func unwrap(env envelope, out any) error {
	if env.Code != 0 {
		if env.Message != "" {
			return fmt.Errorf("%w: code %d: %s", ErrAPIStatus, env.Code, env.Message)
		}
		return fmt.Errorf("%w: code %d", ErrAPIStatus, env.Code)
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return ErrMalformedResponse
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
