// Package threads is a minimal client for the Threads publishing API: media
// containers are created, left to process, then published.
package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"threadplanner/internal/model"
)

const DefaultBaseURL = "https://graph.threads.net/v1.0"

const refreshGrantType = "th_refresh_token"

type MediaType string

const (
	MediaTypeText     MediaType = "TEXT"
	MediaTypeImage    MediaType = "IMAGE"
	MediaTypeCarousel MediaType = "CAROUSEL"
)

// Credentials identify the account being published to.
type Credentials struct {
	AccessToken string
	UserID      string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Threads API client. If baseURL is empty it defaults to
// the production Graph endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateTextContainer stages a text-only post and returns the container id.
func (c *Client) CreateTextContainer(ctx context.Context, creds Credentials, text string) (string, error) {
	params := url.Values{}
	params.Set("media_type", string(MediaTypeText))
	params.Set("text", text)
	return c.createContainer(ctx, creds, params)
}

// CreateImageContainer stages a single image. For carousel items the caption
// lives on the parent container, so text is omitted.
func (c *Client) CreateImageContainer(ctx context.Context, creds Credentials, text, imageURL string, carouselItem bool) (string, error) {
	params := url.Values{}
	params.Set("media_type", string(MediaTypeImage))
	params.Set("image_url", imageURL)
	if carouselItem {
		params.Set("is_carousel_item", "true")
	} else if text != "" {
		params.Set("text", text)
	}
	return c.createContainer(ctx, creds, params)
}

// CreateCarouselContainer stages a multi-image post referencing previously
// created item containers. The order of children determines display order.
func (c *Client) CreateCarouselContainer(ctx context.Context, creds Credentials, text string, children []string) (string, error) {
	params := url.Values{}
	params.Set("media_type", string(MediaTypeCarousel))
	params.Set("children", strings.Join(children, ","))
	if text != "" {
		params.Set("text", text)
	}
	return c.createContainer(ctx, creds, params)
}

func (c *Client) createContainer(ctx context.Context, creds Credentials, params url.Values) (string, error) {
	var resp idResponse
	if err := c.post(ctx, "/"+creds.UserID+"/threads", creds, params, &resp); err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	return resp.ID, nil
}

// PublishContainer publishes a staged container and returns the platform's id
// for the published item.
func (c *Client) PublishContainer(ctx context.Context, creds Credentials, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)

	var resp idResponse
	if err := c.post(ctx, "/"+creds.UserID+"/threads_publish", creds, params, &resp); err != nil {
		return "", fmt.Errorf("publish container: %w", err)
	}
	return resp.ID, nil
}

// RefreshToken exchanges a long-lived token for a fresh one.
func (c *Client) RefreshToken(ctx context.Context, accessToken string) (*TokenRefresh, error) {
	params := url.Values{}
	params.Set("grant_type", refreshGrantType)
	params.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/refresh_access_token?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var resp TokenRefresh
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return &resp, nil
}

// post issues a parameterised POST; the Threads Graph API takes its arguments
// as query parameters, not a request body.
func (c *Client) post(ctx context.Context, path string, creds Credentials, params url.Values, result interface{}) error {
	params.Set("access_token", creds.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return platformError(resp.StatusCode, body)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// platformError decodes the platform's error envelope, falling back to a
// generic message when the body carries none.
func platformError(status int, body []byte) error {
	platformErr := &model.PlatformError{
		Message: fmt.Sprintf("Threads API request failed (status %d)", status),
	}
	var wrapper errorResponse
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		platformErr.Message = wrapper.Error.Message
		platformErr.Type = wrapper.Error.Type
		platformErr.Code = wrapper.Error.Code
	}
	return platformErr
}

// TokenRefresh is the platform's refresh_access_token response.
type TokenRefresh struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type idResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
