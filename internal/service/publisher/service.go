// Package publisher orchestrates the container/publish protocol for stored
// posts: credential lifecycle, per-post shape dispatch and the sequential
// due-post loop invoked by the external cron trigger.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"

	"threadplanner/internal/boot"
	"threadplanner/internal/model"
	"threadplanner/internal/threads"
)

const (
	// tokenRefreshWindow: a token expiring within this window is refreshed.
	tokenRefreshWindow = 7 * 24 * time.Hour
	// initialTokenValidity is assumed when seeding settings from the
	// environment on first run.
	initialTokenValidity = 60 * 24 * time.Hour
)

type Store interface {
	DuePosts(now time.Time, limit int) ([]model.Post, error)
	MarkPublished(id, threadsID string, at time.Time) error
	MarkFailed(id, message string) error
	GetSettings() (*model.Settings, error)
	SaveSettings(settings *model.Settings) error
}

type PlatformClient interface {
	CreateTextContainer(ctx context.Context, creds threads.Credentials, text string) (string, error)
	CreateImageContainer(ctx context.Context, creds threads.Credentials, text, imageURL string, carouselItem bool) (string, error)
	CreateCarouselContainer(ctx context.Context, creds threads.Credentials, text string, children []string) (string, error)
	PublishContainer(ctx context.Context, creds threads.Credentials, containerID string) (string, error)
	RefreshToken(ctx context.Context, accessToken string) (*threads.TokenRefresh, error)
}

// RunSummary reports the outcome of one dispatcher invocation.
type RunSummary struct {
	Selected  int `json:"selected"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

type service struct {
	config *boot.Config
	store  Store
	client PlatformClient

	itemPace *rate.Limiter
	postPace *rate.Limiter

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(config *boot.Config, store Store, client PlatformClient) *service {
	return &service{
		config:   config,
		store:    store,
		client:   client,
		itemPace: rate.NewLimiter(pace(config.Publish.CarouselItemPause), 1),
		postPace: rate.NewLimiter(pace(config.Publish.PostPause), 1),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func pace(d time.Duration) rate.Limit {
	if d <= 0 {
		return rate.Inf
	}
	return rate.Every(d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EnsureSettings returns the stored credential set, seeding it from the
// environment with an assumed validity on first run. This runs before any
// token read.
func (s *service) EnsureSettings(ctx context.Context) (*model.Settings, error) {
	settings, err := s.store.GetSettings()
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, model.ErrorSettingsNotFound) {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if s.config.Threads.AccessToken == "" || s.config.Threads.UserID == "" {
		return nil, model.ErrorNoCredentials
	}

	settings = &model.Settings{
		AccessToken: s.config.Threads.AccessToken,
		UserID:      s.config.Threads.UserID,
		TokenExpiry: s.now().Add(initialTokenValidity),
	}
	if err := s.store.SaveSettings(settings); err != nil {
		return nil, fmt.Errorf("seeding settings: %w", err)
	}
	return settings, nil
}

// RefreshTokenIfStale refreshes the access token when its stored expiry falls
// within the refresh window, persisting the new token and expiry. Reports
// whether a refresh happened.
func (s *service) RefreshTokenIfStale(ctx context.Context) (bool, error) {
	settings, err := s.EnsureSettings(ctx)
	if err != nil {
		return false, err
	}

	if settings.TokenExpiry.After(s.now().Add(tokenRefreshWindow)) {
		return false, nil
	}

	refreshed, err := s.client.RefreshToken(ctx, settings.AccessToken)
	if err != nil {
		return false, fmt.Errorf("refreshing access token: %w", err)
	}

	settings.AccessToken = refreshed.AccessToken
	settings.TokenExpiry = s.now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
	if err := s.store.SaveSettings(settings); err != nil {
		return false, fmt.Errorf("persisting refreshed token: %w", err)
	}
	return true, nil
}

// PublishPost runs the container/publish exchange for one post and returns
// the platform's published-item id. No retries: any platform failure
// propagates to the caller.
func (s *service) PublishPost(ctx context.Context, creds threads.Credentials, post *model.Post) (string, error) {
	images := []string(post.ImageURLs)

	var containerID string
	var err error
	switch {
	case len(images) == 0:
		containerID, err = s.client.CreateTextContainer(ctx, creds, post.Content)
	case len(images) == 1:
		containerID, err = s.client.CreateImageContainer(ctx, creds, post.Content, images[0], false)
	default:
		containerID, err = s.createCarousel(ctx, creds, post.Content, images)
	}
	if err != nil {
		return "", err
	}

	// flat wait for the platform's asynchronous media processing; containers
	// published too early come back with a not-ready error
	if err := s.sleep(ctx, s.config.Publish.ProcessingWait); err != nil {
		return "", err
	}

	return s.client.PublishContainer(ctx, creds, containerID)
}

// createCarousel creates one item container per image, strictly in order and
// paced to respect platform rate limits, then the parent container that fixes
// the display order.
func (s *service) createCarousel(ctx context.Context, creds threads.Credentials, text string, images []string) (string, error) {
	children := make([]string, 0, len(images))
	for _, imageURL := range images {
		if err := s.itemPace.Wait(ctx); err != nil {
			return "", err
		}
		id, err := s.client.CreateImageContainer(ctx, creds, "", imageURL, true)
		if err != nil {
			return "", fmt.Errorf("creating carousel item: %w", err)
		}
		children = append(children, id)
	}
	return s.client.CreateCarouselContainer(ctx, creds, text, children)
}

// RunDue publishes due pending posts one at a time in scheduled order. Each
// post's outcome is independent: failures are recorded and the loop moves on.
// The pacing delay is applied before every attempt, not only between
// successes; a failed attempt still spent request budget against the
// platform's rate limits.
// A missing credential set aborts the run before any post is touched. The
// batch is capped; a backlog is drained by subsequent invocations.
func (s *service) RunDue(ctx context.Context) (*RunSummary, error) {
	settings, err := s.EnsureSettings(ctx)
	if err != nil {
		return nil, err
	}
	creds := threads.Credentials{
		AccessToken: settings.AccessToken,
		UserID:      settings.UserID,
	}

	posts, err := s.store.DuePosts(s.now(), s.config.Publish.BatchLimit)
	if err != nil {
		return nil, fmt.Errorf("selecting due posts: %w", err)
	}

	summary := &RunSummary{Selected: len(posts)}
	for i := range posts {
		post := &posts[i]

		if err := s.postPace.Wait(ctx); err != nil {
			return summary, err
		}

		threadsID, err := s.PublishPost(ctx, creds, post)
		if err != nil {
			summary.Failed++
			log.Errorf("publishing post %s: %+v", post.ID, err)
			if err := s.store.MarkFailed(post.ID, err.Error()); err != nil {
				log.Errorf("recording failure for post %s: %+v", post.ID, err)
			}
			continue
		}

		summary.Published++
		if err := s.store.MarkPublished(post.ID, threadsID, s.now()); err != nil {
			log.Errorf("recording publish for post %s: %+v", post.ID, err)
		}
	}
	return summary, nil
}
