// Package provider is the HTTP client for the ring vendor's API. It only
// deserializes; aggregation happens in the service layer.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yourname/ringchallenge/internal"
	"golang.org/x/oauth2"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     internal.Logger
}

// NewClient builds a client authenticating with a static bearer token via
// oauth2. The vendor issues long-lived personal access tokens, so no refresh
// flow is needed here.
func NewClient(baseURL, token string, logger internal.Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		baseURL:    baseURL,
		httpClient: oauth2.NewClient(context.Background(), src),
		logger:     logger,
	}
}

type sessionEnvelope struct {
	Data []internal.RawSleepSession `json:"data"`
}

type dailyScoreEnvelope struct {
	Data []struct {
		Day   string `json:"day"`
		Score *int   `json:"score"`
	} `json:"data"`
}

// FetchSessions returns every sleep session (long sleeps and naps) for the
// inclusive [from, to] date range.
func (c *Client) FetchSessions(ctx context.Context, from, to string) ([]internal.RawSleepSession, error) {
	var envelope sessionEnvelope
	if err := c.get(ctx, "/v2/usercollection/sleep", from, to, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// FetchDailyScores returns the day -> sleep score lookup for the range. Days
// the vendor computed no score for are simply missing from the map.
func (c *Client) FetchDailyScores(ctx context.Context, from, to string) (map[string]int, error) {
	var envelope dailyScoreEnvelope
	if err := c.get(ctx, "/v2/usercollection/daily_sleep", from, to, &envelope); err != nil {
		return nil, err
	}
	scores := make(map[string]int, len(envelope.Data))
	for _, d := range envelope.Data {
		if d.Score != nil {
			scores[d.Day] = *d.Score
		}
	}
	return scores, nil
}

func (c *Client) get(ctx context.Context, path, from, to string, target interface{}) error {
	q := url.Values{}
	q.Set("start_date", from)
	q.Set("end_date", to)
	reqURL := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Errorf("provider: failed to create request: %v", err)
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("provider: request to %s failed: %v", path, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Errorf("provider: %s returned %d", path, resp.StatusCode)
		return fmt.Errorf("provider: %s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		c.logger.Errorf("provider: failed to decode %s response: %v", path, err)
		return err
	}
	return nil
}
