// Package remote saves weekly menus to an HTTP document store.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"menu-planner/internal/config"
	"menu-planner/internal/planner"
)

// Client talks to a remote store exposing one week and one history
// document per owner:
//
//	GET|PUT|DELETE {base}/owners/{owner}/week
//	GET|PUT        {base}/owners/{owner}/history
//	GET            {base}/owners
type Client struct {
	client *resty.Client
}

// NewClient creates a Client for cfg.RemoteURL.
func NewClient(cfg config.PersistenceConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.RemoteURL).
		SetTimeout(cfg.RemoteTimeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.RemoteToken != "" {
		client.SetAuthToken(cfg.RemoteToken)
	}
	return &Client{client: client}
}

// SaveWeek stores the owner's week, replacing any previous one.
func (c *Client) SaveWeek(ctx context.Context, ownerID string, week planner.WeekMenu) error {
	if err := c.put(ctx, "/owners/{owner}/week", ownerID, week); err != nil {
		return fmt.Errorf("failed to save week for owner %s: %w", ownerID, err)
	}
	return nil
}

// LoadWeek returns the owner's stored week. found is false when there is none.
func (c *Client) LoadWeek(ctx context.Context, ownerID string) (planner.WeekMenu, bool, error) {
	var week planner.WeekMenu
	found, err := c.get(ctx, "/owners/{owner}/week", ownerID, &week)
	if err != nil {
		return planner.WeekMenu{}, false, fmt.Errorf("failed to load week for owner %s: %w", ownerID, err)
	}
	return week, found, nil
}

// DeleteWeek removes the owner's week. Deleting a missing week is not an error.
func (c *Client) DeleteWeek(ctx context.Context, ownerID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("owner", ownerID).
		Delete("/owners/{owner}/week")
	if err != nil {
		return fmt.Errorf("failed to delete week for owner %s: %w", ownerID, err)
	}
	if resp.StatusCode() != http.StatusNotFound && resp.IsError() {
		return fmt.Errorf("failed to delete week for owner %s: %w", ownerID, statusError(resp))
	}
	return nil
}

// SaveHistory stores the owner's regeneration history.
func (c *Client) SaveHistory(ctx context.Context, ownerID string, history planner.RegenerationHistory) error {
	if err := c.put(ctx, "/owners/{owner}/history", ownerID, history); err != nil {
		return fmt.Errorf("failed to save history for owner %s: %w", ownerID, err)
	}
	return nil
}

// LoadHistory returns the owner's regeneration history, empty if none was stored.
func (c *Client) LoadHistory(ctx context.Context, ownerID string) (planner.RegenerationHistory, error) {
	var history planner.RegenerationHistory
	if _, err := c.get(ctx, "/owners/{owner}/history", ownerID, &history); err != nil {
		return planner.RegenerationHistory{}, fmt.Errorf("failed to load history for owner %s: %w", ownerID, err)
	}
	return history, nil
}

// ListOwners returns every owner that has a stored week.
func (c *Client) ListOwners(ctx context.Context) ([]string, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/owners")
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to list owners: %w", statusError(resp))
	}
	var owners []string
	if err := json.Unmarshal(resp.Body(), &owners); err != nil {
		return nil, fmt.Errorf("failed to parse owner list: %w", err)
	}
	return owners, nil
}

func (c *Client) put(ctx context.Context, path, ownerID string, body any) error {
	// resty only encodes structs, maps and slices; a WeekMenu is an array.
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("owner", ownerID).
		SetBody(data).
		Put(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return statusError(resp)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path, ownerID string, out any) (bool, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("owner", ownerID).
		Get(path)
	if err != nil {
		return false, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if resp.IsError() {
		return false, statusError(resp)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return true, nil
}

func statusError(resp *resty.Response) error {
	return fmt.Errorf("remote store returned %d: %s", resp.StatusCode(), resp.String())
}
