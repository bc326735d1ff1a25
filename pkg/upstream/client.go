package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mzielinski/wspolnota-api/pkg/models"
)

// availabilityConcurrency bounds the fan-out when fetching availability for
// every event of a displayed month at once.
const availabilityConcurrency = 8

// Client talks to the upstream community backend over HTTP+JSON. All
// methods treat the upstream as opaque: no business rules live here.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given upstream base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// getJSON performs a GET and decodes the JSON response into out. Non-2xx
// responses are errors; callers decide how to degrade.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, token string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("request %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// FetchMonthEvents returns the events of one month, optionally narrowed to a
// city. limit <= 0 means no limit parameter is sent.
func (c *Client) FetchMonthEvents(ctx context.Context, year int, month time.Month, city string, limit int) ([]models.Event, error) {
	query := url.Values{}
	query.Set("year", fmt.Sprintf("%d", year))
	query.Set("month", fmt.Sprintf("%d", int(month)))
	if city != "" {
		query.Set("city", city)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}

	var events []models.Event
	if err := c.getJSON(ctx, "/events", query, "", &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchAvailability returns the capacity snapshot for one event. Absence of
// data upstream (404) surfaces as an error; batch callers translate any
// error into "no data" for that event.
func (c *Client) FetchAvailability(ctx context.Context, eventID string) (*models.Availability, error) {
	var av models.Availability
	err := c.getJSON(ctx, "/events/"+url.PathEscape(eventID)+"/availability", nil, "", &av)
	if err != nil {
		return nil, err
	}
	return &av, nil
}

// FetchAvailabilityBatch fans out one availability fetch per event id and
// joins them into a single map. A failed fetch contributes no entry for its
// id and neither blocks nor fails the rest of the batch, so the caller
// always gets every result that could be had.
func (c *Client) FetchAvailabilityBatch(ctx context.Context, eventIDs []string) map[string]*models.Availability {
	results := make(map[string]*models.Availability, len(eventIDs))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(availabilityConcurrency)

	for _, id := range eventIDs {
		id := id
		eg.Go(func() error {
			av, err := c.FetchAvailability(egCtx, id)
			if err != nil {
				// Degrade to "no data" for this event only.
				return nil
			}
			mu.Lock()
			results[id] = av
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors, so this only joins the fan-out.
	_ = eg.Wait()
	return results
}

// FetchRegisteredIDs returns the set of event ids the bearer of the token is
// registered for.
func (c *Client) FetchRegisteredIDs(ctx context.Context, token string) (map[string]bool, error) {
	var ids []string
	if err := c.getJSON(ctx, "/registrations/mine", nil, token, &ids); err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// FetchChatLatest returns the latest message timestamp (unix seconds) per
// chat channel visible to the bearer of the token.
func (c *Client) FetchChatLatest(ctx context.Context, token string) (map[string]int64, error) {
	var latest map[string]int64
	if err := c.getJSON(ctx, "/chats/latest", nil, token, &latest); err != nil {
		return nil, err
	}
	return latest, nil
}

// FetchShopProducts returns the shop listing.
func (c *Client) FetchShopProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.getJSON(ctx, "/shop/products", nil, "", &products); err != nil {
		return nil, err
	}
	return products, nil
}
