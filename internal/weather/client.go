package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mr1hm/ssma-incidents/internal/config"
)

const (
	dailyMetrics  = "temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max"
	hourlyMetrics = "precipitation,weathercode,windspeed_10m"
)

// Client fetches one-day forecasts from an Open-Meteo compatible endpoint.
type Client struct {
	baseURL  string
	timezone string
	http     *http.Client
}

func NewClient(baseURL, timezone string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		timezone: timezone,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) FetchForecast(ctx context.Context, site config.Site) (*Forecast, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing forecast url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(site.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(site.Longitude, 'f', -1, 64))
	q.Set("daily", dailyMetrics)
	q.Set("hourly", hourlyMetrics)
	q.Set("forecast_days", "1")
	q.Set("timezone", c.timezone)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data Forecast
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}
	if data.Daily == nil || len(data.Daily.Time) == 0 {
		return nil, fmt.Errorf("%w: response has no daily series", ErrMalformedForecast)
	}

	return &data, nil
}
