package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/ssma-incidents/internal/config"
	"github.com/mr1hm/ssma-incidents/internal/observability"
)

type ForecastFetcher interface {
	FetchForecast(ctx context.Context, site config.Site) (*Forecast, error)
}

// Service serves cached daily summaries per site. A failed fetch never
// surfaces as an error: callers get nil and render without a weather panel.
type Service struct {
	fetcher ForecastFetcher
	loc     *time.Location
	timeout time.Duration
	clock   clockwork.Clock
	cache   *Cache[*Summary]
	metrics *observability.Metrics
}

func NewService(fetcher ForecastFetcher, loc *time.Location, timeout, cacheTTL time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Service {
	return &Service{
		fetcher: fetcher,
		loc:     loc,
		timeout: timeout,
		clock:   clock,
		cache:   NewCache[*Summary](cacheTTL, clock),
		metrics: metrics,
	}
}

// Today returns the site's summary for the current local day, or nil when the
// forecast is unavailable.
func (s *Service) Today(ctx context.Context, site config.Site) *Summary {
	now := s.clock.Now().In(s.loc)
	key := cacheKey(site, now)

	if cached, ok := s.cache.Get(key); ok {
		s.metrics.ForecastCache.WithLabelValues("hit").Inc()
		return cached
	}
	s.metrics.ForecastCache.WithLabelValues("miss").Inc()

	summary, err := s.Refresh(ctx, site)
	if err != nil {
		slog.Warn("weather unavailable", "site", site.Name, "error", err)
		return nil
	}
	return summary
}

// Refresh fetches and summarizes the site's forecast, replacing any cached
// summary on success.
func (s *Service) Refresh(ctx context.Context, site config.Site) (*Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.clock.Now()
	forecast, err := s.fetcher.FetchForecast(ctx, site)
	s.metrics.ForecastFetchDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		s.metrics.ForecastFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	now := s.clock.Now().In(s.loc)
	summary, err := Summarize(forecast.Daily, forecast.Hourly, now, now)
	if err != nil {
		s.metrics.ForecastFetches.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("summarize forecast: %w", err)
	}

	summary.Site = site.Name
	s.cache.Set(cacheKey(site, now), summary)
	s.metrics.ForecastFetches.WithLabelValues("success").Inc()

	slog.Debug("forecast refreshed", "site", site.Name, "hours", len(summary.Hours), "icon", summary.Icon)
	return summary, nil
}

// cacheKey includes the local day so a summary never outlives its date.
func cacheKey(site config.Site, now time.Time) string {
	return fmt.Sprintf("%s|%.4f,%.4f|%s", site.Name, site.Latitude, site.Longitude, now.Format(dayLayout))
}
