package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mr1hm/ssma-incidents/internal/config"
	"github.com/mr1hm/ssma-incidents/internal/logging"
	"github.com/mr1hm/ssma-incidents/internal/observability"
	"github.com/mr1hm/ssma-incidents/internal/weather"
)

func main() {
	_ = godotenv.Load()

	siteName := flag.String("site", "", "configured site name (defaults to the first site)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	site := cfg.Weather.DefaultSite()
	if *siteName != "" {
		s, ok := cfg.Weather.SiteByName(*siteName)
		if !ok {
			logging.Fatalf("unknown site %q", *siteName)
		}
		site = s
	}

	loc, err := time.LoadLocation(cfg.Weather.Timezone)
	if err != nil {
		logging.Fatalf("Invalid weather timezone: %v", err)
	}

	client := weather.NewClient(cfg.Weather.URL, cfg.Weather.Timezone, cfg.Weather.Timeout)
	svc := weather.NewService(client, loc, cfg.Weather.Timeout, cfg.Weather.CacheTTL,
		clockwork.NewRealClock(), observability.NewMetrics(prometheus.NewRegistry()))

	summary, err := svc.Refresh(context.Background(), site)
	if err != nil {
		slog.Error("forecast unavailable", "site", site.Name, "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logging.Fatalf("error encoding summary: %v", err)
	}
	fmt.Println(string(out))
}
