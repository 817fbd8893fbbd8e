package weather

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	// MaxUpcomingHours caps the hourly outlook shown with a summary.
	MaxUpcomingHours = 6

	lookBack      = time.Hour
	dayLayout     = "2006-01-02"
	noRiskMessage = "Sem riscos significativos nas próximas horas"
)

var (
	ErrDayNotFound       = errors.New("forecast has no entry for today")
	ErrMalformedForecast = errors.New("malformed forecast payload")
)

// hourLayouts are the timestamp forms accepted in the hourly series.
var hourLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// Forecast is the provider payload: parallel arrays per metric.
type Forecast struct {
	Daily  *DailyMetrics `json:"daily"`
	Hourly *HourlySeries `json:"hourly"`
}

type DailyMetrics struct {
	Time      []string   `json:"time"`
	TempMax   []*float64 `json:"temperature_2m_max"`
	TempMin   []*float64 `json:"temperature_2m_min"`
	PrecipSum []*float64 `json:"precipitation_sum"`
	WindMax   []*float64 `json:"wind_speed_10m_max"`
}

type HourlySeries struct {
	Time          []string   `json:"time"`
	Precipitation []*float64 `json:"precipitation"`
	WeatherCode   []*int     `json:"weathercode"`
	WindSpeed     []*float64 `json:"windspeed_10m"`
}

// Summary is the landing-page weather panel for one day.
type Summary struct {
	Site        string          `json:"site,omitempty"`
	Text        string          `json:"summary"`
	Icon        Icon            `json:"risk_icon"`
	IconFile    string          `json:"summary_icon"`
	TempMax     float64         `json:"temp_max"`
	TempMin     float64         `json:"temp_min"`
	PrecipTotal float64         `json:"precip"`
	WindMax     float64         `json:"wind"`
	Hours       []HourlyOutlook `json:"hours"`
}

type HourlyOutlook struct {
	Time     string  `json:"time"`
	Precip   float64 `json:"precip"`
	Wind     float64 `json:"wind"`
	Risk     string  `json:"risk"`
	Icon     Icon    `json:"icon_key"`
	IconFile string  `json:"icon"`
}

type hourEntry struct {
	at     time.Time
	precip float64
	wind   float64
	risk   Risk
}

// Summarize builds the day's summary from a forecast payload.
//
// Hours from today starting one hour before now are classified; the earliest
// MaxUpcomingHours of them form the outlook. The summary icon is that of the
// most severe displayed hour (earliest wins ties) and the text joins the
// distinct risk descriptions of displayed hours that carry some risk.
// Hourly timestamps are read in now's location; unparseable ones are skipped.
func Summarize(daily *DailyMetrics, hourly *HourlySeries, today, now time.Time) (*Summary, error) {
	if daily == nil || len(daily.Time) == 0 {
		return nil, fmt.Errorf("%w: no daily series", ErrMalformedForecast)
	}

	idx := slices.Index(daily.Time, today.Format(dayLayout))
	if idx < 0 {
		return nil, ErrDayNotFound
	}

	tempMax, err := dailyValue(daily.TempMax, idx, "temperature_2m_max")
	if err != nil {
		return nil, err
	}
	tempMin, err := dailyValue(daily.TempMin, idx, "temperature_2m_min")
	if err != nil {
		return nil, err
	}
	precip, err := dailyValue(daily.PrecipSum, idx, "precipitation_sum")
	if err != nil {
		return nil, err
	}
	wind, err := dailyValue(daily.WindMax, idx, "wind_speed_10m_max")
	if err != nil {
		return nil, err
	}

	entries := hourlyEntries(hourly, today, now)
	slices.SortStableFunc(entries, func(a, b hourEntry) int {
		return a.at.Compare(b.at)
	})
	if len(entries) > MaxUpcomingHours {
		entries = entries[:MaxUpcomingHours]
	}

	summary := &Summary{
		Icon:        IconNoRisk,
		TempMax:     round1(tempMax),
		TempMin:     round1(tempMin),
		PrecipTotal: round1(precip),
		WindMax:     round1(wind),
		Hours:       make([]HourlyOutlook, 0, len(entries)),
	}

	topSeverity := -1
	var texts []string
	for _, e := range entries {
		summary.Hours = append(summary.Hours, HourlyOutlook{
			Time:     e.at.Format("15:04"),
			Precip:   e.precip,
			Wind:     e.wind,
			Risk:     e.risk.Description,
			Icon:     e.risk.Icon,
			IconFile: e.risk.Icon.File(),
		})
		if e.risk.Severity > topSeverity {
			topSeverity = e.risk.Severity
			summary.Icon = e.risk.Icon
		}
		if e.risk.Icon != IconNoRisk && !slices.Contains(texts, e.risk.Description) {
			texts = append(texts, e.risk.Description)
		}
	}

	if len(texts) > 0 {
		summary.Text = strings.Join(texts, " / ")
	} else {
		summary.Text = noRiskMessage
	}
	summary.IconFile = summary.Icon.File()

	return summary, nil
}

func hourlyEntries(hourly *HourlySeries, today, now time.Time) []hourEntry {
	if hourly == nil {
		return nil
	}

	n := min(len(hourly.Time), len(hourly.Precipitation), len(hourly.WindSpeed), len(hourly.WeatherCode))
	cutoff := now.Add(-lookBack)
	ty, tm, td := today.Date()

	entries := make([]hourEntry, 0, n)
	for i := 0; i < n; i++ {
		at, ok := parseHour(hourly.Time[i], now.Location())
		if !ok {
			continue
		}
		if y, m, d := at.Date(); y != ty || m != tm || d != td {
			continue
		}
		if at.Before(cutoff) {
			continue
		}

		p, w := hourly.Precipitation[i], hourly.WindSpeed[i]
		entries = append(entries, hourEntry{
			at:     at,
			precip: roundOrZero(p),
			wind:   roundOrZero(w),
			risk:   Classify(hourly.WeatherCode[i], p, w),
		})
	}
	return entries
}

func parseHour(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range hourLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dailyValue(values []*float64, idx int, key string) (float64, error) {
	if idx >= len(values) || values[idx] == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedForecast, key)
	}
	return *values[idx], nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func roundOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return round1(*v)
}
