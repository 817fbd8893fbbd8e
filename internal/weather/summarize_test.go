package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saoPaulo = mustLoad("America/Sao_Paulo")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testDaily() *DailyMetrics {
	return &DailyMetrics{
		Time:      []string{"2024-05-01"},
		TempMax:   []*float64{fp(28.46)},
		TempMin:   []*float64{fp(17.04)},
		PrecipSum: []*float64{fp(12.36)},
		WindMax:   []*float64{fp(51.2)},
	}
}

type hourRow struct {
	time   string
	code   *int
	precip *float64
	wind   *float64
}

func series(rows ...hourRow) *HourlySeries {
	h := &HourlySeries{}
	for _, r := range rows {
		h.Time = append(h.Time, r.time)
		h.WeatherCode = append(h.WeatherCode, r.code)
		h.Precipitation = append(h.Precipitation, r.precip)
		h.WindSpeed = append(h.WindSpeed, r.wind)
	}
	return h
}

func TestSummarize_Window(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 30, 0, 0, saoPaulo)

	hourly := series(
		hourRow{"2024-05-01T08:00", ip(95), fp(0), fp(0)},
		hourRow{"2024-05-01T09:00", ip(95), fp(0), fp(0)},
		hourRow{"2024-05-01T10:00", ip(0), fp(0), fp(10)},
		hourRow{"2024-05-01T11:00", ip(61), fp(1.26), fp(12)},
		hourRow{"2024-05-01T12:00", ip(0), fp(0), fp(50)},
		hourRow{"not-a-time", ip(95), fp(20), fp(90)},
		hourRow{"2024-05-01T13:00", ip(61), fp(2), fp(8)},
		hourRow{"2024-05-01T14:00", ip(95), fp(0), fp(5)},
		hourRow{"2024-05-01T15:00", ip(0), fp(0.2), fp(5)},
		hourRow{"2024-05-01T16:00", ip(95), fp(0), fp(70)},
		hourRow{"2024-05-02T00:00", ip(95), fp(0), fp(70)},
	)

	s, err := Summarize(testDaily(), hourly, now, now)
	require.NoError(t, err)

	require.Len(t, s.Hours, MaxUpcomingHours)
	times := make([]string, 0, len(s.Hours))
	for _, h := range s.Hours {
		times = append(times, h.Time)
	}
	assert.Equal(t, []string{"10:00", "11:00", "12:00", "13:00", "14:00", "15:00"}, times)

	assert.Equal(t, IconThunderstorm, s.Icon)
	assert.Equal(t, "tempestade.svg", s.IconFile)
	assert.Equal(t, "Chuva moderada / Ventos fortes previstos / Tempestade com raios", s.Text)

	assert.Equal(t, 28.5, s.TempMax)
	assert.Equal(t, 17.0, s.TempMin)
	assert.Equal(t, 12.4, s.PrecipTotal)
	assert.Equal(t, 51.2, s.WindMax)

	assert.Equal(t, 1.3, s.Hours[1].Precip)
	assert.Equal(t, "chuva_moderada.svg", s.Hours[1].IconFile)
}

func TestSummarize_LookBackBoundary(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, saoPaulo)
	hourly := series(
		hourRow{"2024-05-01T08:59", ip(0), nil, nil},
		hourRow{"2024-05-01T09:00", ip(0), nil, nil},
	)

	s, err := Summarize(testDaily(), hourly, now, now)
	require.NoError(t, err)
	require.Len(t, s.Hours, 1)
	assert.Equal(t, "09:00", s.Hours[0].Time)
	assert.Equal(t, 0.0, s.Hours[0].Precip, "null precipitation displays as zero")
	assert.Equal(t, 0.0, s.Hours[0].Wind)
}

func TestSummarize_SortsHours(t *testing.T) {
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, saoPaulo)
	hourly := series(
		hourRow{"2024-05-01T09:00", ip(0), fp(0), fp(0)},
		hourRow{"2024-05-01T07:00", ip(0), fp(0), fp(0)},
		hourRow{"2024-05-01T08:00:00", ip(0), fp(0), fp(0)},
	)

	s, err := Summarize(testDaily(), hourly, now, now)
	require.NoError(t, err)
	require.Len(t, s.Hours, 3)
	assert.Equal(t, "07:00", s.Hours[0].Time)
	assert.Equal(t, "08:00", s.Hours[1].Time)
	assert.Equal(t, "09:00", s.Hours[2].Time)
}

func TestSummarize_TieKeepsEarliestIcon(t *testing.T) {
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, saoPaulo)
	hourly := series(
		hourRow{"2024-05-01T07:00", ip(0), fp(0), fp(46)},
		hourRow{"2024-05-01T08:00", ip(80), fp(0), fp(0)},
	)

	s, err := Summarize(testDaily(), hourly, now, now)
	require.NoError(t, err)
	assert.Equal(t, IconStrongWind, s.Icon)
	assert.Equal(t, "Ventos fortes previstos / Chuva forte", s.Text)
}

func TestSummarize_NoRisk(t *testing.T) {
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, saoPaulo)
	hourly := series(
		hourRow{"2024-05-01T07:00", ip(1), fp(0), fp(5)},
		hourRow{"2024-05-01T08:00", ip(2), fp(0.1), fp(8)},
	)

	s, err := Summarize(testDaily(), hourly, now, now)
	require.NoError(t, err)
	assert.Equal(t, IconNoRisk, s.Icon)
	assert.Equal(t, "sem_risco.svg", s.IconFile)
	assert.Equal(t, "Sem riscos significativos nas próximas horas", s.Text)
}

func TestSummarize_NoHourlySeries(t *testing.T) {
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, saoPaulo)

	s, err := Summarize(testDaily(), nil, now, now)
	require.NoError(t, err)
	assert.Empty(t, s.Hours)
	assert.Equal(t, IconNoRisk, s.Icon)
}

func TestSummarize_DayNotFound(t *testing.T) {
	now := time.Date(2024, 5, 2, 6, 0, 0, 0, saoPaulo)

	s, err := Summarize(testDaily(), nil, now, now)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrDayNotFound)
}

func TestSummarize_Malformed(t *testing.T) {
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, saoPaulo)

	t.Run("no daily payload", func(t *testing.T) {
		_, err := Summarize(nil, nil, now, now)
		assert.ErrorIs(t, err, ErrMalformedForecast)
	})

	t.Run("short metric array", func(t *testing.T) {
		daily := testDaily()
		daily.WindMax = nil
		_, err := Summarize(daily, nil, now, now)
		assert.ErrorIs(t, err, ErrMalformedForecast)
	})

	t.Run("null metric", func(t *testing.T) {
		daily := testDaily()
		daily.TempMin = []*float64{nil}
		_, err := Summarize(daily, nil, now, now)
		assert.ErrorIs(t, err, ErrMalformedForecast)
	})
}

func TestSummarize_UnevenHourlyArrays(t *testing.T) {
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, saoPaulo)
	hourly := series(
		hourRow{"2024-05-01T07:00", ip(0), fp(0), fp(0)},
		hourRow{"2024-05-01T08:00", ip(0), fp(0), fp(0)},
	)
	hourly.WindSpeed = hourly.WindSpeed[:1]

	s, err := Summarize(testDaily(), hourly, now, now)
	require.NoError(t, err)
	assert.Len(t, s.Hours, 1)
}
