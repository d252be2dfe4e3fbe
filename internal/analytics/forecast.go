package analytics

import (
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
	"github.com/tidwall/gjson"
)

// Forecast is the readable subset of a prediction payload
type Forecast struct {
	ReferenceDate  string
	Hourly         map[int]int    // local hour -> expected volume
	Daily          map[string]int // YYYY-MM-DD -> expected volume
	Recommendation string
	Trend          string
}

// Empty reports whether the forecast carries no volume data
func (f Forecast) Empty() bool {
	return len(f.Hourly) == 0 && len(f.Daily) == 0
}

// ParseForecast reads the prediction payload. Unknown or missing keys leave
// the corresponding fields empty; a nil payload yields an empty forecast.
//
// Accepted shapes:
//
//	{"hourly":[{"hour":9,"expected":12}], "daily":[{"date":"2026-03-10","expected":80}],
//	 "recommendation":"...", "trend":"up"}
//	{"hourly":{"9":12,"10":15}}
func ParseForecast(p *types.PredictionPayload) Forecast {
	f := Forecast{
		Hourly: make(map[int]int),
		Daily:  make(map[string]int),
	}
	if p == nil || len(p.Data) == 0 || !gjson.ValidBytes(p.Data) {
		return f
	}
	f.ReferenceDate = p.ReferenceDate

	doc := gjson.ParseBytes(p.Data)

	hourly := doc.Get("hourly")
	switch {
	case hourly.IsArray():
		hourly.ForEach(func(_, v gjson.Result) bool {
			h := v.Get("hour")
			if !h.Exists() {
				return true
			}
			f.Hourly[int(h.Int())] = int(expectedValue(v))
			return true
		})
	case hourly.IsObject():
		hourly.ForEach(func(k, v gjson.Result) bool {
			f.Hourly[int(k.Int())] = int(v.Int())
			return true
		})
	}

	daily := doc.Get("daily")
	switch {
	case daily.IsArray():
		daily.ForEach(func(_, v gjson.Result) bool {
			d := v.Get("date").String()
			if d == "" {
				return true
			}
			f.Daily[d] = int(expectedValue(v))
			return true
		})
	case daily.IsObject():
		daily.ForEach(func(k, v gjson.Result) bool {
			f.Daily[k.String()] = int(v.Int())
			return true
		})
	}

	f.Recommendation = doc.Get("recommendation").String()
	if f.Recommendation == "" {
		f.Recommendation = doc.Get("staffing.recommendation").String()
	}
	trend := doc.Get("trend")
	if trend.IsObject() {
		f.Trend = trend.Get("direction").String()
	} else {
		f.Trend = trend.String()
	}

	return f
}

// Summary builds the operator-facing forecast summary
func (f Forecast) Summary() types.ForecastSummary {
	s := types.ForecastSummary{
		Available:      !f.Empty(),
		ReferenceDate:  f.ReferenceDate,
		Recommendation: f.Recommendation,
		Trend:          f.Trend,
	}
	if v, ok := f.Daily[f.ReferenceDate]; ok {
		s.ExpectedTotal = v
		return s
	}
	for _, v := range f.Hourly {
		s.ExpectedTotal += v
	}
	return s
}

func expectedValue(v gjson.Result) float64 {
	for _, key := range []string{"expected", "value", "volume"} {
		if r := v.Get(key); r.Exists() {
			return r.Float()
		}
	}
	return 0
}
