package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	DefaultYahooURL = "https://query1.finance.yahoo.com"

	DefaultYahooRequestsPerMinute = 30
)

// YahooClient downloads daily bars from the Yahoo chart API. Bars are
// fetched up front so the simulation loop never blocks on the network.
// Requests are rate limited and responses cached per symbol and range.
type YahooClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	cache   *cache.Cache
}

func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) backtester")
	return &YahooClient{
		client:  c,
		limiter: rate.NewLimiter(rate.Every(time.Minute/DefaultYahooRequestsPerMinute), 1),
		cache:   cache.New(30*time.Minute, time.Hour),
	}
}

// SetRequestsPerMinute replaces the request limiter. n <= 0 disables it.
func (y *YahooClient) SetRequestsPerMinute(n int) {
	if n <= 0 {
		y.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	y.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Bars returns daily bars for symbol in [from, to), oldest first.
func (y *YahooClient) Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	if to.IsZero() {
		to = Day(time.Now().UTC())
	}

	key := fmt.Sprintf("%s|%d|%d", symbol, from.Unix(), to.Unix())
	if v, ok := y.cache.Get(key); ok {
		return append([]Bar(nil), v.([]Bar)...), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}

	var out yahooChartResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetQueryParams(map[string]string{
			"period1":        strconv.FormatInt(from.Unix(), 10),
			"period2":        strconv.FormatInt(to.Unix(), 10),
			"interval":       "1d",
			"includePrePost": "false",
		}).
		Get("/v8/finance/chart/" + symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d", symbol, resp.StatusCode())
	}
	if out.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %s", symbol, out.Chart.Error.Code, out.Chart.Error.Description)
	}
	if len(out.Chart.Result) == 0 || len(out.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: no data returned", symbol)
	}

	res := out.Chart.Result[0]
	q := res.Indicators.Quote[0]

	bars := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		open, high, low, cls := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		// Skip sessions with missing prices.
		if open == nil || high == nil || low == nil || cls == nil {
			continue
		}
		b := Bar{
			Date:  Day(time.Unix(ts, 0)),
			Open:  *open,
			High:  *high,
			Low:   *low,
			Close: *cls,
		}
		if v := at(q.Volume, i); v != nil {
			b.Volume = *v
		}
		if !inRange(b.Date, Day(from), to) {
			continue
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo %s: no valid bars", symbol)
	}
	y.cache.SetDefault(key, bars)
	return append([]Bar(nil), bars...), nil
}

func at(xs []*float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	return xs[i]
}
