// Package oracle fetches a reference native-asset/USD price for a given day
// from an external GraphQL price index, memoising every lookup in-process.
package oracle

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrMissingPrice is returned when the oracle has no data for the requested
// day. Callers must treat this as "skip the usd_amount_traded update", not
// as a cycle-ending error.
var ErrMissingPrice = fmt.Errorf("oracle: no price data for requested day")

const dayBucket = 24 * time.Hour

// graphqlRequest is the body POSTed to the subgraph endpoint.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// pairDayResponse mirrors the subgraph's pairDayDatas shape: daily reserves
// for the configured native-asset/stable-coin pair.
type pairDayResponse struct {
	Data struct {
		PairDayDatas []struct {
			Reserve0 string `json:"reserve0"`
			Reserve1 string `json:"reserve1"`
		} `json:"pairDayDatas"`
	} `json:"data"`
}

const pairDayQuery = `
query($date: Int!, $pair: String!) {
  pairDayDatas(where: { pairAddress: $pair, date: $date }, first: 1) {
    reserve0
    reserve1
  }
}`

// Client queries a GraphQL subgraph for day-bucketed native/USD prices and
// caches every result it has ever computed.
type Client struct {
	http    *resty.Client
	pair    string
	log     *zap.SugaredLogger

	mu    sync.RWMutex
	cache map[int64]float64
}

// NewClient builds a Client against a GraphQL endpoint, retrying up to three
// times on transport errors and 5xx responses.
func NewClient(baseURL, pairAddress string, log *zap.SugaredLogger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:  httpClient,
		pair:  pairAddress,
		log:   log,
		cache: make(map[int64]float64),
	}
}

// bucketToUTCDay truncates a unix timestamp to the start of its UTC day,
// expressed as a unix timestamp.
func bucketToUTCDay(tsUnix int64) int64 {
	t := time.Unix(tsUnix, 0).UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start.Unix()
}

// GetNativeUSDPrice returns the native-asset/USD price for the UTC day
// containing tsUnix, fetching and memoising it on first use.
func (c *Client) GetNativeUSDPrice(ctx context.Context, tsUnix int64) (float64, error) {
	day := bucketToUTCDay(tsUnix)

	c.mu.RLock()
	if price, ok := c.cache[day]; ok {
		c.mu.RUnlock()
		return price, nil
	}
	c.mu.RUnlock()

	price, err := c.fetchDayPrice(ctx, day)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cache[day] = price
	c.mu.Unlock()

	return price, nil
}

func (c *Client) fetchDayPrice(ctx context.Context, day int64) (float64, error) {
	body := graphqlRequest{
		Query: pairDayQuery,
		Variables: map[string]any{
			"date": day / int64(dayBucket.Seconds()),
			"pair": c.pair,
		},
	}

	var result pairDayResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/")
	if err != nil {
		return 0, fmt.Errorf("oracle: query day %d: %w", day, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("oracle: query day %d: status %d", day, resp.StatusCode())
	}
	if len(result.Data.PairDayDatas) == 0 {
		if c.log != nil {
			c.log.Warnw("oracle: no pair-day data for bucket", "day", day, "pair", c.pair)
		}
		return 0, ErrMissingPrice
	}

	bucket := result.Data.PairDayDatas[0]
	reserve0, err := decimal.NewFromString(bucket.Reserve0)
	if err != nil {
		return 0, fmt.Errorf("oracle: parse reserve0: %w", err)
	}
	reserve1, err := decimal.NewFromString(bucket.Reserve1)
	if err != nil {
		return 0, fmt.Errorf("oracle: parse reserve1: %w", err)
	}
	if reserve0.IsZero() {
		return 0, ErrMissingPrice
	}

	price, _ := reserve1.Div(reserve0).Float64()
	return price, nil
}
