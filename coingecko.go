package btctax

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/btctax/date"
	"github.com/shopspring/decimal"
)

// CoinGeckoURL is the CoinGecko market chart endpoint for bitcoin in USD.
const CoinGeckoURL = "https://api.coingecko.com/api/v3/coins/bitcoin/market_chart?vs_currency=usd&interval=daily&days=%d"

/*
The market chart looks like:

	{
	    "prices": [
	        [1704067200000, 42261.04],
	        [1704153600000, 44179.92]
	    ],
	    "market_caps": [...],
	    "total_volumes": [...]
	}
*/

// DecodeCoinGeckoChart reads a CoinGecko market chart document into a price
// table. Points are bucketed by UTC day, the last point of a day wins.
func DecodeCoinGeckoChart(r io.Reader) (*PriceTable, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("invalid market chart: %w", err)
	}
	return coinGeckoPrices(jobj)
}

// FetchCoinGeckoChart downloads the last days of daily prices. Responses are
// cached on disk for the day.
func FetchCoinGeckoChart(days int) (*PriceTable, error) {
	return fetchCoinGeckoChart(daily(), fmt.Sprintf(CoinGeckoURL, days))
}

func fetchCoinGeckoChart(client *http.Client, addr string) (*PriceTable, error) {
	var jobj any
	if err := jwget(client, addr, &jobj); err != nil {
		return nil, fmt.Errorf("error retrieving bitcoin prices: %w", err)
	}
	return coinGeckoPrices(jobj)
}

func coinGeckoPrices(jobj any) (*PriceTable, error) {
	path := "$.prices"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	points, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %q: not a list", path)
	}
	table := NewPriceTable()
	for i, jpoint := range points {
		point, ok := jpoint.([]any)
		if !ok || len(point) != 2 {
			return nil, fmt.Errorf("error parsing %q: point %d is not a [time, price] pair", path, i)
		}
		ms, ok1 := point[0].(float64)
		price, ok2 := point[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("error parsing %q: point %d is not numeric: %v", path, i, point)
		}
		day := date.Of(time.UnixMilli(int64(ms)), time.UTC)
		table.Set(day, decimal.NewFromFloat(price))
	}
	return table, nil
}
