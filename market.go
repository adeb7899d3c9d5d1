package btctax

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/etnz/btctax/date"
	"github.com/shopspring/decimal"
)

// PriceSource provides the BTC price in USD at a point in time. When it has
// no price it returns an error wrapping ErrPriceUnavailable.
type PriceSource interface {
	PriceAt(t time.Time) (Money, error)
}

// PriceTable is a PriceSource backed by a daily BTC/USD price history.
type PriceTable struct {
	prices date.History[decimal.Decimal]
	// Location is where calendar days are taken, nil means UTC.
	Location *time.Location
	// MaxAge is how many days a price remains valid when the next one is
	// missing. Zero means the price of the day is required.
	MaxAge int
}

// NewPriceTable returns an empty table.
func NewPriceTable() *PriceTable { return &PriceTable{} }

// Set records the price of a day.
func (p *PriceTable) Set(day date.Date, price decimal.Decimal) *PriceTable {
	p.prices.Append(day, price)
	return p
}

// Len returns the number of days with a price.
func (p *PriceTable) Len() int { return p.prices.Len() }

// PriceAt implements PriceSource.
func (p *PriceTable) PriceAt(t time.Time) (Money, error) {
	day := date.Of(t, p.Location)
	on, price, ok := p.prices.ValueAsOf(day)
	if !ok || date.DaysBetween(on, day) > p.MaxAge {
		return Money{}, &PriceUnavailableError{At: t}
	}
	return Dollars(price), nil
}

// Prices iterates over the recorded prices in chronological order.
func (p *PriceTable) Prices(yield func(date.Date, decimal.Decimal) bool) {
	for day, price := range p.prices.Values() {
		if !yield(day, price) {
			return
		}
	}
}

// pricePoint is the JSONL line of a price file.
type pricePoint struct {
	Date  date.Date       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// DecodePrices reads a JSONL price file, one {"date","price"} object per line.
func DecodePrices(r io.Reader) (*PriceTable, error) {
	table := NewPriceTable()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var pt pricePoint
		if err := json.Unmarshal(scanner.Bytes(), &pt); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !pt.Price.IsPositive() {
			return nil, fmt.Errorf("line %d: price must be positive, got %s", line, pt.Price)
		}
		table.Set(pt.Date, pt.Price)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return table, nil
}

// EncodePrices writes the table in the format read by DecodePrices.
func EncodePrices(w io.Writer, table *PriceTable) error {
	for day, price := range table.Prices {
		if err := EncodeTransaction(w, pricePoint{Date: day, Price: price}); err != nil {
			return err
		}
	}
	return nil
}

// priceMissing turns any failure of a price source into a
// *PriceUnavailableError. The failure is kept as its cause.
func priceMissing(at time.Time, err error) *PriceUnavailableError {
	var missing *PriceUnavailableError
	if errors.As(err, &missing) {
		return missing
	}
	return &PriceUnavailableError{At: at, Err: err}
}
