package btctax

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/etnz/btctax/date"
	"github.com/shopspring/decimal"
)

func TestPriceTable_PriceAt(t *testing.T) {
	table := pricesOf(map[int]string{0: "20000", 3: "21000"})

	testCases := []struct {
		name   string
		maxAge int
		at     time.Time
		want   string // empty when unavailable.
	}{
		{"same day", 0, day(0), "20000"},
		{"same day late", 0, day(0).Add(11 * time.Hour), "20000"},
		{"next day", 0, day(1), ""},
		{"next day with a tolerance", 1, day(1), "20000"},
		{"too old", 1, day(2), ""},
		{"latest", 0, day(3), "21000"},
		{"before any price", 5, day(-1), ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table.MaxAge = tc.maxAge
			got, err := table.PriceAt(tc.at)
			if tc.want == "" {
				if !errors.Is(err, ErrPriceUnavailable) {
					t.Errorf("PriceAt(%v) = %v, %v, want ErrPriceUnavailable", tc.at, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PriceAt(%v) error = %v", tc.at, err)
			}
			if !got.Equal(usd(tc.want)) {
				t.Errorf("PriceAt(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestDecodePrices(t *testing.T) {
	input := `{"date":"2024-01-02","price":44179.92}

{"date":"2024-01-01","price":42261.04}
`
	table, err := DecodePrices(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodePrices() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
	got, err := table.PriceAt(time.Date(2024, time.January, 1, 18, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PriceAt() error = %v", err)
	}
	if !got.Equal(usd("42261.04")) {
		t.Errorf("PriceAt() = %v, want 42261.04", got)
	}

	// encoding gives back the input, sorted.
	var buffer bytes.Buffer
	if err := EncodePrices(&buffer, table); err != nil {
		t.Fatalf("EncodePrices() error = %v", err)
	}
	want := `{"date":"2024-01-01","price":42261.04}` + "\n" + `{"date":"2024-01-02","price":44179.92}` + "\n"
	if buffer.String() != want {
		t.Errorf("EncodePrices() = %q, want %q", buffer.String(), want)
	}
}

func TestDecodePrices_Errors(t *testing.T) {
	for _, input := range []string{
		`{"date":"2024-01-01","price":0}`,
		`{"date":"2024-01-01","price":-1}`,
		`{"date":"yesterday","price":1}`,
	} {
		if _, err := DecodePrices(strings.NewReader(input)); err == nil {
			t.Errorf("DecodePrices(%s) error = nil, want an error", input)
		}
	}
}

func TestPriceTable_Set(t *testing.T) {
	table := NewPriceTable().
		Set(date.New(2024, time.January, 1), decimal.NewFromInt(1)).
		Set(date.New(2024, time.January, 1), decimal.NewFromInt(2))
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
	if got, _ := table.PriceAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)); !got.Equal(usd("2")) {
		t.Errorf("PriceAt() = %v, want the last price set", got)
	}
}
