package datasource

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const descriptionLimit = 500

// Fundamentals is a snapshot of an instrument's profile, valuation and
// one-month price history. Nil pointers mean the provider had no value.
type Fundamentals struct {
	Ticker      string
	Name        string
	Sector      string
	Industry    string
	Description string

	Price      *float64
	MarketCap  *float64
	TrailingPE *float64
	ForwardPE  *float64
	PEGRatio   *float64
	Beta       *float64
	Low52      *float64
	High52     *float64

	History PriceHistory
}

// PriceHistory summarizes daily bars over the last month.
type PriceHistory struct {
	Start     float64
	End       float64
	AvgVolume float64
	Bars      int
}

// Return is the period return in percent.
func (h PriceHistory) Return() float64 {
	if h.Start == 0 {
		return 0
	}
	return (h.End/h.Start - 1) * 100
}

// CompanyName returns the long name, falling back to the ticker.
func (f *Fundamentals) CompanyName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Ticker
}

// Format renders the fundamentals document that gets indexed for retrieval.
func (f *Fundamentals) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "STOCK: %s - %s\n", f.Ticker, orNA(f.Name))
	fmt.Fprintf(&b, "Sector: %s | Industry: %s\n\n", orNA(f.Sector), orNA(f.Industry))

	fmt.Fprintf(&b, "CURRENT PRICE: $%s\n", num(f.Price))
	fmt.Fprintf(&b, "Market Cap: $%s\n", comma(f.MarketCap))
	fmt.Fprintf(&b, "P/E Ratio: %s\n", num(f.TrailingPE))
	fmt.Fprintf(&b, "Forward P/E: %s\n", num(f.ForwardPE))
	fmt.Fprintf(&b, "PEG Ratio: %s\n", num(f.PEGRatio))
	fmt.Fprintf(&b, "Beta: %s\n\n", num(f.Beta))

	fmt.Fprintf(&b, "52-WEEK RANGE: $%s - $%s\n\n", num(f.Low52), num(f.High52))

	b.WriteString("1-MONTH PERFORMANCE:\n")
	if f.History.Bars > 0 {
		fmt.Fprintf(&b, "Start: $%.2f\n", f.History.Start)
		fmt.Fprintf(&b, "Current: $%.2f\n", f.History.End)
		fmt.Fprintf(&b, "Return: %.2f%%\n", f.History.Return())
		fmt.Fprintf(&b, "Avg Volume: %s\n\n", humanize.Comma(int64(math.Round(f.History.AvgVolume))))
	} else {
		b.WriteString("Start: N/A\nCurrent: N/A\nReturn: N/A\nAvg Volume: N/A\n\n")
	}

	fmt.Fprintf(&b, "DESCRIPTION: %s...", truncateRunes(orNA(f.Description), descriptionLimit))
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func num(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func comma(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return humanize.Comma(int64(math.Round(*v)))
}
