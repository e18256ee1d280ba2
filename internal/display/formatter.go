package display

import (
	"fmt"
	"strconv"

	"StockTracker/internal/model"
)

// FormatPrice renders a price with two decimals.
func FormatPrice(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// FormatPercent renders a percent change, prefixing positive values with '+'.
func FormatPercent(pct float64) string {
	sign := ""
	if pct > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, pct)
}

// FormatVolume abbreviates large volumes with K and M suffixes.
func FormatVolume(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.2fK", v/1_000)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TimeframeLabel renders a timeframe in minutes as 30min, 1hr, 4hr or 1day.
func TimeframeLabel(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dmin", minutes)
	case minutes == 60:
		return "1hr"
	case minutes < 1440:
		return strconv.FormatFloat(float64(minutes)/60, 'f', -1, 64) + "hr"
	}
	return strconv.FormatFloat(float64(minutes)/1440, 'f', -1, 64) + "day"
}

// AxisFormat is the time label pattern for a timeframe.
func AxisFormat(minutes int) string {
	if minutes <= 60 {
		return "HH:mm"
	}
	return "dd MMM HH:mm"
}

// DataPointCount is the length of the longer of the two retained sequences.
func DataPointCount(s *model.SymbolState) int {
	if s == nil {
		return 0
	}
	return max(len(s.PriceHistory), len(s.CandleHistory))
}

// Summary is one symbol row as shown in a watch list.
type Summary struct {
	Symbol     string      `json:"symbol"`
	Price      string      `json:"price"`
	Change     string      `json:"change"`
	Volume     string      `json:"volume"`
	DataPoints int         `json:"dataPoints"`
	Quote      model.Quote `json:"quote"`
}

// Summarize builds the watch list row for a symbol. A nil state yields placeholders.
func Summarize(symbol string, s *model.SymbolState) Summary {
	if s == nil {
		return Summary{Symbol: symbol, Price: "N/A", Change: "N/A", Volume: "N/A"}
	}
	vol := "N/A"
	if n := len(s.CandleHistory); n > 0 {
		vol = FormatVolume(s.CandleHistory[n-1].Volume)
	}
	return Summary{
		Symbol:     symbol,
		Price:      FormatPrice(s.Quote.Current),
		Change:     FormatPercent(s.Quote.PercentChange),
		Volume:     vol,
		DataPoints: DataPointCount(s),
		Quote:      s.Quote,
	}
}

// FormatSummary renders a one-line summary for logs.
func FormatSummary(sum Summary) string {
	return fmt.Sprintf("%s %s (%s) vol=%s points=%d", sum.Symbol, sum.Price, sum.Change, sum.Volume, sum.DataPoints)
}
