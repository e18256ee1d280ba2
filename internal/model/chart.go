package model

import "strings"

// ChartKind selects how a series is shaped for rendering.
type ChartKind string

const (
	ChartLine        ChartKind = "line"
	ChartArea        ChartKind = "area"
	ChartCandlestick ChartKind = "candlestick"
	ChartVolume      ChartKind = "volume"
)

// ParseChartKind normalizes a chart kind name. An empty name yields ChartArea.
// Unknown names are kept as-is and render like a line chart.
func ParseChartKind(s string) ChartKind {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ChartArea
	}
	return ChartKind(s)
}
