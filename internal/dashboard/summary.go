package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	msgNoData = "No hay datos de ventas para mostrar o la API no está respondiendo."
	msgRetry  = "Reintentando en %s..."
)

type DailyTotal struct {
	Date  string          `json:"fecha"` // YYYY-MM-DD
	Total decimal.Decimal `json:"total"`
}

type Summary struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Recent      []Sale          `json:"recent"`
	Daily       []DailyTotal    `json:"daily"`
	Total       decimal.Decimal `json:"total"`
	Message     string          `json:"message,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Summarize keeps the first limit sales as returned (newest first) and sums
// subtotals per calendar date, oldest date first. limit <= 0 keeps all.
// Dates are read in the offset the API sent, never the local zone.
func Summarize(sales []Sale, limit int) Summary {
	s := Summary{Recent: []Sale{}, Daily: []DailyTotal{}, Total: decimal.Zero}
	if len(sales) == 0 {
		s.Message = msgNoData
		return s
	}
	recent := sales
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	s.Recent = append(s.Recent, recent...)

	byDay := map[string]decimal.Decimal{}
	for _, sale := range sales {
		day := sale.Fecha.Format("2006-01-02")
		byDay[day] = byDay[day].Add(sale.Subtotal)
		s.Total = s.Total.Add(sale.Subtotal)
	}
	for day, total := range byDay {
		s.Daily = append(s.Daily, DailyTotal{Date: day, Total: total})
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })
	return s
}
