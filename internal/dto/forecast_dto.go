package dto

// ForecastHistoryDay is one supporting history row of a forecast response.
type ForecastHistoryDay struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	Total           float64 `json:"total"`
	NetTotal        float64 `json:"net_total"`
	Invoices        int     `json:"invoices"`
	FirstChunkTotal float64 `json:"first_chunk_total"`
}

// ForecastResponse is returned by GET /forecast.
type ForecastResponse struct {
	Branch        string               `json:"branch"`
	Days          int                  `json:"days"`
	Method        string               `json:"method"`
	Estimate      float64              `json:"estimate"`
	Remaining     float64              `json:"remaining"`
	CurrentTotal  float64              `json:"current_total"`
	InvoiceCount  int64                `json:"invoice_count"`
	PreviousTotal float64              `json:"previous_total"`
	History       []ForecastHistoryDay `json:"history"`
}
