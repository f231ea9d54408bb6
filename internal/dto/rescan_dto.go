package dto

// RescanResponse is returned by POST /invoices/rescan.
type RescanResponse struct {
	Scheduled int    `json:"scheduled"`
	Skipped   int    `json:"skipped"`
	Message   string `json:"message"`
}
