package sales

import "time"

// Sale is an immutable record of a completed counter transaction. Totals are
// stored verbatim as the till computed them; line items snapshot name/qty/rate
// so history survives later inventory edits or deletions.
type Sale struct {
	ID              int64      `json:"id"`
	InvoiceNumber   string     `json:"invoiceNumber"`
	InvoiceDate     time.Time  `json:"invoiceDate"`
	CustomerName    string     `json:"customerName"`
	CustomerMobile  string     `json:"customerMobile"`
	Lines           []SaleLine `json:"items"`
	Subtotal        float64    `json:"subtotal"`
	DiscountPercent float64    `json:"discountPercent"`
	DiscountAmount  float64    `json:"discountAmount"`
	Taxable         float64    `json:"taxable"`
	TaxPercent      float64    `json:"taxPercent"`
	TaxAmount       float64    `json:"taxAmount"`
	GrandTotal      float64    `json:"grandTotal"`
	RecordedBy      string     `json:"user"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// SaleLine is one product entry within a sale. ItemID is nil when the
// referenced inventory item has since been deleted.
type SaleLine struct {
	ID     int64   `json:"id"`
	SaleID int64   `json:"-"`
	ItemID *int64  `json:"itemId,omitempty"`
	Name   string  `json:"name"`
	Qty    int64   `json:"qty"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// ListFilter narrows sale listings by a single day or an inclusive date range.
type ListFilter struct {
	Date      *time.Time
	StartDate *time.Time
	EndDate   *time.Time
}

// Summary aggregates sales for reporting.
type Summary struct {
	TotalSales   int     `json:"totalSales"`
	TotalRevenue float64 `json:"totalRevenue"`
	TotalItems   int64   `json:"totalItems"`
}
