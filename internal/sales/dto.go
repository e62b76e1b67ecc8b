package sales

import "time"

type recordSaleRequest struct {
	InvoiceNumber   string            `json:"invoiceNumber"`
	InvoiceDate     *time.Time        `json:"invoiceDate,omitempty"`
	CustomerName    string            `json:"customerName"`
	CustomerMobile  string            `json:"customerMobile"`
	Items           []saleLineRequest `json:"items" validate:"required,min=1,dive"`
	Subtotal        float64           `json:"subtotal" validate:"gte=0"`
	DiscountPercent float64           `json:"discountPercent" validate:"gte=0,lte=100"`
	DiscountAmount  float64           `json:"discountAmount" validate:"gte=0"`
	Taxable         float64           `json:"taxable" validate:"gte=0"`
	TaxPercent      float64           `json:"taxPercent" validate:"gte=0,lte=100"`
	TaxAmount       float64           `json:"taxAmount" validate:"gte=0"`
	GrandTotal      float64           `json:"grandTotal" validate:"gte=0"`
}

type saleLineRequest struct {
	ItemID int64   `json:"itemId" validate:"required,gt=0"`
	Name   string  `json:"name" validate:"required"`
	Qty    int64   `json:"qty" validate:"required,gt=0"`
	Rate   float64 `json:"rate" validate:"gte=0"`
	Amount float64 `json:"amount" validate:"gte=0"`
}
