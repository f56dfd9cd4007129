// Package fields defines the structured data recognized from a scanned
// receipt and the normalized record the master log stores.
package fields

// Vendor identifies the issuing party of a receipt.
type Vendor struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// ReceiptFields is the structured data recognized from receipt images.
// Zero values mean "not recognized"; the validation engine decides which
// absences are defects. Line items arrive as raw JSON tuples
// [name, quantity, unit_price, total] so malformed model output can be
// reported instead of silently dropped at decode time.
type ReceiptFields struct {
	Addressee    string  `json:"addressee,omitempty"`
	TxDate       string  `json:"tx_date,omitempty"`
	Amount       string  `json:"amount,omitempty"`
	Vendor       Vendor  `json:"vendor"`
	Registration string  `json:"registration_number,omitempty"`
	LineItems    [][]any `json:"line_items,omitempty"`
}

// Record is one master-log entry: the validated fields plus the original
// filename of the filed document under its fixed key.
type Record struct {
	ReceiptFields
	OriginalName string `json:"original_filename,omitempty"`
}
