// Package validate implements the deterministic validation and normalization
// engine for recognized receipt fields. It is pure: fields in, verdict out,
// no I/O. All rules run on every call; defects never short-circuit.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/parvezamm3/receipt-agent/internal/fields"
)

// Config toggles optional rules.
type Config struct {
	// CheckLineItems enables the [name, quantity, unit_price, total]
	// shape check on line items.
	CheckLineItems bool
}

// Verdict is the outcome of validating one set of recognized fields.
type Verdict struct {
	Accepted bool
	Fields   fields.ReceiptFields // normalized; meaningful only when Accepted
	Defects  []string             // in rule order; empty when Accepted
}

// DefectReport returns all defect messages newline-joined for display.
func (v Verdict) DefectReport() string {
	return strings.Join(v.Defects, "\n")
}

var amountRe = regexp.MustCompile(`^\d+$`)

// Accepted date layouts, tried in order. Non-padded month/day tokens also
// match their padded forms.
var dateLayouts = []string{"2006年1月2日", "2006/1/2", "2006-1-2", "20060102"}

// Validate checks the required fields and normalizes date and amount in
// place. The returned verdict carries either the normalized fields or every
// defect found.
func Validate(f fields.ReceiptFields, cfg Config) Verdict {
	var defects []string
	out := f

	date := strings.ReplaceAll(f.TxDate, " ", "")
	if date == "" {
		defects = append(defects, "date is missing")
	} else if norm, ok := normalizeDate(date); ok {
		out.TxDate = norm
	} else {
		defects = append(defects, fmt.Sprintf("date %q is not a recognized YYYYMMDD, YYYY/MM/DD, or YYYY-MM-DD form", f.TxDate))
	}

	amount := strings.TrimSpace(strings.ReplaceAll(f.Amount, ",", ""))
	if amount == "" {
		defects = append(defects, "amount is missing; check the source document")
	} else if !amountRe.MatchString(amount) {
		defects = append(defects, fmt.Sprintf("amount %q is not purely numeric", f.Amount))
	} else {
		out.Amount = amount
	}

	if strings.TrimSpace(f.Vendor.Name) == "" {
		defects = append(defects, "vendor name is missing; check the source document")
	}

	if strings.TrimSpace(f.Registration) == "" {
		defects = append(defects, "registration number is missing; check the source document")
	}

	if cfg.CheckLineItems {
		for i, item := range f.LineItems {
			if !wellFormedLineItem(item) {
				defects = append(defects, fmt.Sprintf("line item %d is not a [name, quantity, unit_price, total] tuple", i))
			}
		}
	}

	if len(defects) > 0 {
		return Verdict{Defects: defects}
	}
	return Verdict{Accepted: true, Fields: out}
}

func normalizeDate(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("20060102"), true
		}
	}
	return "", false
}

func wellFormedLineItem(item []any) bool {
	if len(item) != 4 {
		return false
	}
	for _, v := range item {
		switch v.(type) {
		case string, float64, int:
		default:
			return false
		}
	}
	return true
}
