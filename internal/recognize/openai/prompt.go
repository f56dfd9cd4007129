package openai

import (
	"encoding/json"
	"fmt"
	"strings"
)

func buildSystemPrompt() string {
	parts := []string{
		"You are a receipt reader. Return ONLY JSON that matches the JSON Schema provided.",
		"The pages are scans of a single receipt or invoice; merge all pages into one record.",
		"'addressee' is the party the receipt is issued to, if printed.",
		"'tx_date' is the transaction date exactly as printed on the receipt.",
		"'amount' is the total amount; keep digits and separators as printed, no currency symbol.",
		"'vendor' is the issuing business with name, address and phone where visible.",
		"'registration_number' is the issuer's tax registration number if printed.",
		"'line_items' is a list of [description, quantity, unit_price, subtotal] rows.",
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(pages int) string {
	return fmt.Sprintf("Read the %d attached page image(s) and extract the receipt fields.", pages)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
