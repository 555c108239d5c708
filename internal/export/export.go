// Package export handles the presentation-side formatting of published
// results: JSON serialization for download and locale-aware currency display.
// Nothing here feeds back into the stored data.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mikael/pricebook/internal/types"
)

// ResultJSON serializes a published result to indented JSON. Array order is
// preserved from the source; field order carries no meaning.
func ResultJSON(result *types.ExtractionResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return data, nil
}

// Filename returns the download filename for a result exported at the given
// time.
func Filename(now time.Time) string {
	return fmt.Sprintf("pricebook-%s.json", now.Format("20060102-150405"))
}

// FormatAmount renders an amount with its currency token for display. ISO
// 4217 codes get locale formatting; any other token (symbols, free text from
// source documents) falls back to "<currency> <amount>".
func FormatAmount(amount float64, token string) string {
	unit, err := currency.ParseISO(token)
	if err != nil {
		return fmt.Sprintf("%s %s", token, strconv.FormatFloat(amount, 'f', -1, 64))
	}
	p := message.NewPrinter(language.English)
	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}
