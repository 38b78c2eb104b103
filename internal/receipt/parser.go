// Package receipt pulls transaction fields out of OCR text read from a
// payment screenshot.
package receipt

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	mobileNumberPattern    = compile(`\+63\s*\d{3}\s*\d{3}\s*\d{4}`)
	amountPattern          = compile(`Amount\s*(\d{1,3}(?:,\d{3})*\.\d{2})`)
	referenceNumberPattern = compile(`Ref\s*No\.\s*(\d{4}\s*\d{3}\s*\d{6})`)
	datePattern            = compile(`([A-Za-z]{3}\s*\d{2},\s*\d{4})`)
)

// unicodeSpace is \s widened to Unicode separators and BOM. OCR output often
// carries NBSP or narrow NBSP between digit groups.
const unicodeSpace = `[\s\p{Z}\x{FEFF}]`

func compile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(pattern, `\s`, unicodeSpace))
}

// Field names reported by Details.Missing.
const (
	FieldMobileNumber    = "mobile_number"
	FieldAmount          = "amount"
	FieldReferenceNumber = "reference_number"
	FieldDate            = "date"
)

var ErrNoAmount = errors.New("receipt has no amount")

// Details are the transaction fields found in a receipt. A nil field means
// its pattern matched nowhere in the text. Values are the matched text as-is.
type Details struct {
	MobileNumber    *string `json:"mobile_number"`
	Amount          *string `json:"amount"`
	ReferenceNumber *string `json:"reference_number"`
	Date            *string `json:"date"`
}

// Parse extracts the fields from text. Each field is matched independently
// and the first occurrence wins.
func Parse(text string) Details {
	return Details{
		MobileNumber:    find(mobileNumberPattern, text, 0),
		Amount:          find(amountPattern, text, 1),
		ReferenceNumber: find(referenceNumberPattern, text, 1),
		Date:            find(datePattern, text, 1),
	}
}

func find(re *regexp.Regexp, text string, group int) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v := m[group]
	return &v
}

// Complete reports whether all four fields were found.
func (d Details) Complete() bool {
	return len(d.Missing()) == 0
}

// Missing lists the fields that were not found, in a fixed order.
func (d Details) Missing() []string {
	var missing []string
	if d.MobileNumber == nil {
		missing = append(missing, FieldMobileNumber)
	}
	if d.Amount == nil {
		missing = append(missing, FieldAmount)
	}
	if d.ReferenceNumber == nil {
		missing = append(missing, FieldReferenceNumber)
	}
	if d.Date == nil {
		missing = append(missing, FieldDate)
	}
	return missing
}

// AmountValue parses the amount with its thousands separators removed.
func (d Details) AmountValue() (decimal.Decimal, error) {
	if d.Amount == nil {
		return decimal.Zero, ErrNoAmount
	}
	return decimal.NewFromString(strings.ReplaceAll(*d.Amount, ",", ""))
}
