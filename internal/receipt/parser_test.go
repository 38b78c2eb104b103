package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gcashReceipt = `GCash
Sent via GCash
+63 912 345 6789
Amount 1,250.00
Total Amount Sent 1,250.00
Ref No. 1234 567 890123
Jan 05, 2024 3:41 PM`

func TestParse_AllFields(t *testing.T) {
	d := Parse(gcashReceipt)

	require.True(t, d.Complete())
	assert.Equal(t, "+63 912 345 6789", *d.MobileNumber)
	assert.Equal(t, "1,250.00", *d.Amount)
	assert.Equal(t, "1234 567 890123", *d.ReferenceNumber)
	assert.Equal(t, "Jan 05, 2024", *d.Date)
	assert.Empty(t, d.Missing())
}

func TestParse_Empty(t *testing.T) {
	d := Parse("")

	assert.Nil(t, d.MobileNumber)
	assert.Nil(t, d.Amount)
	assert.Nil(t, d.ReferenceNumber)
	assert.Nil(t, d.Date)
	assert.False(t, d.Complete())
	assert.Equal(t, []string{FieldMobileNumber, FieldAmount, FieldReferenceNumber, FieldDate}, d.Missing())
}

func TestParse_FieldsAreIndependent(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		missing string
	}{
		{
			name:    "no mobile number",
			text:    "Amount 99.50\nRef No. 1111 222 333333\nFeb 14, 2024",
			missing: FieldMobileNumber,
		},
		{
			name:    "no amount",
			text:    "+639123456789\nRef No. 1111 222 333333\nFeb 14, 2024",
			missing: FieldAmount,
		},
		{
			name:    "no reference number",
			text:    "+639123456789\nAmount 99.50\nFeb 14, 2024",
			missing: FieldReferenceNumber,
		},
		{
			name:    "no date",
			text:    "+639123456789\nAmount 99.50\nRef No. 1111 222 333333",
			missing: FieldDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse(tt.text)
			assert.Equal(t, []string{tt.missing}, d.Missing())
		})
	}
}

func TestParse_CompactFormatting(t *testing.T) {
	d := Parse("+639123456789 Amount12.00 Ref No.1234567890123 Mar 01,2024")

	require.True(t, d.Complete())
	assert.Equal(t, "+639123456789", *d.MobileNumber)
	assert.Equal(t, "12.00", *d.Amount)
	assert.Equal(t, "1234567890123", *d.ReferenceNumber)
	assert.Equal(t, "Mar 01,2024", *d.Date)
}

func TestParse_UnicodeSpaces(t *testing.T) {
	const nbsp, narrow = "\u00a0", "\u202f"
	text := "+63" + nbsp + "912" + narrow + "345 6789\n" +
		"Amount" + nbsp + "350.00\n" +
		"Ref" + nbsp + "No." + nbsp + "1234" + nbsp + "567" + narrow + "890123\n" +
		"Jan" + nbsp + "05," + narrow + "2024"

	d := Parse(text)

	require.True(t, d.Complete(), "missing %v", d.Missing())
	assert.Equal(t, "+63"+nbsp+"912"+narrow+"345 6789", *d.MobileNumber)
	assert.Equal(t, "350.00", *d.Amount)
	assert.Equal(t, "1234"+nbsp+"567"+narrow+"890123", *d.ReferenceNumber)
	assert.Equal(t, "Jan"+nbsp+"05,"+narrow+"2024", *d.Date)
}

func TestParse_FirstMatchWins(t *testing.T) {
	d := Parse("Amount 10.00\nAmount 20.00")
	require.NotNil(t, d.Amount)
	assert.Equal(t, "10.00", *d.Amount)
}

func TestParse_AmountNeedsTwoDecimals(t *testing.T) {
	assert.Nil(t, Parse("Amount 1,250").Amount)
	assert.Nil(t, Parse("Amount 1,250.5").Amount)
}

func TestAmountValue(t *testing.T) {
	d := Parse("Amount 1,234,567.89")
	v, err := d.AmountValue()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1234567.89").Equal(v))

	_, err = Details{}.AmountValue()
	assert.ErrorIs(t, err, ErrNoAmount)
}
