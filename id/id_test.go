package id_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/invoicer/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
		prefix  string
	}{
		{"AccountID", id.NewAccountID, id.ParseAccountID, "acct_"},
		{"ClientID", id.NewClientID, id.ParseClientID, "cli_"},
		{"QuoteID", id.NewQuoteID, id.ParseQuoteID, "quo_"},
		{"InvoiceID", id.NewInvoiceID, id.ParseInvoiceID, "inv_"},
		{"CreditNoteID", id.NewCreditNoteID, id.ParseCreditNoteID, "cn_"},
		{"ReceiptID", id.NewReceiptID, id.ParseReceiptID, "rcpt_"},
		{"EventID", id.NewEventID, id.ParseEventID, "evt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			assert.True(t, strings.HasPrefix(original.String(), tt.prefix))

			parsed, err := tt.parseFn(original.String())
			require.NoError(t, err)
			assert.Equal(t, original.String(), parsed.String())
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	_, err := id.ParseInvoiceID(id.NewQuoteID().String())
	assert.Error(t, err)

	_, err = id.ParseQuoteID(id.NewInvoiceID().String())
	assert.Error(t, err)

	_, err = id.ParseAccountID(id.NewClientID().String())
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	_, err := id.Parse("")
	assert.Error(t, err)
}

func TestNilID(t *testing.T) {
	var i id.ID
	assert.True(t, i.IsNil())
	assert.Empty(t, i.String())
	assert.Empty(t, i.Prefix())
}

func TestMarshalUnmarshalText(t *testing.T) {
	original := id.NewInvoiceID()
	data, err := original.MarshalText()
	require.NoError(t, err)

	var restored id.ID
	require.NoError(t, restored.UnmarshalText(data))
	assert.Equal(t, original, restored)

	var nilID id.ID
	data, err = nilID.MarshalText()
	require.NoError(t, err)

	var restoredNil id.ID
	require.NoError(t, restoredNil.UnmarshalText(data))
	assert.True(t, restoredNil.IsNil())
}

func TestUnknownPrefixRejected(t *testing.T) {
	_, err := id.Parse("user_01h2xcejqtf2nbrexx3vqjhp41")
	assert.Error(t, err)
	assert.True(t, id.PrefixInvoice.Known())
	assert.False(t, id.Prefix("user").Known())
	assert.Panics(t, func() { id.New("user") })
}

func TestEqualAndCompare(t *testing.T) {
	a := id.NewInvoiceID()
	b := id.MustParse(a.String())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(id.Nil))
	assert.True(t, id.Nil.Equal(id.ID{}))

	assert.Zero(t, a.Compare(b))
	assert.Negative(t, id.Nil.Compare(a))
	assert.Positive(t, a.Compare(id.Nil))
}

func TestUniqueness(t *testing.T) {
	assert.NotEqual(t, id.NewEventID().String(), id.NewEventID().String())
}
