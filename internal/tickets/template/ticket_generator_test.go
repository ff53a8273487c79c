package template

import (
	"bytes"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketPDF(t *testing.T) {
	gen, err := NewTicketPDFGenerator("")
	require.NoError(t, err)

	qr, err := qrcode.Encode("https://etickets.jo/verify/TKT-0123456789AB", qrcode.Medium, 256)
	require.NoError(t, err)

	pdf, err := gen.Generate(TicketDocument{
		EventTitle:   "Jerash Festival",
		EventDate:    "2025-07-24",
		EventTime:    "20:30",
		Venue:        "South Theatre, Jerash",
		HolderName:   "Omar Haddad",
		HolderEmail:  "omar@example.com",
		HolderPhone:  "0791234567",
		Reference:    "ORD-7K2M9QXA",
		TicketNumber: "TKT-0123456789AB",
		QRCode:       qr,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Greater(t, len(pdf), 1000)
}

func TestGenerateRejectsBrokenQR(t *testing.T) {
	gen, err := NewTicketPDFGenerator("")
	require.NoError(t, err)

	_, err = gen.Generate(TicketDocument{EventTitle: "X", TicketNumber: "TKT-1", QRCode: []byte("not a png")})
	assert.Error(t, err)
}

func TestNewTicketPDFGeneratorMissingFont(t *testing.T) {
	_, err := NewTicketPDFGenerator("/nonexistent/font.ttf")
	assert.Error(t, err)
}

func TestNewTicketPDFGeneratorFontOverride(t *testing.T) {
	gen, err := NewTicketPDFGenerator("fonts/LiberationSerif-Regular.ttf")
	require.NoError(t, err)
	assert.Equal(t, defaultFont, gen.font)

	pdf, err := gen.Generate(TicketDocument{EventTitle: "Amman Jazz Night", TicketNumber: "TKT-0123456789AB"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}
