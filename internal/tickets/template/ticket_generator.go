package template

import (
	"bytes"
	_ "embed"
	"fmt"
	"image/png"
	"os"

	"github.com/signintech/gopdf"
)

const fontFamily = "ticket"

// Liberation Serif, SIL Open Font License (fonts/).
//
//go:embed fonts/LiberationSerif-Regular.ttf
var defaultFont []byte

// TicketDocument is everything printed on one ticket.
type TicketDocument struct {
	EventTitle   string
	EventDate    string
	EventTime    string
	Venue        string
	HolderName   string
	HolderEmail  string
	HolderPhone  string
	Reference    string
	TicketNumber string
	QRCode       []byte // PNG
}

type TicketPDFGenerator struct {
	font []byte
}

// NewTicketPDFGenerator loads the TTF used for every page. An empty
// fontPath uses the embedded Liberation Serif.
func NewTicketPDFGenerator(fontPath string) (*TicketPDFGenerator, error) {
	if fontPath == "" {
		return &TicketPDFGenerator{font: defaultFont}, nil
	}
	font, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", fontPath, err)
	}
	return &TicketPDFGenerator{font: font}, nil
}

// Generate renders a single A4 page.
func (g *TicketPDFGenerator) Generate(doc TicketDocument) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFontData(fontFamily, g.font); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	if err := addHeader(pdf); err != nil {
		return nil, err
	}
	if err := addTicketInfo(pdf, doc); err != nil {
		return nil, err
	}
	if len(doc.QRCode) > 0 {
		if err := addQRCode(pdf, doc.QRCode); err != nil {
			return nil, err
		}
	}
	if err := addFooter(pdf, doc.TicketNumber); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func addHeader(pdf *gopdf.GoPdf) error {
	pdf.SetFillColor(102, 126, 234)
	pdf.RectFromUpperLeftWithStyle(0, 0, gopdf.PageSizeA4.W, 90, "F")

	pdf.SetTextColor(255, 255, 255)
	if err := pdf.SetFont(fontFamily, "", 26); err != nil {
		return fmt.Errorf("failed to set font: %w", err)
	}
	pdf.SetXY(40, 28)
	if err := pdf.Cell(nil, "Jordan eTickets"); err != nil {
		return err
	}
	if err := pdf.SetFont(fontFamily, "", 12); err != nil {
		return err
	}
	pdf.SetXY(40, 60)
	return pdf.Cell(nil, "Admission ticket")
}

func addTicketInfo(pdf *gopdf.GoPdf, doc TicketDocument) error {
	pdf.SetTextColor(33, 33, 33)
	if err := pdf.SetFont(fontFamily, "", 20); err != nil {
		return err
	}
	pdf.SetXY(40, 120)
	if err := pdf.Cell(nil, doc.EventTitle); err != nil {
		return err
	}

	if err := pdf.SetFont(fontFamily, "", 12); err != nil {
		return err
	}
	rows := []struct {
		label string
		value string
	}{
		{"Date", doc.EventDate},
		{"Time", doc.EventTime},
		{"Venue", doc.Venue},
		{"Name", doc.HolderName},
		{"Email", doc.HolderEmail},
		{"Phone", doc.HolderPhone},
		{"Order", doc.Reference},
		{"Ticket", doc.TicketNumber},
	}

	y := 160.0
	for _, row := range rows {
		pdf.SetXY(40, y)
		if err := pdf.Cell(nil, row.label+":"); err != nil {
			return err
		}
		pdf.SetXY(120, y)
		if err := pdf.Cell(nil, row.value); err != nil {
			return err
		}
		y += 22
	}
	return nil
}

func addQRCode(pdf *gopdf.GoPdf, qrCode []byte) error {
	img, err := png.Decode(bytes.NewReader(qrCode))
	if err != nil {
		return fmt.Errorf("decode qr image: %w", err)
	}
	if err := pdf.ImageFrom(img, 370, 150, &gopdf.Rect{W: 180, H: 180}); err != nil {
		return fmt.Errorf("draw qr image: %w", err)
	}
	return nil
}

func addFooter(pdf *gopdf.GoPdf, ticketNumber string) error {
	pdf.SetStrokeColor(200, 200, 200)
	pdf.SetLineWidth(1)
	pdf.Line(40, 360, gopdf.PageSizeA4.W-40, 360)

	if err := pdf.SetFont(fontFamily, "", 11); err != nil {
		return err
	}
	pdf.SetTextColor(80, 80, 80)
	lines := []string{
		"Show this QR code at the entrance. Each code admits one person once.",
		"Arrive at least 30 minutes before the event starts.",
		"Ticket " + ticketNumber + " is not transferable.",
	}
	y := 380.0
	for _, line := range lines {
		pdf.SetXY(40, y)
		if err := pdf.Cell(nil, line); err != nil {
			return err
		}
		y += 18
	}

	pdf.SetXY(40, gopdf.PageSizeA4.H-50)
	return pdf.Cell(nil, "Thank you for booking with Jordan eTickets.")
}
