package qr

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

// QRGenerator turns ticket numbers into verification links and PNG codes.
type QRGenerator struct {
	baseURL string
	size    int
}

func NewQRGenerator(baseURL string) *QRGenerator {
	return &QRGenerator{baseURL: strings.TrimRight(baseURL, "/"), size: defaultSize}
}

// Payload is the verification URL encoded in the QR image.
func (q *QRGenerator) Payload(ticketNumber string) string {
	return BuildPayload(q.baseURL, ticketNumber)
}

// Encode renders payload as a PNG.
func (q *QRGenerator) Encode(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, q.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// BuildPayload returns {baseURL}/verify/{ticketNumber}.
func BuildPayload(baseURL, ticketNumber string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + ticketNumber
}
