package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sync"
	"time"

	"etickets/internal/logger"
	"etickets/internal/metrics"
	"etickets/internal/models"
	ticketpdf "etickets/internal/tickets/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const sendTimeout = 2 * time.Minute

type PDFRenderer interface {
	Generate(doc ticketpdf.TicketDocument) ([]byte, error)
}

type QREncoder interface {
	Encode(payload string) ([]byte, error)
}

// Notifier sends customer emails in the background. Work started through
// OrderConfirmation and TicketsApproved is tracked so shutdown can Wait.
type Notifier struct {
	Sender    Sender
	PDF       PDFRenderer // nil sends ticket emails without an attachment
	QR        QREncoder
	CliqAlias string
	Logger    *logger.Logger

	templates *template.Template
	wg        sync.WaitGroup
}

func NewNotifier(sender Sender, pdf PDFRenderer, qr QREncoder, cliqAlias string, log *logger.Logger) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Notifier{
		Sender:    sender,
		PDF:       pdf,
		QR:        qr,
		CliqAlias: cliqAlias,
		Logger:    log,
		templates: tmpl,
	}, nil
}

type confirmationData struct {
	Order     *models.Order
	Event     *models.Event
	CliqAlias string
}

type ticketData struct {
	Order  *models.Order
	Event  *models.Event
	Ticket models.Ticket
}

// OrderConfirmation emails the payment instructions without blocking.
func (n *Notifier) OrderConfirmation(order *models.Order, event *models.Event) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		n.record("confirmation", order.CustomerEmail, n.SendOrderConfirmation(ctx, order, event))
	}()
}

// TicketsApproved renders and emails every ticket of an approved order
// without blocking. order.Event and order.Tickets must be loaded.
func (n *Notifier) TicketsApproved(order *models.Order) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		for _, ticket := range order.Tickets {
			var pdf []byte
			if n.PDF != nil {
				var err error
				pdf, err = n.RenderTicket(order, order.Event, ticket)
				if err != nil {
					n.record("ticket_pdf", order.CustomerEmail, err)
				}
			}
			n.record("ticket", order.CustomerEmail, n.SendTicketEmail(ctx, order, order.Event, ticket, pdf))
		}
	}()
}

func (n *Notifier) SendOrderConfirmation(ctx context.Context, order *models.Order, event *models.Event) error {
	html, err := n.render("order_confirmation.html", confirmationData{Order: order, Event: event, CliqAlias: n.CliqAlias})
	if err != nil {
		return err
	}
	return n.Sender.Send(ctx, Message{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Order %s received - %s", order.ReferenceNumber, event.Title),
		HTML:    html,
	})
}

// SendTicketEmail attaches pdf as ticket-<number>.pdf when it is not empty.
func (n *Notifier) SendTicketEmail(ctx context.Context, order *models.Order, event *models.Event, ticket models.Ticket, pdf []byte) error {
	html, err := n.render("ticket.html", ticketData{Order: order, Event: event, Ticket: ticket})
	if err != nil {
		return err
	}
	msg := Message{
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Your ticket %s - %s", ticket.TicketNumber, event.Title),
		HTML:    html,
	}
	if len(pdf) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Name:        fmt.Sprintf("ticket-%s.pdf", ticket.TicketNumber),
			ContentType: "application/pdf",
			Data:        pdf,
		})
	}
	return n.Sender.Send(ctx, msg)
}

// RenderTicket builds the printable PDF for one ticket.
func (n *Notifier) RenderTicket(order *models.Order, event *models.Event, ticket models.Ticket) ([]byte, error) {
	if n.PDF == nil {
		return nil, fmt.Errorf("ticket pdf renderer not configured")
	}
	png, err := n.QR.Encode(ticket.QRPayload)
	if err != nil {
		return nil, err
	}
	return n.PDF.Generate(ticketpdf.TicketDocument{
		EventTitle:   event.Title,
		EventDate:    event.Date,
		EventTime:    event.Time,
		Venue:        event.Venue,
		HolderName:   order.CustomerName,
		HolderEmail:  order.CustomerEmail,
		HolderPhone:  order.CustomerPhone,
		Reference:    order.ReferenceNumber,
		TicketNumber: ticket.TicketNumber,
		QRCode:       png,
	})
}

// Wait blocks until background sends finish or ctx expires.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := n.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (n *Notifier) record(kind, to string, err error) {
	if err != nil {
		metrics.Notifications.WithLabelValues(kind, "failed").Inc()
		n.Logger.Error("NOTIFY", fmt.Sprintf("%s email to %s failed: %v", kind, to, err))
		return
	}
	metrics.Notifications.WithLabelValues(kind, "sent").Inc()
	n.Logger.LogEmail(kind, to, "sent")
}
