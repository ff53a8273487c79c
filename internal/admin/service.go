package admin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"etickets/internal/errs"
	"etickets/internal/logger"
	"etickets/internal/metrics"
	"etickets/internal/models"
	orderkafka "etickets/internal/order/kafka"
	"etickets/internal/uploads"
	"etickets/internal/utils"
)

type OrderStore interface {
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ApproveOrder(ctx context.Context, id int64, newTicket func(orderID int64) models.Ticket) (*models.Order, error)
	RejectOrder(ctx context.Context, id int64) (*models.Order, error)
}

type EventStore interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
}

// TicketIssuer builds one unsaved ticket per call.
type TicketIssuer interface {
	NewTicket(orderID int64) models.Ticket
}

type OrderLock interface {
	LockOrder(ctx context.Context, orderID int64) (string, error)
	UnlockOrder(ctx context.Context, orderID int64, token string) error
}

type TicketNotifier interface {
	TicketsApproved(order *models.Order)
}

type KafkaPublisher interface {
	PublishOrderApproved(ctx context.Context, order *models.Order) error
	PublishOrderRejected(ctx context.Context, order *models.Order) error
}

type OrderFeed interface {
	Emit(event models.OrderEvent)
}

type FileStore interface {
	Save(kind uploads.Kind, filename string, size int64, r io.Reader) (string, error)
	Delete(publicPath string) error
}

type AdminService struct {
	Orders    OrderStore
	Events    EventStore
	Tickets   TicketIssuer
	Lock      OrderLock
	Notifier  TicketNotifier
	Kafka     KafkaPublisher
	Feed      OrderFeed
	Files     FileStore
	Logger    *logger.Logger
	Validator *validator.Validate
}

func NewAdminService(
	orders OrderStore,
	events EventStore,
	tickets TicketIssuer,
	lock OrderLock,
	notifier TicketNotifier,
	kafka KafkaPublisher,
	feed OrderFeed,
	files FileStore,
	log *logger.Logger,
) *AdminService {
	return &AdminService{
		Orders:    orders,
		Events:    events,
		Tickets:   tickets,
		Lock:      lock,
		Notifier:  notifier,
		Kafka:     kafka,
		Feed:      feed,
		Files:     files,
		Logger:    log,
		Validator: utils.NewValidator(),
	}
}

// ---------------- ORDERS ----------------

func (s *AdminService) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrInvalidInput, status)
	}
	return s.Orders.ListOrders(ctx, status)
}

func (s *AdminService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.Orders.GetOrderByID(ctx, id)
}

// ApproveOrder issues the order's tickets and moves its reservation into
// sold. Ticket emails are sent in the background after the commit.
func (s *AdminService) ApproveOrder(ctx context.Context, id int64) (*models.Order, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.Orders.ApproveOrder(ctx, id, s.Tickets.NewTicket)
	if err != nil {
		return nil, err
	}

	s.Logger.LogOrder("APPROVE", order.ReferenceNumber, fmt.Sprintf("%d tickets issued", len(order.Tickets)))
	metrics.OrdersApproved.Inc()
	metrics.TicketsIssued.Add(float64(len(order.Tickets)))

	if s.Notifier != nil {
		s.Notifier.TicketsApproved(order)
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderApproved(ctx, order); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Publish order approved %s: %v", order.ReferenceNumber, err))
		}
	}
	s.emit(orderkafka.EventOrderApproved, order)
	return order, nil
}

// RejectOrder releases the order's reservation. No tickets are issued.
func (s *AdminService) RejectOrder(ctx context.Context, id int64) (*models.Order, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.Orders.RejectOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	s.Logger.LogOrder("REJECT", order.ReferenceNumber, fmt.Sprintf("released %d tickets", order.Quantity))
	metrics.OrdersRejected.Inc()

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderRejected(ctx, order); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Publish order rejected %s: %v", order.ReferenceNumber, err))
		}
	}
	s.emit(orderkafka.EventOrderRejected, order)
	return order, nil
}

// lock takes the per-order lock. A Redis failure is logged and the
// transaction guards alone decide the outcome.
func (s *AdminService) lock(ctx context.Context, id int64) (func(), error) {
	if s.Lock == nil {
		return func() {}, nil
	}
	token, err := s.Lock.LockOrder(ctx, id)
	if err != nil {
		s.Logger.Warn("REDIS", fmt.Sprintf("Lock order %d: %v", id, err))
		return func() {}, nil
	}
	if token == "" {
		return nil, fmt.Errorf("%w: order %d is being processed", errs.ErrConflict, id)
	}
	return func() {
		if err := s.Lock.UnlockOrder(context.Background(), id, token); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("Unlock order %d: %v", id, err))
		}
	}, nil
}

func (s *AdminService) emit(kind string, order *models.Order) {
	if s.Feed != nil {
		s.Feed.Emit(models.NewOrderEvent(kind, order))
	}
}

// ---------------- EVENTS ----------------

func (s *AdminService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.Events.ListEvents(ctx)
}

// CreateEvent stores a new event with an optional image.
func (s *AdminService) CreateEvent(ctx context.Context, input models.EventInput, image *uploads.File) (*models.Event, error) {
	input, err := s.validateEvent(input)
	if err != nil {
		return nil, err
	}

	event := &models.Event{}
	applyInput(event, input)

	if image != nil {
		if event.Image, err = s.Files.Save(uploads.EventImage, image.Filename, image.Size, image.Body); err != nil {
			return nil, err
		}
	}

	if err := s.Events.CreateEvent(ctx, event); err != nil {
		s.discard(event.Image)
		return nil, err
	}

	s.Logger.LogDatabase("INSERT", "events", fmt.Sprintf("event %d %q", event.ID, event.Title))
	return event, nil
}

// UpdateEvent replaces the editable fields. A new image replaces the old
// file, which is removed once the row is saved.
func (s *AdminService) UpdateEvent(ctx context.Context, id int64, input models.EventInput, image *uploads.File) (*models.Event, error) {
	input, err := s.validateEvent(input)
	if err != nil {
		return nil, err
	}

	event, err := s.Events.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyInput(event, input)

	oldImage := event.Image
	if image != nil {
		if event.Image, err = s.Files.Save(uploads.EventImage, image.Filename, image.Size, image.Body); err != nil {
			return nil, err
		}
	}

	if err := s.Events.UpdateEvent(ctx, event); err != nil {
		if image != nil {
			s.discard(event.Image)
		}
		return nil, err
	}
	if image != nil {
		s.discard(oldImage)
	}

	s.Logger.LogDatabase("UPDATE", "events", fmt.Sprintf("event %d", event.ID))
	return event, nil
}

// DeleteEvent removes an event that has no orders, along with its image.
func (s *AdminService) DeleteEvent(ctx context.Context, id int64) error {
	event, err := s.Events.GetEventByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Events.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.discard(event.Image)

	s.Logger.LogDatabase("DELETE", "events", fmt.Sprintf("event %d", id))
	return nil
}

func (s *AdminService) validateEvent(input models.EventInput) (models.EventInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Venue = strings.TrimSpace(input.Venue)
	input.Description = strings.TrimSpace(input.Description)
	input.Date = strings.TrimSpace(input.Date)
	input.Time = strings.TrimSpace(input.Time)

	if err := utils.ValidateStruct(s.Validator, input); err != nil {
		return input, err
	}
	if !utils.ValidEventDate(input.Date) {
		return input, fmt.Errorf("%w: date must be YYYY-MM-DD", errs.ErrInvalidInput)
	}
	if !utils.ValidEventTime(input.Time) {
		return input, fmt.Errorf("%w: time must be HH:MM", errs.ErrInvalidInput)
	}
	if input.Price.IsNegative() {
		return input, fmt.Errorf("%w: price must not be negative", errs.ErrInvalidInput)
	}
	if input.Status == "" {
		input.Status = models.EventStatusActive
	}
	return input, nil
}

func applyInput(event *models.Event, input models.EventInput) {
	event.Title = input.Title
	event.Description = input.Description
	event.Date = input.Date
	event.Time = input.Time
	event.Venue = input.Venue
	event.Price = input.Price.Round(2)
	event.Quantity = input.Quantity
	event.Status = input.Status
}

func (s *AdminService) discard(path string) {
	if path == "" || s.Files == nil {
		return
	}
	if err := s.Files.Delete(path); err != nil {
		s.Logger.Warn("UPLOADS", fmt.Sprintf("Remove %s: %v", path, err))
	}
}
