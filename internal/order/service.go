package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"etickets/internal/errs"
	"etickets/internal/logger"
	"etickets/internal/metrics"
	"etickets/internal/models"
	orderkafka "etickets/internal/order/kafka"
	"etickets/internal/uploads"
	"etickets/internal/utils"
)

// maxReferenceAttempts bounds the retry loop when a generated reference is
// already taken.
const maxReferenceAttempts = 10

type DBLayer interface {
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	CreateOrder(ctx context.Context, order *models.Order, unitPrice decimal.Decimal) error
	GetOrderByReference(ctx context.Context, reference string) (*models.Order, error)
	SetPaymentProof(ctx context.Context, orderID int64, path string) (string, error)
}

type EventReader interface {
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
}

type FileStore interface {
	Save(kind uploads.Kind, filename string, size int64, r io.Reader) (string, error)
	Delete(publicPath string) error
}

type ConfirmationSender interface {
	OrderConfirmation(order *models.Order, event *models.Event)
}

type KafkaPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
}

type OrderFeed interface {
	Emit(event models.OrderEvent)
}

type OrderService struct {
	DB        DBLayer
	Events    EventReader
	Files     FileStore
	Notifier  ConfirmationSender
	Kafka     KafkaPublisher
	Feed      OrderFeed
	Logger    *logger.Logger
	Validator *validator.Validate

	CliqAlias   string
	MaxQuantity int
	// NewReference is swapped in tests to force collisions.
	NewReference func() (string, error)
}

func NewOrderService(
	db DBLayer,
	events EventReader,
	files FileStore,
	notifier ConfirmationSender,
	kafka KafkaPublisher,
	feed OrderFeed,
	cliqAlias string,
	maxQuantity int,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		DB:           db,
		Events:       events,
		Files:        files,
		Notifier:     notifier,
		Kafka:        kafka,
		Feed:         feed,
		Logger:       log,
		Validator:    utils.NewValidator(),
		CliqAlias:    cliqAlias,
		MaxQuantity:  maxQuantity,
		NewReference: utils.GenerateOrderReference,
	}
}

// ---------------- ORDERS ----------------

// CreateOrder validates the request, reserves capacity and stores a pending
// order. Confirmation email, Kafka and the admin feed run after the commit
// and never fail the order.
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.OrderResponse, error) {
	return s.CreateOrderWithProof(ctx, req, nil)
}

// CreateOrderWithProof is CreateOrder for checkouts that send the transfer
// screenshot with the order. The file is validated and stored before the
// order is written, and removed again if the order cannot be stored.
func (s *OrderService) CreateOrderWithProof(ctx context.Context, req models.OrderRequest, proof *uploads.File) (*models.OrderResponse, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentMethodCliQ
	}

	if err := utils.ValidateStruct(s.Validator, req); err != nil {
		return nil, err
	}
	if s.MaxQuantity > 0 && req.Quantity > s.MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be at most %d", errs.ErrInvalidInput, s.MaxQuantity)
	}

	event, err := s.Events.GetEventByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusActive {
		return nil, fmt.Errorf("%w: event %d is not on sale", errs.ErrInvalidInput, event.ID)
	}
	if event.Remaining() < req.Quantity {
		return nil, fmt.Errorf("%w: only %d left", errs.ErrInsufficientCapacity, max(event.Remaining(), 0))
	}

	order := &models.Order{
		EventID:       event.ID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		CustomerAge:   req.CustomerAge,
		Quantity:      req.Quantity,
		TotalAmount:   models.OrderTotal(event.Price, req.Quantity),
		PaymentMethod: req.PaymentMethod,
		Status:        models.OrderPending,
	}
	if proof != nil {
		path, err := s.Files.Save(uploads.PaymentProof, proof.Filename, proof.Size, proof.Body)
		if err != nil {
			return nil, err
		}
		order.PaymentProof = path
	}

	if err := s.insertOrder(ctx, order, event.Price); err != nil {
		if order.PaymentProof != "" {
			if delErr := s.Files.Delete(order.PaymentProof); delErr != nil {
				s.Logger.Warn("UPLOAD", fmt.Sprintf("Cleanup of %s failed: %v", order.PaymentProof, delErr))
			}
		}
		return nil, err
	}
	order.Event = event

	s.Logger.LogOrder("CREATE", order.ReferenceNumber, fmt.Sprintf("%d x event %d, total %s", order.Quantity, event.ID, order.TotalAmount.StringFixed(2)))
	if order.PaymentProof != "" {
		s.Logger.LogOrder("PROOF", order.ReferenceNumber, order.PaymentProof)
	}
	metrics.OrdersCreated.Inc()
	s.afterCreate(ctx, order, event)

	return &models.OrderResponse{
		ReferenceNumber: order.ReferenceNumber,
		TotalAmount:     order.TotalAmount,
		CliqAlias:       s.CliqAlias,
		Status:          order.Status,
		Order:           order,
	}, nil
}

func (s *OrderService) afterCreate(ctx context.Context, order *models.Order, event *models.Event) {
	if s.Notifier != nil {
		s.Notifier.OrderConfirmation(order, event)
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCreated(ctx, order); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Publish order created %s: %v", order.ReferenceNumber, err))
		}
	}
	if s.Feed != nil {
		s.Feed.Emit(models.NewOrderEvent(orderkafka.EventOrderCreated, order))
	}
}

// insertOrder draws a reference that is not in use and stores the order.
// The lookup skips known references cheaply; the unique index catches a
// concurrent order that took the same one, and that case draws again too.
func (s *OrderService) insertOrder(ctx context.Context, order *models.Order, unitPrice decimal.Decimal) error {
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		ref, err := s.NewReference()
		if err != nil {
			return fmt.Errorf("generate reference: %w", err)
		}
		taken, err := s.DB.ReferenceExists(ctx, ref)
		if err != nil {
			return err
		}
		if !taken {
			order.ReferenceNumber = ref
			err = s.DB.CreateOrder(ctx, order, unitPrice)
			if !errors.Is(err, errs.ErrReferenceTaken) {
				return err
			}
		}
		s.Logger.Warn("ORDER", fmt.Sprintf("Reference collision on %s (attempt %d)", ref, attempt))
	}
	order.ReferenceNumber = ""
	return errs.ErrReferenceExhausted
}

// AttachPaymentProof stores the CliQ transfer screenshot on a pending order,
// replacing any earlier proof.
func (s *OrderService) AttachPaymentProof(ctx context.Context, reference, filename string, size int64, r io.Reader) (*models.Order, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", errs.ErrInvalidInput)
	}
	order, err := s.DB.GetOrderByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, fmt.Errorf("%w: order %s is %s", errs.ErrAlreadyProcessed, reference, order.Status)
	}

	path, err := s.Files.Save(uploads.PaymentProof, filename, size, r)
	if err != nil {
		return nil, err
	}

	previous, err := s.DB.SetPaymentProof(ctx, order.ID, path)
	if err != nil {
		if delErr := s.Files.Delete(path); delErr != nil {
			s.Logger.Warn("UPLOAD", fmt.Sprintf("Cleanup of %s failed: %v", path, delErr))
		}
		return nil, err
	}
	if previous != "" && previous != path {
		if err := s.Files.Delete(previous); err != nil {
			s.Logger.Warn("UPLOAD", fmt.Sprintf("Removing old proof %s failed: %v", previous, err))
		}
	}

	order.PaymentProof = path
	s.Logger.LogOrder("PROOF", reference, path)
	return order, nil
}

func (s *OrderService) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", errs.ErrInvalidInput)
	}
	order, err := s.DB.GetOrderByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderApproved {
		order.Tickets = nil
	}
	return order, nil
}
