package admin_api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"etickets/internal/admin"
	"etickets/internal/admin/admin_api"
	"etickets/internal/auth"
	authdb "etickets/internal/auth/db"
	"etickets/internal/database/dbtest"
	eventsdb "etickets/internal/events/db"
	"etickets/internal/logger"
	"etickets/internal/models"
	orderdb "etickets/internal/order/db"
	orderredis "etickets/internal/order/redis"
	"etickets/internal/sse"
	qr "etickets/internal/tickets/qr_genrator"
	ticketsdb "etickets/internal/tickets/db"
	tickets "etickets/internal/tickets/service"
	"etickets/internal/uploads"
)

const maxUpload = 5 * 1024 * 1024

type testServer struct {
	router        *chi.Mux
	bun           *bun.DB
	feed          *sse.OrderFeed
	adminToken    string
	customerToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	bunDB := dbtest.New(t)
	log := logger.NewWithWriter(io.Discard)
	feed := sse.NewOrderFeed()

	users := &authdb.DB{Bun: bunDB}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	authSvc := auth.NewAuthService(users, tokens, nil, log)

	ticketSvc := tickets.NewTicketService(&ticketsdb.DB{Bun: bunDB}, qr.NewQRGenerator("http://localhost:3000"))
	svc := admin.NewAdminService(
		&orderdb.DB{Bun: bunDB}, &eventsdb.DB{Bun: bunDB}, ticketSvc, orderredis.NoopLock{},
		nil, nil, feed, uploads.NewStore(t.TempDir(), maxUpload), log,
	)

	mw := auth.NewMiddleware(tokens, users, log)
	r := chi.NewRouter()
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(mw.RequireAdmin)
		admin_api.NewHandler(svc, feed, maxUpload, log).RegisterRoutes(r)
	})

	return &testServer{
		router:        r,
		bun:           bunDB,
		feed:          feed,
		adminToken:    login(t, authSvc, users, "admin@etickets.jo", models.RoleAdmin),
		customerToken: login(t, authSvc, users, "dana@example.com", models.RoleCustomer),
	}
}

func login(t *testing.T, svc *auth.AuthService, users *authdb.DB, email, role string) string {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	require.NoError(t, users.CreateUser(context.Background(), &models.User{
		Email: email, Password: hash, Name: "Test " + role, Role: role,
	}))
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: email, Password: "secret123"})
	require.NoError(t, err)
	return resp.Token
}

func (s *testServer) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedOrder(t *testing.T, quantity int) (*models.Event, *models.Order) {
	t.Helper()
	event := dbtest.SeedEvent(t, s.bun, "20.00", 10, 0)
	order := &models.Order{
		ReferenceNumber: "ORD-TEST" + fmt.Sprint(event.ID),
		EventID:         event.ID,
		CustomerName:    "Omar Haddad",
		CustomerEmail:   "omar@example.com",
		CustomerPhone:   "0791234567",
		CustomerAge:     30,
		Quantity:        quantity,
		TotalAmount:     models.OrderTotal(event.Price, quantity),
		Status:          models.OrderPending,
	}
	require.NoError(t, (&orderdb.DB{Bun: s.bun}).CreateOrder(context.Background(), order, event.Price))
	return event, order
}

func eventForm(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "poster.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/admin/orders", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/orders", "not-a-jwt", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/orders", s.customerToken, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/admin/orders", s.adminToken, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApproveAndRejectOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, pending := s.seedOrder(t, 2)
	path := fmt.Sprintf("/api/admin/orders/%d", pending.ID)

	rec := s.do(http.MethodGet, "/api/admin/orders?status=pending", s.adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Event)

	rec = s.do(http.MethodGet, "/api/admin/orders?status=bogus", s.adminToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, path+"/approve", s.adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approved))
	assert.Equal(t, models.OrderApproved, approved.Order.Status)
	assert.Len(t, approved.Order.Tickets, 2)

	rec = s.do(http.MethodPost, path+"/approve", s.adminToken, nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, path+"/reject", s.adminToken, nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code, "approved is terminal")

	rec = s.do(http.MethodGet, path, s.adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TKT-")

	rec = s.do(http.MethodPost, "/api/admin/orders/9999/reject", s.adminToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/orders/abc/approve", s.adminToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventCRUDOverHTTP(t *testing.T) {
	s := newTestServer(t)
	fields := map[string]string{
		"title":    "Petra by Night",
		"date":     "2025-12-05",
		"time":     "20:00",
		"venue":    "Petra",
		"price":    "17.50",
		"quantity": "40",
	}

	body, ct := eventForm(t, fields, pngBytes(t))
	rec := s.do(http.MethodPost, "/api/admin/events", s.adminToken, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "active", created.Status)
	assert.True(t, strings.HasPrefix(created.Image, "/uploads/events/"))
	assert.Equal(t, "17.5", created.Price.String())

	bad := map[string]string{}
	for k, v := range fields {
		bad[k] = v
	}
	bad["price"] = "free"
	body, ct = eventForm(t, bad, nil)
	rec = s.do(http.MethodPost, "/api/admin/events", s.adminToken, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	fields["quantity"] = "60"
	fields["status"] = "inactive"
	body, ct = eventForm(t, fields, nil)
	rec = s.do(http.MethodPut, fmt.Sprintf("/api/admin/events/%d", created.ID), s.adminToken, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 60, updated.Quantity)
	assert.Equal(t, "inactive", updated.Status)
	assert.Equal(t, created.Image, updated.Image)

	rec = s.do(http.MethodGet, "/api/admin/events", s.adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Petra by Night")

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/events/%d", created.ID), s.adminToken, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/events/%d", created.ID), s.adminToken, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderStreamDeliversEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/admin/orders/stream?access_token="+s.adminToken, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	require.Eventually(t, func() bool { return s.feed.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.feed.Emit(models.OrderEvent{Type: "order.created", OrderID: 42, ReferenceNumber: "ORD-STREAM1"})

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	timeout := time.After(3 * time.Second)
	var sawEvent bool
	for !sawEvent {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if line == "event: order.created" {
				data := <-lines
				assert.Contains(t, data, "ORD-STREAM1")
				sawEvent = true
			}
		case <-timeout:
			t.Fatal("no order event received")
		}
	}

	cancel()
	require.Eventually(t, func() bool { return s.feed.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
