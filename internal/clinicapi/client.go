package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/eyeclinic-web/internal/observability/metrics"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:8000/api"
	defaultTimeout = 15 * time.Second
	maxLoggedBody  = 300
)

// Client wraps the clinic backend REST API. Every call is a single attempt;
// there is no retry and no caching.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.ClinicAPIMetrics
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the transport timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.ClinicAPIMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// NewClient constructs a clinic API client rooted at baseURL (which includes
// the /api prefix).
func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logging.Default(),
		tracer:     otel.Tracer("eyeclinic.internal.clinicapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListServices returns the service catalog.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var services []Service
	if err := c.doJSON(ctx, "list_services", http.MethodGet, "/services", nil, &services); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// GetService returns one service. A missing id matches ErrNotFound.
func (c *Client) GetService(ctx context.Context, id string) (*ServiceDetail, error) {
	path := "/services/" + url.PathEscape(strings.TrimSpace(id))
	var service ServiceDetail
	if err := c.doJSON(ctx, "get_service", http.MethodGet, path, nil, &service); err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}
	return &service, nil
}

// ListDoctors returns the doctor catalog.
func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var doctors []Doctor
	if err := c.doJSON(ctx, "list_doctors", http.MethodGet, "/doctors", nil, &doctors); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// GetDoctor returns one doctor. A missing id matches ErrNotFound.
func (c *Client) GetDoctor(ctx context.Context, id string) (*DoctorDetail, error) {
	path := "/doctors/" + url.PathEscape(strings.TrimSpace(id))
	var doctor DoctorDetail
	if err := c.doJSON(ctx, "get_doctor", http.MethodGet, path, nil, &doctor); err != nil {
		return nil, fmt.Errorf("get doctor %s: %w", id, err)
	}
	return &doctor, nil
}

// ListAvailableSlots returns the free time slots for a date, optionally
// narrowed to a service and/or doctor. The order is the server's.
func (c *Client) ListAvailableSlots(ctx context.Context, q SlotQuery) ([]string, error) {
	params := url.Values{}
	params.Set("query_date", q.Date)
	if id := strings.TrimSpace(q.ServiceID.String()); id != "" {
		params.Set("service_id", id)
	}
	if id := strings.TrimSpace(q.DoctorID.String()); id != "" {
		params.Set("doctor_id", id)
	}

	var slots []string
	if err := c.doJSON(ctx, "list_available_slots", http.MethodGet, "/availability?"+params.Encode(), nil, &slots); err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}

// CreateBooking submits a booking. Rejections carry the server's detail in
// an *APIError.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*BookingConfirmation, error) {
	var resp BookingConfirmation
	if err := c.doJSON(ctx, "create_booking", http.MethodPost, "/bookings", req, &resp); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return &resp, nil
}

// SubmitContactMessage posts a contact form message.
func (c *Client) SubmitContactMessage(ctx context.Context, msg ContactMessage) (*ContactAck, error) {
	var ack ContactAck
	if err := c.doJSON(ctx, "submit_contact", http.MethodPost, "/contact-submissions", msg, &ack); err != nil {
		return nil, fmt.Errorf("submit contact message: %w", err)
	}
	return &ack, nil
}

func (c *Client) doJSON(ctx context.Context, operation, method, path string, body interface{}, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "clinicapi."+operation,
		trace.WithAttributes(attribute.String("http.method", method), attribute.String("clinicapi.path", path)))
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		c.metrics.ObserveRequest(operation, status, time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
		}
	}()

	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("clinic API request failed", "operation", operation, "error", err)
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", status))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxLoggedBody {
			msg = msg[:maxLoggedBody]
		}
		c.logger.Warn("clinic API non-2xx response", "operation", operation, "status", resp.StatusCode, "path", path, "body", logging.ScrubPII(msg))
		return &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(respBody),
		}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
