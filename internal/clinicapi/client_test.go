package clinicapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/eyeclinic-web/internal/observability/metrics"
	"github.com/wolfman30/eyeclinic-web/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/api",
		WithLogger(logging.Default()),
		WithMetrics(metrics.NewClinicAPIMetrics(prometheus.NewRegistry())),
	)
}

func TestClient_ListServices_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/services" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Comprehensive Eye Exam","description":"Regular check-ups","image_url":"https://img/1.png"}]`))
	})

	services, err := client.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, ID("1"), services[0].ID)
	assert.Equal(t, "Comprehensive Eye Exam", services[0].Name)
	assert.Equal(t, "https://img/1.png", services[0].ImageURL)
}

func TestClient_GetService_DetailLists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/services/2" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":2,"name":"Cataract Surgery","detailed_description":"Our cataract surgery uses...","what_to_expect":"Pre-op, surgery, post-op...","benefits":["Restored clear vision."]}`))
	})

	svc, err := client.GetService(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Cataract Surgery", svc.Name)
	assert.Equal(t, TextList{"Pre-op, surgery, post-op..."}, svc.WhatToExpect)
	assert.Equal(t, TextList{"Restored clear vision."}, svc.Benefits)
}

func TestClient_GetDoctor_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Doctor not found"}`))
	})

	_, err := client.GetDoctor(context.Background(), "99")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Doctor not found", apiErr.Detail)
}

func TestClient_GetDoctor_ClinicHours(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":3,"name":"Dr. Priya Singh","specialty":"MBBS, DO<br>Pediatric","areas_of_focus":["Strabismus Surgery"],"achievements":[],"clinic_hours":{"Tue-Thu-Sat":"11 AM - 7 PM"}}`))
	})

	doc, err := client.GetDoctor(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "11 AM - 7 PM", doc.ClinicHours["Tue-Thu-Sat"])
	assert.Equal(t, []string{"Strabismus Surgery"}, doc.AreasOfFocus)
}

func TestClient_ListAvailableSlots_Filters(t *testing.T) {
	tests := []struct {
		name      string
		query     SlotQuery
		wantSvc   string
		wantDoc   string
		hasDoctor bool
	}{
		{"all filters", SlotQuery{Date: "2025-03-10", ServiceID: "1", DoctorID: "2"}, "1", "2", true},
		{"doctor omitted", SlotQuery{Date: "2025-03-10", ServiceID: "1"}, "1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if r.URL.Path != "/api/availability" {
					t.Fatalf("path = %s", r.URL.Path)
				}
				if q.Get("query_date") != "2025-03-10" {
					t.Fatalf("query_date = %s", q.Get("query_date"))
				}
				if q.Get("service_id") != tt.wantSvc {
					t.Fatalf("service_id = %s", q.Get("service_id"))
				}
				if _, ok := q["doctor_id"]; ok != tt.hasDoctor {
					t.Fatalf("doctor_id present = %v, want %v", ok, tt.hasDoctor)
				}
				_, _ = w.Write([]byte(`["09:30","10:00"]`))
			})

			slots, err := client.ListAvailableSlots(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, []string{"09:30", "10:00"}, slots)
		})
	}
}

func TestClient_ListAvailableSlots_NullIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	slots, err := client.ListAvailableSlots(context.Background(), SlotQuery{Date: "2025-03-10"})
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestClient_CreateBooking_Payload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/bookings" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got["service_id"] != float64(1) {
			t.Fatalf("service_id = %#v, want number 1", got["service_id"])
		}
		if v, ok := got["doctor_id"]; !ok || v != nil {
			t.Fatalf("doctor_id = %#v, want explicit null", v)
		}
		if v, ok := got["patient_symptoms"]; !ok || v != "" {
			t.Fatalf("patient_symptoms = %#v, want empty string", v)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"status":"confirmed"}`))
	})

	conf, err := client.CreateBooking(context.Background(), BookingRequest{
		PatientName:     "Asha Rao",
		PatientPhone:    "9876543210",
		PatientEmail:    "asha@example.com",
		ServiceID:       "1",
		AppointmentDate: "2025-03-10",
		AppointmentTime: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, ID("42"), conf.BookingID)
	assert.Equal(t, "confirmed", conf.Status)
}

func TestClient_CreateBooking_ConflictDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"slot taken"}`))
	})

	_, err := client.CreateBooking(context.Background(), BookingRequest{ServiceID: "1"})
	require.Error(t, err)
	assert.Equal(t, "slot taken", ErrorDetail(err, "generic"))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestClient_ValidationDetailList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"msg":"value is not a valid email address"},{"msg":"field required"}]}`))
	})

	_, err := client.SubmitContactMessage(context.Background(), ContactMessage{Name: "A"})
	require.Error(t, err)
	assert.Equal(t, "value is not a valid email address; field required", ErrorDetail(err, "generic"))
}

func TestClient_SubmitContactMessage_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/contact-submissions" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var msg ContactMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Email != "asha@example.com" {
			t.Fatalf("email = %s", msg.Email)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7}`))
	})

	ack, err := client.SubmitContactMessage(context.Background(), ContactMessage{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Subject: "Hours",
		Message: "Are you open on Sunday?",
	})
	require.NoError(t, err)
	assert.Equal(t, ID("7"), ack.ID)
}

func TestClient_TransportErrorUsesFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := ts.URL
	ts.Close()

	client := NewClient(baseURL, WithTimeout(time.Second))
	_, err := client.ListDoctors(context.Background())
	require.Error(t, err)
	assert.Equal(t, "fallback", ErrorDetail(err, "fallback"))
}

func TestClient_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":`))
	})

	_, err := client.ListDoctors(context.Background())
	require.Error(t, err)
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListServices(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestID_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{"", "null"},
		{"12", "12"},
		{" 7 ", "7"},
		{"dr-ananya-sharma", `"dr-ananya-sharma"`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}

	var id ID
	require.NoError(t, json.Unmarshal([]byte(`"abc"`), &id))
	assert.Equal(t, ID("abc"), id)
	require.NoError(t, json.Unmarshal([]byte(`15`), &id))
	assert.Equal(t, ID("15"), id)
	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.Equal(t, ID(""), id)
}
