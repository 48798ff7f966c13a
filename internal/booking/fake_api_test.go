package booking

import (
	"context"
	"sync"

	"github.com/wolfman30/eyeclinic-web/internal/clinicapi"
)

type fakeAPI struct {
	mu sync.Mutex

	services     []clinicapi.Service
	servicesErr  error
	serviceCalls int

	doctors     []clinicapi.Doctor
	doctorsErr  error
	doctorCalls int

	slots     map[string][]string
	slotsErr  error
	slotCalls []clinicapi.SlotQuery
	// slotGate blocks slot lookups for a date until the channel is closed.
	slotGate    map[string]chan struct{}
	slotStarted chan string

	bookings    []clinicapi.BookingRequest
	bookingResp *clinicapi.BookingConfirmation
	bookingErr  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		services: []clinicapi.Service{
			{ID: "1", Name: "Comprehensive Eye Exam", Description: "Regular check-ups"},
			{ID: "2", Name: "Cataract Surgery"},
		},
		doctors: []clinicapi.Doctor{
			{ID: "7", Name: "Dr. Ananya Sharma", Specialty: "MS Ophthalmology<br>Cataract &amp; Refractive"},
			{ID: "8", Name: "Dr. Rohan Verma", Specialty: "Glaucoma"},
		},
		slots: map[string][]string{
			"2025-03-10": {"09:30", "10:00"},
			"2025-03-11": {},
			"2025-03-12": {"14:00"},
		},
		slotGate:    map[string]chan struct{}{},
		slotStarted: make(chan string, 16),
		bookingResp: &clinicapi.BookingConfirmation{BookingID: "42", Status: "confirmed"},
	}
}

func (f *fakeAPI) ListServices(ctx context.Context) ([]clinicapi.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serviceCalls++
	if f.servicesErr != nil {
		return nil, f.servicesErr
	}
	return f.services, nil
}

func (f *fakeAPI) ListDoctors(ctx context.Context) ([]clinicapi.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doctorCalls++
	if f.doctorsErr != nil {
		return nil, f.doctorsErr
	}
	return f.doctors, nil
}

func (f *fakeAPI) ListAvailableSlots(ctx context.Context, q clinicapi.SlotQuery) ([]string, error) {
	f.mu.Lock()
	f.slotCalls = append(f.slotCalls, q)
	gate := f.slotGate[q.Date]
	f.mu.Unlock()

	select {
	case f.slotStarted <- q.Date:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slotsErr != nil {
		return nil, f.slotsErr
	}
	return append([]string(nil), f.slots[q.Date]...), nil
}

func (f *fakeAPI) CreateBooking(ctx context.Context, req clinicapi.BookingRequest) (*clinicapi.BookingConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, req)
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	return f.bookingResp, nil
}

func (f *fakeAPI) slotCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slotCalls)
}

func (f *fakeAPI) bookingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}
