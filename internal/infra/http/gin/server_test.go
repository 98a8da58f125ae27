package ginserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rentacar/internal/app"
	"rentacar/internal/app/dto"
	authsvc "rentacar/internal/app/services/auth"
	domainbooking "rentacar/internal/domain/booking"
	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/pricing"
	domainreviews "rentacar/internal/domain/reviews"
	ginserver "rentacar/internal/infra/http/gin"
	"rentacar/internal/infra/obs"
	"rentacar/internal/infra/security"
	"rentacar/internal/infra/storage/memory"
	"rentacar/internal/infra/validation"
)

const adminEmail = "admin@rentacar.lk"

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	car, err := cars.NewCar("car-1", cars.Details{
		Brand:    "Toyota",
		Model:    "Axio",
		Seats:    5,
		Category: cars.CategorySedan,
		Rates:    cars.Rates{Daily: 10000, Weekly: 63000, Monthly: 240000, DriverFeePerDay: 2500},
		Location: cars.Location{District: "Colombo", City: "Dehiwala"},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Cars.Save(context.Background(), car))

	feed := domainreviews.NewFeed()
	buses := app.NewBuses(app.Deps{
		UoWFactory:  store.Factory(),
		Outbox:      store.Outbox,
		Pricing:     pricing.MustEngine(pricing.DefaultConfig(), pricing.DefaultPromoTable()),
		Feed:        feed,
		Idempotency: memory.NewIdempotencyStore(),
		Validator:   validation.New(),
		Logger:      logger,
	})
	auth := &authsvc.Service{
		Users:       memory.NewUserRepository(),
		Sessions:    memory.NewSessionStore(),
		Passwords:   security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:      security.RandomTokenGenerator{},
		SessionTTL:  time.Hour,
		AdminEmails: []string{adminEmail},
		Logger:      logger,
	}
	router := ginserver.NewRouter(obs.Middleware{Logger: logger}, obs.HealthHandlers{}, ginserver.Handlers{
		Auth:     ginserver.AuthHandler{Service: auth, Logger: logger},
		Cars:     ginserver.CarsHandler{Queries: buses.Queries, Logger: logger},
		Bookings: ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Reviews:  ginserver.ReviewsHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Admin:    ginserver.AdminHandler{Commands: buses.Commands, Queries: buses.Queries, Feed: feed, Logger: logger},
		Session:  ginserver.SessionMiddleware{Resolver: auth, Logger: logger}.Handle,
	})
	return testServer{router: router}
}

func (s testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session dto.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func checkout(pickup, ret string) map[string]any {
	return map[string]any{
		"car_id":      "car-1",
		"pickup_date": pickup,
		"return_date": ret,
		"addons":      []string{},
		"renter": map[string]string{
			"full_name":       "Nimal Perera",
			"email":           "nimal@example.lk",
			"phone":           "+94771234567",
			"nic_or_passport": "901234567V",
		},
		"terms_accepted": true,
	}
}

func TestProbesAndCatalogAreAnonymous(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/livez", "", nil).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/cars?category=sedan", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "car-1")

	rec = s.do(t, http.MethodGet, "/api/v1/cars/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingRequiresSignIn(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", "", checkout("2030-03-01", "2030-03-03"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRejectRenters(t *testing.T) {
	s := newTestServer(t)
	renter := s.register(t, "renter@example.lk")

	rec := s.do(t, http.MethodPost, "/api/v1/admin/cars", renter, map[string]any{
		"brand":    "Honda",
		"model":    "Vezel",
		"seats":    5,
		"rates":    map[string]int64{"daily": 12000, "weekly": 76000, "monthly": 290000},
		"location": map[string]string{"district": "Kandy"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := s.register(t, adminEmail)
	rec = s.do(t, http.MethodPost, "/api/v1/admin/cars", admin, map[string]any{
		"brand":    "Honda",
		"model":    "Vezel",
		"seats":    5,
		"rates":    map[string]int64{"daily": 12000, "weekly": 76000, "monthly": 290000},
		"location": map[string]string{"district": "Kandy"},
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestConfirmedBookingBlocksOverlappingSubmit(t *testing.T) {
	s := newTestServer(t)
	renter := s.register(t, "renter@example.lk")
	admin := s.register(t, adminEmail)

	rec := s.do(t, http.MethodPost, "/api/v1/bookings", renter, checkout("2030-03-01", "2030-03-03"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booking dto.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	assert.Equal(t, string(domainbooking.StatePending), booking.State)

	rec = s.do(t, http.MethodPost, "/api/v1/admin/bookings/"+booking.ID+"/confirm", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/bookings", renter, checkout("2030-03-02", "2030-03-05"))
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/me/bookings", renter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), booking.ID)
}

func TestValidateReportsVerdictWithoutSideEffects(t *testing.T) {
	s := newTestServer(t)

	body := checkout("2030-04-01", "2030-04-02")
	body["terms_accepted"] = false
	rec := s.do(t, http.MethodPost, "/api/v1/bookings/validate", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "terms")
}
