package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/dispatch"
	"github.com/handyhub/dispatch-api/internal/domain/mapview"
	"github.com/handyhub/dispatch-api/internal/domain/realtime"
	"github.com/handyhub/dispatch-api/internal/middleware"
	"github.com/handyhub/dispatch-api/internal/pkg/jwt"
	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
)

func newTestServer(t *testing.T) (http.Handler, *jwt.Service) {
	t.Helper()
	jwtSvc := jwt.NewService("main-test-secret", time.Hour)
	bookingSvc := booking.NewService(booking.NewRepository(recordstore.NewMemoryStore()))

	h := handlers{
		booking:  booking.NewHandler(bookingSvc),
		dispatch: dispatch.NewHandler(dispatch.NewService(bookingSvc, nil)),
		mapview:  mapview.NewHandler(bookingSvc, nil),
		realtime: realtime.NewHandler(realtime.NewHubWithInstanceID(nil, "test"), nil),
	}
	passThrough := func(next http.Handler) http.Handler { return next }
	return newRouter(h, middleware.Auth(jwtSvc), passThrough, nil), jwtSvc
}

func authed(t *testing.T, jwtSvc *jwt.Service, method, path, actor, role string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	token, err := jwtSvc.GenerateAccessToken(actor, role)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestNewRouter_BookingAndMapRoutesCoexist(t *testing.T) {
	router, jwtSvc := newTestServer(t)

	create := authed(t, jwtSvc, http.MethodPost, "/api/v1/bookings", "seek-1", jwt.RoleSeeker, map[string]any{
		"providerId": "prov-1",
		"jobTitle":   "Fix sink",
		"amount":     40,
		"location":   map[string]any{"latitude": 14.5995, "longitude": 120.9842},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, create)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var env struct {
		Data booking.BookingResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := env.Data.ID

	t.Run("booking route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authed(t, jwtSvc, http.MethodGet, "/api/v1/bookings/"+id, "prov-1", jwt.RoleProvider, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("map route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authed(t, jwtSvc, http.MethodGet, "/api/v1/bookings/"+id+"/map", "prov-1", jwt.RoleProvider, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if rr.Header().Get("ETag") == "" {
			t.Fatal("expected ETag header")
		}
	})

	t.Run("board route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authed(t, jwtSvc, http.MethodGet, "/api/v1/dispatch/board", "prov-1", jwt.RoleProvider, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestNewRouter_PublicAndUnauthenticated(t *testing.T) {
	router, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rr.Code)
	}

	for _, path := range []string{"/ws", "/api/v1/dispatch/board", "/api/v1/bookings/x/map"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rr.Code)
		}
	}
}
