package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/dispatch"
	"github.com/handyhub/dispatch-api/internal/domain/mapview"
	"github.com/handyhub/dispatch-api/internal/middleware"
	"github.com/handyhub/dispatch-api/internal/pkg/jwt"
	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
	"github.com/handyhub/dispatch-api/internal/pkg/refresh"
)

const testSecret = "client-test-secret"

func passThrough(next http.Handler) http.Handler { return next }

// newTestAPI serves the real booking, dispatch and map handlers over a memory store.
func newTestAPI(t *testing.T) (*httptest.Server, *jwt.Service) {
	t.Helper()

	jwtSvc := jwt.NewService(testSecret, time.Hour)
	auth := middleware.Auth(jwtSvc)

	bookingSvc := booking.NewService(booking.NewRepository(recordstore.NewMemoryStore()))
	dispatchSvc := dispatch.NewService(bookingSvc, nil)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/bookings/{id}/map", mapview.NewHandler(bookingSvc, nil).Routes(auth))
		r.Mount("/bookings", booking.NewHandler(bookingSvc).Routes(auth, passThrough))
		r.Mount("/dispatch", dispatch.NewHandler(dispatchSvc).Routes(auth))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, jwtSvc
}

func clientFor(t *testing.T, srv *httptest.Server, jwtSvc *jwt.Service, actorID, role string) *Client {
	t.Helper()
	token, err := jwtSvc.GenerateAccessToken(actorID, role)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return New(srv.URL, token, 5*time.Second)
}

func floatPtr(v float64) *float64 { return &v }

// forward replays r against target and copies the response into w.
func forward(w http.ResponseWriter, r *http.Request, target string) {
	req, _ := http.NewRequestWithContext(r.Context(), r.Method, target+r.URL.RequestURI(), r.Body)
	req.Header = r.Header.Clone()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

func createBooking(t *testing.T, seeker *Client, title string) *booking.BookingResponse {
	t.Helper()
	created, err := seeker.Create(context.Background(), &booking.CreateRequest{
		ProviderID: "prov-1",
		JobTitle:   title,
		Amount:     50,
		Location:   &booking.LocationInput{Latitude: floatPtr(14.5995), Longitude: floatPtr(120.9842)},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created
}

func TestClientRoundTrip(t *testing.T) {
	srv, jwtSvc := newTestAPI(t)
	seeker := clientFor(t, srv, jwtSvc, "seek-1", jwt.RoleSeeker)
	provider := clientFor(t, srv, jwtSvc, "prov-1", jwt.RoleProvider)
	ctx := context.Background()

	created := createBooking(t, seeker, "Fix sink")

	board, err := provider.Board(ctx)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board.Actionable) != 1 || board.Actionable[0].Booking.ID != created.ID {
		t.Fatalf("unexpected board %+v", board)
	}

	res, err := provider.Transition(ctx, created.ID, booking.StatusAccepted)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !res.Changed || res.Booking.Status != "accepted" {
		t.Fatalf("unexpected transition %+v", res)
	}

	_, err = provider.Transition(ctx, created.ID, booking.StatusDeclined)
	if !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("expected already decided, got %v", err)
	}
	if refresh.IsRetryable(err) {
		t.Fatal("already decided must not be retryable")
	}

	html, etag, err := seeker.Map(ctx, created.ID)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if etag == "" || !strings.Contains(string(html), "leaflet") {
		t.Fatalf("unexpected map page etag=%q", etag)
	}

	if _, err := seeker.Get(ctx, "missing"); !errors.Is(err, booking.ErrBookingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAPIErrorRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"success":false,"error":{"code":"STORE_UNAVAILABLE","message":"down","details":{"retryable":"true"}}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t", time.Second).Board(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "STORE_UNAVAILABLE" {
		t.Fatalf("expected API error, got %v", err)
	}
	if !refresh.IsRetryable(err) || !errors.Is(err, booking.ErrStoreUnavailable) {
		t.Fatalf("expected retryable store failure, got %v", err)
	}
}

func TestSessionDecideRollsBackOnFailure(t *testing.T) {
	var fail atomic.Bool
	srv, jwtSvc := newTestAPI(t)

	// Proxy that can turn decisions into 503s.
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() && r.Method == http.MethodPatch {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"success":false,"error":{"code":"STORE_UNAVAILABLE","message":"down"}}`))
			return
		}
		forward(w, r, srv.URL)
	}))
	defer proxy.Close()

	seeker := clientFor(t, srv, jwtSvc, "seek-1", jwt.RoleSeeker)
	first := createBooking(t, seeker, "Fix sink")
	second := createBooking(t, seeker, "Paint wall")

	token, _ := jwtSvc.GenerateAccessToken("prov-1", jwt.RoleProvider)
	session := NewSession(New(proxy.URL, token, 5*time.Second))
	ctx := context.Background()

	if _, err := session.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	before := session.Actionable()
	if len(before) != 2 {
		t.Fatalf("expected 2 actionable, got %d", len(before))
	}

	fail.Store(true)
	_, err := session.Decide(ctx, first.ID, booking.StatusAccepted)
	if err == nil || !refresh.IsRetryable(err) {
		t.Fatalf("expected retryable failure, got %v", err)
	}
	after := session.Actionable()
	if len(after) != 2 || after[0].Booking.ID != before[0].Booking.ID || after[1].Booking.ID != before[1].Booking.ID {
		t.Fatalf("list not restored: %+v", after)
	}

	fail.Store(false)
	res, err := session.Decide(ctx, first.ID, booking.StatusAccepted)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !res.Changed {
		t.Fatal("expected change")
	}
	remaining := session.Actionable()
	if len(remaining) != 1 || remaining[0].Booking.ID != second.ID {
		t.Fatalf("unexpected actionable after decision: %+v", remaining)
	}
	board, ok := session.Board()
	if !ok || len(board.History) != 1 {
		t.Fatalf("expected decided booking in history, got %+v", board)
	}
}

func TestSessionDecideDiscardsReloadStartedBeforeIt(t *testing.T) {
	srv, jwtSvc := newTestAPI(t)

	// The next board request is answered from a snapshot taken before the
	// decision, and only once release is closed.
	var hold atomic.Bool
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/dispatch/board") && hold.CompareAndSwap(true, false) {
			snapshot := httptest.NewRecorder()
			forward(snapshot, r, srv.URL)
			entered <- struct{}{}
			<-release
			for k, v := range snapshot.Header() {
				w.Header()[k] = v
			}
			w.WriteHeader(snapshot.Code)
			w.Write(snapshot.Body.Bytes())
			return
		}
		forward(w, r, srv.URL)
	}))
	defer proxy.Close()

	seeker := clientFor(t, srv, jwtSvc, "seek-1", jwt.RoleSeeker)
	first := createBooking(t, seeker, "Fix sink")
	second := createBooking(t, seeker, "Paint wall")

	token, _ := jwtSvc.GenerateAccessToken("prov-1", jwt.RoleProvider)
	session := NewSession(New(proxy.URL, token, 5*time.Second))
	ctx := context.Background()

	if _, err := session.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n := len(session.Actionable()); n != 2 {
		t.Fatalf("expected 2 actionable, got %d", n)
	}

	hold.Store(true)
	reloaded := make(chan error, 1)
	go func() {
		_, err := session.Refresh(ctx)
		reloaded <- err
	}()
	<-entered

	res, err := session.Decide(ctx, first.ID, booking.StatusAccepted)
	if err != nil {
		close(release)
		t.Fatalf("decide: %v", err)
	}
	if !res.Changed {
		t.Fatal("expected change")
	}
	if n := len(session.Actionable()); n != 1 {
		t.Fatalf("expected 1 actionable right after the decision, got %d", n)
	}

	close(release)
	if err := <-reloaded; err != nil {
		t.Fatalf("reload: %v", err)
	}

	remaining := session.Actionable()
	if len(remaining) != 1 || remaining[0].Booking.ID != second.ID {
		t.Fatalf("decided booking came back as actionable: %+v", remaining)
	}
	board, ok := session.Board()
	if !ok || len(board.History) != 1 || board.History[0].Booking.ID != first.ID || board.History[0].Booking.Status != "accepted" {
		t.Fatalf("expected accepted booking in history, got %+v", board)
	}
}
