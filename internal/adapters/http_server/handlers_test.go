package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "reservite/internal/adapters/http_server"
	redisad "reservite/internal/adapters/redis"
	"reservite/internal/app"
	"reservite/internal/domain"
	"reservite/internal/storage/memory"
)

type stubGateway struct {
	result domain.PaymentResult
	err    error
}

func (g *stubGateway) Charge(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResult, error) {
	return g.result, g.err
}

func newTestServer(t *testing.T) (http.Handler, *stubGateway) {
	t.Helper()
	store := memory.New()
	require.NoError(t, memory.Seed(context.Background(), store))
	gw := &stubGateway{result: domain.PaymentResult{ID: "PAY-1", Status: domain.PaymentCompleted}}

	q := app.NewQueryService(store, store, redisad.Nop{}, time.Minute)
	b := app.NewBookingService(q, store, gw, nil).
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) })

	srv := server.New(server.Options{CORSOrigins: []string{"http://localhost:3000"}, MaxBodyBytes: 4096})
	srv.MountHandlers(server.NewHandlers(q, b))
	return srv.Mux(), gw
}

func do(t *testing.T, h http.Handler, method, path string, body any, hdr map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

var user7 = map[string]string{"X-User-ID": "7", "X-User-Email": "ada@example.com"}

func booking(in, out string) map[string]any {
	return map[string]any{
		"hotelId": 1, "roomId": 1, "checkIn": in, "checkOut": out,
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "phone": "123",
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec, _ := do(t, h, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRooms(t *testing.T) {
	h, _ := newTestServer(t)

	rec, body := do(t, h, http.MethodGet, "/v1/hotels/1/rooms", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 3)

	rec, body = do(t, h, http.MethodGet, "/v1/hotels/1/rooms?checkIn=2024-06-01&checkOut=2024-06-04", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(3), first["nights"])
	assert.Equal(t, "450", first["total"])

	rec, _ = do(t, h, http.MethodGet, "/v1/hotels/1/rooms?checkIn=2024-06-01", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/v1/hotels/42/rooms", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestGetRoom_ETag(t *testing.T) {
	h, _ := newTestServer(t)

	rec, body := do(t, h, http.MethodGet, "/v1/hotels/1/rooms/2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "102", body["roomNumber"])
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec, _ = do(t, h, http.MethodGet, "/v1/hotels/1/rooms/2", nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/v1/hotels/1/rooms/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityQuote(t *testing.T) {
	h, _ := newTestServer(t)

	rec, body := do(t, h, http.MethodGet, "/v1/hotels/2/rooms/5/availability?checkIn=2024-06-01&checkOut=2024-06-03", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["available"], "room 202 is closed")
	assert.Equal(t, "800", body["total"])

	rec, _ = do(t, h, http.MethodGet, "/v1/hotels/2/rooms/5/availability", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationFlow(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := do(t, h, http.MethodPost, "/v1/reservations", booking("2024-06-01", "2024-06-04"), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/v1/reservations", booking("2024-06-01", "2024-06-04"), user7)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "450", body["totalPrice"])
	assert.Equal(t, float64(7), body["userId"])
	id := body["id"].(string)
	assert.Equal(t, "/v1/reservations/"+id, rec.Header().Get("Location"))

	rec, _ = do(t, h, http.MethodPost, "/v1/reservations", booking("2024-06-03", "2024-06-05"), user7)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/reservations/"+id+"/payments", map[string]any{"amount": 100}, user7)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/v1/reservations/"+id+"/payments", map[string]any{"amount": 450}, user7)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CONFIRMED", body["reservation"].(map[string]any)["status"])
	assert.Equal(t, "PAY-1", body["paymentId"])

	rec, body = do(t, h, http.MethodPost, "/v1/reservations/"+id+"/confirm-payment", map[string]any{"amount": "450", "paymentId": "PAY-1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, "replayed confirmation is a no-op")
	assert.Equal(t, "CONFIRMED", body["status"])

	rec, body = do(t, h, http.MethodGet, "/v1/me/reservations", nil, user7)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 1)

	rec, body = do(t, h, http.MethodGet, "/v1/users/7/reservations", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 1)

	rec, body = do(t, h, http.MethodDelete, "/v1/reservations/"+id, nil, user7)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", body["status"])

	rec, _ = do(t, h, http.MethodPost, "/v1/reservations/"+id+"/cancel", nil, user7)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/v1/reservations/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", body["status"])
}

func TestPayment_DeclinedAndApproval(t *testing.T) {
	h, gw := newTestServer(t)

	_, body := do(t, h, http.MethodPost, "/v1/reservations", booking("2024-06-01", "2024-06-02"), user7)
	id := body["id"].(string)

	gw.result, gw.err = domain.PaymentResult{}, domain.ErrPaymentDeclined
	rec, _ := do(t, h, http.MethodPost, "/v1/reservations/"+id+"/payments", map[string]any{"amount": 150}, user7)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	gw.result, gw.err = domain.PaymentResult{ID: "ORDER-1", Status: "CREATED", ApprovalURL: "https://pay.example/a"}, nil
	rec, body = do(t, h, http.MethodPost, "/v1/reservations/"+id+"/payments", map[string]any{"amount": 150}, user7)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "https://pay.example/a", body["approvalUrl"])
	assert.Equal(t, "PENDING", body["reservation"].(map[string]any)["status"])

	rec, body = do(t, h, http.MethodPost, "/v1/reservations/"+id+"/confirm-payment", map[string]any{"amount": 150, "paymentId": "ORDER-1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", body["status"])
}

func TestRequestValidation(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := do(t, h, http.MethodPost, "/v1/reservations", "{not json", user7)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := booking("2024-06-01", "2024-06-04")
	delete(bad, "firstName")
	rec, body := do(t, h, http.MethodPost, "/v1/reservations", bad, user7)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["detail"], "firstName")

	bad = booking("2024-06-01", "2024-06-04")
	bad["email"] = "nope"
	rec, body = do(t, h, http.MethodPost, "/v1/reservations", bad, user7)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["detail"], "email")

	rec, _ = do(t, h, http.MethodPost, "/v1/reservations", booking("2024-06-04", "2024-06-01"), user7)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/reservations", booking("06/01/2024", "2024-06-04"), user7)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/v1/reservations", `{"firstName":"`+strings.Repeat("a", 5000)+`"}`, user7)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/v1/reservations/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/v1/me/reservations", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentify_BearerTokenClaims(t *testing.T) {
	h, _ := newTestServer(t)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 9, "email": "bob@example.com"}).
		SignedString([]byte("any-secret"))
	require.NoError(t, err)

	rec, body := do(t, h, http.MethodPost, "/v1/reservations", booking("2024-07-01", "2024-07-03"),
		map[string]string{"Authorization": "Bearer " + tok})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(9), body["userId"])

	rec, _ = do(t, h, http.MethodPost, "/v1/reservations", booking("2024-08-01", "2024-08-03"),
		map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateReservation_EmailNeedsOnlyAnAt(t *testing.T) {
	h, _ := newTestServer(t)

	for i, email := range []string{"guest@hotel", "test@localhost", "a@b@c.com", "user@[127.0.0.1]", "jean dupont@mail.com"} {
		req := booking(fmt.Sprintf("2024-09-%02d", 1+2*i), fmt.Sprintf("2024-09-%02d", 2+2*i))
		req["email"] = email
		rec, body := do(t, h, http.MethodPost, "/v1/reservations", req, user7)
		require.Equal(t, http.StatusCreated, rec.Code, "%s: %s", email, rec.Body.String())
		assert.Equal(t, email, body["email"])
	}
}

func TestListReservations(t *testing.T) {
	h, _ := newTestServer(t)

	for _, stay := range [][2]string{{"2024-06-01", "2024-06-02"}, {"2024-06-02", "2024-06-03"}} {
		rec, _ := do(t, h, http.MethodPost, "/v1/reservations", booking(stay[0], stay[1]), user7)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, body := do(t, h, http.MethodGet, "/v1/reservations", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 2)
	assert.NotContains(t, body, "userId")

	rec, body = do(t, h, http.MethodGet, "/v1/reservations?limit=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 1)

	rec, _ = do(t, h, http.MethodGet, "/v1/reservations?limit=zero", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
