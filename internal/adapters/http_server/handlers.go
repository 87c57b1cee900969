// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reservite/internal/app"
	"reservite/internal/domain"
)

type Handlers struct {
	Q        *app.QueryService
	B        *app.BookingService
	validate *validator.Validate
}

func NewHandlers(q *app.QueryService, b *app.BookingService) *Handlers {
	return &Handlers{Q: q, B: b, validate: validator.New()}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/hotels/{hotelID}/rooms", h.listRooms)
		r.Get("/hotels/{hotelID}/rooms/{roomID}", h.getRoom)
		r.Get("/hotels/{hotelID}/rooms/{roomID}/availability", h.roomAvailability)

		r.Get("/reservations", h.listReservations)
		r.Post("/reservations", h.createReservation)
		r.Get("/reservations/{id}", h.getReservation)
		r.Delete("/reservations/{id}", h.cancelReservation)
		r.Post("/reservations/{id}/cancel", h.cancelReservation)
		r.Post("/reservations/{id}/payments", h.payReservation)
		r.Post("/reservations/{id}/confirm-payment", h.confirmPayment)

		r.Get("/users/{userID}/reservations", h.listUserReservations)
		r.Get("/me/reservations", h.listMyReservations)
	})
}

/* ---------- response helpers ---------- */

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors to problem responses. Unknown errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrAmountMismatch):
		writeProblem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
	case errors.Is(err, domain.ErrRoomUnavailable), errors.Is(err, domain.ErrPersistenceConflict), errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrPaymentDeclined):
		writeProblem(w, http.StatusPaymentRequired, "Payment Required", err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Gateway Timeout", "upstream did not answer in time; nothing was confirmed")
	default:
		log.Error().Err(err).Str("route", routeOf(r)).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached answers with an ETag and honours If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cached body")
	}
}

/* ---------- request helpers ---------- */

func pathInt(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number", name)
	}
	return n, nil
}

func pathUUID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("id must be a UUID")
	}
	return id, nil
}

// queryStay reads checkIn/checkOut. Both absent returns nil; only one present
// is an error.
func queryStay(r *http.Request) (*domain.DateRange, error) {
	in, out := r.URL.Query().Get("checkIn"), r.URL.Query().Get("checkOut")
	if in == "" && out == "" {
		return nil, nil
	}
	if in == "" || out == "" {
		return nil, fmt.Errorf("%w: checkIn and checkOut go together", domain.ErrInvalidRange)
	}
	stay, err := domain.ParseDateRange(in, out)
	if err != nil {
		return nil, err
	}
	return &stay, nil
}

// decode reads a JSON body into dst and validates it. It writes the problem
// response itself and reports whether the handler may go on.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "Payload Too Large",
				fmt.Sprintf("body exceeds %d bytes", mbe.Limit))
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, jsonName(fe.Field())+" ("+fe.Tag()+")")
			}
			writeProblem(w, http.StatusUnprocessableEntity, "Unprocessable Entity",
				domain.ErrMissingField.Error()+": "+strings.Join(fields, ", "))
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return false
	}
	return true
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	if strings.HasSuffix(field, "ID") {
		field = strings.TrimSuffix(field, "ID") + "Id"
	}
	return strings.ToLower(field[:1]) + field[1:]
}

/* ---------- rooms ---------- */

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathInt(r, "hotelID")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	stay, err := queryStay(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.Q.ListRoomsWithAvailability(r.Context(), hotelID, stay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]availabilityResponse, 0, len(out))
	for _, ra := range out {
		items = append(items, toAvailability(ra, stay))
	}
	writeCached(w, r, roomListResponse{HotelID: hotelID, Items: items})
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathInt(r, "hotelID")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	roomID, err := pathInt(r, "roomID")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	room, err := h.Q.GetRoom(r.Context(), hotelID, roomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, toRoom(room))
}

func (h *Handlers) roomAvailability(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathInt(r, "hotelID")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	roomID, err := pathInt(r, "roomID")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	stay, err := queryStay(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if stay == nil {
		writeProblem(w, http.StatusBadRequest, "Missing dates", "checkIn and checkOut are required")
		return
	}
	q, err := h.Q.Quote(r.Context(), hotelID, roomID, *stay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailability(q, stay))
}

/* ---------- reservations ---------- */

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	if !actor.Known() {
		writeError(w, r, fmt.Errorf("%w: sign in to book", domain.ErrUnauthenticated))
		return
	}
	var req createReservationRequest
	if !h.decode(w, r, &req) {
		return
	}
	stay, err := domain.ParseDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.B.Create(r.Context(), actor, app.CreateReservation{
		HotelID: req.HotelID,
		RoomID:  req.RoomID,
		Stay:    stay,
		Guest: domain.Guest{
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Phone:           req.Phone,
			SpecialRequests: req.SpecialRequests,
		},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/reservations/"+res.ID.String())
	writeJSON(w, http.StatusCreated, toReservation(res))
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	res, err := h.Q.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservation(res))
}

func (h *Handlers) cancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	res, err := h.B.Cancel(r.Context(), ActorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservation(res))
}

func (h *Handlers) payReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.B.Pay(r.Context(), ActorFrom(r.Context()), id, *req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if out.Reservation.Status == domain.StatusPending {
		status = http.StatusAccepted
	}
	writeJSON(w, status, paymentResponse{
		Reservation: toReservation(out.Reservation),
		PaymentID:   out.PaymentID,
		ApprovalURL: out.ApprovalURL,
	})
}

func (h *Handlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	var req confirmPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.B.ConfirmPayment(r.Context(), ActorFrom(r.Context()), id, *req.Amount, req.PaymentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservation(res))
}

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	rs, err := h.Q.ListReservations(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationListResponse{Items: toReservations(rs)})
}

func (h *Handlers) listUserReservations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", err.Error())
		return
	}
	h.writeUserReservations(w, r, userID)
}

func (h *Handlers) listMyReservations(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	if !actor.Known() {
		writeError(w, r, fmt.Errorf("%w: no current user", domain.ErrUnauthenticated))
		return
	}
	h.writeUserReservations(w, r, actor.UserID)
}

func (h *Handlers) writeUserReservations(w http.ResponseWriter, r *http.Request, userID int64) {
	rs, err := h.Q.ListReservationsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reservationListResponse{UserID: userID, Items: toReservations(rs)})
}
