/*
handlers.go - HTTP API handlers for the booking and settlement core

PURPOSE:
  Exposes the capacity allocator, booking ledger, and settlement engine
  via REST API. Handles HTTP request/response, JSON serialization, and
  delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET    /api/units                     List sellable units
    POST   /api/units                     Register a sellable unit
    GET    /api/units/{id}/capacity       Capacity window (?from=&to=)

  Bookings:
    POST   /api/bookings                  Create booking (veto -> allocate -> emit)
    POST   /api/bookings/{id}/cancel      Cancel booking (release + offset)

  Stop-sell:
    POST   /api/stopsell                  Block sales for a unit/date range

  Settlements:
    GET    /api/settlements               List summaries (?month=&status=&agency_id=)
    GET    /api/settlements/export        CSV export (same filters)
    POST   /api/settlements/recompute     Recompute one bucket or all
    POST   /api/settlements/{agency}/{month}/{currency}/confirm
    POST   /api/settlements/{agency}/{month}/{currency}/dispute
    POST   /api/settlements/{agency}/{month}/{currency}/reopen

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Business rejection (CAPACITY_NOT_AVAILABLE, STOP_SELL_ACTIVE,
         SETTLEMENT_LOCKED, duplicate ledger entry)
  - 500: Internal errors
  Business rejections carry a machine-readable code so clients branch on
  Code, never on the message text.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tourvia/booking-core/booking"
	"github.com/tourvia/booking-core/inventory"
	"github.com/tourvia/booking-core/ledger"
	"github.com/tourvia/booking-core/settlement"
	"github.com/tourvia/booking-core/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Bookings   *booking.Service
	Allocator  *inventory.Allocator
	Aggregator *settlement.Aggregator
	States     *settlement.StateMachine
	Log        *logrus.Logger
}

// NewHandler wires the full domain stack on top of one store.
func NewHandler(store *sqlite.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	allocator := inventory.NewAllocator(store, store)
	emitter := ledger.NewEmitter(store, store, ledger.AnchorBookingDate)
	return &Handler{
		Store:      store,
		Bookings:   booking.NewService(allocator, emitter, store, store),
		Allocator:  allocator,
		Aggregator: settlement.NewAggregator(store, store, log),
		States:     settlement.NewStateMachine(store),
		Log:        log,
	}
}

// =============================================================================
// CATALOG ENDPOINTS
// =============================================================================

// ListUnits returns all sellable units.
// GET /api/units
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.ListUnits(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list units", err)
		return
	}

	dtos := make([]UnitDTO, 0, len(units))
	for _, u := range units {
		dtos = append(dtos, toUnitDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateUnit registers a sellable unit.
// POST /api/units
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	if req.MaxPerDay < 0 {
		writeError(w, http.StatusBadRequest, "max_per_day must be >= 0", nil)
		return
	}

	mode := inventory.CapacityMode(req.CapacityMode)
	if mode == "" {
		mode = inventory.ModePax
	}
	if mode != inventory.ModePax && mode != inventory.ModeUnits {
		writeError(w, http.StatusBadRequest, "capacity_mode must be pax or units", nil)
		return
	}

	unit := inventory.SellableUnit{
		ID:              inventory.UnitID(req.ID),
		Name:            req.Name,
		Mode:            mode,
		MaxPerDay:       req.MaxPerDay,
		OverbookAllowed: req.OverbookAllowed,
	}
	if err := h.Store.PutUnit(r.Context(), unit); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create unit", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUnitDTO(unit))
}

// GetCapacity returns the day-by-day availability window for a unit.
// GET /api/units/{id}/capacity?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	unitID := inventory.UnitID(chi.URLParam(r, "id"))

	from, err := inventory.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := inventory.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "from must not be after to", nil)
		return
	}

	window, err := h.Allocator.Window(r.Context(), unitID, from, to)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dtos := make([]CapacityDayDTO, 0, len(window))
	for _, day := range window {
		dtos = append(dtos, CapacityDayDTO{
			Date:       string(day.Date),
			Consumed:   day.Consumed,
			MaxPerDay:  day.MaxPerDay,
			Overbooked: day.Overbooked,
			Status:     string(day.Status),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStopSell blocks sales for a unit over a date range.
// POST /api/stopsell
func (h *Handler) CreateStopSell(w http.ResponseWriter, r *http.Request) {
	var req StopSellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	from, err := inventory.ParseDate(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := inventory.ParseDate(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "from must not be after to", nil)
		return
	}

	unit, err := h.Store.GetUnit(r.Context(), inventory.UnitID(req.UnitID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up unit", err)
		return
	}
	if unit == nil {
		writeError(w, http.StatusNotFound, "Unit not found", nil)
		return
	}

	rule := inventory.StopSellRule{
		ID:     uuid.NewString(),
		UnitID: unit.ID,
		From:   from,
		To:     to,
		Reason: req.Reason,
	}
	if err := h.Store.AddStopSell(r.Context(), rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create stop-sell rule", err)
		return
	}

	writeJSON(w, http.StatusCreated, StopSellDTO{
		ID:     rule.ID,
		UnitID: string(rule.UnitID),
		From:   string(rule.From),
		To:     string(rule.To),
		Reason: rule.Reason,
	})
}

// =============================================================================
// BOOKING ENDPOINTS
// =============================================================================

// CreateBooking runs the full inbound flow: stop-sell veto, capacity
// allocation, ledger emit. A capacity or stop-sell rejection is a 409
// with a machine-readable code; the rejected allocation (when one was
// recorded) is included in the error details for the audit trail.
// POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := inventory.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	var serviceDate inventory.Date
	if req.ServiceDate != "" {
		serviceDate, err = inventory.ParseDate(req.ServiceDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid service_date (use YYYY-MM-DD)", err)
			return
		}
	}
	gross, err := decimal.NewFromString(req.Gross)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid gross amount", err)
		return
	}
	commission, err := decimal.NewFromString(req.Commission)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid commission amount", err)
		return
	}

	result, err := h.Bookings.CreateBooking(r.Context(), booking.CreateBookingInput{
		UnitID:       inventory.UnitID(req.UnitID),
		Date:         date,
		RequestedQty: req.RequestedQty,
		AgencyID:     ledger.AgencyID(req.AgencyID),
		SupplierID:   ledger.SupplierID(req.SupplierID),
		Gross:        gross,
		Commission:   commission,
		Currency:     req.Currency,
		ServiceDate:  serviceDate,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	// The summary is a cache over the ledger; refresh it eagerly so
	// listings stay current without waiting for the next recompute run.
	h.refreshSummary(r, result.Entry)

	entry := toEntryDTO(result.Entry)
	writeJSON(w, http.StatusCreated, BookingResponseDTO{
		BookingID:  string(result.BookingID),
		Allocation: toAllocationDTO(result.Allocation),
		Entry:      &entry,
	})
}

// CancelBooking releases the allocation and offsets the ledger entry.
// POST /api/bookings/{id}/cancel
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := inventory.AllocationID(chi.URLParam(r, "id"))

	var req CancelBookingRequest
	if r.Body != nil {
		// Body is optional for cancels.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.Bookings.CancelBooking(r.Context(), id, req.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.refreshSummary(r, result.Entry)

	resp := BookingResponseDTO{
		BookingID:  string(result.BookingID),
		Allocation: toAllocationDTO(result.Allocation),
	}
	if result.Entry.ID != "" {
		entry := toEntryDTO(result.Entry)
		resp.Entry = &entry
	}
	writeJSON(w, http.StatusOK, resp)
}

// refreshSummary recomputes the settlement bucket touched by an entry.
// Best effort: the recompute endpoint can always rebuild the cache.
func (h *Handler) refreshSummary(r *http.Request, entry ledger.Entry) {
	if entry.ID == "" {
		return
	}
	key := ledger.Key{AgencyID: entry.AgencyID, Month: entry.EntryMonth, Currency: entry.Currency}
	if _, err := h.Aggregator.Recompute(r.Context(), key); err != nil {
		h.Log.WithError(err).WithField("month", key.Month).Warn("summary refresh failed")
	}
}

// =============================================================================
// SETTLEMENT ENDPOINTS
// =============================================================================

// ListSettlements returns settlement summaries matching the filters.
// GET /api/settlements?month=YYYY-MM&status=open&agency_id=AG1
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.listSummaries(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settlements", err)
		return
	}

	dtos := make([]SummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		dtos = append(dtos, toSummaryDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportSettlements streams the filtered summaries as CSV.
// GET /api/settlements/export?month=YYYY-MM&status=&agency_id=
func (h *Handler) ExportSettlements(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.listSummaries(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settlements", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="settlements.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"agency_id", "month", "currency", "gross", "commission", "net", "entry_count", "status"})
	for _, s := range summaries {
		cw.Write([]string{
			string(s.Key.AgencyID),
			s.Key.Month,
			s.Key.Currency,
			s.Gross.String(),
			s.Commission.String(),
			s.Net.String(),
			fmt.Sprintf("%d", s.EntryCount),
			string(s.Status),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		// Headers are gone by now; a dropped connection can only be logged.
		h.Log.WithError(err).Warn("Settlement export write failed")
	}
}

func (h *Handler) listSummaries(r *http.Request) ([]settlement.Summary, error) {
	q := r.URL.Query()
	return h.Store.ListSummaries(r.Context(), settlement.Filter{
		AgencyID: ledger.AgencyID(q.Get("agency_id")),
		Month:    q.Get("month"),
		Status:   settlement.Status(q.Get("status")),
	})
}

// RecomputeSettlements rebuilds summaries from the ledger. With a fully
// specified bucket in the body it recomputes that one; with an empty body
// it recomputes every bucket present in the ledger. Idempotent either way.
// POST /api/settlements/recompute
func (h *Handler) RecomputeSettlements(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.AgencyID != "" || req.Month != "" || req.Currency != "" {
		if req.AgencyID == "" || req.Month == "" || req.Currency == "" {
			writeError(w, http.StatusBadRequest, "agency_id, month and currency must all be set to target one bucket", nil)
			return
		}
		summary, err := h.Aggregator.Recompute(r.Context(), ledger.Key{
			AgencyID: ledger.AgencyID(req.AgencyID),
			Month:    req.Month,
			Currency: req.Currency,
		})
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []SummaryDTO{toSummaryDTO(summary)})
		return
	}

	summaries, err := h.Aggregator.RecomputeAll(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	dtos := make([]SummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		dtos = append(dtos, toSummaryDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ConfirmSettlement records one party's confirmation.
// POST /api/settlements/{agency}/{month}/{currency}/confirm
func (h *Handler) ConfirmSettlement(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	summary, err := h.States.Confirm(r.Context(), settlementKey(r), settlement.Role(req.Role))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// DisputeSettlement freezes the summary pending manual review.
// POST /api/settlements/{agency}/{month}/{currency}/dispute
func (h *Handler) DisputeSettlement(w http.ResponseWriter, r *http.Request) {
	var req DisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	summary, err := h.States.Dispute(r.Context(), settlementKey(r), req.Reason)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// ReopenSettlement returns a disputed summary to open.
// POST /api/settlements/{agency}/{month}/{currency}/reopen
func (h *Handler) ReopenSettlement(w http.ResponseWriter, r *http.Request) {
	summary, err := h.States.Reopen(r.Context(), settlementKey(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

func settlementKey(r *http.Request) ledger.Key {
	return ledger.Key{
		AgencyID: ledger.AgencyID(chi.URLParam(r, "agency")),
		Month:    chi.URLParam(r, "month"),
		Currency: chi.URLParam(r, "currency"),
	}
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// ResetDatabase clears all data (dev/demo only).
// POST /api/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// Machine-readable rejection codes. Clients branch on these, never on the
// human-readable message.
const (
	codeCapacityNotAvailable = "CAPACITY_NOT_AVAILABLE"
	codeStopSellActive       = "STOP_SELL_ACTIVE"
	codeSettlementLocked     = "SETTLEMENT_LOCKED"
)

// writeDomainError maps a domain error to an HTTP status and, for business
// rejections, a machine-readable code.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var capErr *inventory.CapacityError
	if errors.As(err, &capErr) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Requested quantity does not fit the remaining capacity",
			Code:    codeCapacityNotAvailable,
			Details: capErr.Error(),
		})
		return
	}

	var stopErr *inventory.StopSellError
	if errors.As(err, &stopErr) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Sales are blocked for this unit and date",
			Code:    codeStopSellActive,
			Details: stopErr.Error(),
		})
		return
	}

	if errors.Is(err, settlement.ErrSettlementLocked) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Settlement is locked",
			Code:    codeSettlementLocked,
			Details: err.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, inventory.ErrUnitNotFound),
		errors.Is(err, inventory.ErrAllocationNotFound),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, settlement.ErrSummaryNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)

	case errors.Is(err, ledger.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, "A ledger entry already exists for this allocation", err)

	case inventory.IsClientError(err), ledger.IsClientError(err), settlement.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)

	default:
		h.Log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// =============================================================================
// DTO CONVERSION + RESPONSE HELPERS
// =============================================================================

func toUnitDTO(u inventory.SellableUnit) UnitDTO {
	return UnitDTO{
		ID:              string(u.ID),
		Name:            u.Name,
		CapacityMode:    string(u.Mode),
		MaxPerDay:       u.MaxPerDay,
		OverbookAllowed: u.OverbookAllowed,
	}
}

func toAllocationDTO(a inventory.Allocation) AllocationDTO {
	return AllocationDTO{
		ID:           string(a.ID),
		UnitID:       string(a.UnitID),
		Date:         string(a.Date),
		RequestedQty: a.RequestedQty,
		Granted:      a.Granted,
		Overbook:     a.Overbook,
		Reason:       string(a.Reason),
		Released:     a.Released,
		CreatedAt:    a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toEntryDTO(e ledger.Entry) EntryDTO {
	return EntryDTO{
		ID:           string(e.ID),
		BookingID:    string(e.BookingID),
		AgencyID:     string(e.AgencyID),
		SupplierID:   string(e.SupplierID),
		AllocationID: string(e.AllocationID),
		Gross:        e.Gross.String(),
		Commission:   e.Commission.String(),
		Net:          e.Net.String(),
		Currency:     e.Currency,
		BookingDate:  string(e.BookingDate),
		ServiceDate:  string(e.ServiceDate),
		EntryMonth:   e.EntryMonth,
		OffsetOf:     string(e.OffsetOf),
		Reason:       e.Reason,
		CreatedAt:    e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toSummaryDTO(s settlement.Summary) SummaryDTO {
	return SummaryDTO{
		AgencyID:      string(s.Key.AgencyID),
		Month:         s.Key.Month,
		Currency:      s.Key.Currency,
		Gross:         s.Gross.String(),
		Commission:    s.Commission.String(),
		Net:           s.Net.String(),
		EntryCount:    s.EntryCount,
		Status:        string(s.Status),
		DisputeReason: s.DisputeReason,
		UpdatedAt:     s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
