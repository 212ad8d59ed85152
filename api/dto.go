/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts cross the wire as decimal strings ("120.50"), never floats.
  Handlers parse them with shopspring/decimal.

VALIDATION:
  Validation is done in handlers and domain services, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Route wiring
*/
package api

// =============================================================================
// ERROR RESPONSE
// =============================================================================

// ErrorResponse is the uniform error body. Code carries the machine-readable
// rejection code (CAPACITY_NOT_AVAILABLE, STOP_SELL_ACTIVE, SETTLEMENT_LOCKED)
// when the failure is a structured business rejection.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CATALOG
// =============================================================================

// UnitDTO represents a sellable unit in API responses.
type UnitDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CapacityMode    string `json:"capacity_mode"`
	MaxPerDay       int    `json:"max_per_day"`
	OverbookAllowed bool   `json:"overbook_allowed"`
}

// CreateUnitRequest is the request to register a sellable unit.
type CreateUnitRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CapacityMode    string `json:"capacity_mode"`
	MaxPerDay       int    `json:"max_per_day"`
	OverbookAllowed bool   `json:"overbook_allowed"`
}

// =============================================================================
// CAPACITY
// =============================================================================

// CapacityDayDTO is one day in a capacity window response.
type CapacityDayDTO struct {
	Date       string `json:"date"`
	Consumed   int    `json:"consumed"`
	MaxPerDay  int    `json:"max_per_day"`
	Overbooked bool   `json:"overbooked"`
	Status     string `json:"status"`
}

// StopSellRequest blocks sales for a unit over a date range.
type StopSellRequest struct {
	UnitID string `json:"unit_id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// StopSellDTO represents a registered stop-sell rule.
type StopSellDTO struct {
	ID     string `json:"id"`
	UnitID string `json:"unit_id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// =============================================================================
// BOOKINGS
// =============================================================================

// CreateBookingRequest is the inbound booking payload.
type CreateBookingRequest struct {
	UnitID       string `json:"unit_id"`
	Date         string `json:"date"`
	RequestedQty int    `json:"requested_qty"`

	AgencyID   string `json:"agency_id"`
	SupplierID string `json:"supplier_id"`
	Gross      string `json:"gross"`
	Commission string `json:"commission"`
	Currency   string `json:"currency"`
	// ServiceDate defaults to the allocation date when omitted.
	ServiceDate string `json:"service_date,omitempty"`
}

// CancelBookingRequest carries the optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AllocationDTO represents an allocation decision in API responses.
// Rejections are returned too (granted=false) so clients can show the
// audit trail.
type AllocationDTO struct {
	ID           string `json:"id"`
	UnitID       string `json:"unit_id"`
	Date         string `json:"date"`
	RequestedQty int    `json:"requested_qty"`
	Granted      bool   `json:"granted"`
	Overbook     bool   `json:"overbook"`
	Reason       string `json:"reason"`
	Released     bool   `json:"released"`
	CreatedAt    string `json:"created_at"`
}

// EntryDTO represents a ledger entry in API responses.
type EntryDTO struct {
	ID           string `json:"id"`
	BookingID    string `json:"booking_id"`
	AgencyID     string `json:"agency_id"`
	SupplierID   string `json:"supplier_id"`
	AllocationID string `json:"allocation_id"`
	Gross        string `json:"gross"`
	Commission   string `json:"commission"`
	Net          string `json:"net"`
	Currency     string `json:"currency"`
	BookingDate  string `json:"booking_date"`
	ServiceDate  string `json:"service_date"`
	EntryMonth   string `json:"entry_month"`
	OffsetOf     string `json:"offset_of,omitempty"`
	Reason       string `json:"reason,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// BookingResponseDTO wraps the full outcome of a create or cancel.
type BookingResponseDTO struct {
	BookingID  string        `json:"booking_id,omitempty"`
	Allocation AllocationDTO `json:"allocation"`
	Entry      *EntryDTO     `json:"entry,omitempty"`
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

// SummaryDTO represents a settlement summary in API responses.
type SummaryDTO struct {
	AgencyID      string `json:"agency_id"`
	Month         string `json:"month"`
	Currency      string `json:"currency"`
	Gross         string `json:"gross"`
	Commission    string `json:"commission"`
	Net           string `json:"net"`
	EntryCount    int    `json:"entry_count"`
	Status        string `json:"status"`
	DisputeReason string `json:"dispute_reason,omitempty"`
	UpdatedAt     string `json:"updated_at"`
}

// ConfirmRequest names the confirming party: "agency" or "hotel".
type ConfirmRequest struct {
	Role string `json:"role"`
}

// DisputeRequest carries the mandatory dispute reason.
type DisputeRequest struct {
	Reason string `json:"reason"`
}

// RecomputeRequest targets one settlement bucket; all zero values means
// recompute every bucket present in the ledger.
type RecomputeRequest struct {
	AgencyID string `json:"agency_id,omitempty"`
	Month    string `json:"month,omitempty"`
	Currency string `json:"currency,omitempty"`
}
