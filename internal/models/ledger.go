package models

import "time"

// RequestStatus captures the shared lifecycle of ledger requests.
type RequestStatus string

const (
	StatusPending   RequestStatus = "Pending"
	StatusApproved  RequestStatus = "Approved"
	StatusRejected  RequestStatus = "Rejected"
	StatusCompleted RequestStatus = "Completed"
)

// ReturnStatusReturned is the terminal return state of a borrowing.
const ReturnStatusReturned = "Returned"

// Borrowing is an equipment request in the ledger.
type Borrowing struct {
	ID            int64         `db:"id" json:"id"`
	BorrowedItem  int64         `db:"borrowed_item" json:"borrowed_item"`
	BorrowersID   int64         `db:"borrowers_id" json:"borrowers_id"`
	Purpose       string        `db:"purpose" json:"purpose"`
	StartDate     string        `db:"start_date" json:"start_date"`
	EndDate       string        `db:"end_date" json:"end_date"`
	ReturnDate    string        `db:"return_date" json:"return_date"`
	RequestStatus RequestStatus `db:"request_status" json:"request_status"`
	Availability  string        `db:"availability" json:"availability"`
	ReturnStatus  *string       `db:"return_status" json:"return_status,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// BorrowingDetail joins equipment and borrower context for admin listings.
type BorrowingDetail struct {
	Borrowing
	EquipmentName     string  `db:"equipment_name" json:"equipment_name"`
	BorrowerFirstName string  `db:"borrower_first_name" json:"-"`
	BorrowerLastName  string  `db:"borrower_last_name" json:"-"`
	BorrowerName      string  `json:"borrower_name"`
	DateReturned      *string `json:"date_returned,omitempty"`
}

// Booking is a facility reservation request in the ledger.
type Booking struct {
	ID         int64         `db:"id" json:"id"`
	BookersID  int64         `db:"bookers_id" json:"bookers_id"`
	FacilityID int64         `db:"facility_id" json:"facility_id"`
	Purpose    string        `db:"purpose" json:"purpose"`
	StartDate  string        `db:"start_date" json:"start_date"`
	EndDate    string        `db:"end_date" json:"end_date"`
	ReturnDate *string       `db:"return_date" json:"return_date,omitempty"`
	Status     RequestStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// BookingDetail joins facility and booker context for admin listings.
type BookingDetail struct {
	Booking
	FacilityName    string `db:"facility_name" json:"facility_name"`
	BookerFirstName string `db:"booker_first_name" json:"-"`
	BookerLastName  string `db:"booker_last_name" json:"-"`
	BookerName      string `json:"booker_name"`
}

// Acquiring is a supply stock request in the ledger.
type Acquiring struct {
	ID          int64         `db:"id" json:"id"`
	AcquirersID int64         `db:"acquirers_id" json:"acquirers_id"`
	SupplyID    int64         `db:"supply_id" json:"supply_id"`
	Quantity    int           `db:"quantity" json:"quantity"`
	Purpose     *string       `db:"purpose" json:"purpose,omitempty"`
	Status      RequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// AcquiringDetail joins supply and acquirer context for admin listings.
type AcquiringDetail struct {
	Acquiring
	SupplyName        string  `db:"supply_name" json:"supply_name"`
	FacilityName      *string `db:"facility_name" json:"facility_name,omitempty"`
	AcquirerFirstName string  `db:"acquirer_first_name" json:"-"`
	AcquirerLastName  string  `db:"acquirer_last_name" json:"-"`
	AcquirerName      string  `json:"acquirer_name"`
}

// CreateBorrowingRequest is the payload for a new borrowing.
type CreateBorrowingRequest struct {
	BorrowedItem int64  `json:"borrowed_item" validate:"required"`
	BorrowersID  int64  `json:"borrowers_id" validate:"required"`
	Purpose      string `json:"purpose" validate:"required"`
	StartDate    string `json:"start_date" validate:"required"`
	EndDate      string `json:"end_date" validate:"required"`
	ReturnDate   string `json:"return_date" validate:"required"`
}

// CreateBookingRequest is the payload for a new booking.
type CreateBookingRequest struct {
	BookersID  int64  `json:"bookers_id" validate:"required"`
	FacilityID int64  `json:"facility_id" validate:"required"`
	Purpose    string `json:"purpose" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
	ReturnDate string `json:"return_date"`
}

// CreateAcquiringRequest is the payload for a new acquiring request.
type CreateAcquiringRequest struct {
	AcquirersID int64  `json:"acquirers_id" validate:"required"`
	SupplyID    int64  `json:"supply_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Purpose     string `json:"purpose"`
}

// BulkStatusRequest approves or rejects a batch of ledger requests.
type BulkStatusRequest struct {
	IDs    []int64       `json:"ids" validate:"required,min=1"`
	Status RequestStatus `json:"status" validate:"required"`
}

// BulkDeleteRequest removes a batch of ledger requests.
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

// MarkReturnedRequest is a requester's claim that equipment came back.
type MarkReturnedRequest struct {
	BorrowingIDs []int64 `json:"borrowing_ids" validate:"required,min=1"`
	ReceiverName string  `json:"receiver_name" validate:"required"`
}

// MarkDoneRequest is a requester's claim that a booking finished.
type MarkDoneRequest struct {
	BookingIDs      []int64 `json:"booking_ids" validate:"required,min=1"`
	CompletionNotes string  `json:"completion_notes"`
}

// ConfirmReturnRequest resolves a return claim.
type ConfirmReturnRequest struct {
	NotificationID int64 `json:"notification_id" validate:"required"`
	BorrowingID    int64 `json:"borrowing_id" validate:"required"`
}

// RejectReturnRequest dismisses a return claim.
type RejectReturnRequest struct {
	NotificationID int64 `json:"notification_id" validate:"required"`
}

// ConfirmDoneRequest resolves a completion claim.
type ConfirmDoneRequest struct {
	NotificationID int64 `json:"notification_id" validate:"required"`
	BookingID      int64 `json:"booking_id" validate:"required"`
}

// DismissDoneRequest dismisses a completion claim.
type DismissDoneRequest struct {
	NotificationID int64 `json:"notification_id" validate:"required"`
}
