package models

import "time"

// Notification severity levels for the user inbox.
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Confirmation states for return/done claims.
const (
	ClaimPendingConfirmation = "pending_confirmation"
	ClaimConfirmed           = "confirmed"
	ClaimRejected            = "rejected"
	ClaimDismissed           = "dismissed"
)

// Notification is a user-facing inbox entry, immutable except for IsRead.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReturnNotification is a one-shot claim that borrowed equipment came back,
// awaiting admin confirmation.
type ReturnNotification struct {
	ID           int64     `db:"id" json:"id"`
	BorrowingID  int64     `db:"borrowing_id" json:"borrowing_id"`
	ReceiverName string    `db:"receiver_name" json:"receiver_name"`
	Status       string    `db:"status" json:"status"`
	Message      string    `db:"message" json:"message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ReturnNotificationDetail joins ledger context for the admin review queue.
type ReturnNotificationDetail struct {
	ReturnNotification
	EquipmentName     string `db:"equipment_name" json:"equipment_name"`
	BorrowerFirstName string `db:"borrower_first_name" json:"-"`
	BorrowerLastName  string `db:"borrower_last_name" json:"-"`
	BorrowerName      string `json:"borrower_name"`
}

// DoneNotification is a one-shot claim that a booking finished, awaiting
// admin confirmation.
type DoneNotification struct {
	ID              int64     `db:"id" json:"id"`
	BookingID       int64     `db:"booking_id" json:"booking_id"`
	CompletionNotes string    `db:"completion_notes" json:"completion_notes"`
	Status          string    `db:"status" json:"status"`
	Message         string    `db:"message" json:"message"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// DoneNotificationDetail joins ledger context for the admin review queue.
type DoneNotificationDetail struct {
	DoneNotification
	FacilityName    string `db:"facility_name" json:"facility_name"`
	BookerFirstName string `db:"booker_first_name" json:"-"`
	BookerLastName  string `db:"booker_last_name" json:"-"`
	BookerName      string `json:"booker_name"`
}
