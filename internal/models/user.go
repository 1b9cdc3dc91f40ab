package models

import "time"

// UserRole represents the available roles for the access control system.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEmployee UserRole = "EMPLOYEE"
)

// Account status values mirror the request ledger vocabulary.
const (
	AccountStatusPending  = "Pending"
	AccountStatusApproved = "Approved"
	AccountStatusRejected = "Rejected"
)

// User represents an application user stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Department   string     `db:"department" json:"department"`
	PhoneNumber  string     `db:"phone_number" json:"phone_number"`
	Role         UserRole   `db:"role" json:"role"`
	Status       string     `db:"status" json:"status"`
	Approved     bool       `db:"approved" json:"approved"`
	Employee     bool       `db:"employee" json:"employee"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the stored name parts for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// AccountRequest tracks a registration awaiting administrator review.
type AccountRequest struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Email       string    `db:"email" json:"email"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Department  string    `db:"department" json:"department"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	Role        UserRole  `db:"role" json:"role"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Approved *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
