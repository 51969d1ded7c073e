package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// CanIssuePoints reports whether users with this role may appear as the issuer of a point entry.
func (r UserRole) CanIssuePoints() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// User represents an account stored in the users table. Points is the cached
// ledger total and is only ever written by the point ledger transaction.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	RombelID     *string   `db:"rombel_id" json:"rombel_id,omitempty"`
	Photo        *string   `db:"photo" json:"photo,omitempty"`
	Points       int       `db:"points" json:"points"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentStanding is a student's current total alongside the size of their history.
type StudentStanding struct {
	StudentID  string  `db:"id" json:"student_id"`
	Name       string  `db:"name" json:"name"`
	RombelName *string `db:"rombel_name" json:"rombel_name,omitempty"`
	KelasName  *string `db:"kelas_name" json:"kelas_name,omitempty"`
	Points     int     `db:"points" json:"points"`
	EntryCount int     `db:"entry_count" json:"entry_count"`
}

// PointDrift reports a student whose cached total disagrees with their history.
type PointDrift struct {
	StudentID string `db:"id" json:"student_id"`
	Name      string `db:"name" json:"name"`
	Cached    int    `db:"cached" json:"cached"`
	Ledger    int    `db:"ledger" json:"ledger"`
}

// Difference is how far the cached total is ahead of the history sum.
func (d PointDrift) Difference() int {
	return d.Cached - d.Ledger
}
