package models

import "fmt"

// Viewer is the authenticated caller of a ledger operation. It is a closed set:
// AdminViewer, TeacherViewer or StudentViewer.
type Viewer interface {
	ViewerID() string
	viewer()
}

// AdminViewer may read and write every point entry.
type AdminViewer struct{ UserID string }

// TeacherViewer issues points as themselves and manages only their own entries.
type TeacherViewer struct{ UserID string }

// StudentViewer may only read their own history and standing.
type StudentViewer struct{ UserID string }

func (v AdminViewer) ViewerID() string   { return v.UserID }
func (v TeacherViewer) ViewerID() string { return v.UserID }
func (v StudentViewer) ViewerID() string { return v.UserID }

func (AdminViewer) viewer()   {}
func (TeacherViewer) viewer() {}
func (StudentViewer) viewer() {}

// NewViewer maps a stored role onto its viewer variant.
func NewViewer(userID string, role UserRole) (Viewer, error) {
	if userID == "" {
		return nil, fmt.Errorf("viewer: empty user id")
	}
	switch role {
	case RoleAdmin:
		return AdminViewer{UserID: userID}, nil
	case RoleTeacher:
		return TeacherViewer{UserID: userID}, nil
	case RoleStudent:
		return StudentViewer{UserID: userID}, nil
	default:
		return nil, fmt.Errorf("viewer: unknown role %q", role)
	}
}
