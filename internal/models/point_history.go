package models

import "time"

// PointHistoryEntry is one award event in the ledger. Points is signed:
// positive for merit, negative for demerit.
type PointHistoryEntry struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	IssuerID  string    `db:"issuer_id" json:"issuer_id"`
	Points    int       `db:"points" json:"points"`
	Reason    string    `db:"reason" json:"reason"`
	EventDate Date      `db:"event_date" json:"event_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PointHistoryDetail is an entry joined with the names the dashboards display.
type PointHistoryDetail struct {
	PointHistoryEntry
	StudentName  *string `db:"student_name" json:"student_name,omitempty"`
	StudentPhoto *string `db:"student_photo" json:"student_photo,omitempty"`
	IssuerName   *string `db:"issuer_name" json:"issuer_name,omitempty"`
	RombelName   *string `db:"rombel_name" json:"rombel_name,omitempty"`
	KelasName    *string `db:"kelas_name" json:"kelas_name,omitempty"`
}

// PointHistoryFilter narrows history queries. Zero values mean "no filter".
type PointHistoryFilter struct {
	StudentID string
	IssuerID  string
	RombelID  string
	KelasID   string
	DateFrom  *Date
	DateTo    *Date
	Limit     int
}
