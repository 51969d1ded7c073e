package models

// RankingEntry is one row of the student leaderboard.
type RankingEntry struct {
	Rank       int     `db:"-" json:"rank"`
	StudentID  string  `db:"id" json:"student_id"`
	Name       string  `db:"name" json:"name"`
	Photo      *string `db:"photo" json:"photo,omitempty"`
	RombelName *string `db:"rombel_name" json:"rombel_name,omitempty"`
	KelasName  *string `db:"kelas_name" json:"kelas_name,omitempty"`
	Points     int     `db:"points" json:"points"`
}

// RankingFilter scopes the leaderboard to a class (kelas) or sub-group (rombel).
type RankingFilter struct {
	KelasID  string
	RombelID string
	Limit    int
}
