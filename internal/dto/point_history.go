package dto

// AwardPointsRequest is the payload of POST /point-history.
type AwardPointsRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	IssuerID  string `json:"issuer_id"`
	Points    int    `json:"points" validate:"required,min=-2147483648,max=2147483647"`
	Reason    string `json:"reason" validate:"max=500"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// AmendPointsRequest is the payload of PUT /point-history/:id. Empty StudentID,
// IssuerID or Date keep the entry's current value.
type AmendPointsRequest struct {
	StudentID string `json:"student_id"`
	IssuerID  string `json:"issuer_id"`
	Points    int    `json:"points" validate:"required,min=-2147483648,max=2147483647"`
	Reason    string `json:"reason" validate:"max=500"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// PointHistoryQuery holds the GET /point-history query string.
type PointHistoryQuery struct {
	StudentID string `form:"studentId"`
	IssuerID  string `form:"issuerId"`
	RombelID  string `form:"rombelId"`
	KelasID   string `form:"kelasId"`
	Date      string `form:"date" validate:"omitempty,datetime=2006-01-02"`
	DateFrom  string `form:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	Limit     int    `form:"limit" validate:"gte=0"`
}

// RankingQuery holds the GET /rankings query string.
type RankingQuery struct {
	KelasID  string `form:"kelasId"`
	RombelID string `form:"rombelId"`
	Limit    int    `form:"limit" validate:"gte=0,lte=100"`
}
