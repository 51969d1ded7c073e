package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViewerDispatchesOnRole(t *testing.T) {
	v, err := NewViewer("u-1", RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, TeacherViewer{UserID: "u-1"}, v)

	v, err = NewViewer("u-2", RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "u-2", v.ViewerID())

	_, err = NewViewer("u-3", UserRole("siswa"))
	assert.Error(t, err)
	_, err = NewViewer("", RoleAdmin)
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)

	raw, err := json.Marshal(struct {
		EventDate Date `json:"event_date"`
	}{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event_date":"2024-01-15"}`, string(raw))

	var decoded Date
	require.Error(t, json.Unmarshal([]byte(`"15/01/2024"`), &decoded))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 1, 12, 17, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-12", d.String())

	require.NoError(t, d.Scan([]byte("2024-01-10T00:00:00Z")))
	assert.Equal(t, "2024-01-10", d.String())

	assert.Error(t, d.Scan(42))
}
