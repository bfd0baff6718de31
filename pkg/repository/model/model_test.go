package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestTurn_MergeDoesNotAlias(t *testing.T) {
	orig := Turn{ID: "t1", ClientName: "Ana", Notes: ptr("fade")}
	merged := orig.Merge(TurnPatch{Status: ptr(TurnInProgress), Notes: ptr("skin fade")})

	assert.Equal(t, TurnInProgress, merged.Status)
	assert.Equal(t, "skin fade", *merged.Notes)
	assert.Equal(t, "fade", *orig.Notes)

	*merged.Notes = "mutated"
	assert.Equal(t, "fade", *orig.Notes)
}

func TestUser_Merge(t *testing.T) {
	u := User{ID: "u1", Name: "Luis", Role: RoleBarber}
	got := u.Merge(UserPatch{Email: ptr("luis@example.com")})
	assert.Equal(t, "Luis", got.Name)
	assert.Equal(t, "luis@example.com", got.Email)
	assert.Equal(t, RoleBarber, got.Role)
}

func TestTurnRecord_DecodeBackendPayload(t *testing.T) {
	raw := `{"id":"42","client_name":"Carlos","service":"Corte","status":"waiting",
		"estimated_time":30,"created_at":"2025-03-01T10:00:00Z","barbero_id":"b7"}`

	var rec TurnRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	turn := rec.Turn()

	assert.Equal(t, "42", turn.ID)
	assert.Equal(t, TurnWaiting, turn.Status)
	assert.Equal(t, 30, turn.EstimatedTime)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), turn.CreatedAt)
	require.NotNil(t, turn.BarberID)
	assert.Equal(t, "b7", *turn.BarberID)
	assert.Nil(t, turn.ClientPhone)
}

func TestTurnRecord_UnknownStatusAcceptedAsIs(t *testing.T) {
	var rec TurnRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","status":"on_hold"}`), &rec))
	assert.Equal(t, TurnStatus("on_hold"), rec.Turn().Status)
}

func TestSettings_Merge(t *testing.T) {
	s := DefaultSettings().Merge(SettingsPatch{Theme: ptr("dark"), RefreshInterval: ptr(60)})
	assert.Equal(t, "dark", s.Theme)
	assert.Equal(t, 60, s.RefreshInterval)
	assert.True(t, s.NotificationsEnabled)
}
