package audit_test

import (
	"context"
	"testing"

	"github.com/mizusawa-dev/clique/audit"
	"github.com/mizusawa-dev/clique/model"
	"github.com/mizusawa-dev/clique/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogAndFlushOnStop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := audit.New(db, zap.NewNop())

	userID := "11111111-1111-1111-1111-111111111111"
	svc.Log(audit.Entry{
		TraceID:  "trace-1",
		UserID:   &userID,
		Action:   "friend.request",
		TargetID: "22222222-2222-2222-2222-222222222222",
		Request:  map[string]string{"friendId": "22222222-2222-2222-2222-222222222222"},
		IP:       "10.0.0.1",
	})
	svc.Log(audit.Entry{
		TraceID: "trace-2",
		Action:  "community.join",
		Error:   "community CONFLICT",
	})

	// Stop drains the queue before returning.
	svc.Stop(context.Background())

	var logs []model.AuditLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)

	assert.Equal(t, "friend.request", logs[0].Action)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, userID, *logs[0].UserID)
	assert.JSONEq(t, `{"friendId":"22222222-2222-2222-2222-222222222222"}`, string(logs[0].Request))

	assert.Equal(t, "community.join", logs[1].Action)
	assert.Nil(t, logs[1].UserID)
	assert.Equal(t, "community CONFLICT", logs[1].Error)
}

func TestStopIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := audit.New(db, zap.NewNop())
	svc.Stop(context.Background())
	svc.Stop(context.Background())
}
