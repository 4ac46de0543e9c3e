package activity_test

import (
	"testing"

	"github.com/goliatone/go-directory/activity"
	"github.com/goliatone/go-directory/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestSanitizeRecord_MasksDenylistedKeys(t *testing.T) {
	record := types.ActivityRecord{
		Verb: "profile.updated",
		Data: map[string]any{
			"username": "alice",
			"token":    "s3cr3t-value",
		},
	}

	sanitized := activity.SanitizeRecord(nil, record)
	require.Equal(t, "alice", sanitized.Data["username"])
	require.NotEqual(t, "s3cr3t-value", sanitized.Data["token"])
	require.Equal(t, "s3cr3t-value", record.Data["token"], "input record is not mutated")
}

func TestSanitizeRecords_EmptyPayloads(t *testing.T) {
	require.Empty(t, activity.SanitizeRecords(nil, nil))

	out := activity.SanitizeRecords(nil, []types.ActivityRecord{{Verb: "counter.reset"}})
	require.Len(t, out, 1)
	require.Empty(t, out[0].Data)
}
