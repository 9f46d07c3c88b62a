package permission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyApprovesEverything(t *testing.T) {
	d, err := Dummy{}.Request(context.Background(), Request{Tool: "rm_rf"})
	require.NoError(t, err)
	assert.Equal(t, Approve, d)
}

func TestPolicyGate_FirstMatchWins(t *testing.T) {
	g, err := NewPolicyGate([]Rule{
		{Pattern: "fs_write", Decision: Deny},
		{Pattern: "fs_*", Decision: ApproveAlways},
		{Pattern: "*", Decision: Approve},
	}, Deny)
	require.NoError(t, err)

	cases := []struct {
		tool string
		want Decision
	}{
		{"fs_write", Deny},
		{"fs_read", ApproveAlways},
		{"grep", Approve},
	}
	for _, tc := range cases {
		got, err := g.Request(context.Background(), Request{Tool: tc.tool})
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "tool %s", tc.tool)
	}
}

func TestPolicyGate_DefaultDecision(t *testing.T) {
	g, err := NewPolicyGate([]Rule{{Pattern: "safe_*", Decision: Approve}}, Deny)
	require.NoError(t, err)
	got, err := g.Request(context.Background(), Request{Tool: "shell"})
	require.NoError(t, err)
	assert.Equal(t, Deny, got)

	// Empty default falls back to approve.
	g, err = NewPolicyGate(nil, "")
	require.NoError(t, err)
	got, err = g.Request(context.Background(), Request{Tool: "anything"})
	require.NoError(t, err)
	assert.Equal(t, Approve, got)
}

func TestPolicyGate_Validation(t *testing.T) {
	_, err := NewPolicyGate([]Rule{{Pattern: "[", Decision: Approve}}, Approve)
	assert.Error(t, err, "invalid pattern")

	_, err = NewPolicyGate([]Rule{{Pattern: "*", Decision: Decision("maybe")}}, Approve)
	assert.Error(t, err, "invalid decision")

	_, err = NewPolicyGate(nil, Decision("whatever"))
	assert.Error(t, err, "invalid default")
}
