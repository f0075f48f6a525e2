package models

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		tutor    Decision
		hr       Decision
		expected OverallStatus
	}{
		{DecisionPending, DecisionPending, StatusPending},
		{DecisionApproved, DecisionPending, StatusInReview},
		{DecisionRejected, DecisionPending, StatusRejected},
		{DecisionApproved, DecisionApproved, StatusApproved},
		{DecisionApproved, DecisionRejected, StatusRejected},
	}
	for _, tc := range cases {
		got, err := DeriveStatus(tc.tutor, tc.hr)
		require.NoError(t, err)
		require.Equal(t, tc.expected, got)
	}
}

func TestDeriveStatusRejectsUnreachableCombinations(t *testing.T) {
	unreachable := [][2]Decision{
		{DecisionPending, DecisionApproved},
		{DecisionPending, DecisionRejected},
		{DecisionRejected, DecisionApproved},
		{DecisionRejected, DecisionRejected},
		{Decision("MAYBE"), DecisionPending},
	}
	for _, pair := range unreachable {
		_, err := DeriveStatus(pair[0], pair[1])
		require.Error(t, err)
		require.Equal(t, appErrors.ErrCorruptState.Code, appErrors.FromError(err).Code)
	}
}

func TestRequestTypeHelpers(t *testing.T) {
	require.True(t, RequestTypeLeave.Valid())
	require.True(t, RequestTypeLeave.RequiresDateRange())
	require.True(t, RequestTypeCertificate.Valid())
	require.False(t, RequestTypeCertificate.RequiresDateRange())
	require.False(t, RequestType("VACATION").Valid())

	require.True(t, DecisionApproved.Terminal())
	require.True(t, DecisionRejected.Terminal())
	require.False(t, DecisionPending.Terminal())
}
