package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func chain(statuses ...ApprovalStatus) []*ApprovalTransaction {
	out := make([]*ApprovalTransaction, len(statuses))
	for i, s := range statuses {
		out[i] = &ApprovalTransaction{ID: string(rune('a' + i)), Status: s, StepOrder: i + 1}
	}
	return out
}

func TestDeriveOverallStatus(t *testing.T) {
	tests := []struct {
		name  string
		chain []*ApprovalTransaction
		want  OverallStatus
	}{
		{"empty chain", nil, OverallNotStarted},
		{"single pending", chain(ApprovalPending), OverallPending},
		{"all approved", chain(ApprovalApprove, ApprovalApprove), OverallApprove},
		{"approved then pending", chain(ApprovalApprove, ApprovalPending), OverallPending},
		{"any reject wins", chain(ApprovalApprove, ApprovalReject, ApprovalPending), OverallReject},
		{"referral awaiting target", chain(ApprovalApprove, ApprovalRefer, ApprovalPending), OverallPending},
		{"referral then approve", chain(ApprovalRefer, ApprovalApprove), OverallApprove},
		{"only referral rows", chain(ApprovalRefer), OverallPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOverallStatus(tt.chain))
		})
	}
}

func TestPendingFor(t *testing.T) {
	c := chain(ApprovalApprove, ApprovalPending)
	assert.Equal(t, c[1], PendingFor(c))
	assert.Nil(t, PendingFor(chain(ApprovalApprove)))
}

func TestProcess_NextStep(t *testing.T) {
	p := &Process{ID: "p1", Title: "PO Approval", Steps: []ProcessStep{
		{ID: "s3", Order: 3, DesignationID: "cfo"},
		{ID: "s1", Order: 1, DesignationID: "manager"},
		{ID: "s2", Order: 2, DesignationID: "director"},
	}}

	next, ok := p.NextStep(0)
	assert.True(t, ok)
	assert.Equal(t, "s1", next.ID)

	next, ok = p.NextStep(2)
	assert.True(t, ok)
	assert.Equal(t, "s3", next.ID)

	_, ok = p.NextStep(3)
	assert.False(t, ok)

	// Input order is preserved.
	assert.Equal(t, "s3", p.Steps[0].ID)
}

func TestParseDecision(t *testing.T) {
	got, err := ParseDecision(" Approve ")
	assert.NoError(t, err)
	assert.Equal(t, ApprovalApprove, got)

	_, err = ParseDecision("pending")
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestOverallStatus_IsTerminal(t *testing.T) {
	assert.True(t, OverallApprove.IsTerminal())
	assert.True(t, OverallReject.IsTerminal())
	assert.False(t, OverallPending.IsTerminal())
	assert.False(t, OverallNotStarted.IsTerminal())
}
