package models

import appErrors "github.com/kjebali/stagehub-api/pkg/errors"

// DeriveStatus computes the overall request status from the two decision
// fields. The invariants guarantee only five combinations are reachable;
// anything else means the row was mutated outside the decision recorder
// and is reported as corrupt rather than guessed at.
func DeriveStatus(tutor, hr Decision) (OverallStatus, error) {
	switch {
	case tutor == DecisionPending && hr == DecisionPending:
		return StatusPending, nil
	case tutor == DecisionRejected && hr == DecisionPending:
		return StatusRejected, nil
	case tutor == DecisionApproved && hr == DecisionPending:
		return StatusInReview, nil
	case tutor == DecisionApproved && hr == DecisionApproved:
		return StatusApproved, nil
	case tutor == DecisionApproved && hr == DecisionRejected:
		return StatusRejected, nil
	}
	return "", appErrors.Wrap(nil, appErrors.ErrCorruptState.Code, appErrors.ErrCorruptState.Status,
		"unreachable decision combination "+string(tutor)+"/"+string(hr))
}
