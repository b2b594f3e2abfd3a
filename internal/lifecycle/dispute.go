package lifecycle

import (
	"fmt"

	"github.com/blues/lcs/internal/model"
)

// disputeTable 争议子状态机：只允许 Started* -> Resolved*
var disputeTable = map[model.DisputeStatus][]model.DisputeStatus{
	model.DisputeStatusStartedBorrower: {
		model.DisputeStatusResolvedBorrower,
		model.DisputeStatusResolvedLender,
	},
	model.DisputeStatusStartedLender: {
		model.DisputeStatusResolvedBorrower,
		model.DisputeStatusResolvedLender,
	},
	model.DisputeStatusResolvedBorrower: {},
	model.DisputeStatusResolvedLender:   {},
}

// ValidateDisputeTransition 校验争议状态变化
func ValidateDisputeTransition(from, to model.DisputeStatus) error {
	if from == to {
		return nil
	}

	targets, ok := disputeTable[from]
	if !ok {
		return fmt.Errorf("%w: unknown dispute status %q", ErrIllegalTransition, from)
	}
	for _, t := range targets {
		if t == to {
			return nil
		}
	}
	return fmt.Errorf("%w: dispute %s -> %s", ErrIllegalTransition, from, to)
}

// CanOpenDispute 父合约处于非终态且未在争议中时才能发起争议
func CanOpenDispute(c *model.Contract) bool {
	return !c.Status.IsTerminal() && !c.Status.IsDispute()
}
