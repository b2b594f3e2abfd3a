package lifecycle

import (
	"errors"
	"fmt"

	"github.com/blues/lcs/internal/model"
)

// ErrIllegalTransition 观察到状态表之外的状态跳变
var ErrIllegalTransition = errors.New("illegal contract status transition")

// transitionTable 合约状态表。唯一权威，任何不在表中的跳变一律拒绝。
var transitionTable = map[model.ContractStatus][]model.ContractStatus{
	model.ContractStatusRequested: {
		model.ContractStatusApproved,
		model.ContractStatusRejected,
		model.ContractStatusCancelled,
		model.ContractStatusRequestExpired,
	},
	model.ContractStatusRenewalRequested: {
		model.ContractStatusApproved,
		model.ContractStatusRejected,
		model.ContractStatusCancelled,
		model.ContractStatusRequestExpired,
	},
	model.ContractStatusApproved: {
		model.ContractStatusCollateralSeen,
	},
	model.ContractStatusCollateralSeen: {
		model.ContractStatusCollateralConfirmed,
	},
	model.ContractStatusCollateralConfirmed: {
		model.ContractStatusPrincipalGiven,
	},
	model.ContractStatusPrincipalGiven: {
		model.ContractStatusRepaymentProvided,
		model.ContractStatusUndercollateralized,
		model.ContractStatusDefaulted,
		model.ContractStatusExtended,
	},
	model.ContractStatusRepaymentProvided: {
		model.ContractStatusRepaymentConfirmed,
	},
	model.ContractStatusRepaymentConfirmed: {
		model.ContractStatusClosing,
	},
	model.ContractStatusClosing: {
		model.ContractStatusClosed,
	},
	model.ContractStatusUndercollateralized: {
		model.ContractStatusDefaulted,
		model.ContractStatusDisputeBorrowerStarted,
		model.ContractStatusDisputeLenderStarted,
	},
	model.ContractStatusDefaulted: {
		model.ContractStatusDisputeBorrowerStarted,
		model.ContractStatusDisputeLenderStarted,
		model.ContractStatusClosed,
	},
	model.ContractStatusDisputeBorrowerStarted: {
		model.ContractStatusDisputeBorrowerResolved,
		model.ContractStatusDisputeLenderResolved,
	},
	model.ContractStatusDisputeLenderStarted: {
		model.ContractStatusDisputeBorrowerResolved,
		model.ContractStatusDisputeLenderResolved,
	},
	model.ContractStatusDisputeBorrowerResolved: {
		model.ContractStatusClosed,
	},
	model.ContractStatusDisputeLenderResolved: {
		model.ContractStatusClosed,
	},
	// 续约后旧合约由新合约的结清推动关闭
	model.ContractStatusExtended: {
		model.ContractStatusClosed,
	},

	// 终态没有出边
	model.ContractStatusRejected:       {},
	model.ContractStatusRequestExpired: {},
	model.ContractStatusClosed:         {},
	model.ContractStatusCancelled:      {},
}

// ValidateTransition 校验一次外部观察到的状态变化是否在状态表之内。
// 本引擎不产生事件，只校验 (old, new)；非法跳变返回 ErrIllegalTransition，
// 由调用方记录数据完整性告警，绝不静默接受。
func ValidateTransition(from, to model.ContractStatus) error {
	if from == to {
		return nil
	}

	targets, ok := transitionTable[from]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, from)
	}
	for _, t := range targets {
		if t == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// Successors 返回某状态的全部合法后继（副本）
func Successors(from model.ContractStatus) []model.ContractStatus {
	targets := transitionTable[from]
	out := make([]model.ContractStatus, len(targets))
	copy(out, targets)
	return out
}
