package claim

import (
	"github.com/btcsuite/btcd/btcutil/psbt"

	"github.com/blues/lcs/internal/model"
)

// Variant 取回流程的两种形态
type Variant string

const (
	// VariantClaim 合作取回：还款确认后使用，PSBT 已含出借人预签名
	VariantClaim Variant = "claim"
	// VariantRecover 时间锁恢复：违约/过期后的借款人单方路径
	VariantRecover Variant = "recover"
)

// Step 流程步骤。三步严格串行：请求 -> 签名 -> 广播。
type Step int

const (
	StepRequest Step = iota
	StepSign
	StepBroadcast
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepRequest:
		return "request"
	case StepSign:
		return "sign"
	case StepBroadcast:
		return "broadcast"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// Workflow 单次取回尝试的短生命周期状态对象。
// 不是持久化状态机：换费率重新发起总是安全的，广播成功之前
// 后端不会有任何状态变化。
type Workflow struct {
	AttemptID  string
	ContractID string
	Variant    Variant
	FeeRate    float64

	step     Step
	contract *model.Contract
	bundle   *model.ClaimPsbtBundle
	packet   *psbt.Packet
	signedTx string
	txid     string
}

// Step 当前所处步骤
func (w *Workflow) Step() Step {
	return w.step
}

// Txid 广播成功后的交易ID
func (w *Workflow) Txid() string {
	return w.txid
}
