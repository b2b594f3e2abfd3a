package claim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blues/lcs/internal/lifecycle"
	"github.com/blues/lcs/internal/logger"
	"github.com/blues/lcs/internal/model"
	"github.com/blues/lcs/internal/wallet"
)

var (
	// ErrClaimInProgress 同一合约已有取回流程在执行，重入直接拒绝，不排队
	ErrClaimInProgress = errors.New("a claim is already in progress for this contract")
	// ErrPreconditionNotMet 合约状态不满足取回前置条件
	ErrPreconditionNotMet = errors.New("contract status does not allow this claim")
)

// PsbtSource 后端取回接口。每次请求都返回全新的候选 PSBT，不产生状态变化。
type PsbtSource interface {
	RequestClaim(ctx context.Context, contractID string, feeRate float64) (*model.ClaimPsbtBundle, error)
	RequestRecovery(ctx context.Context, contractID string, feeRate float64) (*model.ClaimPsbtBundle, error)
	BroadcastClaim(ctx context.Context, contractID, signedTx string) (string, error)
	BroadcastRecovery(ctx context.Context, contractID, signedTx string) (string, error)
}

// Recorder 取回尝试的结果记录（只存元数据，不存 PSBT）
type Recorder interface {
	CreateAttempt(attemptID, contractID, variant string, feeRate float64) error
	MarkBroadcast(attemptID, txid string) error
	MarkFailed(attemptID, reason string) error
	MarkAbandoned(attemptID string) error
}

// Manager 取回流程编排器。保证同一合约同一时刻最多一个流程在执行，
// 并在钱包锁定时保留流程现场，解锁后从签名步骤继续。
type Manager struct {
	source   PsbtSource
	signer   wallet.Signer
	recorder Recorder
	verifier *Verifier

	mu      sync.Mutex
	running map[string]bool      // contractID -> 执行中
	parked  map[string]*Workflow // contractID -> 等待钱包解锁的流程
}

// NewManager 创建取回流程编排器
func NewManager(source PsbtSource, signer wallet.Signer, recorder Recorder, verifier *Verifier) *Manager {
	return &Manager{
		source:   source,
		signer:   signer,
		recorder: recorder,
		verifier: verifier,
		running:  make(map[string]bool),
		parked:   make(map[string]*Workflow),
	}
}

// Run 执行一次完整的取回流程：请求 PSBT -> 钱包签名 -> 广播。
// 三步严格串行。广播失败原样返回，由调用方决定是否换费率重试；
// 钱包锁定时保留现场并返回 wallet.ErrWalletLocked，解锁后用相同
// 参数再次调用会从签名步骤继续，不会重新请求 PSBT。
func (m *Manager) Run(ctx context.Context, contract *model.Contract, variant Variant, feeRate float64) (string, error) {
	if err := checkPrecondition(contract, variant); err != nil {
		return "", err
	}

	wf, err := m.acquire(contract, variant, feeRate)
	if err != nil {
		return "", err
	}
	defer m.release(contract.ID)

	if wf.step == StepRequest {
		if err := m.stepRequest(ctx, wf); err != nil {
			m.recorder.MarkFailed(wf.AttemptID, err.Error())
			return "", err
		}
	}

	if err := m.stepSign(ctx, wf); err != nil {
		if errors.Is(err, wallet.ErrWalletLocked) {
			// 保留现场，等待解锁后继续签名步骤
			m.park(wf)
			logger.Warn("Wallet locked while signing %s for contract %s, workflow parked",
				wf.Variant, wf.ContractID)
			return "", err
		}
		m.recorder.MarkFailed(wf.AttemptID, err.Error())
		return "", err
	}

	txid, err := m.stepBroadcast(ctx, wf)
	if err != nil {
		// 费率过低、已被花费、重复取回等原因原样透传，绝不静默重试
		m.recorder.MarkFailed(wf.AttemptID, err.Error())
		return "", err
	}

	m.recorder.MarkBroadcast(wf.AttemptID, txid)
	logger.Info("Broadcast %s tx %s for contract %s", wf.Variant, txid, wf.ContractID)
	return txid, nil
}

// Abandon 放弃某合约等待中的流程。签名前放弃没有任何需要回滚的状态。
func (m *Manager) Abandon(contractID string) {
	m.mu.Lock()
	wf := m.parked[contractID]
	delete(m.parked, contractID)
	m.mu.Unlock()

	if wf != nil {
		m.recorder.MarkAbandoned(wf.AttemptID)
		logger.Info("Abandoned %s workflow for contract %s at step %s", wf.Variant, contractID, wf.step)
	}
}

// acquire 获取合约的互斥执行权并确定本次使用的流程对象
func (m *Manager) acquire(contract *model.Contract, variant Variant, feeRate float64) (*Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running[contract.ID] {
		return nil, fmt.Errorf("%w: %s", ErrClaimInProgress, contract.ID)
	}

	var wf *Workflow
	if parked := m.parked[contract.ID]; parked != nil {
		if parked.Variant == variant && parked.FeeRate == feeRate && parked.step == StepSign {
			// 钱包解锁后的重试：继续上次的签名步骤
			wf = parked
			wf.contract = contract
		} else {
			// 参数变化视为放弃旧流程，重新开始
			m.recorder.MarkAbandoned(parked.AttemptID)
		}
		delete(m.parked, contract.ID)
	}

	if wf == nil {
		wf = &Workflow{
			AttemptID:  uuid.NewString(),
			ContractID: contract.ID,
			Variant:    variant,
			FeeRate:    feeRate,
			step:       StepRequest,
			contract:   contract,
		}
		if err := m.recorder.CreateAttempt(wf.AttemptID, wf.ContractID, string(variant), feeRate); err != nil {
			return nil, fmt.Errorf("failed to record claim attempt: %w", err)
		}
	}

	m.running[contract.ID] = true
	return wf, nil
}

func (m *Manager) release(contractID string) {
	m.mu.Lock()
	delete(m.running, contractID)
	m.mu.Unlock()
}

func (m *Manager) park(wf *Workflow) {
	m.mu.Lock()
	m.parked[wf.ContractID] = wf
	m.mu.Unlock()
}

// stepRequest 第一步：向后端请求 PSBT 并校验
func (m *Manager) stepRequest(ctx context.Context, wf *Workflow) error {
	var (
		bundle *model.ClaimPsbtBundle
		err    error
	)
	switch wf.Variant {
	case VariantClaim:
		bundle, err = m.source.RequestClaim(ctx, wf.ContractID, wf.FeeRate)
	case VariantRecover:
		bundle, err = m.source.RequestRecovery(ctx, wf.ContractID, wf.FeeRate)
	default:
		return fmt.Errorf("unknown claim variant %q", wf.Variant)
	}
	if err != nil {
		return err
	}

	packet, err := m.verifier.ParseBundle(bundle, wf.contract, wf.Variant)
	if err != nil {
		return err
	}

	wf.bundle = bundle
	wf.packet = packet
	wf.step = StepSign
	return nil
}

// stepSign 第二步：委托钱包补签并校验返回的交易
func (m *Manager) stepSign(ctx context.Context, wf *Workflow) error {
	signedTx, err := m.signer.SignPsbt(ctx, wallet.SignRequest{
		Psbt:                 wf.bundle.Psbt,
		CollateralDescriptor: wf.bundle.CollateralDescriptor,
		BorrowerPk:           wf.bundle.BorrowerPk,
		DerivationPath:       wf.contract.BorrowerDerivationPath,
	})
	if err != nil {
		return err
	}

	if _, err := m.verifier.VerifySignedTx(signedTx, wf.packet, wf.contract, wf.FeeRate); err != nil {
		return err
	}

	wf.signedTx = signedTx
	wf.step = StepBroadcast
	return nil
}

// stepBroadcast 第三步：交给后端广播。广播提交后不可取消。
func (m *Manager) stepBroadcast(ctx context.Context, wf *Workflow) (string, error) {
	var (
		txid string
		err  error
	)
	switch wf.Variant {
	case VariantClaim:
		txid, err = m.source.BroadcastClaim(ctx, wf.ContractID, wf.signedTx)
	case VariantRecover:
		txid, err = m.source.BroadcastRecovery(ctx, wf.ContractID, wf.signedTx)
	default:
		return "", fmt.Errorf("unknown claim variant %q", wf.Variant)
	}
	if err != nil {
		return "", err
	}

	wf.txid = txid
	wf.step = StepDone
	return txid, nil
}

func checkPrecondition(contract *model.Contract, variant Variant) error {
	switch variant {
	case VariantClaim:
		if !lifecycle.CanClaim(contract) {
			return fmt.Errorf("%w: cooperative claim requires repayment confirmed, got %s",
				ErrPreconditionNotMet, contract.Status)
		}
	case VariantRecover:
		if !lifecycle.CanRecover(contract, time.Now().UTC()) {
			return fmt.Errorf("%w: recovery requires a defaulted or expired contract, got %s",
				ErrPreconditionNotMet, contract.Status)
		}
	default:
		return fmt.Errorf("unknown claim variant %q", variant)
	}
	return nil
}
