package claim

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/lcs/internal/model"
	"github.com/blues/lcs/internal/wallet"
)

type fakeSource struct {
	mu             sync.Mutex
	bundle         *model.ClaimPsbtBundle
	txid           string
	broadcastErr   error
	requestCalls   int
	broadcastCalls int
}

func (f *fakeSource) request() (*model.ClaimPsbtBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestCalls++
	return f.bundle, nil
}

func (f *fakeSource) broadcast() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcastCalls++
	if f.broadcastErr != nil {
		return "", f.broadcastErr
	}
	return f.txid, nil
}

func (f *fakeSource) RequestClaim(context.Context, string, float64) (*model.ClaimPsbtBundle, error) {
	return f.request()
}

func (f *fakeSource) RequestRecovery(context.Context, string, float64) (*model.ClaimPsbtBundle, error) {
	return f.request()
}

func (f *fakeSource) BroadcastClaim(context.Context, string, string) (string, error) {
	return f.broadcast()
}

func (f *fakeSource) BroadcastRecovery(context.Context, string, string) (string, error) {
	return f.broadcast()
}

type fakeSigner struct {
	mu          sync.Mutex
	signedTx    string
	lockedCalls int // 前 N 次调用返回钱包锁定
	calls       int

	entered chan struct{} // 非空时每次进入都发信号
	block   chan struct{} // 非空时阻塞等待关闭
}

func (f *fakeSigner) SignPsbt(ctx context.Context, req wallet.SignRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	locked := f.calls <= f.lockedCalls
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if locked {
		return "", wallet.ErrWalletLocked
	}
	return f.signedTx, nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	created   []string
	broadcast map[string]string
	failed    map[string]string
	abandoned []string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		broadcast: make(map[string]string),
		failed:    make(map[string]string),
	}
}

func (f *fakeRecorder) CreateAttempt(attemptID, contractID, variant string, feeRate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, attemptID)
	return nil
}

func (f *fakeRecorder) MarkBroadcast(attemptID, txid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast[attemptID] = txid
	return nil
}

func (f *fakeRecorder) MarkFailed(attemptID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[attemptID] = reason
	return nil
}

func (f *fakeRecorder) MarkAbandoned(attemptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, attemptID)
	return nil
}

type managerFixture struct {
	manager  *Manager
	source   *fakeSource
	signer   *fakeSigner
	recorder *fakeRecorder
	contract *model.Contract
}

func newManagerFixture(t *testing.T, status model.ContractStatus, variant Variant) *managerFixture {
	t.Helper()

	contract := newTestContract(t, status)
	bundle, packet := newTestBundle(t, contract, variant == VariantClaim)

	source := &fakeSource{bundle: bundle, txid: "txid-1"}
	signer := &fakeSigner{signedTx: signTestPacket(t, packet, contract, testFeeRate)}
	recorder := newFakeRecorder()

	return &managerFixture{
		manager:  NewManager(source, signer, recorder, newTestVerifier(t)),
		source:   source,
		signer:   signer,
		recorder: recorder,
		contract: contract,
	}
}

func TestManagerRunClaim(t *testing.T) {
	f := newManagerFixture(t, model.ContractStatusRepaymentConfirmed, VariantClaim)

	txid, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
	require.NoError(t, err)
	assert.Equal(t, "txid-1", txid)

	assert.Equal(t, 1, f.source.requestCalls)
	assert.Equal(t, 1, f.source.broadcastCalls)
	require.Len(t, f.recorder.created, 1)
	assert.Equal(t, "txid-1", f.recorder.broadcast[f.recorder.created[0]])
}

func TestManagerRunRecovery(t *testing.T) {
	f := newManagerFixture(t, model.ContractStatusDefaulted, VariantRecover)

	txid, err := f.manager.Run(context.Background(), f.contract, VariantRecover, testFeeRate)
	require.NoError(t, err)
	assert.Equal(t, "txid-1", txid)
}

func TestManagerPreconditions(t *testing.T) {
	// 活跃合约既不满足合作取回也不满足时间锁恢复
	f := newManagerFixture(t, model.ContractStatusPrincipalGiven, VariantClaim)

	_, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
	assert.ErrorIs(t, err, ErrPreconditionNotMet)

	_, err = f.manager.Run(context.Background(), f.contract, VariantRecover, testFeeRate)
	assert.ErrorIs(t, err, ErrPreconditionNotMet)

	// 前置条件失败时不应留下任何尝试记录
	assert.Empty(t, f.recorder.created)
	assert.Zero(t, f.source.requestCalls)
}

func TestManagerRejectsConcurrentRun(t *testing.T) {
	f := newManagerFixture(t, model.ContractStatusRepaymentConfirmed, VariantClaim)
	f.signer.entered = make(chan struct{}, 1)
	f.signer.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
		done <- err
	}()
	<-f.signer.entered

	// 第一个流程卡在签名步骤时，重入同一合约直接被拒绝，不排队
	_, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
	assert.ErrorIs(t, err, ErrClaimInProgress)

	close(f.signer.block)
	require.NoError(t, <-done)
}

func TestManagerWalletLockedParksThenResumes(t *testing.T) {
	f := newManagerFixture(t, model.ContractStatusRepaymentConfirmed, VariantClaim)
	f.signer.lockedCalls = 1

	_, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
	assert.ErrorIs(t, err, wallet.ErrWalletLocked)
	// 钱包锁定不算失败，现场被保留
	assert.Empty(t, f.recorder.failed)
	assert.Empty(t, f.recorder.abandoned)

	// 解锁后用相同参数重试：从签名步骤继续，不重新请求 PSBT
	txid, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
	require.NoError(t, err)
	assert.Equal(t, "txid-1", txid)
	assert.Equal(t, 1, f.source.requestCalls)
	assert.Len(t, f.recorder.created, 1)
}

func TestManagerChangedFeeRateRestartsParkedWorkflow(t *testing.T) {
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)
	bundle, packet := newTestBundle(t, contract, true)

	source := &fakeSource{bundle: bundle, txid: "txid-1"}
	signer := &fakeSigner{signedTx: signTestPacket(t, packet, contract, testFeeRate), lockedCalls: 1}
	recorder := newFakeRecorder()
	// 放宽费率容忍度，让固定签名交易在两个费率下都能通过校验
	verifier, err := NewVerifier("regtest", 1.0)
	require.NoError(t, err)
	m := NewManager(source, signer, recorder, verifier)

	_, err = m.Run(context.Background(), contract, VariantClaim, testFeeRate)
	assert.ErrorIs(t, err, wallet.ErrWalletLocked)

	// 换费率重试视为放弃旧流程，从头开始
	txid, err := m.Run(context.Background(), contract, VariantClaim, testFeeRate+3)
	require.NoError(t, err)
	assert.Equal(t, "txid-1", txid)

	assert.Equal(t, 2, source.requestCalls)
	require.Len(t, recorder.created, 2)
	assert.Equal(t, []string{recorder.created[0]}, recorder.abandoned)
}

func TestManagerBroadcastErrorReturnedVerbatim(t *testing.T) {
	f := newManagerFixture(t, model.ContractStatusRepaymentConfirmed, VariantClaim)
	f.source.broadcastErr = errors.New("insufficient fee rate")

	_, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
	require.EqualError(t, err, "insufficient fee rate")

	// 广播失败绝不自动重试，失败原因原样入档
	assert.Equal(t, 1, f.source.broadcastCalls)
	require.Len(t, f.recorder.created, 1)
	assert.Equal(t, "insufficient fee rate", f.recorder.failed[f.recorder.created[0]])
}

func TestManagerAbandonParkedWorkflow(t *testing.T) {
	f := newManagerFixture(t, model.ContractStatusRepaymentConfirmed, VariantClaim)
	f.signer.lockedCalls = 1

	_, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
	assert.ErrorIs(t, err, wallet.ErrWalletLocked)

	f.manager.Abandon(f.contract.ID)
	require.Len(t, f.recorder.created, 1)
	assert.Equal(t, []string{f.recorder.created[0]}, f.recorder.abandoned)

	// 放弃后重新发起会从请求步骤从头开始
	txid, err := f.manager.Run(context.Background(), f.contract, VariantClaim, testFeeRate)
	require.NoError(t, err)
	assert.Equal(t, "txid-1", txid)
	assert.Equal(t, 2, f.source.requestCalls)
}

func TestManagerAbandonWithoutParkedIsNoop(t *testing.T) {
	f := newManagerFixture(t, model.ContractStatusRepaymentConfirmed, VariantClaim)

	f.manager.Abandon("missing-contract")
	assert.Empty(t, f.recorder.abandoned)
}
