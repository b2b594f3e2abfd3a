package claim

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/lcs/internal/model"
)

const (
	testEscrowValue = int64(4_040_000)
	testFeeRate     = 5.0
)

// secp256k1 生成元公钥与一个合法的 DER 签名（带 SIGHASH_ALL 后缀），
// 仅用于构造结构上有效的测试夹具，不代表真实签名
var (
	testPubKey, _ = hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	testDerSig, _ = hex.DecodeString("304402203609e17b84f6a7d30c80bfa610b5b4542f32a8a0d5447a12fb1366d7f01cc44a0220573a954c4518331561406f90300e8f3358f51928d43c212a8caed02de67eebee01")
)

func newTestContract(t *testing.T, status model.ContractStatus) *model.Contract {
	t.Helper()
	params := &chaincfg.RegressionNetParams

	witnessScript := []byte{txscript.OP_TRUE}
	scriptHash := sha256.Sum256(witnessScript)
	escrowAddr, err := btcutil.NewAddressWitnessScriptHash(scriptHash[:], params)
	require.NoError(t, err)

	refundAddr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(testPubKey), params)
	require.NoError(t, err)

	return &model.Contract{
		ID:                     "c-test-1",
		Status:                 status,
		LoanAmount:             1000,
		DurationDays:           30,
		CollateralSats:         testEscrowValue,
		ContractAddress:        escrowAddr.EncodeAddress(),
		BorrowerBtcAddress:     refundAddr.EncodeAddress(),
		BorrowerPk:             hex.EncodeToString(testPubKey),
		BorrowerDerivationPath: "m/84'/1'/0'/0/0",
	}
}

func payScript(t *testing.T, address string) []byte {
	t.Helper()
	addr, err := btcutil.DecodeAddress(address, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

// newTestBundle 构造一个花费托管 UTXO、付款到借款人退款地址的 PSBT 包
func newTestBundle(t *testing.T, contract *model.Contract, withLenderSig bool) (*model.ClaimPsbtBundle, *psbt.Packet) {
	t.Helper()

	outPoint := wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&outPoint, nil, nil))
	tx.AddTxOut(wire.NewTxOut(testEscrowValue-500, payScript(t, contract.BorrowerBtcAddress)))

	packet, err := psbt.NewFromUnsignedTx(tx)
	require.NoError(t, err)
	packet.Inputs[0].WitnessUtxo = wire.NewTxOut(testEscrowValue, payScript(t, contract.ContractAddress))
	if withLenderSig {
		packet.Inputs[0].PartialSigs = []*psbt.PartialSig{
			{PubKey: testPubKey, Signature: testDerSig},
		}
	}

	b64, err := packet.B64Encode()
	require.NoError(t, err)

	return &model.ClaimPsbtBundle{
		Psbt:                 b64,
		CollateralDescriptor: "wsh(multi(2,...))",
		BorrowerPk:           contract.BorrowerPk,
	}, packet
}

// signTestPacket 模拟钱包补签：带上见证数据并把手续费调到目标费率
func signTestPacket(t *testing.T, packet *psbt.Packet, contract *model.Contract, feeRate float64) string {
	t.Helper()

	tx := packet.UnsignedTx.Copy()
	tx.TxIn[0].Witness = wire.TxWitness{testDerSig, testDerSig, {txscript.OP_TRUE}}

	fee := int64(feeRate * float64(txVirtualSize(tx)))
	tx.TxOut[0] = wire.NewTxOut(testEscrowValue-fee, payScript(t, contract.BorrowerBtcAddress))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))
	return hex.EncodeToString(buf.Bytes())
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier("regtest", 0.25)
	require.NoError(t, err)
	return v
}

func TestNewVerifierUnknownNetwork(t *testing.T) {
	_, err := NewVerifier("dogenet", 0.25)
	assert.Error(t, err)
}

func TestParseBundle(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)

	bundle, _ := newTestBundle(t, contract, true)
	packet, err := v.ParseBundle(bundle, contract, VariantClaim)
	require.NoError(t, err)
	assert.Len(t, packet.UnsignedTx.TxIn, 1)
}

func TestParseBundleEmptyPsbt(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)

	_, err := v.ParseBundle(&model.ClaimPsbtBundle{}, contract, VariantClaim)
	assert.ErrorIs(t, err, ErrInvalidBundle)
}

func TestParseBundleClaimRequiresLenderSig(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)

	bundle, _ := newTestBundle(t, contract, false)
	_, err := v.ParseBundle(bundle, contract, VariantClaim)
	assert.ErrorIs(t, err, ErrInvalidBundle)

	// 时间锁恢复不需要出借人预签名
	_, err = v.ParseBundle(bundle, contract, VariantRecover)
	assert.NoError(t, err)
}

func TestParseBundleRejectsForeignUtxo(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)

	bundle, packet := newTestBundle(t, contract, true)
	// 把托管脚本换成退款脚本，模拟后端下发了花别的 UTXO 的 PSBT
	packet.Inputs[0].WitnessUtxo = wire.NewTxOut(testEscrowValue, payScript(t, contract.BorrowerBtcAddress))
	b64, err := packet.B64Encode()
	require.NoError(t, err)
	bundle.Psbt = b64

	_, err = v.ParseBundle(bundle, contract, VariantClaim)
	assert.ErrorIs(t, err, ErrInvalidBundle)
}

func TestVerifySignedTx(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)
	_, packet := newTestBundle(t, contract, true)

	signed := signTestPacket(t, packet, contract, testFeeRate)
	tx, err := v.VerifySignedTx(signed, packet, contract, testFeeRate)
	require.NoError(t, err)
	assert.Len(t, tx.TxOut, 1)
}

func TestVerifySignedTxRejectsForeignOutpoint(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)
	_, packet := newTestBundle(t, contract, true)

	tx := packet.UnsignedTx.Copy()
	tx.TxIn[0].PreviousOutPoint.Index = 7
	tx.TxIn[0].Witness = wire.TxWitness{testDerSig}
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	_, err := v.VerifySignedTx(hex.EncodeToString(buf.Bytes()), packet, contract, testFeeRate)
	assert.ErrorIs(t, err, ErrInvalidSignedTx)
}

func TestVerifySignedTxRequiresRefundOutput(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)
	_, packet := newTestBundle(t, contract, true)

	// 所有输出都付到托管地址而不是借款人退款地址
	tx := packet.UnsignedTx.Copy()
	tx.TxIn[0].Witness = wire.TxWitness{testDerSig}
	tx.TxOut[0] = wire.NewTxOut(testEscrowValue-500, payScript(t, contract.ContractAddress))
	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	_, err := v.VerifySignedTx(hex.EncodeToString(buf.Bytes()), packet, contract, testFeeRate)
	assert.ErrorIs(t, err, ErrInvalidSignedTx)
}

func TestVerifySignedTxRejectsExcessiveFee(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)
	_, packet := newTestBundle(t, contract, true)

	// 实际费率是请求值的两倍，远超容忍度
	signed := signTestPacket(t, packet, contract, testFeeRate*2)
	_, err := v.VerifySignedTx(signed, packet, contract, testFeeRate)
	assert.ErrorIs(t, err, ErrInvalidSignedTx)
}

func TestVerifySignedTxGarbage(t *testing.T) {
	v := newTestVerifier(t)
	contract := newTestContract(t, model.ContractStatusRepaymentConfirmed)
	_, packet := newTestBundle(t, contract, true)

	_, err := v.VerifySignedTx("not-hex", packet, contract, testFeeRate)
	assert.ErrorIs(t, err, ErrInvalidSignedTx)

	_, err = v.VerifySignedTx("deadbeef", packet, contract, testFeeRate)
	assert.ErrorIs(t, err, ErrInvalidSignedTx)
}
