package claim

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/blues/lcs/internal/model"
)

var (
	// ErrInvalidBundle 后端返回的 PSBT 包不符合预期
	ErrInvalidBundle = errors.New("invalid claim psbt bundle")
	// ErrInvalidSignedTx 钱包返回的交易不符合预期
	ErrInvalidSignedTx = errors.New("invalid signed claim transaction")
)

// Verifier 校验取回流程中的 PSBT 与签名交易。
// 签名本身由外部钱包负责，这里只验证交易花费的是预期的抵押
// UTXO、付款到预期的退款地址、费率与请求值偏差在容忍范围内。
type Verifier struct {
	params    *chaincfg.Params
	tolerance float64 // 费率相对偏差容忍度
}

// NewVerifier 创建校验器
func NewVerifier(network string, tolerance float64) (*Verifier, error) {
	params, err := networkParams(network)
	if err != nil {
		return nil, err
	}
	if tolerance <= 0 {
		tolerance = 0.25
	}
	return &Verifier{params: params, tolerance: tolerance}, nil
}

func networkParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(network) {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	}
	return nil, fmt.Errorf("unknown bitcoin network %q", network)
}

// ParseBundle 解析并校验后端返回的 PSBT 包。
// 合作取回要求出借人预签名已在包内（2-of-3 多签的第二个签名由
// 借款人钱包补齐）；时间锁恢复路径只需借款人签名，不做此要求。
func (v *Verifier) ParseBundle(bundle *model.ClaimPsbtBundle, contract *model.Contract, variant Variant) (*psbt.Packet, error) {
	if bundle.Psbt == "" {
		return nil, fmt.Errorf("%w: empty psbt", ErrInvalidBundle)
	}

	packet, err := psbt.NewFromRawBytes(strings.NewReader(bundle.Psbt), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}

	if len(packet.UnsignedTx.TxIn) == 0 {
		return nil, fmt.Errorf("%w: no inputs", ErrInvalidBundle)
	}
	if len(packet.Inputs) != len(packet.UnsignedTx.TxIn) {
		return nil, fmt.Errorf("%w: input metadata mismatch", ErrInvalidBundle)
	}

	escrowScript, err := v.escrowScript(contract)
	if err != nil {
		return nil, err
	}

	for idx, in := range packet.Inputs {
		if in.WitnessUtxo == nil {
			return nil, fmt.Errorf("%w: input %d missing witness utxo", ErrInvalidBundle, idx)
		}
		if escrowScript != nil && !bytes.Equal(in.WitnessUtxo.PkScript, escrowScript) {
			return nil, fmt.Errorf("%w: input %d does not spend the collateral escrow", ErrInvalidBundle, idx)
		}
		if variant == VariantClaim && len(in.PartialSigs) == 0 {
			return nil, fmt.Errorf("%w: input %d missing lender pre-signature", ErrInvalidBundle, idx)
		}
	}

	return packet, nil
}

// VerifySignedTx 校验钱包返回的已签名交易：
// 必须花费 PSBT 中的同一批抵押输入、向借款人退款地址付款、
// 且实际费率与请求费率的偏差不超过容忍度。
func (v *Verifier) VerifySignedTx(signedTxHex string, packet *psbt.Packet, contract *model.Contract, feeRate float64) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(signedTxHex)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid hex: %v", ErrInvalidSignedTx, err)
	}

	msgTx := wire.NewMsgTx(wire.TxVersion)
	if err := msgTx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignedTx, err)
	}

	// 输入必须与 PSBT 的未签名交易一一对应
	if len(msgTx.TxIn) != len(packet.UnsignedTx.TxIn) {
		return nil, fmt.Errorf("%w: input count mismatch", ErrInvalidSignedTx)
	}
	for idx, in := range msgTx.TxIn {
		if in.PreviousOutPoint != packet.UnsignedTx.TxIn[idx].PreviousOutPoint {
			return nil, fmt.Errorf("%w: input %d spends unexpected outpoint %s",
				ErrInvalidSignedTx, idx, in.PreviousOutPoint.String())
		}
	}

	// 至少一个输出付款到借款人的退款地址
	refundScript, err := v.refundScript(contract)
	if err != nil {
		return nil, err
	}
	paysRefund := false
	var outputSum int64
	for _, out := range msgTx.TxOut {
		outputSum += out.Value
		if bytes.Equal(out.PkScript, refundScript) {
			paysRefund = true
		}
	}
	if !paysRefund {
		return nil, fmt.Errorf("%w: no output pays the borrower refund address %s",
			ErrInvalidSignedTx, contract.BorrowerBtcAddress)
	}

	// 费率校验：fee = 输入总额 - 输出总额
	var inputSum int64
	for _, in := range packet.Inputs {
		inputSum += in.WitnessUtxo.Value
	}
	fee := inputSum - outputSum
	if fee < 0 {
		return nil, fmt.Errorf("%w: outputs exceed inputs", ErrInvalidSignedTx)
	}

	vsize := txVirtualSize(msgTx)
	expected := feeRate * float64(vsize)
	if expected > 0 {
		deviation := math.Abs(float64(fee)-expected) / expected
		if deviation > v.tolerance {
			return nil, fmt.Errorf("%w: fee %d sats deviates %.0f%% from requested rate %.2f sat/vB",
				ErrInvalidSignedTx, fee, deviation*100, feeRate)
		}
	}

	return msgTx, nil
}

// escrowScript 多签托管地址的输出脚本，合约尚未生成地址时返回 nil
func (v *Verifier) escrowScript(contract *model.Contract) ([]byte, error) {
	if contract.ContractAddress == "" {
		return nil, nil
	}
	addr, err := btcutil.DecodeAddress(contract.ContractAddress, v.params)
	if err != nil {
		return nil, fmt.Errorf("%w: bad contract address %q: %v", ErrInvalidBundle, contract.ContractAddress, err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	return script, nil
}

// refundScript 借款人退款地址的输出脚本
func (v *Verifier) refundScript(contract *model.Contract) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(contract.BorrowerBtcAddress, v.params)
	if err != nil {
		return nil, fmt.Errorf("%w: bad refund address %q: %v", ErrInvalidSignedTx, contract.BorrowerBtcAddress, err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignedTx, err)
	}
	return script, nil
}

// txVirtualSize 计算交易虚拟大小：weight = 无见证大小*3 + 总大小，
// vsize = ceil(weight/4)
func txVirtualSize(tx *wire.MsgTx) int64 {
	weight := int64(tx.SerializeSizeStripped())*3 + int64(tx.SerializeSize())
	return (weight + 3) / 4
}
