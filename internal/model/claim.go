package model

// ClaimPsbtBundle 取回抵押的 PSBT 包。每次请求都会生成全新的候选交易，
// 从不落库，只有广播成功的交易才会推动合约状态。
type ClaimPsbtBundle struct {
	// Base64 编码的 PSBT。合作取回时已含出借人预签名，
	// 时间锁恢复路径只需借款人单方签名。
	Psbt string `json:"psbt"`

	// 多签托管输出的脚本描述符
	CollateralDescriptor string `json:"collateral_descriptor"`

	BorrowerPk string `json:"borrower_pk"`
}
