package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blues/lcs/internal/config"
)

var (
	// ErrWalletLocked 钱包已锁定。可恢复：提示用户解锁后重试同一签名步骤。
	ErrWalletLocked = errors.New("wallet is locked")
	// ErrWalletUnavailable 钱包服务不可达
	ErrWalletUnavailable = errors.New("wallet is unavailable")
)

// SignRequest 签名请求。钱包如何保管密钥、如何签名对本服务完全不可见。
type SignRequest struct {
	Psbt                 string `json:"psbt"`
	CollateralDescriptor string `json:"collateral_descriptor"`
	BorrowerPk           string `json:"borrower_pk"`
	DerivationPath       string `json:"derivation_path,omitempty"`
}

// Signer 外部钱包签名能力
type Signer interface {
	// SignPsbt 对 PSBT 补签借款人签名，返回终化后的交易十六进制串
	SignPsbt(ctx context.Context, req SignRequest) (string, error)
}

// Client 通过 HTTP 调用本地钱包守护进程的 Signer 实现
type Client struct {
	rpcURL     string
	httpClient *http.Client
}

// Init 创建钱包客户端
func Init(cfg config.WalletConfig) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("wallet rpc url is required")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		rpcURL:     cfg.RPCURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SignPsbt 委托钱包签名。锁定与不可达分别映射为哨兵错误，
// 其余失败原样透传。
func (c *Client) SignPsbt(ctx context.Context, signReq SignRequest) (string, error) {
	payload, err := json.Marshal(signReq)
	if err != nil {
		return "", fmt.Errorf("failed to encode sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL+"/sign-psbt", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read wallet response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusLocked:
		return "", ErrWalletLocked
	default:
		return "", fmt.Errorf("wallet sign failed (status %d): %s", resp.StatusCode, string(data))
	}

	var result struct {
		SignedTx string `json:"signed_tx"`
		Locked   bool   `json:"locked"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to decode wallet response: %w", err)
	}
	if result.Locked {
		return "", ErrWalletLocked
	}
	if result.SignedTx == "" {
		return "", fmt.Errorf("wallet returned empty signed tx")
	}

	return result.SignedTx, nil
}
