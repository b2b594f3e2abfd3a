package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blues/lcs/internal/config"
	"github.com/blues/lcs/internal/model"
)

// APIError 后端或网络返回的错误，原样透传给调用方，由调用方决定是否重试
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend api error (status %d): %s", e.StatusCode, e.Message)
}

// Client 后端（权威数据源）REST 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Init 创建后端客户端
func Init(cfg config.BackendConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// CreateContractRequest 创建借款请求的入参
type CreateContractRequest struct {
	OfferID                string  `json:"offer_id"`
	BorrowerPk             string  `json:"borrower_pk"`
	BorrowerBtcAddress     string  `json:"borrower_btc_address"`
	BorrowerDerivationPath string  `json:"borrower_derivation_path"`
	LoanAmount             float64 `json:"loan_amount"`
	DurationDays           int     `json:"duration_days"`
}

// GetContract 拉取合约快照
func (c *Client) GetContract(ctx context.Context, contractID string) (*model.Contract, error) {
	var contract model.Contract
	if err := c.do(ctx, http.MethodGet, "/contracts/"+contractID, nil, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// CreateContract 发起新的借款请求，成功后合约处于 Requested
func (c *Client) CreateContract(ctx context.Context, req CreateContractRequest) (*model.Contract, error) {
	var contract model.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts", req, &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}

// CancelContract 取消借款请求（仅 Requested 状态合法，由后端二次校验）
func (c *Client) CancelContract(ctx context.Context, contractID string) error {
	return c.do(ctx, http.MethodDelete, "/contracts/"+contractID, nil, nil)
}

// MarkInstallmentPaid 登记一笔分期还款
func (c *Client) MarkInstallmentPaid(ctx context.Context, contractID, installmentID, paymentReference string) error {
	body := map[string]string{
		"installment_id":    installmentID,
		"payment_reference": paymentReference,
	}
	return c.do(ctx, http.MethodPut, "/contracts/"+contractID+"/installment-paid", body, nil)
}

// RequestClaim 请求合作取回的 PSBT（含出借人预签名）。
// 换费率重新请求总是安全的，后端每次都生成全新候选交易，不产生状态变化。
func (c *Client) RequestClaim(ctx context.Context, contractID string, feeRate float64) (*model.ClaimPsbtBundle, error) {
	return c.requestPsbt(ctx, contractID, "claim", feeRate)
}

// RequestRecovery 请求时间锁恢复的 PSBT（只需借款人签名）
func (c *Client) RequestRecovery(ctx context.Context, contractID string, feeRate float64) (*model.ClaimPsbtBundle, error) {
	return c.requestPsbt(ctx, contractID, "recover", feeRate)
}

func (c *Client) requestPsbt(ctx context.Context, contractID, kind string, feeRate float64) (*model.ClaimPsbtBundle, error) {
	path := fmt.Sprintf("/contracts/%s/%s?fee_rate=%s",
		contractID, kind, strconv.FormatFloat(feeRate, 'f', -1, 64))

	var bundle model.ClaimPsbtBundle
	if err := c.do(ctx, http.MethodGet, path, nil, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// BroadcastClaim 提交签名完成的合作取回交易，返回 txid
func (c *Client) BroadcastClaim(ctx context.Context, contractID, signedTx string) (string, error) {
	return c.broadcast(ctx, contractID, "broadcast-claim", signedTx)
}

// BroadcastRecovery 提交签名完成的恢复交易，返回 txid
func (c *Client) BroadcastRecovery(ctx context.Context, contractID, signedTx string) (string, error) {
	return c.broadcast(ctx, contractID, "broadcast-recover", signedTx)
}

func (c *Client) broadcast(ctx context.Context, contractID, kind, signedTx string) (string, error) {
	body := map[string]string{"tx": signedTx}
	var resp struct {
		Txid string `json:"txid"`
	}
	if err := c.do(ctx, http.MethodPost, "/contracts/"+contractID+"/"+kind, body, &resp); err != nil {
		return "", err
	}
	return resp.Txid, nil
}

// CreateDispute 发起争议
func (c *Client) CreateDispute(ctx context.Context, contractID, reason, comment string) (*model.Dispute, error) {
	body := map[string]string{
		"contract_id": contractID,
		"reason":      reason,
		"comment":     comment,
	}
	var dispute model.Dispute
	if err := c.do(ctx, http.MethodPost, "/disputes", body, &dispute); err != nil {
		return nil, err
	}
	return &dispute, nil
}

// GetDispute 拉取争议快照
func (c *Client) GetDispute(ctx context.Context, disputeID string) (*model.Dispute, error) {
	var dispute model.Dispute
	if err := c.do(ctx, http.MethodGet, "/disputes/"+disputeID, nil, &dispute); err != nil {
		return nil, err
	}
	return &dispute, nil
}

// do 发送请求并解析响应。非 2xx 统一包装为 APIError，消息原样保留。
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: apiMessage(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func apiMessage(data []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(data)
}
