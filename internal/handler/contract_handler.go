package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blues/lcs/internal/backend"
	"github.com/blues/lcs/internal/logic"
)

type ContractHandler struct {
	contractLogic *logic.ContractLogic
}

func NewContractHandler(contractLogic *logic.ContractLogic) *ContractHandler {
	return &ContractHandler{contractLogic: contractLogic}
}

// CreateContract 发起借款请求
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req backend.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	contract, err := h.contractLogic.CreateContract(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "借款请求创建成功",
		"contract": contract,
	})
}

// GetContract 获取合约详情（含健康度与可执行操作）
func (h *ContractHandler) GetContract(c *gin.Context) {
	view, err := h.contractLogic.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetContractActions 获取合约当前可执行的操作集合
func (h *ContractHandler) GetContractActions(c *gin.Context) {
	view, err := h.contractLogic.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_id": view.Contract.ID,
		"status":      view.Contract.Status,
		"actions":     view.AvailableActions,
	})
}

// GetContractHealth 获取合约当前抵押健康度
func (h *ContractHandler) GetContractHealth(c *gin.Context) {
	view, err := h.contractLogic.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_id":        view.Contract.ID,
		"collateral_sats":    view.Contract.CollateralSats,
		"ltv_ratio":          view.LtvRatio,
		"liquidation_status": view.LiquidationStatus,
		"liquidation_price":  view.LiquidationPrice,
		"btc_price":          view.BtcPrice,
	})
}

// GetContractHistory 获取合约的状态跳变与健康变化审计记录
func (h *ContractHandler) GetContractHistory(c *gin.Context) {
	history, err := h.contractLogic.GetContractHistory(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// CancelContract 取消借款请求
func (h *ContractHandler) CancelContract(c *gin.Context) {
	if err := h.contractLogic.CancelContract(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "借款请求已取消"})
}

// MarkInstallmentPaid 登记分期还款
func (h *ContractHandler) MarkInstallmentPaid(c *gin.Context) {
	var req struct {
		PaymentReference string `json:"payment_reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	err := h.contractLogic.MarkInstallmentPaid(c.Request.Context(),
		c.Param("id"), c.Param("installment_id"), req.PaymentReference)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "还款已登记"})
}

// Quote 按实时价格测算报价所需抵押
func (h *ContractHandler) Quote(c *gin.Context) {
	var req logic.QuoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	plan, err := h.contractLogic.Quote(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
