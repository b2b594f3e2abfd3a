package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blues/lcs/internal/logic"
)

type ClaimHandler struct {
	claimLogic *logic.ClaimLogic
}

func NewClaimHandler(claimLogic *logic.ClaimLogic) *ClaimHandler {
	return &ClaimHandler{claimLogic: claimLogic}
}

type claimRequest struct {
	FeeRate float64 `json:"fee_rate"` // sat/vB
}

// StartClaim 发起合作取回抵押
func (h *ClaimHandler) StartClaim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	txid, err := h.claimLogic.StartClaim(c.Request.Context(), c.Param("id"), req.FeeRate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "取回交易已广播",
		"txid":    txid,
	})
}

// StartRecovery 发起时间锁恢复
func (h *ClaimHandler) StartRecovery(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	txid, err := h.claimLogic.StartRecovery(c.Request.Context(), c.Param("id"), req.FeeRate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "恢复交易已广播",
		"txid":    txid,
	})
}

// AbandonClaim 放弃等待钱包解锁的取回流程
func (h *ClaimHandler) AbandonClaim(c *gin.Context) {
	h.claimLogic.Abandon(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "取回流程已放弃"})
}

// ListClaimAttempts 列出合约的历次取回尝试记录
func (h *ClaimHandler) ListClaimAttempts(c *gin.Context) {
	records, err := h.claimLogic.ListAttempts(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": records})
}
