package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blues/lcs/internal/logic"
)

type DisputeHandler struct {
	disputeLogic *logic.DisputeLogic
}

func NewDisputeHandler(disputeLogic *logic.DisputeLogic) *DisputeHandler {
	return &DisputeHandler{disputeLogic: disputeLogic}
}

// CreateDispute 发起争议
func (h *DisputeHandler) CreateDispute(c *gin.Context) {
	var req struct {
		ContractID string `json:"contract_id"`
		Reason     string `json:"reason"`
		Comment    string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	dispute, err := h.disputeLogic.OpenDispute(c.Request.Context(), req.ContractID, req.Reason, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "争议已发起",
		"dispute": dispute,
	})
}

// GetDispute 获取争议详情
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	dispute, err := h.disputeLogic.GetDispute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dispute": dispute})
}
