package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blues/lcs/internal/backend"
	"github.com/blues/lcs/internal/claim"
	"github.com/blues/lcs/internal/lifecycle"
	"github.com/blues/lcs/internal/logic"
	"github.com/blues/lcs/internal/risk"
	"github.com/blues/lcs/internal/sizing"
	"github.com/blues/lcs/internal/wallet"
)

// respondError 按错误类别映射 HTTP 状态码。
// 后端错误原样透传，钱包锁定单独标记以便前端弹出解锁流程。
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logic.ErrInvalidInput),
		errors.Is(err, sizing.ErrInvalidInput),
		errors.Is(err, risk.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, claim.ErrPreconditionNotMet):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, claim.ErrClaimInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "in_progress": true})

	case errors.Is(err, wallet.ErrWalletLocked):
		c.JSON(http.StatusLocked, gin.H{"error": err.Error(), "wallet_locked": true})

	case errors.Is(err, wallet.ErrWalletUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	case errors.Is(err, logic.ErrNoPrice):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
