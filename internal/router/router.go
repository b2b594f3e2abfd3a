package router

import (
	"github.com/gin-gonic/gin"

	"github.com/blues/lcs/internal/handler"
	"github.com/blues/lcs/internal/logic"
)

func Setup(contractLogic *logic.ContractLogic, claimLogic *logic.ClaimLogic, disputeLogic *logic.DisputeLogic) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "loan-collateral-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 合约相关路由
		contractHandler := handler.NewContractHandler(contractLogic)
		claimHandler := handler.NewClaimHandler(claimLogic)
		contracts := v1.Group("/contracts")
		{
			contracts.POST("", contractHandler.CreateContract)
			contracts.GET("/:id", contractHandler.GetContract)
			contracts.DELETE("/:id", contractHandler.CancelContract)
			contracts.GET("/:id/actions", contractHandler.GetContractActions)
			contracts.GET("/:id/health", contractHandler.GetContractHealth)
			contracts.GET("/:id/history", contractHandler.GetContractHistory)
			contracts.GET("/:id/claims", claimHandler.ListClaimAttempts)
			contracts.PUT("/:id/installments/:installment_id/paid", contractHandler.MarkInstallmentPaid)
			contracts.POST("/:id/claim", claimHandler.StartClaim)
			contracts.POST("/:id/recover", claimHandler.StartRecovery)
			contracts.DELETE("/:id/claim", claimHandler.AbandonClaim)
		}

		// 报价测算
		v1.POST("/offers/quote", contractHandler.Quote)

		// 争议相关路由
		disputeHandler := handler.NewDisputeHandler(disputeLogic)
		disputes := v1.Group("/disputes")
		{
			disputes.POST("", disputeHandler.CreateDispute)
			disputes.GET("/:id", disputeHandler.GetDispute)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
