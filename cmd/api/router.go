package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// setupRouter registers the routes. Middleware runs before every route,
// in the given order.
func setupRouter(api *API, mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(mw...)

	// Health check
	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	{
		// Tiers
		v1.POST("/tiers", api.createTier)
		v1.GET("/tiers/:creator_id", api.listTiers)
		v1.PUT("/tiers/:id", api.updateTier)
		v1.DELETE("/tiers/:id", api.deleteTier)

		// Subscriptions
		v1.POST("/subscribe", api.subscribe)
		v1.GET("/subscriptions/:user_id", api.listSubscriptions)

		// One-time purchases
		v1.POST("/one-time-purchases", api.createPurchase)
		v1.GET("/one-time-purchases/:creator_id", api.listPurchases)
		v1.PUT("/one-time-purchases/:id", api.updatePurchase)
		v1.DELETE("/one-time-purchases/:id", api.deletePurchase)
		v1.POST("/one-time-purchases/:id/purchase", api.buy)

		// KYC
		v1.POST("/kyc/verify/:creator_id", api.startVerification)
		v1.GET("/kyc/status/:creator_id", api.kycStatus)
		v1.PUT("/kyc/status/:creator_id", api.setKycStatus)

		// Revenue
		v1.GET("/dashboard/:creator_id", api.dashboard)
		v1.POST("/payout/:creator_id", api.computePayout)
		v1.GET("/payouts/:creator_id", api.payoutHistory)
		v1.GET("/revenue/:creator_id", api.revenueHistory)

		// Content
		v1.POST("/content", api.createContent)
		v1.POST("/content/upload", api.uploadContent)
		v1.GET("/content/:id", api.getContent)
		v1.GET("/content/creator/:creator_id", api.listCreatorContent)
		v1.GET("/content/ml-score/:id", api.mlScore)
		v1.PUT("/content/:id/signals", api.updateSignals)
	}

	return router
}

// healthCheck reports the state of the store and every configured dependency
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(gin.H, len(api.health))
	status := http.StatusOK
	for name, check := range api.health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
