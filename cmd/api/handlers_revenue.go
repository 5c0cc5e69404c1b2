package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (api *API) dashboard(c *gin.Context) {
	summary, err := api.membership.Dashboard(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (api *API) computePayout(c *gin.Context) {
	payout, err := api.payouts.ComputePayout(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}

func (api *API) payoutHistory(c *gin.Context) {
	payouts, err := api.payouts.History(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payouts)
}

func (api *API) revenueHistory(c *gin.Context) {
	snaps, err := api.snapshots.Snapshots(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snaps)
}
