package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/membership"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

type tierRequest struct {
	CreatorID string   `json:"creator_id" form:"creator_id"`
	Name      string   `json:"name" form:"name"`
	Price     float64  `json:"price" form:"price"`
	Benefits  []string `json:"benefits" form:"benefits"`
}

type tierUpdateRequest struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Benefits []string `json:"benefits"`
}

type subscribeRequest struct {
	UserID string `json:"user_id" form:"user_id"`
	TierID string `json:"tier_id" form:"tier_id"`
}

type purchaseRequest struct {
	CreatorID   string  `json:"creator_id" form:"creator_id"`
	Name        string  `json:"name" form:"name"`
	Price       float64 `json:"price" form:"price"`
	Description string  `json:"description" form:"description"`
	Type        string  `json:"type" form:"type"`
}

type purchaseUpdateRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Type        *string  `json:"type"`
}

type buyRequest struct {
	UserID string `json:"user_id" form:"user_id"`
}

type kycStatusRequest struct {
	Status string `json:"status" form:"status"`
	Reason string `json:"reason" form:"reason"`
}

// Tiers

func (api *API) createTier(c *gin.Context) {
	var req tierRequest
	if err := bind(c, &req); err != nil {
		api.respondError(c, err)
		return
	}

	tier, err := api.membership.CreateTier(c.Request.Context(), membership.TierInput{
		CreatorID: req.CreatorID,
		Name:      req.Name,
		Price:     req.Price,
		Benefits:  req.Benefits,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tier)
}

func (api *API) listTiers(c *gin.Context) {
	tiers, err := api.membership.ListTiers(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tiers)
}

func (api *API) updateTier(c *gin.Context) {
	var req tierUpdateRequest
	if err := bind(c, &req); err != nil {
		api.respondError(c, err)
		return
	}

	tier, err := api.membership.UpdateTier(c.Request.Context(), c.Param("id"), models.TierUpdate{
		Name:     req.Name,
		Price:    req.Price,
		Benefits: req.Benefits,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tier)
}

func (api *API) deleteTier(c *gin.Context) {
	if err := api.membership.DeleteTier(c.Request.Context(), c.Param("id")); err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Subscriptions

func (api *API) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := bind(c, &req); err != nil {
		api.respondError(c, err)
		return
	}

	sub, err := api.membership.Subscribe(c.Request.Context(), viewerID(c, req.UserID), req.TierID)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (api *API) listSubscriptions(c *gin.Context) {
	subs, err := api.membership.ListSubscriptions(c.Request.Context(), c.Param("user_id"), c.Query("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

// One-time purchases

func (api *API) createPurchase(c *gin.Context) {
	var req purchaseRequest
	if err := bind(c, &req); err != nil {
		api.respondError(c, err)
		return
	}

	item, err := api.membership.CreatePurchase(c.Request.Context(), membership.PurchaseInput{
		CreatorID:   req.CreatorID,
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (api *API) listPurchases(c *gin.Context) {
	items, err := api.membership.ListPurchases(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (api *API) updatePurchase(c *gin.Context) {
	var req purchaseUpdateRequest
	if err := bind(c, &req); err != nil {
		api.respondError(c, err)
		return
	}

	item, err := api.membership.UpdatePurchase(c.Request.Context(), c.Param("id"), models.PurchaseUpdate{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (api *API) deletePurchase(c *gin.Context) {
	if err := api.membership.DeletePurchase(c.Request.Context(), c.Param("id")); err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (api *API) buy(c *gin.Context) {
	var req buyRequest
	if err := bind(c, &req); err != nil {
		api.respondError(c, err)
		return
	}

	rec, err := api.membership.Purchase(c.Request.Context(), c.Param("id"), viewerID(c, req.UserID))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// KYC

func (api *API) startVerification(c *gin.Context) {
	rec, err := api.membership.StartVerification(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (api *API) kycStatus(c *gin.Context) {
	rec, err := api.membership.GetKycStatus(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (api *API) setKycStatus(c *gin.Context) {
	var req kycStatusRequest
	if err := bind(c, &req); err != nil {
		api.respondError(c, err)
		return
	}

	status := models.KycStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	rec, err := api.membership.SetKycStatus(c.Request.Context(), c.Param("creator_id"), status, req.Reason)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
