package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/creatorhub/internal/content"
	"github.com/therealutkarshpriyadarshi/creatorhub/pkg/models"
)

type contentRequest struct {
	CreatorID      string               `json:"creator_id"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	VideoURL       string               `json:"video_url"`
	Visibility     string               `json:"visibility"`
	AllowedTierIDs []string             `json:"allowed_tier_ids"`
	Signals        content.SignalsInput `json:"quality_signals"`
}

// uploadForm is the multipart form of an upload. Signals are flat form fields.
type uploadForm struct {
	CreatorID      string   `form:"creator_id"`
	Title          string   `form:"title"`
	Description    string   `form:"description"`
	Visibility     string   `form:"visibility"`
	AllowedTierIDs []string `form:"allowed_tier_ids"`
	content.SignalsInput
}

func parseVisibility(v string) models.Visibility {
	return models.Visibility(strings.ToUpper(strings.TrimSpace(v)))
}

// splitIDs accepts repeated fields as well as comma separated lists
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (api *API) createContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, models.NewValidationError("body", "invalid request: %v", err))
		return
	}

	item, err := api.content.Upload(c.Request.Context(), content.UploadInput{
		CreatorID:      req.CreatorID,
		Title:          req.Title,
		Description:    req.Description,
		VideoURL:       req.VideoURL,
		Visibility:     parseVisibility(req.Visibility),
		AllowedTierIDs: req.AllowedTierIDs,
		Signals:        req.Signals.Signals(),
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (api *API) uploadContent(c *gin.Context) {
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		api.respondError(c, models.NewValidationError("body", "invalid form: %v", err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		api.respondError(c, models.NewValidationError("file", "no file provided"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		api.respondError(c, err)
		return
	}
	defer file.Close()

	item, err := api.content.Upload(c.Request.Context(), content.UploadInput{
		CreatorID:      form.CreatorID,
		Title:          form.Title,
		Description:    form.Description,
		Visibility:     parseVisibility(form.Visibility),
		AllowedTierIDs: splitIDs(form.AllowedTierIDs),
		Signals:        form.SignalsInput.Signals(),
		File: &content.File{
			Name:        fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Reader:      file,
		},
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (api *API) getContent(c *gin.Context) {
	item, err := api.content.Get(c.Request.Context(), c.Param("id"), viewerID(c, c.Query("user_id")))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (api *API) listCreatorContent(c *gin.Context) {
	items, err := api.content.ListByCreator(c.Request.Context(), c.Param("creator_id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (api *API) mlScore(c *gin.Context) {
	score, err := api.content.Score(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (api *API) updateSignals(c *gin.Context) {
	var req content.SignalsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondError(c, models.NewValidationError("body", "invalid request: %v", err))
		return
	}

	item, err := api.content.UpdateSignals(c.Request.Context(), c.Param("id"), req.Signals(), "http")
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
