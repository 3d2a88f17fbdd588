package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/furnihome/furnihome-backend/internal/errordata"
	"github.com/furnihome/furnihome-backend/internal/services"
)

// maxImageUpload bounds multipart image uploads.
const maxImageUpload = 10 << 20

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (ph *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := ph.profileService.GetProfile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ph *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req services.ProfileInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := ph.profileService.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ph *ProfileHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageUpload)
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		respondError(c, errordata.NewValidation("image", "an image file is required"))
		return
	}
	defer file.Close()

	user, err := ph.profileService.UploadImage(c.Request.Context(), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
