package stub

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loykin/apismoke/internal/constants"
)

const foodSuccess = constants.FoodSuccessCode

type analyzeRequest struct {
	Base64Image string `json:"base64Image"`
	UserID      int64  `json:"userId"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, success(foodSuccess, "AI service is running"))
}

func (s *Server) analyzeFood(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "invalid request body"))
		return
	}
	img, err := base64.StdEncoding.DecodeString(strings.TrimSpace(req.Base64Image))
	if err != nil || len(img) == 0 {
		c.JSON(http.StatusOK, success(foodSuccess, analysisFailure("image is not valid base64")))
		return
	}
	c.JSON(http.StatusOK, success(foodSuccess, analysisFor(img)))
}

func (s *Server) analyzeUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, "file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure(http.StatusInternalServerError, err.Error()))
		return
	}
	defer func() { _ = f.Close() }()
	img, err := io.ReadAll(f)
	if err != nil || len(img) == 0 {
		c.JSON(http.StatusOK, success(foodSuccess, analysisFailure("empty upload")))
		return
	}
	c.JSON(http.StatusOK, success(foodSuccess, analysisFor(img)))
}

func analysisFailure(msg string) gin.H {
	return gin.H{"success": false, "errorMessage": msg, "food": nil}
}

// analysisFor returns a canned result; the stub does not look at pixels.
func analysisFor(_ []byte) gin.H {
	return gin.H{
		"success": true,
		"food": gin.H{
			"name":     "Apple",
			"calories": 52,
			"nutrition": gin.H{
				"protein":      0.3,
				"fat":          0.2,
				"carbohydrate": 13.8,
				"fiber":        2.4,
			},
			"advice": "A good low-calorie snack.",
		},
	}
}
