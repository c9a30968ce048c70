package handler

import (
	"net/http"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/GoPolymarket/vaultscope/internal/service"
	"github.com/gin-gonic/gin"
)

type ClassifyRequest struct {
	Items []model.RiskItem `json:"items"`
}

type RiskHandler struct{}

func NewRiskHandler() *RiskHandler {
	return &RiskHandler{}
}

// Classify POST /v1/risk/classify[?format=joined]
func (h *RiskHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewInvalidArgument("invalid request body: %v", err))
		return
	}

	if c.Query("format") == "joined" {
		views, err := service.ClassifyJoined(req.Items)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"buckets": views})
		return
	}

	buckets, err := service.Classify(req.Items)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buckets": buckets})
}
