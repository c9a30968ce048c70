package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"
	"github.com/GoPolymarket/vaultscope/internal/service"
	"github.com/gin-gonic/gin"
)

type VaultHandler struct {
	svc      *service.VaultService
	agg      *service.Aggregator
	pageSize int
}

func NewVaultHandler(svc *service.VaultService, agg *service.Aggregator, pageSize int) *VaultHandler {
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	return &VaultHandler{svc: svc, agg: agg, pageSize: pageSize}
}

// ListVaults GET /v1/vaults?offset=&limit=
func (h *VaultHandler) ListVaults(c *gin.Context) {
	p := model.Pagination{Offset: 0, Limit: h.pageSize}
	if err := c.ShouldBindQuery(&p); err != nil {
		_ = c.Error(apperrors.NewInvalidArgument("invalid pagination: %v", err))
		return
	}
	q := model.QueryParam{Pagination: p}

	vaults, err := h.svc.GetVaultsWithPagination(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"offset": p.Offset,
		"limit":  p.Limit,
		"vaults": vaults,
	})
}

func (h *VaultHandler) TotalVaults(c *gin.Context) {
	total, err := h.svc.GetTotalVaults(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

// EndorsedVaults GET /v1/vaults/endorsed?allow=0x..,0x..
func (h *VaultHandler) EndorsedVaults(c *gin.Context) {
	var allow []string
	for _, part := range strings.Split(c.Query("allow"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			allow = append(allow, part)
		}
	}
	vaults, err := h.svc.GetEndorsedVaults(c.Request.Context(), allow)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(vaults), "vaults": vaults})
}

func (h *VaultHandler) GetVault(c *gin.Context) {
	vault, err := h.svc.GetVault(c.Request.Context(), c.Param("address"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vault)
}

func (h *VaultHandler) GetStrategy(c *gin.Context) {
	strategy, err := h.svc.GetStrategy(c.Request.Context(), c.Param("address"), c.Param("strategy"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, strategy)
}

// LoadAll POST /v1/vaults/load[?refresh=true]
// 同步跑完整分页加载，中途的批次可通过 /v1/vaults/snapshot 读取
func (h *VaultHandler) LoadAll(c *gin.Context) {
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		h.svc.Reset()
	}
	vaults, err := h.agg.FetchAll(c.Request.Context(), h.pageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(vaults), "vaults": vaults})
}

func (h *VaultHandler) Snapshot(c *gin.Context) {
	snap, err := h.agg.Store().Latest(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInternal, "read snapshot", err))
		return
	}
	c.JSON(http.StatusOK, snap)
}
