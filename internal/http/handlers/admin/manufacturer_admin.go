package admin

import (
	"errors"
	"strconv"

	handlershared "github.com/lumina-verify/internal/http/handlers/shared"
	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateManufacturerRequest 创建厂商请求
type CreateManufacturerRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required"`
	Password       string `json:"password" binding:"required"`
	Plan           string `json:"plan"`
	RegistryNumber string `json:"registry_number"`
}

// CreateManufacturer 创建厂商账号
func (h *Handler) CreateManufacturer(c *gin.Context) {
	var req CreateManufacturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	mfr, err := h.ManufacturerService.CreateManufacturer(service.CreateManufacturerInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Plan:           req.Plan,
		RegistryNumber: req.RegistryNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid manufacturer parameters", nil)
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, response.CodeBadRequest, "email already registered", nil)
		default:
			respondError(c, response.CodeInternal, "create manufacturer failed", err)
		}
		return
	}

	response.Success(c, mfr)
}

// ListManufacturers 查询厂商列表
func (h *Handler) ListManufacturers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	mfrs, total, err := h.ManufacturerService.ListManufacturers(service.ManufacturerListInput{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
		Plan:     c.Query("plan"),
		AIStatus: c.Query("ai_status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "list manufacturers failed", err)
		return
	}

	response.SuccessWithPage(c, mfrs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.BuildTotalPage(total, pageSize),
	})
}
