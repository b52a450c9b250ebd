package manufacturer

import (
	"errors"
	"strconv"

	handlershared "github.com/lumina-verify/internal/http/handlers/shared"
	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateProductRequest 创建产品请求
type CreateProductRequest struct {
	Name   string `json:"name" binding:"required"`
	Dosage string `json:"dosage"`
}

// CreateProduct 创建药品产品
func (h *Handler) CreateProduct(c *gin.Context) {
	mfrID, ok := getManufacturerID(c)
	if !ok {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	product, err := h.ProductService.CreateProduct(service.CreateProductInput{
		ManufacturerID: mfrID,
		Name:           req.Name,
		Dosage:         req.Dosage,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "product name is required", nil)
		default:
			respondError(c, response.CodeInternal, "create product failed", err)
		}
		return
	}

	response.Success(c, product)
}

// ListProducts 查询产品列表
func (h *Handler) ListProducts(c *gin.Context) {
	mfrID, ok := getManufacturerID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListProducts(mfrID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "list products failed", err)
		return
	}

	response.SuccessWithPage(c, products, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.BuildTotalPage(total, pageSize),
	})
}
