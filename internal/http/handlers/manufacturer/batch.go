package manufacturer

import (
	"errors"
	"strconv"
	"time"

	handlershared "github.com/lumina-verify/internal/http/handlers/shared"
	"github.com/lumina-verify/internal/http/response"
	"github.com/lumina-verify/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateBatchRequest 创建批次请求
type CreateBatchRequest struct {
	ProductID      uint       `json:"product_id" binding:"required"`
	BatchNumber    string     `json:"batch_number" binding:"required"`
	Quantity       int        `json:"quantity" binding:"required"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

// CreateBatch 创建生产批次
func (h *Handler) CreateBatch(c *gin.Context) {
	mfrID, ok := getManufacturerID(c)
	if !ok {
		return
	}
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	batch, err := h.BatchService.CreateBatch(service.CreateBatchInput{
		ManufacturerID: mfrID,
		ProductID:      req.ProductID,
		BatchNumber:    req.BatchNumber,
		Quantity:       req.Quantity,
		ExpirationDate: req.ExpirationDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			respondError(c, response.CodeBadRequest, "invalid batch parameters", nil)
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeNotFound, "product not found", nil)
		default:
			respondError(c, response.CodeInternal, "create batch failed", err)
		}
		return
	}

	response.Success(c, batch)
}

// ListBatches 查询批次列表
func (h *Handler) ListBatches(c *gin.Context) {
	mfrID, ok := getManufacturerID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	batches, total, err := h.BatchService.ListBatches(mfrID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "list batches failed", err)
		return
	}

	response.SuccessWithPage(c, batches, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: handlershared.BuildTotalPage(total, pageSize),
	})
}
