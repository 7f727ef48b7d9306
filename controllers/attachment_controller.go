package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/middleware"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
	"github.com/EmbargoMedia/ObligeWorks-sub000/services"
	"github.com/EmbargoMedia/ObligeWorks-sub000/utils"
)

// AddOrderAttachment handles POST /api/v1/orders/:id/attachments - appends
// a photo to an order. Both the customer who owns the order and staff may
// attach photos. Returns the updated attachment list.
func AddOrderAttachment(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if user.Role == middleware.RoleCustomer && order.CustomerID != user.ID {
		errorResponse(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "MISSING_FILE", "A photo file is required")
		return
	}

	imageService := services.GetImageService()
	if imageService == nil {
		errorResponse(c, http.StatusInternalServerError, "STORAGE_ERROR", "Image storage is not configured")
		return
	}

	imageKey, err := imageService.UploadImage(fileHeader)
	if err != nil {
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			errorResponse(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		errorResponse(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to store photo")
		return
	}

	attachment := models.Attachment{
		OrderID:    order.ID,
		ImageS3Key: imageKey,
		UploadedBy: user.ID,
	}
	if err := db.Create(&attachment).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save attachment")
		return
	}

	var attachments []models.Attachment
	if err := db.Where("order_id = ?", order.ID).Order("created_at ASC").Find(&attachments).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load attachments")
		return
	}

	for i := range attachments {
		if url, err := imageService.GetImageURL(attachments[i].ImageS3Key); err == nil {
			attachments[i].ImageURL = url
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    attachments,
	})
}

// DeleteOrderAttachment handles DELETE /api/v1/orders/:id/attachments/:attachmentId -
// removes a photo from the order and from storage
func DeleteOrderAttachment(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if user.Role == middleware.RoleCustomer && order.CustomerID != user.ID {
		errorResponse(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
		return
	}

	var attachment models.Attachment
	if err := db.Where("order_id = ?", order.ID).
		First(&attachment, c.Param("attachmentId")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ATTACHMENT_NOT_FOUND", "Attachment not found on this order")
		return
	}

	if imageService := services.GetImageService(); imageService != nil {
		if err := imageService.DeleteImage(attachment.ImageS3Key); err != nil {
			errorResponse(c, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to delete photo from storage")
			return
		}
	}

	if err := db.Delete(&attachment).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete attachment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": attachment.ID},
	})
}
