package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/middleware"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
	"github.com/EmbargoMedia/ObligeWorks-sub000/services"
	"github.com/EmbargoMedia/ObligeWorks-sub000/utils"
)

// CreateIssueRequest represents the request body for filing an A/S ticket.
// OrderID is taken from the URL when the ticket is filed under an order.
type CreateIssueRequest struct {
	OrderID         uint   `json:"order_id"`
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description" binding:"required"`
	ServiceCategory string `json:"service_category" binding:"required"`
}

// UpdateIssueRequest represents the staff-side ticket update body
type UpdateIssueRequest struct {
	Status              string `json:"status" binding:"omitempty"`
	ServiceCategory     string `json:"service_category" binding:"omitempty"`
	ServiceType         string `json:"service_type" binding:"omitempty"`
	ResponsibleWorkshop string `json:"responsible_workshop" binding:"omitempty"`
	EstimatedDuration   string `json:"estimated_duration" binding:"omitempty"`
	Override            bool   `json:"override"`
}

// AddTechnicalLogRequest represents the request body for a work note
type AddTechnicalLogRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note" binding:"required"`
}

// SendIssueMessageRequest represents a chat message on a ticket
type SendIssueMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreateIssue handles POST /api/v1/issues - files an A/S ticket against an
// order. Category and description are mandatory; nothing is persisted when
// validation fails.
func CreateIssue(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	// POST /orders/:id/issues carries the order in the path
	if id := c.Param("id"); id != "" {
		orderID, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		req.OrderID = uint(orderID)
	}
	if req.OrderID == 0 {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "order_id is required")
		return
	}

	if !models.IsValidServiceCategory(req.ServiceCategory) {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown service category: "+req.ServiceCategory)
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, req.OrderID).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if user.Role == middleware.RoleCustomer && order.CustomerID != user.ID {
		errorResponse(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
		return
	}

	issue := models.IssueTicket{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		Title:           req.Title,
		Description:     req.Description,
		Status:          models.IssueStatusReceived,
		ServiceCategory: req.ServiceCategory,
		ServiceType:     models.ServiceTypeFree,
	}

	if err := db.Create(&issue).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create ticket")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    issue,
	})
}

// ListIssues handles GET /api/v1/issues - customers see their own tickets,
// staff see all. Supports ?status= and ?order_id=.
func ListIssues(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Model(&models.IssueTicket{}).Preload("TechnicalLogs")

	if user.Role == middleware.RoleCustomer {
		query = query.Where("customer_id = ?", user.ID)
	}
	if status := c.Query("status"); status != "" {
		if !models.IsValidIssueStatus(status) {
			errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown ticket status: "+status)
			return
		}
		query = query.Where("status = ?", status)
	}
	if orderID := c.Query("order_id"); orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}

	var issues []models.IssueTicket
	if err := query.Order("created_at DESC").Find(&issues).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list tickets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    issues,
	})
}

// getIssueForUser loads a ticket and checks the caller may see it
func getIssueForUser(c *gin.Context, user *models.User) (*models.IssueTicket, bool) {
	db := config.GetDB()
	var issue models.IssueTicket
	if err := db.Preload("TechnicalLogs", func(db *gorm.DB) *gorm.DB {
		return db.Order("technical_logs.created_at DESC")
	}).Preload("Photos").First(&issue, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ISSUE_NOT_FOUND", "Ticket not found")
		return nil, false
	}

	if user.Role == middleware.RoleCustomer && issue.CustomerID != user.ID {
		errorResponse(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this ticket")
		return nil, false
	}

	return &issue, true
}

// GetIssue handles GET /api/v1/issues/:id
func GetIssue(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	issue, ok := getIssueForUser(c, user)
	if !ok {
		return
	}

	// Attach presigned URLs for photos
	if imageService := services.GetImageService(); imageService != nil {
		for i := range issue.Photos {
			if url, err := imageService.GetImageURL(issue.Photos[i].ImageS3Key); err == nil {
				issue.Photos[i].ImageURL = url
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    issue,
	})
}

// UpdateIssue handles PATCH /api/v1/issues/:id - staff updates ticket
// fields. Status changes must follow the linear workflow unless the
// request carries override=true, in which case the bypass is recorded in
// the technical log.
func UpdateIssue(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	var req UpdateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	db := config.GetDB()
	var issue models.IssueTicket
	if err := db.First(&issue, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ISSUE_NOT_FOUND", "Ticket not found")
		return
	}

	var overrideLog *models.TechnicalLog
	if req.Status != "" && req.Status != issue.Status {
		if !models.IsValidIssueStatus(req.Status) {
			errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown ticket status: "+req.Status)
			return
		}
		if !models.IssueStatusFollows(issue.Status, req.Status) {
			if !req.Override {
				errorResponse(c, http.StatusConflict, "STATUS_CONFLICT",
					"Ticket status "+issue.Status+" cannot move to "+req.Status+" without override")
				return
			}
			overrideLog = &models.TechnicalLog{
				IssueID: issue.ID,
				Action:  "상태 변경 (관리자 재량)",
				Note:    issue.Status + " → " + req.Status,
			}
		}
		issue.Status = req.Status
	}

	if req.ServiceCategory != "" {
		if !models.IsValidServiceCategory(req.ServiceCategory) {
			errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown service category: "+req.ServiceCategory)
			return
		}
		issue.ServiceCategory = req.ServiceCategory
	}
	if req.ServiceType != "" {
		if !models.IsValidServiceType(req.ServiceType) {
			errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown service type: "+req.ServiceType)
			return
		}
		issue.ServiceType = req.ServiceType
	}
	if req.ResponsibleWorkshop != "" {
		issue.ResponsibleWorkshop = req.ResponsibleWorkshop
	}
	if req.EstimatedDuration != "" {
		issue.EstimatedDuration = req.EstimatedDuration
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&issue).Error; err != nil {
			return err
		}
		if overrideLog != nil {
			return tx.Create(overrideLog).Error
		}
		return nil
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update ticket")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    issue,
	})
}

// AddTechnicalLog handles POST /api/v1/issues/:id/logs - appends a work
// note. Both action and note are required; the log is append-only.
func AddTechnicalLog(c *gin.Context) {
	_, ok := requireStaff(c)
	if !ok {
		return
	}

	var req AddTechnicalLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	db := config.GetDB()
	var issue models.IssueTicket
	if err := db.First(&issue, c.Param("id")).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "ISSUE_NOT_FOUND", "Ticket not found")
		return
	}

	entry := models.TechnicalLog{
		IssueID: issue.ID,
		Action:  req.Action,
		Note:    req.Note,
	}
	if err := db.Create(&entry).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to add log entry")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    entry,
	})
}

// AddIssuePhoto handles POST /api/v1/issues/:id/photos - attaches a photo
// to a ticket. Both the customer who filed the ticket and staff may attach
// photos. Returns the updated photo list.
func AddIssuePhoto(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	issue, ok := getIssueForUser(c, user)
	if !ok {
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

	photo := models.IssuePhoto{
		IssueID:    issue.ID,
		ImageS3Key: imageKey,
	}
	db := config.GetDB()
	if err := db.Create(&photo).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save photo")
		return
	}

	var photos []models.IssuePhoto
	if err := db.Where("issue_id = ?", issue.ID).Order("created_at ASC").Find(&photos).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load photos")
		return
	}

	for i := range photos {
		if url, err := imageService.GetImageURL(photos[i].ImageS3Key); err == nil {
			photos[i].ImageURL = url
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    photos,
	})
}

// ListIssueMessages handles GET /api/v1/issues/:id/messages
func ListIssueMessages(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	issue, ok := getIssueForUser(c, user)
	if !ok {
		return
	}

	db := config.GetDB()
	var messages []models.IssueMessage
	if err := db.Preload("Sender").Where("issue_id = ?", issue.ID).
		Order("created_at ASC").Find(&messages).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// SendIssueMessage handles POST /api/v1/issues/:id/messages - appends a
// chat message to the ticket conversation
func SendIssueMessage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	issue, ok := getIssueForUser(c, user)
	if !ok {
		return
	}

	var req SendIssueMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err.Error())
		return
	}

	message := models.IssueMessage{
		IssueID:  issue.ID,
		SenderID: user.ID,
		Text:     req.Text,
	}

	db := config.GetDB()
	if err := db.Create(&message).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to send message")
		return
	}

	if err := db.Preload("Sender").First(&message, message.ID).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}
