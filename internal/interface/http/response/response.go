package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/market-moderation/internal/logger"
	"github.com/ignatzorin/market-moderation/internal/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type PaginatedResponse struct {
	Success    bool       `json:"success"`
	Data       Page       `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Page - окно списка: элементы и общее число записей под фильтром.
type Page struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Skip    int  `json:"skip"`
	HasMore bool `json:"has_more"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

func Paginated(c *gin.Context, items interface{}, total, limit, skip int) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    Page{Items: items, Total: total},
		Pagination: Pagination{
			Total:   total,
			Limit:   limit,
			Skip:    skip,
			HasMore: skip+limit < total,
		},
	})
}

func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logError(c, err)
			c.JSON(appErr.HTTPStatus, Response{
				Success: false,
				Error: &ErrorInfo{
					Code:    string(appErr.Code),
					Message: "внутренняя ошибка сервера",
				},
			})
			return
		}
		c.JSON(appErr.HTTPStatus, Response{
			Success: false,
			Error: &ErrorInfo{
				Code:    string(appErr.Code),
				Message: appErr.Message,
				Details: appErr.Details,
			},
		})
		return
	}

	logError(c, err)
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeInternal),
			Message: "внутренняя ошибка сервера",
		},
	})
}

func logError(c *gin.Context, err error) {
	logger.Log.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).WithError(err).Error("Request error")
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeUnauthorized),
			Message: message,
		},
	})
}

// Abort пишет ошибку и прерывает цепочку middleware.
func Abort(c *gin.Context, status int, code apperror.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(code),
			Message: message,
		},
	})
}
