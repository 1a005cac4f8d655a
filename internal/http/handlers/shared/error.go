package shared

import (
	"errors"

	"github.com/vitrina-shop/internal/http/response"
	"github.com/vitrina-shop/internal/logger"
	"github.com/vitrina-shop/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		log := RequestLog(c)
		if code >= response.CodeInternal {
			log.Errorw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", err)
		} else {
			log.Infow("handler_rejected", "code", appErr.Code, "message", appErr.Message, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondServiceError 按业务错误类型映射状态码
func RespondServiceError(c *gin.Context, err error) {
	code, msg := MapServiceError(err)
	RespondError(c, code, msg, err)
}

// MapServiceError 业务错误到响应码与提示
func MapServiceError(err error) (int, string) {
	var checkoutErr *service.CheckoutError
	switch {
	case err == nil:
		return response.CodeOK, "success"
	case isAppError(err):
		appErr, _ := response.AsAppError(err)
		return appErr.Code, appErr.Message
	case errors.As(err, &checkoutErr):
		return response.CodeUnprocessableEntity, checkoutErr.Error()
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrProductUnavailable):
		return response.CodeConflict, err.Error()
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderItemNotFound),
		errors.Is(err, service.ErrShipmentNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrNotFound):
		return response.CodeNotFound, err.Error()
	case errors.Is(err, service.ErrOrderStatusInvalid),
		errors.Is(err, service.ErrOrderNotEditable),
		errors.Is(err, service.ErrShipmentNotRetryable),
		errors.Is(err, service.ErrShipmentExists):
		return response.CodeConflict, err.Error()
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrDeliverySettingInvalid):
		return response.CodeBadRequest, err.Error()
	default:
		return response.CodeInternal, "internal error"
	}
}

func isAppError(err error) bool {
	_, ok := response.AsAppError(err)
	return ok
}
