package middleware

import (
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/songquanpeng/hamming-ci/common/ctxkey"
	relaymodel "github.com/songquanpeng/hamming-ci/relay/model"
)

// AbortWithError aborts the request with the API's error envelope.
func AbortWithError(c *gin.Context, statusCode int, err error) {
	logger := gmw.GetLogger(c)
	if statusCode < 500 {
		logger.Warn("server abort",
			zap.Int("status_code", statusCode),
			zap.Error(err))
	} else {
		logger.Error("server abort",
			zap.Int("status_code", statusCode),
			zap.Error(err))
	}

	c.JSON(statusCode, relaymodel.ErrorResponse{
		Error:   err.Error(),
		Message: "request id: " + c.GetString(ctxkey.RequestId),
	})
	c.Abort()
}
