package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BerniceZTT/territory_end/models"
	"github.com/BerniceZTT/territory_end/repository"
	"github.com/BerniceZTT/territory_end/utils"
)

// 请求体超过该大小时不记录
const maxLoggedBody = 64 << 10

// 需要记录的HTTP方法
var loggedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// 不需要记录的路径
var excludedPaths = map[string]bool{
	"/api/auth/login": true,
}

// OperationLogSink 审计记录的保存方式
type OperationLogSink func(ctx context.Context, log *models.OperationLog) error

// OperationLoggerMiddleware 记录写操作，sink 为空时写入 MongoDB
func OperationLoggerMiddleware(sink OperationLogSink) gin.HandlerFunc {
	if sink == nil {
		sink = repository.SaveOperationLog
	}
	return func(c *gin.Context) {
		// 检查是否需要记录此操作
		if !shouldLogOperation(c) {
			c.Next()
			return
		}

		startTime := time.Now()
		requestBody := readRequestBody(c)

		// 处理请求
		c.Next()

		operationLog := models.OperationLog{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			OperatorID:    "anonymous",
			RequestBody:   sanitizeData(requestBody),
			StatusCode:    c.Writer.Status(),
			Success:       c.Writer.Status() < http.StatusBadRequest,
			OperationTime: startTime,
			ResponseTime:  time.Since(startTime).Milliseconds(),
			IPAddress:     c.ClientIP(),
		}
		if user, err := utils.GetUser(c); err == nil {
			operationLog.OperatorID = user.ID
			operationLog.OperatorName = user.Username
			operationLog.OperatorRole = user.Role
		}
		if len(c.Errors) > 0 {
			operationLog.ErrorMessage = c.Errors.String()
		}

		// 请求已结束，使用独立的上下文保存
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink(ctx, &operationLog); err != nil {
			utils.Logger.Error().Err(err).Str("path", operationLog.Path).Msg("保存操作日志失败")
		}
	}
}

// shouldLogOperation 检查是否需要记录此操作
func shouldLogOperation(c *gin.Context) bool {
	if excludedPaths[c.Request.URL.Path] {
		return false
	}
	return loggedMethods[c.Request.Method]
}

// readRequestBody 读取并重置 JSON 请求体；文件上传只记录文件名
func readRequestBody(c *gin.Context) interface{} {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if fh, err := c.FormFile("file"); err == nil {
			return map[string]interface{}{"file": fh.Filename, "size": fh.Size}
		}
		return nil
	}
	if c.Request.Body == nil || c.Request.ContentLength > maxLoggedBody {
		return nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.Logger.Error().Err(err).Msg("读取请求体失败")
		return nil
	}
	// 重置请求体，以便后续处理
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))

	if len(raw) == 0 {
		return nil
	}
	var body interface{}
	if strings.Contains(contentType, "application/json") && json.Unmarshal(raw, &body) == nil {
		return body
	}
	return string(raw)
}

// sanitizeData 清理数据中的敏感信息
func sanitizeData(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		sanitized := make(map[string]interface{}, len(v))
		for k, val := range v {
			switch strings.ToLower(k) {
			case "password", "token", "authorization", "secret", "key":
				sanitized[k] = "******"
			default:
				sanitized[k] = sanitizeData(val)
			}
		}
		return sanitized
	case []interface{}:
		sanitized := make([]interface{}, len(v))
		for i, val := range v {
			sanitized[i] = sanitizeData(val)
		}
		return sanitized
	default:
		return data
	}
}
