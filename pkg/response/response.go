package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the one response envelope every route uses. Error bodies
// carry a short human-readable message and optional details; internals never
// leak past the handler boundary.
type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
}

func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
}

// OK builds and writes a success envelope in one step.
func OK[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) {
	resp := Success(ctx, status, data, message, meta)
	ctx.JSON(resp.Status, resp)
}

// Fail builds and writes an error envelope in one step.
func Fail(ctx *gin.Context, status int, message string, err interface{}) {
	resp := Error[any](ctx, status, message, err)
	ctx.JSON(resp.Status, resp)
}
