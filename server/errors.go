// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package server

import (
	"github.com/gin-gonic/gin"
)

// Error codes used in API error responses.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeNoRun         = "NO_RUN"
	ErrCodeEmptyExport   = "EMPTY_EXPORT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeInvalidFilter = "INVALID_FILTER"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of all API error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// abort the request with the specified HTTP status and error.
func abort(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}
