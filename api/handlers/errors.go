// ABOUTME: Error handling utilities for API handlers
// ABOUTME: Converts domain errors to appropriate HTTP responses

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsfeed-canon/core/errors"
	"newsfeed-canon/core/workers"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// statusFor maps a domain error to an HTTP status and title
func statusFor(err error) (int, string) {
	if errors.IsNotFound(err) {
		return http.StatusNotFound, "Not Found"
	}

	if errors.IsValidation(err) {
		return http.StatusBadRequest, "Bad Request"
	}

	if errors.IsConfigInvalid(err) {
		return http.StatusUnprocessableEntity, "Invalid source config"
	}

	if errors.IsFetchFailure(err) {
		return http.StatusBadGateway, "Upstream fetch failed"
	}

	if err == workers.ErrQueueFull || err == workers.ErrWorkerNotRunning {
		return http.StatusServiceUnavailable, "Crawl queue unavailable"
	}

	if errors.IsExternalAPI(err) {
		if apiErr, ok := err.(*errors.ExternalAPIError); ok {
			switch {
			case apiErr.StatusCode >= 500:
				return http.StatusServiceUnavailable, "External service error"
			case apiErr.StatusCode == 429:
				return http.StatusTooManyRequests, "Rate limited by external service"
			case apiErr.StatusCode >= 400:
				return http.StatusBadRequest, "External service request error"
			}
		}
		return http.StatusInternalServerError, "Unexpected external service response"
	}

	return http.StatusInternalServerError, "Internal server error"
}

// writeError aborts the request with the mapped status and error body
func writeError(c *gin.Context, err error) {
	status, title := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		// internal details stay in the logs
		detail = ""
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Status: status, Title: title, Detail: detail})
}
