package handlers

import (
	"strconv"
	"strings"

	"github.com/wilforlan/suncture-feedback-board/internal/models"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/gin-gonic/gin"
)

// ParseLimit reads a positive integer query parameter. Missing or invalid
// values fall back to defaultLimit; values above maxLimit are clamped.
func ParseLimit(c *gin.Context, key string, defaultLimit, maxLimit int) int {
	limit, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// ParseFilters returns a map of non-empty trimmed query params for the given keys.
func ParseFilters(c *gin.Context, keys ...string) map[string]string {
	filters := make(map[string]string, len(keys))
	for _, key := range keys {
		if val := strings.TrimSpace(c.Query(key)); val != "" {
			filters[key] = val
		}
	}
	return filters
}

// ParseStatusFilter reads the optional status query parameter.
func ParseStatusFilter(c *gin.Context) (*models.Status, error) {
	raw, ok := ParseFilters(c, "status")["status"]
	if !ok {
		return nil, nil
	}
	status, valid := models.ParseStatus(raw)
	if !valid {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidStatus, "unknown status %q", raw)
	}
	return &status, nil
}
