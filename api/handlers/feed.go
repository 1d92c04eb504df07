package handlers

import (
	"errors"
	"net/http"
	"photofeed/api/middleware"
	"photofeed/services"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetFeed отдает страницу ленты; нечисловые page и limit заменяются значениями по умолчанию
func GetFeed(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	query := services.FeedQuery{Anchor: c.Query("anchor")}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		query.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		query.Limit = limit
	}

	started := time.Now()
	page, err := feedService.GetFeed(c.Request.Context(), userID, query)
	if err != nil {
		middleware.RecordFeedBuild(time.Since(started), 0, feedErrorType(err))
		respondError(c, err)
		return
	}
	middleware.RecordFeedBuild(time.Since(started), len(page.Posts), "")

	respondOK(c, http.StatusOK, gin.H{"posts": page.Posts, "pagination": page.Pagination})
}

func feedErrorType(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "validation"
	case errors.Is(err, services.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "unknown"
	}
}
