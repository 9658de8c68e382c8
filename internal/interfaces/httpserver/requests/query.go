package requests

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageQuery is the common limit/offset query of list endpoints.
type PageQuery struct {
	Limit  int
	Offset int
}

// GetPageFromQuery reads limit and offset. Absent values are zero so the
// domain defaults apply; malformed or negative values are rejected.
func GetPageFromQuery(c *gin.Context) (PageQuery, bool) {
	var page PageQuery
	var ok bool
	if page.Limit, ok = nonNegativeInt(c.Query("limit")); !ok {
		return page, false
	}
	if page.Offset, ok = nonNegativeInt(c.Query("offset")); !ok {
		return page, false
	}
	return page, true
}

func nonNegativeInt(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
