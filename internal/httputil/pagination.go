package httputil

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

var (
	errInvalidOffset = errors.New("invalid offset parameter: must be a non-negative integer")
	errInvalidLimit  = errors.New("invalid limit parameter: must be between 1 and 100")
)

// Page is an offset/limit window over a listing.
type Page struct {
	Offset int
	Limit  int
}

// Next returns the offset of the following page, or nil when a listing that
// returned count items is exhausted.
func (p Page) Next(count int) *int {
	if count < p.Limit {
		return nil
	}
	next := p.Offset + p.Limit
	return &next
}

// ParsePage reads offset (default 0) and limit (default 50, max 100) from the
// query string.
func ParsePage(c *gin.Context) (Page, error) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return Page{}, errInvalidOffset
	}

	limit, err := queryInt(c, "limit", defaultPageLimit)
	if err != nil || limit < 1 || limit > maxPageLimit {
		return Page{}, errInvalidLimit
	}

	return Page{Offset: offset, Limit: limit}, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	return strconv.Atoi(raw)
}
