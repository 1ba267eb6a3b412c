package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Root returns a plain-text status line naming the shop and feed paths.
func Root(shop string) echo.HandlerFunc {
	line := fmt.Sprintf("zbozi-feed for %s is running; feed at /feed.xml and /feed-cz.xml\n", shop)
	return func(c echo.Context) error {
		return c.String(http.StatusOK, line)
	}
}
