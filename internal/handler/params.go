package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// idToString renders a snowflake ID for JSON. The values exceed the safe
// integer range of JavaScript numbers, so they travel as strings.
func idToString(id int64) string {
	return strconv.FormatInt(id, 10)
}
