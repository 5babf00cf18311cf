package handler // handler defines http handlers

import (
	"errors"  // errors provides the sentinel used in getUserID
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types
	"github.com/rs/zerolog/log"   // log is the process-wide structured logger
)

// errNoUser signals that no resolvable acting user is attached to the
// request context.
var errNoUser = errors.New("no user in context")

// getUserID extracts the acting user's id from echo.Context.  The identity
// middleware stores it as uint64 but the helper tolerates the other numeric
// shapes that can appear in tests.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errNoUser
}

// parseID parses the named path parameter as an unsigned integer id.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// logErr records an internal failure server-side.  The HTTP response body
// never carries the original error text.
func logErr(c echo.Context, err error, op string) {
	log.Error().Err(err).
		Str("op", op).
		Str("path", c.Path()).
		Msg("request failed")
}
