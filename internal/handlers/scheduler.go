package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"threadplanner/internal/model"
)

// RunScheduler is the endpoint the external cron trigger calls. Safe to
// invoke at arbitrary intervals; an empty due set is a no-op run.
func RunScheduler(pub Publisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary, err := pub.RunDue(c.Request().Context())
		if errors.Is(err, model.ErrorNoCredentials) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, summary)
	}
}

func RefreshToken(pub Publisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		refreshed, err := pub.RefreshTokenIfStale(c.Request().Context())
		if errors.Is(err, model.ErrorNoCredentials) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]bool{"refreshed": refreshed})
	}
}
