package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"threadplanner/internal/model"
)

func ListPosts(posts PostStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := model.PostStatus(c.QueryParam("status"))
		list, err := posts.ListPosts(status)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, list)
	}
}

func DeletePost(posts PostStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := posts.DeletePost(c.Param("id"))
		if errors.Is(err, model.ErrorPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func DeletePendingPosts(posts PostStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		deleted, err := posts.DeletePending()
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
	}
}

// RequeuePost puts a failed post back in the publish queue.
func RequeuePost(posts PostStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := posts.Requeue(c.Param("id"))
		if errors.Is(err, model.ErrorPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no failed post with that id")
		}
		if err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
