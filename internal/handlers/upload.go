package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"threadplanner/internal/model"
	"threadplanner/internal/parser"
	"threadplanner/internal/service/publisher"
	"threadplanner/internal/store"
	"threadplanner/internal/validation"
)

type PostStore interface {
	CreatePosts(posts []model.NormalizedPost, policy store.SchedulingPolicy) ([]model.Post, error)
	ListPosts(status model.PostStatus) ([]model.Post, error)
	DeletePost(id string) error
	DeletePending() (int64, error)
	Requeue(id string) error
}

type Publisher interface {
	RunDue(ctx context.Context) (*publisher.RunSummary, error)
	RefreshTokenIfStale(ctx context.Context) (bool, error)
}

// UploadPosts ingests a markdown or spreadsheet file of post drafts. The
// whole batch must validate; any violation rejects the upload with the full
// list. The "slots=daily" query switches schedule assignment from sequential
// FIFO timestamps to fixed KST daily slots.
func UploadPosts(posts PostStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		file, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "missing file upload")
		}

		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("opening upload: %w", err)
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return fmt.Errorf("reading upload: %w", err)
		}

		parsed, err := parsePostFile(file.Filename, data)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if len(parsed) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "no posts found in file")
		}

		if err := validation.ValidateBatch(parsed); err != nil {
			var validationErr *model.ValidationError
			if errors.As(err, &validationErr) {
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"errors": validationErr.Errors,
				})
			}
			return err
		}

		policy := store.ScheduleSequential
		if c.QueryParam("slots") == "daily" {
			policy = store.ScheduleDailySlots
		}

		created, err := posts.CreatePosts(parsed, policy)
		if err != nil {
			return fmt.Errorf("creating posts: %w", err)
		}
		return c.JSON(http.StatusCreated, created)
	}
}

func parsePostFile(name string, data []byte) ([]model.NormalizedPost, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".txt":
		return parser.ParseMarkdown(string(data)), nil
	case ".xlsx":
		return parser.ParseSpreadsheet(data)
	case ".csv":
		return parser.ParseCSV(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", path.Ext(name))
	}
}
