package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"threadplanner/internal/model"
)

// ParseSpreadsheet reads post drafts from the first sheet of an xlsx
// workbook. The header row names the columns: "content", "images"
// (comma-separated URLs) and "scheduledAt". Rows with blank content are
// dropped.
func ParseSpreadsheet(data []byte) ([]model.NormalizedPost, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	return postsFromRows(rows), nil
}

// ParseCSV reads the same column contract from a CSV file.
func ParseCSV(data []byte) ([]model.NormalizedPost, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	return postsFromRows(rows), nil
}

func postsFromRows(rows [][]string) []model.NormalizedPost {
	if len(rows) < 2 {
		return nil
	}

	columns := map[string]int{}
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}
	contentCol, ok := columns["content"]
	if !ok {
		return nil
	}
	imagesCol, hasImages := columns["images"]
	scheduledCol, hasScheduled := columns["scheduledAt"]

	var posts []model.NormalizedPost
	for _, row := range rows[1:] {
		content := strings.TrimSpace(cell(row, contentCol))
		if content == "" {
			continue
		}

		post := model.NormalizedPost{Content: content}
		if hasImages {
			for _, url := range strings.Split(cell(row, imagesCol), ",") {
				if url = strings.TrimSpace(url); url != "" {
					post.Images = append(post.Images, url)
				}
			}
		}
		if hasScheduled {
			post.ScheduledAt = ParseScheduleDate(cell(row, scheduledCol))
		}
		posts = append(posts, post)
	}
	return posts
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
