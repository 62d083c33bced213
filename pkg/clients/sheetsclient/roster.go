package sheetsclient

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/core/allocator"
)

// tabDateLayout is used in tab titles
const tabDateLayout = "02.01.2006"

// RosterTabTitle names the tab a roster is published to, e.g. "01.04.2024 - 30.04.2024"
func RosterTabTitle(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Format(tabDateLayout), end.Format(tabDateLayout))
}

// RosterValues renders the grid as sheet rows: a "Date" header with the posts,
// then one row per date. display renders cell values and may be nil.
func RosterValues(grid *allocator.RosterGrid, display func(string) string) [][]interface{} {
	header := make([]interface{}, 0, len(grid.Posts)+1)
	header = append(header, "Date")
	for _, p := range grid.Posts {
		header = append(header, p)
	}

	values := make([][]interface{}, 0, len(grid.Rows)+1)
	values = append(values, header)
	for _, row := range grid.Rows {
		r := make([]interface{}, 0, len(row.Cells)+1)
		r = append(r, row.Date.Format(tabDateLayout))
		for _, cell := range row.Cells {
			if display != nil {
				cell = display(cell)
			}
			r = append(r, cell)
		}
		values = append(values, r)
	}
	return values
}

// PublishRoster writes the grid to a tab named after its date range.
// The tab is created if it doesn't exist, otherwise its values are cleared and rewritten.
// It returns the tab title.
func (c *Client) PublishRoster(spreadsheetID string, grid *allocator.RosterGrid, display func(string) string, logger *zap.Logger) (string, error) {
	if len(grid.Rows) == 0 {
		return "", fmt.Errorf("cannot publish an empty roster")
	}

	title := RosterTabTitle(grid.Start(), grid.End())

	exists, err := c.HasSheet(spreadsheetID, title)
	if err != nil {
		return "", err
	}

	if exists {
		logger.Debug("Clearing existing roster tab", zap.String("tab", title))
		if err := c.ClearSheet(spreadsheetID, title); err != nil {
			return "", err
		}
	} else {
		logger.Debug("Creating roster tab", zap.String("tab", title))
		if _, err := c.CreateSheet(spreadsheetID, title); err != nil {
			return "", fmt.Errorf("failed to create tab: %w", err)
		}
	}

	if err := c.WriteValues(spreadsheetID, title, RosterValues(grid, display)); err != nil {
		return "", err
	}

	return title, nil
}
