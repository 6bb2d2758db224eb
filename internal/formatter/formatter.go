// package formatter renders run reports to downloadable formats (CSV, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/antonioabatte/spotizip/internal/models"
)

// ReportToCSV converts a run report to CSV format with columns: Position, Artist, Title, Status, Detail
func ReportToCSV(playlist *models.Playlist, report []models.TrackReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Artist", "Title", "Status", "Detail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range report {
		record := []string{
			strconv.Itoa(row.Position),
			row.Artist,
			row.Title,
			string(row.Status),
			row.Detail,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToText converts a run report to plain text format
func ReportToText(playlist *models.Playlist, report []models.TrackReport) ([]byte, error) {
	var buf bytes.Buffer

	var downloaded, skipped, failed int
	for _, row := range report {
		switch row.Status {
		case models.TrackDownloaded:
			downloaded++
		case models.TrackSkipped:
			skipped++
		case models.TrackFailed:
			failed++
		}
	}

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Name))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n", len(report)))
	buf.WriteString(fmt.Sprintf("Downloaded: %d, Skipped: %d, Failed: %d\n\n", downloaded, skipped, failed))

	for _, row := range report {
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s", row.Position, statusGlyph(row.Status), row.Artist, row.Title))
		if row.Status != models.TrackDownloaded && row.Detail != "" {
			buf.WriteString(fmt.Sprintf(" (%s)", row.Detail))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func statusGlyph(status models.TrackStatus) string {
	switch status {
	case models.TrackDownloaded:
		return "✓"
	case models.TrackFailed:
		return "✗"
	default:
		return "-"
	}
}
