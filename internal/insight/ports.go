// Package insight holds the narrative collaborators: an advisor that turns a
// day's totals into insight text and action points, and an extractor that
// pulls categorized amounts out of scanned documents. Both have an
// OpenAI-backed implementation and a deterministic offline one.
package insight

import (
	"context"

	"bahikhata/internal/core"
)

type (
	// ReportAdvisor produces the narrative attached to a daily report.
	// Implementations must cap action points at core.MaxActionPoints.
	ReportAdvisor interface {
		Advise(ctx context.Context, report core.DailyReport) (insights string, actionPoints []string, err error)
	}

	// DocumentExtractor recognizes categorized amounts in an uploaded
	// image or PDF. Unrecognizable content yields empty ExtractedData,
	// not an error.
	DocumentExtractor interface {
		Extract(ctx context.Context, filename, contentType string, data []byte) (core.ExtractedData, error)
	}
)

// clampActionPoints enforces the report contract's upper bound.
func clampActionPoints(points []string) []string {
	if len(points) > core.MaxActionPoints {
		return points[:core.MaxActionPoints]
	}
	return points
}
