package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bahikhata/internal/core"
	"bahikhata/internal/insight"
	"bahikhata/internal/log"
	"bahikhata/internal/storage"
)

// maxScanBytes bounds uploaded documents to 10 MB.
const maxScanBytes = 10 << 20

// ScanService runs document extraction over uploads and records the result.
type ScanService struct {
	storage   *storage.SQLiteRepository
	extractor insight.DocumentExtractor
}

func NewScanService(storage *storage.SQLiteRepository, extractor insight.DocumentExtractor) *ScanService {
	if extractor == nil {
		extractor = insight.StaticExtractor{}
	}
	return &ScanService{storage: storage, extractor: extractor}
}

// ScanDocument extracts candidate amounts from an uploaded receipt or
// invoice and stores the scan. Nothing recognized is a valid outcome, not
// an error.
func (s *ScanService) ScanDocument(ctx context.Context, userID, filename, contentType string, data []byte) (core.DocumentScan, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return core.DocumentScan{}, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	if !supportedUpload(contentType) {
		return core.DocumentScan{}, fmt.Errorf("%w: %s", core.ErrUnsupportedUpload, contentType)
	}
	if len(data) == 0 {
		return core.DocumentScan{}, fmt.Errorf("%w: empty file", core.ErrUnsupportedUpload)
	}
	if len(data) > maxScanBytes {
		return core.DocumentScan{}, fmt.Errorf("%w: file exceeds %d bytes", core.ErrUnsupportedUpload, maxScanBytes)
	}

	extracted, err := s.extractor.Extract(ctx, filename, contentType, data)
	if err != nil {
		return core.DocumentScan{}, fmt.Errorf("extract document: %w", err)
	}

	scan := core.DocumentScan{
		ID:        uuid.New().String(),
		UserID:    userID,
		Filename:  filename,
		Extracted: extracted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.storage.CreateScan(ctx, scan); err != nil {
		return core.DocumentScan{}, fmt.Errorf("store scan: %w", err)
	}

	slog.InfoContext(ctx, "Document scanned",
		log.FieldUserID, userID,
		log.FieldScanID, scan.ID,
		log.FieldFilename, filename)
	return scan, nil
}

func supportedUpload(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}
