package services

import (
	"context"
	"errors"
	"testing"

	"bahikhata/internal/core"
)

func TestScanDocument(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewScanService(repo, nil)
	user := seedUser(t, repo, "user-1", "asha@example.com")

	scan, err := svc.ScanDocument(context.Background(), user.ID, "receipt.jpg", "image/jpeg", []byte("fake-jpeg-bytes"))
	if err != nil {
		t.Fatalf("ScanDocument: %v", err)
	}
	if scan.ID == "" {
		t.Error("expected generated scan ID")
	}
	if scan.Filename != "receipt.jpg" {
		t.Errorf("filename = %q, want receipt.jpg", scan.Filename)
	}
	// Nothing recognized is a valid outcome.
	if len(scan.Extracted.Sales) != 0 || scan.Extracted.RawText != "" {
		t.Errorf("static extractor should return empty data, got %+v", scan.Extracted)
	}
}

func TestScanDocumentContentTypes(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewScanService(repo, nil)
	user := seedUser(t, repo, "user-1", "asha@example.com")
	ctx := context.Background()

	tests := []struct {
		contentType string
		wantErr     bool
	}{
		{"image/png", false},
		{"image/jpeg; charset=binary", false},
		{"application/pdf", false},
		{"text/plain", true},
		{"application/zip", true},
		{"", true},
	}

	for _, tt := range tests {
		_, err := svc.ScanDocument(ctx, user.ID, "doc", tt.contentType, []byte("payload"))
		if tt.wantErr {
			if !errors.Is(err, core.ErrUnsupportedUpload) {
				t.Errorf("%q: err = %v, want ErrUnsupportedUpload", tt.contentType, err)
			}
		} else if err != nil {
			t.Errorf("%q: unexpected error %v", tt.contentType, err)
		}
	}
}

func TestScanDocumentRejectsEmptyFile(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewScanService(repo, nil)
	user := seedUser(t, repo, "user-1", "asha@example.com")

	if _, err := svc.ScanDocument(context.Background(), user.ID, "empty.png", "image/png", nil); !errors.Is(err, core.ErrUnsupportedUpload) {
		t.Errorf("err = %v, want ErrUnsupportedUpload", err)
	}
}

func TestScanDocumentUnknownUser(t *testing.T) {
	svc := NewScanService(newTestStorage(t), nil)

	_, err := svc.ScanDocument(context.Background(), "ghost", "receipt.jpg", "image/jpeg", []byte("x"))
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
