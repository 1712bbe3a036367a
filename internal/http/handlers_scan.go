package http

import (
	"io"
	"net/http"
	"strings"
)

// maxUploadMemory bounds the multipart parse buffer to 10 MB.
const maxUploadMemory = 10 << 20

func (s *Server) handleScanDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "Expected multipart form with a file field")
		return
	}

	userID := strings.TrimSpace(r.FormValue("user_id"))
	if userID == "" {
		writeDetail(w, http.StatusBadRequest, "user_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadMemory+1))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	scan, err := s.scanner.ScanDocument(r.Context(), userID, header.Filename, contentType, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Document scanned successfully",
		"extracted_data": scan.Extracted,
		"scan_id":        scan.ID,
	})
}
