package server

import (
	"encoding/base64"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxUploadBytes bounds the multipart form; phone photos of ID cards run a
// few MB at most.
const maxUploadBytes = 16 << 20

// handleExtractDocument accepts a document photo, either as a multipart file
// upload under "document_image" or as a base64 data URL under "camera_image"
// (multipart or plain url-encoded form), runs extraction and returns the
// reconciled field record. Extraction never fails outright; an unreadable
// image yields a record of empty fields.
func (s *Server) handleExtractDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			s.logger.Warn("documents.parse.failed", "error", err)
			s.respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
	} else if err := r.ParseForm(); err != nil {
		s.logger.Warn("documents.parse.failed", "error", err)
		s.respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	path, cleanup, err := s.stageUpload(r)
	if err != nil {
		s.logger.Warn("documents.upload.rejected", "error", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	rec := s.extractor.Extract(r.Context(), path)

	s.logger.Info("documents.extracted",
		"populated", rec.Populated(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	s.writeJSON(w, http.StatusOK, rec)
}

// stageUpload writes the submitted image to a temp file and returns its path
// together with a cleanup func.
func (s *Server) stageUpload(r *http.Request) (string, func(), error) {
	if file, header, err := r.FormFile("document_image"); err == nil {
		defer func() { _ = file.Close() }()
		return s.stageReader(file, filepath.Ext(header.Filename))
	}

	if data := r.FormValue("camera_image"); data != "" {
		raw, err := decodeDataURL(data)
		if err != nil {
			return "", nil, err
		}
		return s.stageReader(strings.NewReader(string(raw)), ".png")
	}

	return "", nil, errMissingImage
}

func (s *Server) stageReader(src io.Reader, ext string) (string, func(), error) {
	if ext == "" {
		ext = ".img"
	}
	tmp, err := os.CreateTemp("", "document-*"+ext)
	if err != nil {
		return "", nil, err
	}
	path := tmp.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := io.Copy(tmp, io.LimitReader(src, maxUploadBytes)); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// decodeDataURL strips an optional "data:image/...;base64," prefix and
// decodes the remainder.
func decodeDataURL(data string) ([]byte, error) {
	if idx := strings.Index(data, "base64,"); idx >= 0 {
		data = data[idx+len("base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errInvalidImage
	}
	if len(raw) == 0 {
		return nil, errInvalidImage
	}
	return raw, nil
}

type uploadError string

func (e uploadError) Error() string { return string(e) }

const (
	errMissingImage = uploadError("no document_image file or camera_image data provided")
	errInvalidImage = uploadError("camera_image is not valid base64 image data")
)
