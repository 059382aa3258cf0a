package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/JonMunkholm/UserUpload/internal/logging"
)

// multipartOverhead is allowance for form boundaries and headers on top of the file itself.
const multipartOverhead = 1 << 20

// IngestResponse is returned by POST /api/ingest.
type IngestResponse struct {
	core.IngestResult
	Error *ErrorResponse `json:"error,omitempty"`
}

// handleIngest accepts a multipart upload in field "file" and ingests it.
// The file is staged under its original base name so the extension check and
// the archive name see what the user chose.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, &core.Error{Kind: core.KindFileSelection, Op: "upload",
				Category: "file_too_large", Message: "file too large", Err: err}, http.StatusBadRequest)
			return
		}
		s.respondError(w, r, &core.Error{Kind: core.KindFileSelection, Op: "upload",
			Message: "invalid upload form", Err: err}, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, &core.Error{Kind: core.KindFileSelection, Op: "select",
			Message: "no file selected", Err: err}, http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := uploadName(header.Filename)
	staged, cleanup, err := stageUpload(file, name)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer cleanup()

	ctx := withRequestOrigin(r.Context(), r)
	if s.cfg.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()
	}

	res := s.ingester.Ingest(ctx, staged)

	// Do not leak server paths to the client
	res.SourcePath = name
	if res.ArchivedPath != "" {
		res.ArchivedPath = filepath.Base(res.ArchivedPath)
	}

	resp := IngestResponse{IngestResult: res}
	status := statusFor(res)
	if !res.OK() {
		errResp := newErrorResponse(res.Err)
		resp.Error = &errResp
		logging.FromContext(r.Context()).Warn("ingest rejected",
			"ingest_id", res.ID,
			"file", name,
			"outcome", res.Outcome,
			"code", errResp.Code,
			"error", res.Reason,
		)
	}

	writeJSON(w, status, resp)
}

// stageUpload copies src to a private temp directory as name.
// The returned cleanup removes the directory.
func stageUpload(src io.Reader, name string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "upload-*")
	if err != nil {
		return "", nil, &core.Error{Kind: core.KindFileSelection, Op: "upload", Message: "cannot stage upload", Err: err}
	}
	cleanup := func() { os.RemoveAll(dir) } //nolint:errcheck

	path := filepath.Join(dir, name)
	if err := copyToFile(path, src); err != nil {
		cleanup()
		return "", nil, &core.Error{Kind: core.KindFileSelection, Op: "upload", Message: "cannot stage upload", Err: err}
	}
	return path, cleanup, nil
}
