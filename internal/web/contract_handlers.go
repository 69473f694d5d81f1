package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/contract"
	"github.com/evcraddock/emptytohome/internal/form"
	"github.com/evcraddock/emptytohome/internal/property"
	"github.com/evcraddock/emptytohome/internal/storage"
)

// multipartMemory is how much of a multipart body is held in memory
// before spilling to temp files.
const multipartMemory = 1 << 20

const msgContractNotFound = "Contract not found"

type contractFormData struct {
	Properties []*property.Property
	Input      contract.Input
	Errors     form.Errors
}

func (s *Server) renderContractForm(w http.ResponseWriter, r *http.Request, user *auth.User, in contract.Input, errs form.Errors) {
	choices, err := s.contractSv.Choices(user)
	if err != nil {
		serverError(w, r, "listing contract choices", err)
		return
	}
	s.render(w, r, "upload_contract.html", contractFormData{Properties: choices, Input: in, Errors: errs})
}

// handleUploadContractPage renders the contract upload form.
func (s *Server) handleUploadContractPage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.Tenant, auth.Owner, auth.Institution)
	if !ok {
		return
	}
	s.renderContractForm(w, r, user, contract.Input{PropertyID: r.URL.Query().Get("property")}, nil)
}

// handleUploadContractSubmit stores an uploaded contract document.
func (s *Server) handleUploadContractSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.Tenant, auth.Owner, auth.Institution)
	if !ok {
		return
	}

	file, header, errs, ok := parseUpload(w, r, "document")
	if !ok {
		return
	}
	if file != nil {
		defer closeUpload(file)
	}

	in := contract.Input{
		PropertyID: r.FormValue("property"),
		Type:       r.FormValue("contract_type"),
	}
	var size int64
	if header != nil {
		in.Filename = header.Filename
		size = header.Size
	}
	if errs.Any() {
		s.renderContractForm(w, r, user, in, errs)
		return
	}

	var body io.Reader = http.NoBody
	if file != nil {
		body = file
	}

	if _, err := s.contractSv.Upload(r.Context(), user, in, body, size); err != nil {
		var fieldErrs form.Errors
		switch {
		case errors.As(err, &fieldErrs):
			s.renderContractForm(w, r, user, in, fieldErrs)
		case errors.Is(err, contract.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			serverError(w, r, "uploading contract", err)
		}
		return
	}

	http.Redirect(w, r, user.Type.DashboardPath(), http.StatusSeeOther)
}

// handleDownloadContract streams a contract document as a PDF attachment.
// Missing contracts, missing files and contracts the caller may not see
// all get the same plain-text response.
func (s *Server) handleDownloadContract(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		contractNotFound(w)
		return
	}

	rc, name, err := s.contractSv.Open(r.Context(), user, id)
	if errors.Is(err, contract.ErrNotFound) {
		slog.Info("contract download refused", "contract", id, "user", user.Username, "reason", err)
		contractNotFound(w)
		return
	}
	if err != nil {
		serverError(w, r, "opening contract", err)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.Warn("closing contract document", "err", err)
		}
	}()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("streaming contract", "contract", id, "err", err)
	}
}

func contractNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, msgContractNotFound)
}

// parseUpload reads a multipart form capped at the upload limit and returns
// the named file, if any. A body over the limit becomes a field error.
// It returns false after writing an error response.
func parseUpload(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, form.Errors, bool) {
	errs := form.Errors{}
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errs.Add(field, fmt.Sprintf("Ensure this file is at most %d MiB.", storage.MaxUploadSize>>20))
			return nil, nil, errs, true
		}
		http.Error(w, "Bad request", http.StatusBadRequest)
		return nil, nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, errs, true
	}
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return nil, nil, nil, false
	}
	if header.Size > storage.MaxUploadSize {
		errs.Add(field, fmt.Sprintf("Ensure this file is at most %d MiB.", storage.MaxUploadSize>>20))
	}
	return file, header, errs, true
}

func closeUpload(f multipart.File) {
	if err := f.Close(); err != nil {
		slog.Warn("closing upload", "err", err)
	}
}
