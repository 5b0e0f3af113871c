package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lectern/internal/media"
	"lectern/internal/verification/models"
	dErrors "lectern/pkg/domain-errors"
)

const (
	// Two images plus form fields.
	maxMultipartBytes = 2*media.MaxUploadBytes + 1<<20
	multipartMemory   = 8 << 20
)

// Multipart field names.
const (
	fieldFront       = "front_image"
	fieldBack        = "back_image"
	fieldSelfie      = "selfie"
	fieldCertificate = "certificate_document"
)

// parseMultipart caps the body and parses the form. Callers must call
// cleanupMultipart when done.
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dErrors.New(dErrors.CodeValidation, "upload exceeds the maximum request size").
				WithDetail("max_bytes", tooLarge.Limit)
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart body")
	}
	return nil
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// formFile reads one file part. A missing part returns nil, nil. The declared
// size is checked against the policy before the part is read.
func formFile(r *http.Request, field string, policy media.Policy) (*media.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+field+" upload")
	}
	defer f.Close()

	if err := policy.CheckSize(field, hdr.Size); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(f, policy.MaxBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read "+field)
	}
	if err := policy.CheckSize(field, int64(len(data))); err != nil {
		return nil, err
	}
	return &media.File{
		Field:       field,
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// certificateForm builds a certificate request from multipart form fields.
func certificateForm(r *http.Request) (*models.CertificateRequest, error) {
	req := &models.CertificateRequest{
		CertificateType: r.FormValue("certificate_type"),
		InstitutionName: r.FormValue("institution_name"),
		FieldOfStudy:    r.FormValue("field_of_study"),
	}
	if raw := strings.TrimSpace(r.FormValue("graduation_year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "graduation_year must be a year").
				WithDetail("field", "graduation_year")
		}
		req.GraduationYear = year
	}
	if raw := strings.TrimSpace(r.FormValue("gpa")); raw != "" {
		gpa, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "gpa must be a number").
				WithDetail("field", "gpa")
		}
		req.GPA = &gpa
	}
	return req, nil
}
