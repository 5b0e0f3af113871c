package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	dErrors "lectern/pkg/domain-errors"
	lstrings "lectern/pkg/platform/strings"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError turns validator output into a coded error whose details
// list each failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	first := verrs[0]
	return dErrors.New(dErrors.CodeValidation, first.Field()+" "+describe(first)).
		WithDetail("fields", fields)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be an E.164 phone number"
	case "numeric":
		return "must contain only digits"
	case "datetime":
		return "must be a date in YYYY-MM-DD form"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gte", "lte":
		return fmt.Sprintf("is out of range (%s %s)", fe.Tag(), fe.Param())
	case "url":
		return "must be a URL"
	default:
		return "is invalid"
	}
}

// =============================================================================
// Codes
// =============================================================================

// SendEmailCodeRequest optionally overrides the account email.
type SendEmailCodeRequest struct {
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

func (r *SendEmailCodeRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *SendEmailCodeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

type SendPhoneCodeRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

func (r *SendPhoneCodeRequest) Normalize() {
	p := strings.Map(func(c rune) rune {
		switch c {
		case ' ', '-', '(', ')':
			return -1
		}
		return c
	}, strings.TrimSpace(r.Phone))
	r.Phone = p
}

func (r *SendPhoneCodeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

type VerifyCodeRequest struct {
	Code string `json:"code" validate:"required,numeric,min=4,max=10"`
}

func (r *VerifyCodeRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyCodeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

// =============================================================================
// Steps
// =============================================================================

type PersonalInfoRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	MiddleName  string `json:"middle_name" validate:"max=100"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female other prefer_not_to_say"`
	Nationality string `json:"nationality" validate:"max=100"`
	Country     string `json:"country" validate:"max=100"`
	City        string `json:"city" validate:"max=100"`
	Address     string `json:"address" validate:"max=300"`
}

func (r *PersonalInfoRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.MiddleName = strings.TrimSpace(r.MiddleName)
	r.DateOfBirth = strings.TrimSpace(r.DateOfBirth)
	r.Gender = strings.ToLower(strings.TrimSpace(r.Gender))
	r.Nationality = strings.TrimSpace(r.Nationality)
	r.Country = strings.TrimSpace(r.Country)
	r.City = strings.TrimSpace(r.City)
	r.Address = strings.TrimSpace(r.Address)
}

func (r *PersonalInfoRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

// CheckAge rejects dates of birth in the future or implying an age under
// minAge at now.
func (r *PersonalInfoRequest) CheckAge(now time.Time, minAge int) error {
	dob, err := time.Parse(time.DateOnly, r.DateOfBirth)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "date_of_birth must be a date in YYYY-MM-DD form")
	}
	if dob.After(now) {
		return dErrors.New(dErrors.CodeValidation, "date_of_birth cannot be in the future")
	}
	if now.AddDate(-minAge, 0, 0).Before(dob) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("instructors must be at least %d years old", minAge))
	}
	return nil
}

func (r *PersonalInfoRequest) Info() PersonalInfo {
	return PersonalInfo{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		MiddleName:  r.MiddleName,
		DateOfBirth: r.DateOfBirth,
		Gender:      r.Gender,
		Nationality: r.Nationality,
		Country:     r.Country,
		City:        r.City,
		Address:     r.Address,
	}
}

type ProfessionalInfoRequest struct {
	Headline          string   `json:"headline" validate:"max=200"`
	Bio               string   `json:"bio" validate:"max=5000"`
	YearsOfExperience int      `json:"years_of_experience" validate:"gte=0,lte=80"`
	Expertise         []string `json:"expertise" validate:"max=50,dive,max=200"`
	Education         []string `json:"education" validate:"max=50,dive,max=300"`
	Certifications    []string `json:"certifications" validate:"max=50,dive,max=300"`
	Portfolio         []string `json:"portfolio" validate:"max=20,dive,url"`
	Languages         []string `json:"languages" validate:"max=20,dive,max=50"`
}

func (r *ProfessionalInfoRequest) Normalize() {
	r.Headline = strings.TrimSpace(r.Headline)
	r.Bio = strings.TrimSpace(r.Bio)
	r.Expertise = lstrings.CleanList(r.Expertise)
	r.Education = lstrings.CleanList(r.Education)
	r.Certifications = lstrings.CleanList(r.Certifications)
	r.Portfolio = lstrings.CleanList(r.Portfolio)
	r.Languages = lstrings.CleanList(r.Languages)
}

func (r *ProfessionalInfoRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

func (r *ProfessionalInfoRequest) Info() ProfessionalInfo {
	return ProfessionalInfo{
		Headline:          r.Headline,
		Bio:               r.Bio,
		YearsOfExperience: r.YearsOfExperience,
		Expertise:         r.Expertise,
		Education:         r.Education,
		Certifications:    r.Certifications,
		Portfolio:         r.Portfolio,
		Languages:         r.Languages,
	}
}

// IDDocumentRequest carries the form fields of an ID upload; the images travel
// separately.
type IDDocumentRequest struct {
	DocumentType string `json:"document_type" validate:"required,oneof=national_id passport drivers_license"`
}

func (r *IDDocumentRequest) Normalize() {
	r.DocumentType = strings.ToLower(strings.TrimSpace(r.DocumentType))
}

func (r *IDDocumentRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

// =============================================================================
// Certificates
// =============================================================================

type CertificateRequest struct {
	CertificateType string   `json:"certificate_type" validate:"required"`
	InstitutionName string   `json:"institution_name" validate:"required,max=200"`
	FieldOfStudy    string   `json:"field_of_study" validate:"required,max=200"`
	GraduationYear  int      `json:"graduation_year" validate:"required,gte=1900"`
	GPA             *float64 `json:"gpa" validate:"omitempty,gte=0,lte=10"`
}

func (r *CertificateRequest) Normalize() {
	r.CertificateType = strings.ToLower(strings.TrimSpace(r.CertificateType))
	r.InstitutionName = strings.TrimSpace(r.InstitutionName)
	r.FieldOfStudy = strings.TrimSpace(r.FieldOfStudy)
}

func (r *CertificateRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	if !CertificateType(r.CertificateType).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "certificate_type is not supported").
			WithDetail("field", "certificate_type")
	}
	return nil
}

// CheckGraduationYear allows expected-graduation certificates up to a few
// years past now.
func (r *CertificateRequest) CheckGraduationYear(now time.Time) error {
	return checkGraduationYear(r.GraduationYear, now)
}

const maxFutureGraduationYears = 6

func checkGraduationYear(year int, now time.Time) error {
	if year > now.Year()+maxFutureGraduationYears {
		return dErrors.New(dErrors.CodeValidation, "graduation_year is too far in the future").
			WithDetail("field", "graduation_year")
	}
	return nil
}

func (r *CertificateRequest) Metadata() CertificateMetadata {
	return CertificateMetadata{
		Type:            CertificateType(r.CertificateType),
		InstitutionName: r.InstitutionName,
		FieldOfStudy:    r.FieldOfStudy,
		GraduationYear:  r.GraduationYear,
		GPA:             r.GPA,
	}
}

type UpdateCertificateRequest struct {
	CertificateType *string  `json:"certificate_type"`
	InstitutionName *string  `json:"institution_name" validate:"omitempty,min=1,max=200"`
	FieldOfStudy    *string  `json:"field_of_study" validate:"omitempty,min=1,max=200"`
	GraduationYear  *int     `json:"graduation_year" validate:"omitempty,gte=1900"`
	GPA             *float64 `json:"gpa" validate:"omitempty,gte=0,lte=10"`
}

func (r *UpdateCertificateRequest) Normalize() {
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.CertificateType)
	trim(r.InstitutionName)
	trim(r.FieldOfStudy)
	if r.CertificateType != nil {
		*r.CertificateType = strings.ToLower(*r.CertificateType)
	}
}

func (r *UpdateCertificateRequest) Validate() error {
	if r.CertificateType == nil && r.InstitutionName == nil && r.FieldOfStudy == nil &&
		r.GraduationYear == nil && r.GPA == nil {
		return dErrors.New(dErrors.CodeValidation, "no certificate fields to update")
	}
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	if r.CertificateType != nil && !CertificateType(*r.CertificateType).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "certificate_type is not supported").
			WithDetail("field", "certificate_type")
	}
	return nil
}

func (r *UpdateCertificateRequest) CheckGraduationYear(now time.Time) error {
	if r.GraduationYear == nil {
		return nil
	}
	return checkGraduationYear(*r.GraduationYear, now)
}

func (r *UpdateCertificateRequest) Patch() CertificatePatch {
	p := CertificatePatch{
		InstitutionName: r.InstitutionName,
		FieldOfStudy:    r.FieldOfStudy,
		GraduationYear:  r.GraduationYear,
		GPA:             r.GPA,
	}
	if r.CertificateType != nil {
		t := CertificateType(*r.CertificateType)
		p.Type = &t
	}
	return p
}

// =============================================================================
// Admin
// =============================================================================

type ApproveRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

func (r *ApproveRequest) Normalize() { r.Notes = strings.TrimSpace(r.Notes) }

func (r *ApproveRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

// RejectRequest is the structured rejection payload. StepReasons keys are
// step names.
type RejectRequest struct {
	Reason            string            `json:"reason" validate:"required,max=2000"`
	StepReasons       map[string]string `json:"step_reasons" validate:"max=6,dive,max=1000"`
	AllowResubmission bool              `json:"allow_resubmission"`
	Notes             string            `json:"notes" validate:"max=2000"`
}

func (r *RejectRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
	r.Notes = strings.TrimSpace(r.Notes)
	for k, v := range r.StepReasons {
		r.StepReasons[k] = strings.TrimSpace(v)
	}
}

func (r *RejectRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	for step := range r.StepReasons {
		if _, err := ParseStep(step); err != nil {
			return err
		}
	}
	return nil
}

func (r *RejectRequest) Decision() RejectionDecision {
	d := RejectionDecision{
		GeneralReason:     r.Reason,
		AllowResubmission: r.AllowResubmission,
		Notes:             r.Notes,
	}
	if len(r.StepReasons) > 0 {
		d.StepReasons = make(map[Step]string, len(r.StepReasons))
		for k, v := range r.StepReasons {
			if v != "" {
				d.StepReasons[Step(k)] = v
			}
		}
	}
	return d
}

type MoreInfoRequest struct {
	Message string   `json:"message" validate:"required,max=2000"`
	Steps   []string `json:"steps" validate:"max=6"`
}

func (r *MoreInfoRequest) Normalize() {
	r.Message = strings.TrimSpace(r.Message)
	r.Steps = lstrings.CleanList(r.Steps)
}

func (r *MoreInfoRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	_, err := parseSteps(r.Steps)
	return err
}

func (r *MoreInfoRequest) ParsedSteps() []Step {
	steps, _ := parseSteps(r.Steps)
	return steps
}

type SuspendRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
	Days   int    `json:"duration_days" validate:"gte=0,lte=3650"`
}

func (r *SuspendRequest) Normalize() { r.Reason = strings.TrimSpace(r.Reason) }

func (r *SuspendRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

type ResetStepsRequest struct {
	Steps  []string `json:"steps" validate:"required,min=1,max=6"`
	Reason string   `json:"reason" validate:"max=2000"`
}

func (r *ResetStepsRequest) Normalize() {
	r.Steps = lstrings.CleanList(r.Steps)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ResetStepsRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	_, err := parseSteps(r.Steps)
	return err
}

func (r *ResetStepsRequest) ParsedSteps() []Step {
	steps, _ := parseSteps(r.Steps)
	return steps
}

type CertificateReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=pending verified rejected"`
	Reason string `json:"reason" validate:"required_if=Status rejected,max=1000"`
}

func (r *CertificateReviewRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *CertificateReviewRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

func parseSteps(raw []string) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for _, s := range raw {
		step, err := ParseStep(s)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}
