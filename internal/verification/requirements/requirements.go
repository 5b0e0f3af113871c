// Package requirements evaluates education certificates against the
// platform's minimum-credential policy.
package requirements

import (
	"fmt"

	"lectern/internal/verification/models"
	dErrors "lectern/pkg/domain-errors"
)

// Result of a requirement check. Reason is set when Met is false.
type Result struct {
	Met    bool
	Reason string
}

// Policy judges a non-empty certificate list.
type Policy func(certs []models.Certificate) Result

const (
	PolicyAtLeastOneNotRejected = "at_least_one_not_rejected"
	PolicyMinimumLevel          = "minimum_level"
)

// AtLeastOneNotRejected is met unless every certificate was rejected.
func AtLeastOneNotRejected(certs []models.Certificate) Result {
	for _, c := range certs {
		if c.Status != models.CertificateRejected {
			return Result{Met: true}
		}
	}
	return Result{Reason: "all education certificates were rejected"}
}

// levels ranks credentials for MinimumLevel. Types absent from the map rank 0.
var levels = map[models.CertificateType]int{
	models.CertHighSchoolDiploma:     1,
	models.CertVocational:            1,
	models.CertProfessional:          1,
	models.CertIndustryCertification: 1,
	models.CertTeaching:              2,
	models.CertAssociateDegree:       2,
	models.CertBachelorsDegree:       3,
	models.CertMastersDegree:         4,
	models.CertDoctorateDegree:       5,
}

// MinimumLevel is met by any non-rejected certificate ranked at least min.
func MinimumLevel(min models.CertificateType) Policy {
	want := levels[min]
	return func(certs []models.Certificate) Result {
		for _, c := range certs {
			if c.Status != models.CertificateRejected && levels[c.Type] >= want {
				return Result{Met: true}
			}
		}
		return Result{Reason: fmt.Sprintf("a %s or higher credential is required", min)}
	}
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string, minimum string) (Policy, error) {
	switch name {
	case "", PolicyAtLeastOneNotRejected:
		return AtLeastOneNotRejected, nil
	case PolicyMinimumLevel:
		t := models.CertificateType(minimum)
		if !t.IsValid() {
			return nil, fmt.Errorf("minimum_level policy needs a valid certificate type, got %q", minimum)
		}
		return MinimumLevel(t), nil
	default:
		return nil, fmt.Errorf("unknown education policy %q", name)
	}
}

// Evaluator applies a policy to records.
type Evaluator struct {
	policy Policy
}

func New(policy Policy) *Evaluator {
	if policy == nil {
		policy = AtLeastOneNotRejected
	}
	return &Evaluator{policy: policy}
}

// Check requires at least one certificate, then applies the policy.
func (e *Evaluator) Check(certs []models.Certificate) Result {
	if len(certs) == 0 {
		return Result{Reason: "at least one education certificate is required"}
	}
	return e.policy(certs)
}

// Refresh recomputes the derived education fields of rec.
func (e *Evaluator) Refresh(rec *models.Record) {
	rec.Education.MinimumRequirementMet = e.Check(rec.Education.Certificates).Met
	rec.Education.OverallStatus = OverallStatus(rec.Education.Certificates)
}

// Gate is the education part of the submission gate. The empty-list check
// runs before the policy so the more specific error wins.
func (e *Evaluator) Gate(certs []models.Certificate) error {
	if len(certs) == 0 {
		return dErrors.New(dErrors.CodeInvalidState, "no education certificates uploaded").
			WithDetail("reason", "no_certificates")
	}
	if res := e.policy(certs); !res.Met {
		return dErrors.New(dErrors.CodeInvalidState, res.Reason).
			WithDetail("reason", "requirement_not_met")
	}
	return nil
}

// OverallStatus summarizes certificate review states.
func OverallStatus(certs []models.Certificate) models.OverallStatus {
	if len(certs) == 0 {
		return models.OverallNotStarted
	}
	var verified, rejected int
	for _, c := range certs {
		switch c.Status {
		case models.CertificateVerified:
			verified++
		case models.CertificateRejected:
			rejected++
		}
	}
	switch {
	case verified == len(certs):
		return models.OverallVerified
	case rejected == len(certs):
		return models.OverallRejected
	case verified > 0:
		return models.OverallPartiallyVerified
	default:
		return models.OverallPending
	}
}
