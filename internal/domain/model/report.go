package model

import (
	"crypto/rand"
	"time"

	"ai-fortune-report/internal/domain"

	"github.com/oklog/ulid/v2"
)

type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

// Profile is the birth and academic data a report is generated from.
type Profile struct {
	BirthYear    int      `json:"birth_year"`
	BirthMonth   int      `json:"birth_month"`
	BirthDay     int      `json:"birth_day"`
	BirthHour    int      `json:"birth_hour"` // -1 when unknown
	Gender       Gender   `json:"gender"`
	Field        string   `json:"field"` // target field of study
	Institutions []string `json:"institutions"`
}

func (p *Profile) Validate() error {
	if p.BirthYear < 1900 || p.BirthYear > time.Now().Year() {
		return domain.ErrInvalidArgument
	}
	if p.BirthMonth < 1 || p.BirthMonth > 12 || p.BirthDay < 1 || p.BirthDay > 31 {
		return domain.ErrInvalidArgument
	}
	if p.BirthHour < -1 || p.BirthHour > 23 {
		return domain.ErrInvalidArgument
	}
	switch p.Gender {
	case GenderFemale, GenderMale, GenderOther:
	default:
		return domain.ErrInvalidArgument
	}
	if p.Field == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

// Recommendation is one ranked institution entry in the paywalled section.
type Recommendation struct {
	Institution string `json:"institution"`
	Tier        int    `json:"tier"`
	Rationale   string `json:"rationale"`
}

type ReportStatus string

const (
	ReportStatusPending ReportStatus = "pending"
	ReportStatusReady   ReportStatus = "ready"
	ReportStatusFailed  ReportStatus = "failed"
)

// Report is one generated artifact, keyed by an opaque session identifier and
// bound to the owner that requested it. Upserted by session.
type Report struct {
	Session         string           `json:"session"`
	OwnerID         string           `json:"owner_id"`
	Profile         Profile          `json:"profile"`
	Narrative       string           `json:"narrative"` // free-text fortune narrative
	Recommendations []Recommendation `json:"recommendations"`
	Status          ReportStatus     `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewReportSession mints an opaque, sortable session identifier.
func NewReportSession() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func NewReport(ownerID string, profile Profile) (*Report, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Report{
		Session:   NewReportSession(),
		OwnerID:   ownerID,
		Profile:   profile,
		Status:    ReportStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
