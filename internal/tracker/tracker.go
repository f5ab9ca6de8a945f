package tracker

import (
	"context"
	"time"

	"github.com/marvmedia/grantfinder/internal/certifications"
	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/matcher"
)

// Submission records one sent-off application for the submissions worksheet.
type Submission struct {
	GrantID         string
	Title           string
	Funder          string
	SubmittedAt     time.Time
	AmountRequested int64
	DraftPath       string
	Result          string
}

// Tracker mirrors the pipeline into the operator-facing spreadsheet. All
// methods are best-effort from the pipeline's point of view: a failing tracker
// is logged, never fatal.
type Tracker interface {
	EnsureWorksheets(ctx context.Context) error
	AddGrant(ctx context.Context, grant *grants.Grant, result *matcher.MatchResult) error
	GrantExists(ctx context.Context, grantID string) (bool, error)
	UpdateStatus(ctx context.Context, grantID, status, note string) error
	RecordSubmission(ctx context.Context, sub *Submission) error
	SyncCertifications(ctx context.Context, certs []certifications.Certification) error
	LogActivity(ctx context.Context, action, details string) error
}

// Noop stands in when no spreadsheet is configured.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) EnsureWorksheets(context.Context) error { return nil }

func (*Noop) AddGrant(context.Context, *grants.Grant, *matcher.MatchResult) error { return nil }

func (*Noop) GrantExists(context.Context, string) (bool, error) { return false, nil }

func (*Noop) UpdateStatus(context.Context, string, string, string) error { return nil }

func (*Noop) RecordSubmission(context.Context, *Submission) error { return nil }

func (*Noop) SyncCertifications(context.Context, []certifications.Certification) error { return nil }

func (*Noop) LogActivity(context.Context, string, string) error { return nil }
