// Package sheets mirrors the grant pipeline into a Google spreadsheet the
// operator reviews by hand.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/marvmedia/grantfinder/internal/certifications"
	"github.com/marvmedia/grantfinder/internal/grants"
	"github.com/marvmedia/grantfinder/internal/matcher"
	"github.com/marvmedia/grantfinder/internal/tracker"
)

// Worksheet titles, in spreadsheet tab order.
const (
	SheetPipeline       = "Grant Pipeline"
	SheetSubmitted      = "Submitted Applications"
	SheetCertifications = "Certifications"
	SheetActivity       = "Activity Log"
)

// Pipeline sheet columns, A through K. Status and Notes are the cells
// UpdateStatus rewrites in place.
var pipelineHeader = []any{
	"Grant ID", "Title", "Funder", "Source", "Amount", "Deadline",
	"Score", "Eligible", "Status", "Notes", "Added",
}

var submittedHeader = []any{
	"Grant ID", "Title", "Funder", "Submitted", "Amount Requested", "Draft", "Result",
}

var certificationsHeader = []any{
	"Code", "Name", "Issuer", "Status", "Renewal Due", "Notes",
}

var activityHeader = []any{"Timestamp", "Action", "Details"}

func worksheetHeaders() map[string][]any {
	return map[string][]any{
		SheetPipeline:       pipelineHeader,
		SheetSubmitted:      submittedHeader,
		SheetCertifications: certificationsHeader,
		SheetActivity:       activityHeader,
	}
}

// api is the narrow slice of the Sheets service the tracker uses. Tests
// substitute a fake.
type api interface {
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
	Append(ctx context.Context, rangeA1 string, rows [][]any) error
	Read(ctx context.Context, rangeA1 string) ([][]any, error)
	Update(ctx context.Context, rangeA1 string, rows [][]any) error
}

// Tracker implements tracker.Tracker on top of the Google Sheets API.
type Tracker struct {
	api    api
	logger *zap.Logger
	now    func() time.Time
}

var _ tracker.Tracker = (*Tracker)(nil)

// New builds a tracker talking to the given spreadsheet with service account
// credentials read from credentialsFile.
func New(ctx context.Context, spreadsheetID, credentialsFile string, logger *zap.Logger) (*Tracker, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet ID is required")
	}
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, errors.New("credentials file is required")
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return newTracker(&sheetsAPI{service: service, spreadsheetID: spreadsheetID}, logger), nil
}

func newTracker(client api, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{api: client, logger: logger, now: time.Now}
}

// EnsureWorksheets creates any missing worksheet and writes its header row.
func (t *Tracker) EnsureWorksheets(ctx context.Context) error {
	existing, err := t.api.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("listing worksheets: %w", err)
	}

	present := make(map[string]struct{}, len(existing))
	for _, title := range existing {
		present[title] = struct{}{}
	}

	for title, header := range worksheetHeaders() {
		if _, ok := present[title]; ok {
			continue
		}

		if err := t.api.AddSheet(ctx, title); err != nil {
			return fmt.Errorf("adding worksheet %q: %w", title, err)
		}
		if err := t.api.Update(ctx, headerRange(title, len(header)), [][]any{header}); err != nil {
			return fmt.Errorf("writing header of %q: %w", title, err)
		}

		t.logger.Info("created worksheet", zap.String("worksheet", title))
	}

	return nil
}

// AddGrant appends a pipeline row for the grant and its match result.
func (t *Tracker) AddGrant(ctx context.Context, grant *grants.Grant, result *matcher.MatchResult) error {
	if grant == nil {
		return errors.New("grant is required")
	}

	score, eligible, notes := "", "", ""
	if result != nil && !result.Failed() {
		score = fmt.Sprintf("%.2f", result.Score)
		eligible = fmt.Sprintf("%t", result.Eligible)
		notes = result.Summary()
	} else if result != nil {
		notes = result.Summary()
	}

	row := []any{
		grant.ID,
		grant.Title,
		grant.Funder,
		grant.Source,
		grant.Amount.String(),
		deadlineCell(grant),
		score,
		eligible,
		grant.Status,
		notes,
		t.now().UTC().Format("2006-01-02 15:04"),
	}

	if err := t.api.Append(ctx, quote(SheetPipeline)+"!A:K", [][]any{row}); err != nil {
		return fmt.Errorf("appending pipeline row: %w", err)
	}

	return nil
}

// GrantExists reports whether the pipeline sheet already has a row for the ID.
func (t *Tracker) GrantExists(ctx context.Context, grantID string) (bool, error) {
	row, err := t.findRow(ctx, grantID)
	if err != nil {
		return false, err
	}
	return row > 0, nil
}

// UpdateStatus rewrites the Status and Notes cells of the grant's row.
func (t *Tracker) UpdateStatus(ctx context.Context, grantID, status, note string) error {
	row, err := t.findRow(ctx, grantID)
	if err != nil {
		return err
	}
	if row == 0 {
		return fmt.Errorf("grant %q has no pipeline row", grantID)
	}

	rangeA1 := fmt.Sprintf("%s!I%d:J%d", quote(SheetPipeline), row, row)
	if err := t.api.Update(ctx, rangeA1, [][]any{{status, note}}); err != nil {
		return fmt.Errorf("updating status of %q: %w", grantID, err)
	}

	return nil
}

// RecordSubmission appends a row to the submitted applications sheet.
func (t *Tracker) RecordSubmission(ctx context.Context, sub *tracker.Submission) error {
	if sub == nil {
		return errors.New("submission is required")
	}

	submitted := sub.SubmittedAt
	if submitted.IsZero() {
		submitted = t.now().UTC()
	}

	amount := ""
	if sub.AmountRequested > 0 {
		amount = grants.FormatDollars(sub.AmountRequested)
	}

	row := []any{
		sub.GrantID,
		sub.Title,
		sub.Funder,
		submitted.Format("2006-01-02"),
		amount,
		sub.DraftPath,
		sub.Result,
	}

	if err := t.api.Append(ctx, quote(SheetSubmitted)+"!A:G", [][]any{row}); err != nil {
		return fmt.Errorf("appending submission row: %w", err)
	}

	return nil
}

// SyncCertifications rewrites the certifications sheet from the catalog.
func (t *Tracker) SyncCertifications(ctx context.Context, certs []certifications.Certification) error {
	rows := [][]any{certificationsHeader}
	for _, cert := range certs {
		renewal := ""
		if !cert.RenewalDate.IsZero() {
			renewal = cert.RenewalDate.Format("2006-01-02")
		}
		rows = append(rows, []any{
			cert.Code, cert.Name, cert.Issuer, cert.Status, renewal, cert.Notes,
		})
	}

	rangeA1 := fmt.Sprintf("%s!A1:F%d", quote(SheetCertifications), len(rows))
	if err := t.api.Update(ctx, rangeA1, rows); err != nil {
		return fmt.Errorf("syncing certifications: %w", err)
	}

	return nil
}

// LogActivity appends a timestamped line to the activity sheet.
func (t *Tracker) LogActivity(ctx context.Context, action, details string) error {
	row := []any{t.now().UTC().Format("2006-01-02 15:04:05"), action, details}

	if err := t.api.Append(ctx, quote(SheetActivity)+"!A:C", [][]any{row}); err != nil {
		return fmt.Errorf("appending activity row: %w", err)
	}

	return nil
}

// findRow returns the 1-based row of the grant in the pipeline sheet, zero
// when absent. Row 1 is the header.
func (t *Tracker) findRow(ctx context.Context, grantID string) (int, error) {
	values, err := t.api.Read(ctx, quote(SheetPipeline)+"!A:A")
	if err != nil {
		return 0, fmt.Errorf("reading pipeline IDs: %w", err)
	}

	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id == grantID {
			return i + 1, nil
		}
	}

	return 0, nil
}

func deadlineCell(grant *grants.Grant) string {
	if !grant.HasDeadline() {
		return "rolling"
	}
	return grant.Deadline.Format("2006-01-02")
}

func headerRange(title string, columns int) string {
	end := rune('A' + columns - 1)
	return fmt.Sprintf("%s!A1:%c1", quote(title), end)
}

// quote wraps a worksheet title in single quotes for A1 notation, since every
// tab name here contains a space.
func quote(title string) string {
	return "'" + title + "'"
}

// sheetsAPI adapts the generated Sheets client to the api interface.
type sheetsAPI struct {
	service       *sheets.Service
	spreadsheetID string
}

func (s *sheetsAPI) SheetTitles(ctx context.Context) ([]string, error) {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}

	return titles, nil
}

func (s *sheetsAPI) AddSheet(ctx context.Context, title string) error {
	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}

	_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, request).Context(ctx).Do()

	return err
}

func (s *sheetsAPI) Append(ctx context.Context, rangeA1 string, rows [][]any) error {
	values := &sheets.ValueRange{Values: rows}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, rangeA1, values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}

func (s *sheetsAPI) Read(ctx context.Context, rangeA1 string) ([][]any, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	return resp.Values, nil
}

func (s *sheetsAPI) Update(ctx context.Context, rangeA1 string, rows [][]any) error {
	values := &sheets.ValueRange{Values: rows}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeA1, values).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()

	return err
}
