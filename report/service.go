// Package report proxies report documents from the backend and tracks
// download progress.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vistara/donation-dashboard/internal/upstream"
)

var (
	// ErrUnknownType is returned for report types other than weekly,
	// monthly or yearly.
	ErrUnknownType = errors.New("report: unknown type")
	// ErrBusy is returned while another download is in progress.
	ErrBusy = errors.New("report: download already in progress")
)

// Type selects the report document.
type Type string

const (
	TypeWeekly  Type = "weekly"
	TypeMonthly Type = "monthly"
	TypeYearly  Type = "yearly"
)

// ParseType validates a report type.
func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeWeekly, TypeMonthly, TypeYearly:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
}

// Progress checkpoints.
const (
	StepStarted    = 10
	StepRequested  = 30
	StepReceived   = 70
	StepNamed      = 90
	StepComplete   = 100
	defaultResetIn = time.Second
)

// Progress is the state of the current or last download.
type Progress struct {
	ID       string `json:"id,omitempty"`
	Type     Type   `json:"type,omitempty"`
	Year     int    `json:"year,omitempty"`
	Percent  int    `json:"percent"`
	Active   bool   `json:"active"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DownloadError wraps the failure shown to the user.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string {
	return "Failed to download report: " + e.Err.Error()
}

func (e *DownloadError) Unwrap() error { return e.Err }

// File is a downloaded report ready to be served.
type File struct {
	ID          string
	Name        string
	ContentType string
	Body        []byte
}

// Fetcher retrieves report documents from the backend.
type Fetcher interface {
	Report(ctx context.Context, kind string, year int) (*upstream.Document, error)
}

// Service runs at most one download at a time.
type Service struct {
	fetcher    Fetcher
	logger     *slog.Logger
	resetDelay time.Duration
	after      func(time.Duration, func())
	newID      func() string

	mu       sync.Mutex
	progress Progress
}

// NewService builds a Service.
func NewService(fetcher Fetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:    fetcher,
		logger:     logger,
		resetDelay: defaultResetIn,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
		newID: uuid.NewString,
	}
}

// WithResetDelay sets how long a finished download reports 100%.
func (s *Service) WithResetDelay(d time.Duration) *Service {
	if s != nil && d >= 0 {
		s.resetDelay = d
	}
	return s
}

// Progress returns the current download progress.
func (s *Service) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Download fetches the report for kind and year. On failure progress
// returns to zero at once; on success it stays at 100 until the reset delay
// elapses.
func (s *Service) Download(ctx context.Context, kind Type, year int) (File, error) {
	if _, err := ParseType(string(kind)); err != nil {
		return File{}, err
	}

	s.mu.Lock()
	if s.progress.Active {
		s.mu.Unlock()
		return File{}, ErrBusy
	}
	id := s.newID()
	s.progress = Progress{ID: id, Type: kind, Year: year, Percent: StepStarted, Active: true}
	s.mu.Unlock()

	logger := s.logger.With(slog.String("report_id", id), slog.String("type", string(kind)), slog.Int("year", year))

	s.advance(id, StepRequested)
	doc, err := s.fetcher.Report(ctx, string(kind), year)
	if err != nil {
		derr := &DownloadError{Err: err}
		s.fail(id, derr)
		logger.Error("report download failed", slog.Any("error", err))
		return File{}, derr
	}

	s.advance(id, StepReceived)
	name := ResolveFilename(doc.Disposition, doc.HasDisposition, kind, year)
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	s.mu.Lock()
	if s.progress.ID == id {
		s.progress.Percent = StepNamed
		s.progress.Filename = name
	}
	s.mu.Unlock()

	s.advance(id, StepComplete)
	s.after(s.resetDelay, func() { s.reset(id) })
	logger.Info("report downloaded", slog.String("filename", name), slog.Int("bytes", len(doc.Body)))

	return File{ID: id, Name: name, ContentType: contentType, Body: doc.Body}, nil
}

func (s *Service) advance(id string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.ID == id {
		s.progress.Percent = percent
	}
}

func (s *Service) fail(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.ID == id {
		s.progress.Percent = 0
		s.progress.Active = false
		s.progress.Error = err.Error()
	}
}

func (s *Service) reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.ID == id {
		s.progress.Percent = 0
		s.progress.Active = false
	}
}
