// Package store persists the pipeline's durable state: the company
// profile, the supplier base, normalized articles, extracted risk events,
// and alerts. The Postgres implementation is the production store; the
// in-memory implementation backs tests and local seeding.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/chainwatch/chainwatch/pkg/models"
)

// Sentinel errors returned by store implementations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists indicates an insert hit a uniqueness constraint,
	// typically a redelivered pipeline message re-creating its output.
	ErrAlreadyExists = errors.New("record already exists")
)

// AlertFilter narrows ListAlerts. Zero values mean "no constraint".
type AlertFilter struct {
	SeverityBand models.SeverityBand
	Acknowledged *bool
	Limit        int
}

// RiskScoreSample is one point of a supplier's risk score history.
type RiskScoreSample struct {
	RiskEventID string    `json:"risk_event_id" db:"risk_event_id"`
	Score       float64   `json:"score" db:"score"`
	RecordedAt  time.Time `json:"recorded_at" db:"recorded_at"`
}

// Summary aggregates pipeline state for the dashboard endpoint.
type Summary struct {
	Suppliers         int                         `json:"suppliers"`
	SuppliersAtRisk   int                         `json:"suppliers_at_risk"`
	ArticlesIngested  int                         `json:"articles_ingested"`
	ArticlesProcessed int                         `json:"articles_processed"`
	RiskEvents        int                         `json:"risk_events"`
	TotalAlerts       int                         `json:"total_alerts"`
	OpenAlerts        int                         `json:"open_alerts"`
	AlertsByBand      map[models.SeverityBand]int `json:"alerts_by_band"`
}

// Store is the persistence contract used by every pipeline stage and the
// query API.
type Store interface {
	// UpsertCompany stores the single monitored company profile.
	UpsertCompany(ctx context.Context, c *models.Company) error
	// GetCompany returns the company profile or ErrNotFound before seeding.
	GetCompany(ctx context.Context) (*models.Company, error)

	// UpsertSupplier inserts or replaces a supplier record.
	UpsertSupplier(ctx context.Context, s *models.Supplier) error
	// GetSupplier returns a supplier by ID.
	GetSupplier(ctx context.Context, id string) (*models.Supplier, error)
	// GetSupplierByName returns a supplier by exact name match.
	GetSupplierByName(ctx context.Context, name string) (*models.Supplier, error)
	// ListSuppliers returns all suppliers ordered by name.
	ListSuppliers(ctx context.Context) ([]*models.Supplier, error)
	// UpdateSupplierRiskScore raises the supplier's current risk score to
	// score if it is higher than the stored value, and records a history
	// sample either way. Lower scores never overwrite higher ones.
	UpdateSupplierRiskScore(ctx context.Context, supplierID, riskEventID string, score float64) error
	// SupplierRiskHistory returns the most recent score samples, newest first.
	SupplierRiskHistory(ctx context.Context, supplierID string, limit int) ([]RiskScoreSample, error)

	// InsertArticle stores a normalized article. It reports false without
	// error when an article with the same event ID already exists.
	InsertArticle(ctx context.Context, a *models.Article) (bool, error)
	// GetArticle returns an article by event ID.
	GetArticle(ctx context.Context, eventID string) (*models.Article, error)
	// MarkArticleProcessed records the processing outcome for an article.
	MarkArticleProcessed(ctx context.Context, eventID, reason string, riskEventID *string) error

	// InsertRiskEvent stores a freshly extracted risk event.
	InsertRiskEvent(ctx context.Context, e *models.RiskEvent) error
	// GetRiskEvent returns a risk event by ID.
	GetRiskEvent(ctx context.Context, id string) (*models.RiskEvent, error)
	// UpdateRiskEventScore persists the scoring enrichment: components,
	// composite score, band, propagation map and scored_at.
	UpdateRiskEventScore(ctx context.Context, e *models.RiskEvent) error

	// InsertAlert stores an alert. ErrAlreadyExists when an alert for the
	// same risk event was inserted before.
	InsertAlert(ctx context.Context, a *models.Alert) error
	// GetAlert returns an alert by ID.
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	// ListAlerts returns alerts matching the filter, highest score first.
	ListAlerts(ctx context.Context, f AlertFilter) ([]*models.Alert, error)
	// AcknowledgeAlert marks an alert acknowledged by the given operator.
	AcknowledgeAlert(ctx context.Context, id, by string) (*models.Alert, error)

	// Summary aggregates counts for the dashboard endpoint.
	Summary(ctx context.Context) (*Summary, error)

	// GraphVersion increases whenever the company or supplier topology
	// changes. Risk score updates do not bump it; graph caches key on it.
	GraphVersion() int64
}
