package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chainwatch/chainwatch/pkg/models"
)

// MemoryStore is an in-memory Store for tests and local runs without
// Postgres. It mirrors the semantics of PostgresStore, including the
// GREATEST rule for supplier risk scores and the one-alert-per-event
// constraint.
type MemoryStore struct {
	mu           sync.RWMutex
	company      *models.Company
	suppliers    map[string]*models.Supplier
	articles     map[string]*models.Article
	riskEvents   map[string]*models.RiskEvent
	alerts       map[string]*models.Alert
	alertByEvent map[string]string
	history      map[string][]RiskScoreSample

	graphVersion atomic.Int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		suppliers:    make(map[string]*models.Supplier),
		articles:     make(map[string]*models.Article),
		riskEvents:   make(map[string]*models.RiskEvent),
		alerts:       make(map[string]*models.Alert),
		alertByEvent: make(map[string]string),
		history:      make(map[string][]RiskScoreSample),
	}
}

// GraphVersion returns the current topology version.
func (s *MemoryStore) GraphVersion() int64 {
	return s.graphVersion.Load()
}

func (s *MemoryStore) UpsertCompany(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *c
	s.company = &clone
	s.graphVersion.Add(1)
	return nil
}

func (s *MemoryStore) GetCompany(_ context.Context) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.company == nil {
		return nil, ErrNotFound
	}
	clone := *s.company
	return &clone, nil
}

func (s *MemoryStore) UpsertSupplier(_ context.Context, sup *models.Supplier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *sup
	s.suppliers[sup.ID] = &clone
	s.graphVersion.Add(1)
	return nil
}

func (s *MemoryStore) GetSupplier(_ context.Context, id string) (*models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sup, ok := s.suppliers[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *sup
	return &clone, nil
}

func (s *MemoryStore) GetSupplierByName(_ context.Context, name string) (*models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sup := range s.suppliers {
		if sup.Name == name {
			clone := *sup
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListSuppliers(_ context.Context) ([]*models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	suppliers := make([]*models.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		clone := *sup
		suppliers = append(suppliers, &clone)
	}
	sort.Slice(suppliers, func(i, j int) bool {
		return strings.Compare(suppliers[i].Name, suppliers[j].Name) < 0
	})
	return suppliers, nil
}

func (s *MemoryStore) UpdateSupplierRiskScore(_ context.Context, supplierID, riskEventID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup, ok := s.suppliers[supplierID]
	if !ok {
		return ErrNotFound
	}
	if score > sup.RiskScoreCurrent {
		sup.RiskScoreCurrent = score
	}
	s.history[supplierID] = append(s.history[supplierID], RiskScoreSample{
		RiskEventID: riskEventID,
		Score:       score,
		RecordedAt:  time.Now(),
	})
	return nil
}

func (s *MemoryStore) SupplierRiskHistory(_ context.Context, supplierID string, limit int) ([]RiskScoreSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	samples := s.history[supplierID]
	out := make([]RiskScoreSample, len(samples))
	copy(out, samples)
	// Newest first, matching the SQL ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) InsertArticle(_ context.Context, a *models.Article) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.articles[a.EventID]; exists {
		return false, nil
	}
	clone := *a
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	s.articles[a.EventID] = &clone
	return true, nil
}

func (s *MemoryStore) GetArticle(_ context.Context, eventID string) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *MemoryStore) MarkArticleProcessed(_ context.Context, eventID, reason string, riskEventID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[eventID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	a.Processed = true
	a.ProcessedReason = reason
	a.RiskEventID = riskEventID
	a.ProcessedAt = &now
	return nil
}

func (s *MemoryStore) InsertRiskEvent(_ context.Context, e *models.RiskEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *e
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	s.riskEvents[e.ID] = &clone
	return nil
}

func (s *MemoryStore) GetRiskEvent(_ context.Context, id string) (*models.RiskEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.riskEvents[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *MemoryStore) UpdateRiskEventScore(_ context.Context, e *models.RiskEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.riskEvents[e.ID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	stored.Components = e.Components
	stored.RiskScore = e.RiskScore
	stored.SeverityBand = e.SeverityBand
	stored.Propagation = e.Propagation
	stored.ScoredAt = &now
	return nil
}

func (s *MemoryStore) InsertAlert(_ context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alertByEvent[a.RiskEventID]; exists {
		return ErrAlreadyExists
	}
	clone := *a
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	s.alerts[a.ID] = &clone
	s.alertByEvent[a.RiskEventID] = a.ID
	return nil
}

func (s *MemoryStore) GetAlert(_ context.Context, id string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *MemoryStore) ListAlerts(_ context.Context, f AlertFilter) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alerts := make([]*models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if f.SeverityBand != "" && a.SeverityBand != f.SeverityBand {
			continue
		}
		if f.Acknowledged != nil && a.Acknowledged != *f.Acknowledged {
			continue
		}
		clone := *a
		alerts = append(alerts, &clone)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].RiskScore != alerts[j].RiskScore {
			return alerts[i].RiskScore > alerts[j].RiskScore
		}
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	if f.Limit > 0 && len(alerts) > f.Limit {
		alerts = alerts[:f.Limit]
	}
	return alerts, nil
}

func (s *MemoryStore) AcknowledgeAlert(_ context.Context, id, by string) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := time.Now()
	a.Acknowledged = true
	a.AcknowledgedBy = by
	a.AcknowledgedAt = &now
	clone := *a
	return &clone, nil
}

func (s *MemoryStore) Summary(_ context.Context) (*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary := &Summary{
		Suppliers:    len(s.suppliers),
		RiskEvents:   len(s.riskEvents),
		TotalAlerts:  len(s.alerts),
		AlertsByBand: make(map[models.SeverityBand]int),
	}
	for _, sup := range s.suppliers {
		if sup.RiskScoreCurrent >= 3 {
			summary.SuppliersAtRisk++
		}
	}
	summary.ArticlesIngested = len(s.articles)
	for _, a := range s.articles {
		if a.Processed {
			summary.ArticlesProcessed++
		}
	}
	for _, a := range s.alerts {
		summary.AlertsByBand[a.SeverityBand]++
		if !a.Acknowledged {
			summary.OpenAlerts++
		}
	}
	return summary, nil
}
