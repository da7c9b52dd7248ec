package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/chainwatch/chainwatch/pkg/models"
)

// PostgresStore implements Store on PostgreSQL via sqlx. Collection-valued
// fields live in JSONB columns; scalar fields in typed columns.
type PostgresStore struct {
	db *sqlx.DB

	// graphVersion counts topology mutations since process start. The
	// dependency graph is rebuilt from the store whenever this moves.
	graphVersion atomic.Int64
}

// NewPostgresStore wraps an sqlx handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GraphVersion returns the current topology version.
func (s *PostgresStore) GraphVersion() int64 {
	return s.graphVersion.Load()
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding jsonb value: %w", err)
	}
	return data, nil
}

func unmarshalJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding jsonb value: %w", err)
	}
	return nil
}

// --- company ---

func (s *PostgresStore) UpsertCompany(ctx context.Context, c *models.Company) error {
	rawMaterials, err := marshalJSON(c.RawMaterials)
	if err != nil {
		return err
	}
	criticality, err := marshalJSON(c.MaterialCriticality)
	if err != nil {
		return err
	}
	inventory, err := marshalJSON(c.InventoryDays)
	if err != nil {
		return err
	}
	geographies, err := marshalJSON(c.KeyGeographies)
	if err != nil {
		return err
	}
	contacts, err := marshalJSON(c.Contacts)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, industry, raw_materials, material_criticality, inventory_days, key_geographies, contacts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			industry = EXCLUDED.industry,
			raw_materials = EXCLUDED.raw_materials,
			material_criticality = EXCLUDED.material_criticality,
			inventory_days = EXCLUDED.inventory_days,
			key_geographies = EXCLUDED.key_geographies,
			contacts = EXCLUDED.contacts`,
		c.ID, c.Name, c.Industry, rawMaterials, criticality, inventory, geographies, contacts)
	if err != nil {
		return fmt.Errorf("upserting company %s: %w", c.ID, err)
	}

	s.graphVersion.Add(1)
	return nil
}

type companyRow struct {
	ID                  string `db:"id"`
	Name                string `db:"name"`
	Industry            string `db:"industry"`
	RawMaterials        []byte `db:"raw_materials"`
	MaterialCriticality []byte `db:"material_criticality"`
	InventoryDays       []byte `db:"inventory_days"`
	KeyGeographies      []byte `db:"key_geographies"`
	Contacts            []byte `db:"contacts"`
}

func (s *PostgresStore) GetCompany(ctx context.Context) (*models.Company, error) {
	var row companyRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, industry, raw_materials, material_criticality, inventory_days, key_geographies, contacts
		FROM companies ORDER BY created_at LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading company: %w", err)
	}

	c := &models.Company{ID: row.ID, Name: row.Name, Industry: row.Industry}
	if err := unmarshalJSON(row.RawMaterials, &c.RawMaterials); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(row.MaterialCriticality, &c.MaterialCriticality); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(row.InventoryDays, &c.InventoryDays); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(row.KeyGeographies, &c.KeyGeographies); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(row.Contacts, &c.Contacts); err != nil {
		return nil, err
	}
	return c, nil
}

// --- suppliers ---

type supplierRow struct {
	ID               string  `db:"id"`
	Name             string  `db:"name"`
	Country          string  `db:"country"`
	Region           string  `db:"region"`
	Tier             int     `db:"tier"`
	Materials        []byte  `db:"materials"`
	SupplyVolumePct  float64 `db:"supply_volume_pct"`
	Status           string  `db:"status"`
	ApprovedVendor   bool    `db:"approved_vendor"`
	ESGScore         float64 `db:"esg_score"`
	CreditRating     string  `db:"credit_rating"`
	MaxCapacity      float64 `db:"max_capacity"`
	LeadTimeWeeks    int     `db:"lead_time_weeks"`
	SwitchingCost    float64 `db:"switching_cost"`
	Upstream         []byte  `db:"upstream"`
	RiskScoreCurrent float64 `db:"risk_score_current"`
}

const supplierColumns = `id, name, country, region, tier, materials, supply_volume_pct, status,
	approved_vendor, esg_score, credit_rating, max_capacity, lead_time_weeks, switching_cost,
	upstream, risk_score_current`

func (r *supplierRow) toModel() (*models.Supplier, error) {
	sup := &models.Supplier{
		ID:               r.ID,
		Name:             r.Name,
		Country:          r.Country,
		Region:           r.Region,
		Tier:             r.Tier,
		SupplyVolumePct:  r.SupplyVolumePct,
		Status:           models.SupplierStatus(r.Status),
		ApprovedVendor:   r.ApprovedVendor,
		ESGScore:         r.ESGScore,
		CreditRating:     r.CreditRating,
		MaxCapacity:      r.MaxCapacity,
		LeadTimeWeeks:    r.LeadTimeWeeks,
		SwitchingCost:    r.SwitchingCost,
		RiskScoreCurrent: r.RiskScoreCurrent,
	}
	if err := unmarshalJSON(r.Materials, &sup.Materials); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.Upstream, &sup.Upstream); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *PostgresStore) UpsertSupplier(ctx context.Context, sup *models.Supplier) error {
	materials, err := marshalJSON(sup.Materials)
	if err != nil {
		return err
	}
	upstream, err := marshalJSON(sup.Upstream)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, country, region, tier, materials, supply_volume_pct, status,
			approved_vendor, esg_score, credit_rating, max_capacity, lead_time_weeks, switching_cost,
			upstream, risk_score_current)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			region = EXCLUDED.region,
			tier = EXCLUDED.tier,
			materials = EXCLUDED.materials,
			supply_volume_pct = EXCLUDED.supply_volume_pct,
			status = EXCLUDED.status,
			approved_vendor = EXCLUDED.approved_vendor,
			esg_score = EXCLUDED.esg_score,
			credit_rating = EXCLUDED.credit_rating,
			max_capacity = EXCLUDED.max_capacity,
			lead_time_weeks = EXCLUDED.lead_time_weeks,
			switching_cost = EXCLUDED.switching_cost,
			upstream = EXCLUDED.upstream`,
		sup.ID, sup.Name, sup.Country, sup.Region, sup.Tier, materials, sup.SupplyVolumePct,
		string(sup.Status), sup.ApprovedVendor, sup.ESGScore, sup.CreditRating, sup.MaxCapacity,
		sup.LeadTimeWeeks, sup.SwitchingCost, upstream, sup.RiskScoreCurrent)
	if err != nil {
		return fmt.Errorf("upserting supplier %s: %w", sup.ID, err)
	}

	s.graphVersion.Add(1)
	return nil
}

func (s *PostgresStore) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	var row supplierRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading supplier %s: %w", id, err)
	}
	return row.toModel()
}

func (s *PostgresStore) GetSupplierByName(ctx context.Context, name string) (*models.Supplier, error) {
	var row supplierRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+supplierColumns+` FROM suppliers WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading supplier %q: %w", name, err)
	}
	return row.toModel()
}

func (s *PostgresStore) ListSuppliers(ctx context.Context) ([]*models.Supplier, error) {
	var rows []supplierRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}

	suppliers := make([]*models.Supplier, 0, len(rows))
	for i := range rows {
		sup, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, nil
}

func (s *PostgresStore) UpdateSupplierRiskScore(ctx context.Context, supplierID, riskEventID string, score float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE suppliers SET risk_score_current = GREATEST(risk_score_current, $2) WHERE id = $1`,
		supplierID, score)
	if err != nil {
		return fmt.Errorf("updating risk score for supplier %s: %w", supplierID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO risk_score_history (supplier_id, risk_event_id, score) VALUES ($1, $2, $3)`,
		supplierID, riskEventID, score)
	if err != nil {
		return fmt.Errorf("recording risk history for supplier %s: %w", supplierID, err)
	}
	return nil
}

func (s *PostgresStore) SupplierRiskHistory(ctx context.Context, supplierID string, limit int) ([]RiskScoreSample, error) {
	if limit <= 0 {
		limit = 50
	}
	var samples []RiskScoreSample
	err := s.db.SelectContext(ctx, &samples, `
		SELECT risk_event_id, score, recorded_at
		FROM risk_score_history WHERE supplier_id = $1
		ORDER BY recorded_at DESC LIMIT $2`, supplierID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading risk history for supplier %s: %w", supplierID, err)
	}
	return samples, nil
}

// --- articles ---

func (s *PostgresStore) InsertArticle(ctx context.Context, a *models.Article) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (event_id, ts, source, headline, body, url, processed, processed_reason, risk_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`,
		a.EventID, a.Timestamp, a.Source, a.Headline, a.Body, a.URL, a.Processed, a.ProcessedReason, a.RiskEventID)
	if err != nil {
		return false, fmt.Errorf("inserting article %s: %w", a.EventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting article %s: %w", a.EventID, err)
	}
	return n == 1, nil
}

func (s *PostgresStore) GetArticle(ctx context.Context, eventID string) (*models.Article, error) {
	var a models.Article
	err := s.db.GetContext(ctx, &a, `
		SELECT event_id, ts, source, headline, body, url, processed, processed_reason, risk_event_id, created_at, processed_at
		FROM articles WHERE event_id = $1`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading article %s: %w", eventID, err)
	}
	return &a, nil
}

func (s *PostgresStore) MarkArticleProcessed(ctx context.Context, eventID, reason string, riskEventID *string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE articles SET processed = TRUE, processed_reason = $2, risk_event_id = $3, processed_at = now()
		WHERE event_id = $1`, eventID, reason, riskEventID)
	if err != nil {
		return fmt.Errorf("marking article %s processed: %w", eventID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- risk events ---

type riskEventRow struct {
	ID                string     `db:"id"`
	ArticleID         string     `db:"article_id"`
	IsRisk            bool       `db:"is_risk"`
	RiskType          string     `db:"risk_type"`
	AffectedEntities  []byte     `db:"affected_entities"`
	AffectedNodes     []byte     `db:"affected_nodes"`
	Severity          string     `db:"severity"`
	Confirmation      string     `db:"confirmation"`
	TimeHorizon       string     `db:"time_horizon"`
	Reasoning         string     `db:"reasoning"`
	RecommendedAction string     `db:"recommended_action"`
	Components        []byte     `db:"components"`
	RiskScore         float64    `db:"risk_score"`
	SeverityBand      string     `db:"severity_band"`
	Propagation       []byte     `db:"propagation"`
	CreatedAt         time.Time  `db:"created_at"`
	ScoredAt          *time.Time `db:"scored_at"`
}

func (s *PostgresStore) InsertRiskEvent(ctx context.Context, e *models.RiskEvent) error {
	entities, err := marshalJSON(e.AffectedEntities)
	if err != nil {
		return err
	}
	nodes, err := marshalJSON(e.AffectedNodes)
	if err != nil {
		return err
	}
	components, err := marshalJSON(e.Components)
	if err != nil {
		return err
	}
	propagation, err := marshalJSON(e.Propagation)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_events (id, article_id, is_risk, risk_type, affected_entities, affected_nodes,
			severity, confirmation, time_horizon, reasoning, recommended_action,
			components, risk_score, severity_band, propagation, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		e.ID, e.ArticleID, e.IsRisk, string(e.RiskType), entities, nodes,
		string(e.Severity), string(e.Confirmation), string(e.TimeHorizon), e.Reasoning, e.RecommendedAction,
		components, e.RiskScore, string(e.SeverityBand), propagation, e.ScoredAt)
	if err != nil {
		return fmt.Errorf("inserting risk event %s: %w", e.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetRiskEvent(ctx context.Context, id string) (*models.RiskEvent, error) {
	var row riskEventRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, article_id, is_risk, risk_type, affected_entities, affected_nodes,
			severity, confirmation, time_horizon, reasoning, recommended_action,
			components, risk_score, severity_band, propagation, created_at, scored_at
		FROM risk_events WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading risk event %s: %w", id, err)
	}

	e := &models.RiskEvent{
		ID:                row.ID,
		ArticleID:         row.ArticleID,
		IsRisk:            row.IsRisk,
		RiskType:          models.RiskType(row.RiskType),
		Severity:          models.Severity(row.Severity),
		Confirmation:      models.Confirmation(row.Confirmation),
		TimeHorizon:       models.TimeHorizon(row.TimeHorizon),
		Reasoning:         row.Reasoning,
		RecommendedAction: row.RecommendedAction,
		RiskScore:         row.RiskScore,
		SeverityBand:      models.SeverityBand(row.SeverityBand),
		CreatedAt:         row.CreatedAt,
		ScoredAt:          row.ScoredAt,
	}
	if err := unmarshalJSON(row.AffectedEntities, &e.AffectedEntities); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(row.AffectedNodes, &e.AffectedNodes); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(row.Components, &e.Components); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(row.Propagation, &e.Propagation); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *PostgresStore) UpdateRiskEventScore(ctx context.Context, e *models.RiskEvent) error {
	components, err := marshalJSON(e.Components)
	if err != nil {
		return err
	}
	propagation, err := marshalJSON(e.Propagation)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE risk_events SET components = $2, risk_score = $3, severity_band = $4, propagation = $5, scored_at = now()
		WHERE id = $1`,
		e.ID, components, e.RiskScore, string(e.SeverityBand), propagation)
	if err != nil {
		return fmt.Errorf("updating score for risk event %s: %w", e.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- alerts ---

type alertRow struct {
	ID                string     `db:"id"`
	RiskEventID       string     `db:"risk_event_id"`
	SeverityBand      string     `db:"severity_band"`
	RiskScore         float64    `db:"risk_score"`
	Title             string     `db:"title"`
	Description       string     `db:"description"`
	AffectedSuppliers []byte     `db:"affected_suppliers"`
	AffectedMaterials []byte     `db:"affected_materials"`
	Alternates        []byte     `db:"alternates"`
	Recommendation    string     `db:"recommendation"`
	Acknowledged      bool       `db:"acknowledged"`
	AcknowledgedBy    *string    `db:"acknowledged_by"`
	AcknowledgedAt    *time.Time `db:"acknowledged_at"`
	CreatedAt         time.Time  `db:"created_at"`
	ResolvedAt        *time.Time `db:"resolved_at"`
}

const alertColumns = `id, risk_event_id, severity_band, risk_score, title, description,
	affected_suppliers, affected_materials, alternates, recommendation,
	acknowledged, acknowledged_by, acknowledged_at, created_at, resolved_at`

func (r *alertRow) toModel() (*models.Alert, error) {
	a := &models.Alert{
		ID:             r.ID,
		RiskEventID:    r.RiskEventID,
		SeverityBand:   models.SeverityBand(r.SeverityBand),
		RiskScore:      r.RiskScore,
		Title:          r.Title,
		Description:    r.Description,
		Recommendation: r.Recommendation,
		Acknowledged:   r.Acknowledged,
		AcknowledgedAt: r.AcknowledgedAt,
		CreatedAt:      r.CreatedAt,
		ResolvedAt:     r.ResolvedAt,
	}
	if r.AcknowledgedBy != nil {
		a.AcknowledgedBy = *r.AcknowledgedBy
	}
	if err := unmarshalJSON(r.AffectedSuppliers, &a.AffectedSuppliers); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.AffectedMaterials, &a.AffectedMaterials); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(r.Alternates, &a.Alternates); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) InsertAlert(ctx context.Context, a *models.Alert) error {
	suppliers, err := marshalJSON(a.AffectedSuppliers)
	if err != nil {
		return err
	}
	materials, err := marshalJSON(a.AffectedMaterials)
	if err != nil {
		return err
	}
	alternates, err := marshalJSON(a.Alternates)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, risk_event_id, severity_band, risk_score, title, description,
			affected_suppliers, affected_materials, alternates, recommendation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (risk_event_id) DO NOTHING`,
		a.ID, a.RiskEventID, string(a.SeverityBand), a.RiskScore, a.Title, a.Description,
		suppliers, materials, alternates, a.Recommendation)
	if err != nil {
		return fmt.Errorf("inserting alert for risk event %s: %w", a.RiskEventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting alert for risk event %s: %w", a.RiskEventID, err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *PostgresStore) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	var row alertRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading alert %s: %w", id, err)
	}
	return row.toModel()
}

func (s *PostgresStore) ListAlerts(ctx context.Context, f AlertFilter) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	var args []any

	if f.SeverityBand != "" {
		args = append(args, string(f.SeverityBand))
		query += fmt.Sprintf(" AND severity_band = $%d", len(args))
	}
	if f.Acknowledged != nil {
		args = append(args, *f.Acknowledged)
		query += fmt.Sprintf(" AND acknowledged = $%d", len(args))
	}
	query += " ORDER BY risk_score DESC, created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []alertRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}

	alerts := make([]*models.Alert, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func (s *PostgresStore) AcknowledgeAlert(ctx context.Context, id, by string) (*models.Alert, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET acknowledged = TRUE, acknowledged_by = $2, acknowledged_at = now()
		WHERE id = $1`, id, by)
	if err != nil {
		return nil, fmt.Errorf("acknowledging alert %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetAlert(ctx, id)
}

// --- summary ---

func (s *PostgresStore) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{AlertsByBand: make(map[models.SeverityBand]int)}

	row := s.db.QueryRowxContext(ctx, `
		SELECT
			(SELECT count(*) FROM suppliers),
			(SELECT count(*) FROM suppliers WHERE risk_score_current >= 3),
			(SELECT count(*) FROM articles),
			(SELECT count(*) FROM articles WHERE processed),
			(SELECT count(*) FROM risk_events),
			(SELECT count(*) FROM alerts),
			(SELECT count(*) FROM alerts WHERE NOT acknowledged)`)
	err := row.Scan(&summary.Suppliers, &summary.SuppliersAtRisk,
		&summary.ArticlesIngested, &summary.ArticlesProcessed,
		&summary.RiskEvents, &summary.TotalAlerts, &summary.OpenAlerts)
	if err != nil {
		return nil, fmt.Errorf("aggregating summary: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx,
		`SELECT severity_band, count(*) FROM alerts GROUP BY severity_band`)
	if err != nil {
		return nil, fmt.Errorf("aggregating alerts by band: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var band string
		var count int
		if err := rows.Scan(&band, &count); err != nil {
			return nil, fmt.Errorf("aggregating alerts by band: %w", err)
		}
		summary.AlertsByBand[models.SeverityBand(band)] = count
	}
	return summary, rows.Err()
}
