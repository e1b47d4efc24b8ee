package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

// InsertReportRows stores a run's report rows in order.
func (db *DB) InsertReportRows(ctx context.Context, runID string, rows []models.ReportRow) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_rows (
			run_id, position, clinic, provider_id, provider_name, direct_hours,
			supervision_hours, pct_supervised, unsupervised_hours,
			credential_codes, credential_hours, flags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare report row insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		_, err := stmt.ExecContext(ctx,
			runID,
			i,
			r.Clinic,
			r.DirectProviderID,
			nullString(r.DirectProviderName),
			r.DirectHours.String(),
			r.SupervisionHours.String(),
			nullString(models.FormatPercent(r.PctSupervised)),
			r.UnsupervisedHours.String(),
			r.CredentialCodes,
			r.CredentialHours.String(),
			nullString(joinFlags(r.Flags)),
		)
		if err != nil {
			return fmt.Errorf("failed to insert report row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report rows: %w", err)
	}
	return nil
}

// GetRunRows returns a run's report rows in report order.
func (db *DB) GetRunRows(ctx context.Context, runID string) ([]models.ReportRow, error) {
	query := `
		SELECT clinic, provider_id, provider_name, direct_hours, supervision_hours,
			   pct_supervised, unsupervised_hours, credential_codes, credential_hours, flags
		FROM report_rows
		WHERE run_id = ?
		ORDER BY position
	`

	rows, err := db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query report rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ReportRow
	for rows.Next() {
		var (
			r                                   models.ReportRow
			name, pct, flags                    sql.NullString
			direct, supervision, unsup, credHrs sql.NullString
		)
		if err := rows.Scan(
			&r.Clinic, &r.DirectProviderID, &name, &direct, &supervision,
			&pct, &unsup, &r.CredentialCodes, &credHrs, &flags,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		r.DirectProviderName = name.String
		r.DirectHours = parseDecimal(direct)
		r.SupervisionHours = parseDecimal(supervision)
		r.UnsupervisedHours = parseDecimal(unsup)
		r.CredentialHours = parseDecimal(credHrs)
		if pct.Valid {
			r.PctSupervised = decimal.NewNullDecimal(parseDecimal(pct))
		}
		r.Flags = splitFlags(flags.String)
		out = append(out, r)
	}

	return out, rows.Err()
}

// InsertAnomalies stores a run's anomalies.
func (db *DB) InsertAnomalies(ctx context.Context, runID string, anomalies []models.Anomaly) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anomalies (run_id, kind, message, client_id, provider_id, location, value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare anomaly insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range anomalies {
		_, err := stmt.ExecContext(ctx,
			runID,
			string(a.Kind),
			a.Message,
			nullString(a.ClientID),
			nullString(a.ProviderID),
			nullString(a.Location),
			a.Value.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit anomalies: %w", err)
	}
	return nil
}

// GetRunAnomalies returns a run's anomalies in insertion order.
func (db *DB) GetRunAnomalies(ctx context.Context, runID string) ([]models.Anomaly, error) {
	query := `
		SELECT kind, message, client_id, provider_id, location, value
		FROM anomalies
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Anomaly
	for rows.Next() {
		var (
			a                          models.Anomaly
			kind                       string
			client, provider, location sql.NullString
			value                      sql.NullString
		)
		if err := rows.Scan(&kind, &a.Message, &client, &provider, &location, &value); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.Kind = models.AnomalyKind(kind)
		a.ClientID = client.String
		a.ProviderID = provider.String
		a.Location = location.String
		a.Value = parseDecimal(value)
		out = append(out, a)
	}

	return out, rows.Err()
}

// GetClinicTrend returns per-clinic totals for the newest limit successful
// runs, oldest run first. An empty clinic returns every clinic.
func (db *DB) GetClinicTrend(ctx context.Context, clinic string, limit int) ([]models.ClinicPoint, error) {
	query := `
		SELECT r.id, r.started_at, rr.clinic, rr.direct_hours, rr.supervision_hours
		FROM report_rows rr
		JOIN (
			SELECT id, started_at FROM runs
			WHERE status = ?
			ORDER BY started_at DESC
			LIMIT ?
		) r ON r.id = rr.run_id
		WHERE (? = '' OR rr.clinic = ?)
		ORDER BY r.started_at, rr.clinic, rr.position
	`

	rows, err := db.QueryContext(ctx, query, string(models.RunSucceeded), limit, clinic, clinic)
	if err != nil {
		return nil, fmt.Errorf("failed to query clinic trend: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type pointKey struct{ run, clinic string }
	index := make(map[pointKey]int)
	var points []models.ClinicPoint
	for rows.Next() {
		var runID, startedAt, name string
		var direct, supervision sql.NullString
		if err := rows.Scan(&runID, &startedAt, &name, &direct, &supervision); err != nil {
			return nil, fmt.Errorf("failed to scan clinic trend: %w", err)
		}

		key := pointKey{runID, name}
		i, ok := index[key]
		if !ok {
			started, _ := parseTimeString(startedAt)
			points = append(points, models.ClinicPoint{
				RunID:            runID,
				StartedAt:        started,
				Clinic:           name,
				DirectHours:      decimal.Zero,
				SupervisionHours: decimal.Zero,
			})
			i = len(points) - 1
			index[key] = i
		}
		points[i].DirectHours = points[i].DirectHours.Add(parseDecimal(direct))
		points[i].SupervisionHours = points[i].SupervisionHours.Add(parseDecimal(supervision))
	}

	return points, rows.Err()
}

func joinFlags(flags []models.AnomalyKind) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

func splitFlags(s string) []models.AnomalyKind {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	flags := make([]models.AnomalyKind, len(parts))
	for i, p := range parts {
		flags[i] = models.AnomalyKind(p)
	}
	return flags
}
