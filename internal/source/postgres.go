package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/j-veylop/supervision-hours/internal/logger"
	"github.com/j-veylop/supervision-hours/internal/models"
)

// intervalQuery selects every billing entry with one of the requested service
// codes that ended inside [$1, $2).
const intervalQuery = `
SELECT
	b.client_contact_id,
	COALESCE(c.client_full_name, ''),
	COALESCE(c.office_location_name, ''),
	b.provider_contact_id,
	COALESCE(p.first_name, ''),
	COALESCE(p.last_name, ''),
	sc.service_code,
	b.service_start_time,
	b.service_end_time,
	COALESCE(b.service_location_name, '')
FROM billing_entries AS b
INNER JOIN service_codes AS sc ON b.service_code_id = sc.service_code_id
INNER JOIN clients AS c ON b.client_contact_id = c.client_id
LEFT JOIN contacts AS p ON p.contact_id = b.provider_contact_id
WHERE b.service_end_time >= $1
  AND b.service_end_time < $2
  AND sc.service_code = ANY($3)
ORDER BY b.client_contact_id, b.service_start_time`

// PostgresSource reads interval records from the billing database.
type PostgresSource struct {
	db    *sql.DB
	codes []string
}

// NewPostgresSource connects to url and verifies the connection. codes limits
// the query to the service codes the engine classifies.
func NewPostgresSource(ctx context.Context, url string, codes []string) (*PostgresSource, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open source database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to source database: %w", err)
	}

	return &PostgresSource{db: db, codes: codes}, nil
}

// Intervals implements Source.
func (s *PostgresSource) Intervals(ctx context.Context, window models.Window) ([]models.IntervalRecord, error) {
	rows, err := s.db.QueryContext(ctx, intervalQuery, window.Start, window.End, s.codes)
	if err != nil {
		return nil, fmt.Errorf("failed to query intervals: %w", err)
	}
	defer rows.Close()

	var records []models.IntervalRecord
	for rows.Next() {
		var r models.IntervalRecord
		var start, end sql.NullTime
		if err := rows.Scan(
			&r.ClientID, &r.ClientName, &r.ClientOffice,
			&r.ProviderID, &r.ProviderFirstName, &r.ProviderLastName,
			&r.ServiceCode, &start, &end, &r.Location,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		r.Start = start.Time
		r.End = end.Time
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read intervals: %w", err)
	}

	logger.Debug("queried intervals", "window", window.String(), "records", len(records))
	return records, nil
}

// Close implements Source.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}
