package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

func testWindow(day int) models.Window {
	start := time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
	return models.Window{Start: start, End: start.AddDate(0, 0, 7)}
}

func insertFinishedRun(t *testing.T, db *DB, started time.Time, window models.Window, status models.RunStatus) *models.RunSummary {
	t.Helper()
	ctx := context.Background()

	run := &models.RunSummary{StartedAt: started, Window: window, Mode: models.ModeRaw, Input: "pull.csv"}
	if err := db.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun() failed: %v", err)
	}
	run.Status = status
	run.FinishedAt = started.Add(3 * time.Second)
	run.RowCount = 2
	run.DirectHours = decimal.RequireFromString("3.5")
	run.SupervisionHours = decimal.RequireFromString("0.75")
	if err := db.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}
	return run
}

func TestInsertRun_AssignsID(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	run := &models.RunSummary{Window: testWindow(5), Mode: models.ModeRaw}
	if err := db.InsertRun(context.Background(), run); err != nil {
		t.Fatalf("InsertRun() failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("InsertRun() did not assign an id")
	}
	if run.Status != models.RunRunning {
		t.Errorf("Status = %q, want running", run.Status)
	}

	got, err := db.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if !got.Window.Start.Equal(run.Window.Start) || got.Mode != models.ModeRaw {
		t.Errorf("GetRun() = %+v", got)
	}
}

func TestFinishRun_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	started := time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC)
	run := insertFinishedRun(t, db, started, testWindow(5), models.RunSucceeded)

	got, err := db.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got.Status != models.RunSucceeded || got.RowCount != 2 {
		t.Errorf("GetRun() = %+v", got)
	}
	if !got.DirectHours.Equal(run.DirectHours) || !got.SupervisionHours.Equal(run.SupervisionHours) {
		t.Errorf("hours = %s/%s, want %s/%s", got.DirectHours, got.SupervisionHours, run.DirectHours, run.SupervisionHours)
	}
	if got.Duration() != 3*time.Second {
		t.Errorf("Duration() = %v, want 3s", got.Duration())
	}
}

func TestFinishRun_Unknown(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	err := db.FinishRun(context.Background(), &models.RunSummary{ID: "missing", Status: models.RunFailed})
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("FinishRun() error = %v, want ErrNoRows", err)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if _, err := db.GetRun(context.Background(), "nope"); !errors.Is(err, ErrNoRows) {
		t.Errorf("GetRun() error = %v, want ErrNoRows", err)
	}
	if _, err := db.GetLatestRun(context.Background()); !errors.Is(err, ErrNoRows) {
		t.Errorf("GetLatestRun() error = %v, want ErrNoRows", err)
	}
}

func TestGetRecentAndLatestRuns(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC)
	first := insertFinishedRun(t, db, base, testWindow(5), models.RunSucceeded)
	second := insertFinishedRun(t, db, base.Add(24*time.Hour), testWindow(12), models.RunSucceeded)
	insertFinishedRun(t, db, base.Add(48*time.Hour), testWindow(19), models.RunFailed)

	runs, err := db.GetRecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentRuns() failed: %v", err)
	}
	if len(runs) != 3 || runs[0].Status != models.RunFailed || runs[2].ID != first.ID {
		t.Errorf("GetRecentRuns() order is wrong: %+v", runs)
	}

	latest, err := db.GetLatestRun(ctx)
	if err != nil {
		t.Fatalf("GetLatestRun() failed: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("GetLatestRun() = %s, want %s", latest.ID, second.ID)
	}

	end, ok, err := db.LatestWindowEnd(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestWindowEnd() = %v, %v, %v", end, ok, err)
	}
	if !end.Equal(testWindow(12).End) {
		t.Errorf("LatestWindowEnd() = %v, want %v", end, testWindow(12).End)
	}
}

func TestLatestWindowEnd_Empty(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	_, ok, err := db.LatestWindowEnd(context.Background())
	if err != nil {
		t.Fatalf("LatestWindowEnd() failed: %v", err)
	}
	if ok {
		t.Error("LatestWindowEnd() ok = true on empty database")
	}
}

func TestReportRows_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	run := insertFinishedRun(t, db, time.Now(), testWindow(5), models.RunSucceeded)
	rows := []models.ReportRow{
		{
			Clinic: "Downtown", DirectProviderID: "P1", DirectProviderName: "Dana Direct",
			DirectHours: decimal.RequireFromString("2"), SupervisionHours: decimal.RequireFromString("0.5"),
			PctSupervised:     models.PercentOf(decimal.RequireFromString("0.5"), decimal.RequireFromString("2")),
			UnsupervisedHours: decimal.RequireFromString("1.5"),
			CredentialCodes:   1, CredentialHours: decimal.RequireFromString("4.25"),
		},
		{
			Clinic: "Eastside", DirectProviderID: "P2",
			DirectHours: decimal.Zero, SupervisionHours: decimal.RequireFromString("1"),
			UnsupervisedHours: decimal.RequireFromString("-1"),
			Flags:             []models.AnomalyKind{models.AnomalyNegativeResidual, models.AnomalyUndefinedPercentage},
		},
	}
	if err := db.InsertReportRows(ctx, run.ID, rows); err != nil {
		t.Fatalf("InsertReportRows() failed: %v", err)
	}

	got, err := db.GetRunRows(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRunRows() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetRunRows() returned %d rows, want 2", len(got))
	}
	for i := range rows {
		want, have := rows[i].Record(), got[i].Record()
		for j := range want {
			if want[j] != have[j] {
				t.Errorf("row %d column %s = %q, want %q", i, models.ReportColumns[j], have[j], want[j])
			}
		}
	}
	if len(got[1].Flags) != 2 || got[1].Flags[1] != models.AnomalyUndefinedPercentage {
		t.Errorf("Flags = %v", got[1].Flags)
	}
}

func TestAnomalies_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	run := insertFinishedRun(t, db, time.Now(), testWindow(5), models.RunSucceeded)
	anomalies := []models.Anomaly{
		{Kind: models.AnomalyMalformedInterval, Message: "record 3 dropped: end is not after start", ClientID: "C1"},
		{Kind: models.AnomalyNegativeResidual, Message: "negative", ProviderID: "P1", Value: decimal.RequireFromString("-1")},
	}
	if err := db.InsertAnomalies(ctx, run.ID, anomalies); err != nil {
		t.Fatalf("InsertAnomalies() failed: %v", err)
	}

	got, err := db.GetRunAnomalies(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRunAnomalies() failed: %v", err)
	}
	if len(got) != 2 || got[0].ClientID != "C1" || !got[1].Value.Equal(anomalies[1].Value) {
		t.Errorf("GetRunAnomalies() = %+v", got)
	}
}

func TestGetClinicTrend(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC)
	for i, sup := range []string{"0.5", "1"} {
		run := insertFinishedRun(t, db, base.Add(time.Duration(i)*24*time.Hour), testWindow(5+7*i), models.RunSucceeded)
		rows := []models.ReportRow{
			{Clinic: "Downtown", DirectProviderID: "P1", DirectHours: decimal.RequireFromString("2"), SupervisionHours: decimal.RequireFromString(sup)},
			{Clinic: "Downtown", DirectProviderID: "P2", DirectHours: decimal.RequireFromString("2"), SupervisionHours: decimal.Zero},
			{Clinic: "Eastside", DirectProviderID: "P3", DirectHours: decimal.RequireFromString("1"), SupervisionHours: decimal.Zero},
		}
		if err := db.InsertReportRows(ctx, run.ID, rows); err != nil {
			t.Fatalf("InsertReportRows() failed: %v", err)
		}
	}

	points, err := db.GetClinicTrend(ctx, "Downtown", 10)
	if err != nil {
		t.Fatalf("GetClinicTrend() failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("GetClinicTrend() returned %d points, want 2", len(points))
	}
	if !points[0].DirectHours.Equal(decimal.RequireFromString("4")) || !points[1].SupervisionHours.Equal(decimal.RequireFromString("1")) {
		t.Errorf("GetClinicTrend() = %+v", points)
	}

	all, err := db.GetClinicTrend(ctx, "", 1)
	if err != nil {
		t.Fatalf("GetClinicTrend(all) failed: %v", err)
	}
	if len(all) != 2 || all[0].Clinic != "Downtown" || all[1].Clinic != "Eastside" {
		t.Errorf("GetClinicTrend(all, 1) = %+v", all)
	}
}

func TestDeleteRunsBefore(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC)
	old := insertFinishedRun(t, db, base, testWindow(5), models.RunSucceeded)
	if err := db.InsertReportRows(ctx, old.ID, []models.ReportRow{{Clinic: "Downtown", DirectProviderID: "P1"}}); err != nil {
		t.Fatalf("InsertReportRows() failed: %v", err)
	}
	insertFinishedRun(t, db, base.AddDate(0, 1, 0), testWindow(12), models.RunSucceeded)

	n, err := db.DeleteRunsBefore(ctx, base.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("DeleteRunsBefore() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteRunsBefore() = %d, want 1", n)
	}
	rows, err := db.GetRunRows(ctx, old.ID)
	if err != nil {
		t.Fatalf("GetRunRows() failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("report rows of deleted run survived: %d", len(rows))
	}
}
