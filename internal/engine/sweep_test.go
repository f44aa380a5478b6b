package engine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/engine"
)

func TestSweepFlagsLapsedHearingAndSendsAlert(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, 5, engine.HearingCreateOptions{Court: "TGI Dakar"})

	// Move the clock past the hearing date.
	env.Engine.Now = func() time.Time { return testNow.AddDate(0, 0, 7) }

	report, err := env.Engine.RunDailySweep(env.Ctx, "sweeper")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Flagged != 1 || report.AlertsCreated != 1 || report.Sent != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected sweep errors: %v", report.Errors)
	}

	got, err := env.Engine.Repo.GetHearing(env.Ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.HearingUnreported {
		t.Fatalf("hearing status = %s, want unreported", got.Status)
	}
	alert, err := env.Engine.Repo.GetOpenAlert(env.Ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if alert.Status != domain.AlertSent || alert.SendCount != 1 || alert.LastSentAt == nil {
		t.Fatalf("alert = %+v", alert)
	}
	if env.Sender.count() != 1 {
		t.Fatalf("sent %d mails, want 1", env.Sender.count())
	}
	mail := env.Sender.sent[0]
	if !strings.Contains(mail.Subject, "RG 26/00123") {
		t.Fatalf("subject missing case reference: %q", mail.Subject)
	}
	if !strings.Contains(mail.Body, "TGI Dakar") {
		t.Fatalf("body missing court: %q", mail.Body)
	}
}

func TestSweepRerunIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})

	first, err := env.Engine.RunDailySweep(env.Ctx, "sweeper")
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.Engine.RunDailySweep(env.Ctx, "sweeper")
	if err != nil {
		t.Fatal(err)
	}
	if second.Flagged != 0 || second.AlertsCreated != 0 || second.Sent != 0 {
		t.Fatalf("rerun must be a no-op, got %+v (first was %+v)", second, first)
	}
	alerts, err := env.Engine.Repo.ListAlertsByHearing(env.Ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(alerts))
	}
}

func TestSweepSkipsHearingsWithResults(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	lapsed := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	future := env.mustHearing(t, c.ID, 10, engine.HearingCreateOptions{})

	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: lapsed.ID, Kind: domain.ResultRenvoi, Reason: "adjourned", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	report, err := env.Engine.RunDailySweep(env.Ctx, "sweeper")
	if err != nil {
		t.Fatal(err)
	}
	if report.Flagged != 0 || report.AlertsCreated != 0 {
		t.Fatalf("held hearing must not be swept, got %+v", report)
	}
	got, _ := env.Engine.Repo.GetHearing(env.Ctx, future.ID)
	if got.Status != domain.HearingUpcoming {
		t.Fatalf("future hearing touched by sweep: %s", got.Status)
	}
}

func TestFailedHandoffLeavesAlertPending(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	env.Sender.fail = true

	report, err := env.Engine.RunDailySweep(env.Ctx, "sweeper")
	if err != nil {
		t.Fatal(err)
	}
	if report.Sent != 0 {
		t.Fatalf("nothing should have been sent, got %+v", report)
	}
	alert, err := env.Engine.Repo.GetOpenAlert(env.Ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if alert.Status != domain.AlertPending || alert.SendCount != 0 {
		t.Fatalf("failed handoff must leave the alert pending: %+v", alert)
	}

	// Next flush retries and succeeds.
	env.Sender.fail = false
	sent, err := env.Engine.FlushPending(env.Ctx, "sweeper")
	if err != nil {
		t.Fatal(err)
	}
	if sent != 1 {
		t.Fatalf("retry sent %d, want 1", sent)
	}
	alert, _ = env.Engine.Repo.GetOpenAlert(env.Ctx, h.ID)
	if alert.Status != domain.AlertSent || alert.SendCount != 1 {
		t.Fatalf("retried alert = %+v", alert)
	}
}

func TestRecordResultResolvesOpenAlert(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	if _, err := env.Engine.RunDailySweep(env.Ctx, "sweeper"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID, Kind: domain.ResultDelibere, Decision: "done", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	alerts, err := env.Engine.Repo.ListAlertsByHearing(env.Ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Status != domain.AlertResolved || alerts[0].ResolvedAt == nil {
		t.Fatalf("alert not resolved after result: %+v", alerts)
	}
	// The alert stays gone: another sweep must not resurrect it.
	report, err := env.Engine.RunDailySweep(env.Ctx, "sweeper")
	if err != nil {
		t.Fatal(err)
	}
	if report.AlertsCreated != 0 {
		t.Fatalf("sweep recreated an alert on a held hearing: %+v", report)
	}
}

func TestListUnreportedHearings(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	env.mustHearing(t, c.ID, -2, engine.HearingCreateOptions{})
	env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	env.mustHearing(t, c.ID, 3, engine.HearingCreateOptions{})

	out, err := env.Engine.ListUnreportedHearings(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 unreported hearings, got %d", len(out))
	}
	for _, h := range out {
		if h.Status != domain.HearingUnreported {
			t.Fatalf("listed hearing has status %s", h.Status)
		}
	}
}

func TestCountLapsed(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	env.mustHearing(t, c.ID, 1, engine.HearingCreateOptions{})
	n, err := env.Engine.CountLapsed(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	env.Engine.Now = func() time.Time { return testNow.AddDate(0, 0, 2) }
	n, err = env.Engine.CountLapsed(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}
