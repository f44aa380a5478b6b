package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Souleye05/legal-agenda-sub000/internal/config"
	"github.com/Souleye05/legal-agenda-sub000/internal/db"
	"github.com/Souleye05/legal-agenda-sub000/internal/domain"
	"github.com/Souleye05/legal-agenda-sub000/internal/engine"
	"github.com/Souleye05/legal-agenda-sub000/internal/migrate"
	"github.com/Souleye05/legal-agenda-sub000/internal/repo"
)

// testNow is a Monday so business-day math in fixtures is predictable.
var testNow = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

type sentMail struct {
	Recipient string
	Subject   string
	Body      string
}

// recordingSender captures handoffs and can be told to fail.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (r *recordingSender) Send(_ context.Context, recipient, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("send refused")
	}
	r.sent = append(r.sent, sentMail{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type testEnv struct {
	Engine engine.Engine
	Sender *recordingSender
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default("office-1")
	cfg.Notifications.Recipients = []string{"staff@example.test"}
	eng := engine.New(conn, cfg)
	eng.Now = func() time.Time { return testNow }
	sender := &recordingSender{}
	eng.Sender = sender
	return testEnv{Engine: eng, Sender: sender, Ctx: context.Background()}
}

func (env testEnv) mustCase(t *testing.T) domain.Case {
	t.Helper()
	c, err := env.Engine.CreateCase(env.Ctx, engine.CaseCreateOptions{
		Reference: "RG 26/00123",
		Title:     "Dupont v. Martin",
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatalf("create case: %v", err)
	}
	return c
}

func (env testEnv) mustHearing(t *testing.T, caseID string, daysFromNow int, opts engine.HearingCreateOptions) domain.Hearing {
	t.Helper()
	opts.CaseID = caseID
	opts.Date = testNow.AddDate(0, 0, daysFromNow).Format("2006-01-02")
	if opts.Type == "" {
		opts.Type = "Plaidoirie"
	}
	opts.ActorID = "tester"
	h, err := env.Engine.CreateHearing(env.Ctx, opts)
	if err != nil {
		t.Fatalf("create hearing: %v", err)
	}
	return h
}

func TestHearingInitialStatus(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)

	future := env.mustHearing(t, c.ID, 7, engine.HearingCreateOptions{})
	if future.Status != domain.HearingUpcoming {
		t.Fatalf("future hearing status = %s", future.Status)
	}
	sameDay := env.mustHearing(t, c.ID, 0, engine.HearingCreateOptions{})
	if sameDay.Status != domain.HearingUpcoming {
		t.Fatalf("same-day hearing status = %s", sameDay.Status)
	}
	// A backdated hearing is flagged immediately, alert included.
	past := env.mustHearing(t, c.ID, -3, engine.HearingCreateOptions{})
	if past.Status != domain.HearingUnreported {
		t.Fatalf("backdated hearing status = %s", past.Status)
	}
	if _, err := env.Engine.Repo.GetOpenAlert(env.Ctx, past.ID); err != nil {
		t.Fatalf("expected open alert for backdated hearing: %v", err)
	}
}

func TestEnrollmentReminderDateSetOnCreation(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, 14, engine.HearingCreateOptions{EnrollRequired: true})
	if h.EnrollDate == nil {
		t.Fatalf("expected enrollment reminder date")
	}
	if *h.EnrollDate >= h.Date {
		t.Fatalf("reminder %s not before hearing %s", *h.EnrollDate, h.Date)
	}
}

func TestRecordResultConflictOnSecondResult(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})

	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID, Kind: domain.ResultRadiation, Reason: "settled", ActorID: "tester",
	}); err != nil {
		t.Fatalf("first result: %v", err)
	}
	_, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID, Kind: domain.ResultDelibere, Decision: "judgment", ActorID: "tester",
	})
	if !errors.Is(err, engine.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRecordResultValidation(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})

	cases := []engine.ResultOptions{
		{HearingID: h.ID, Kind: domain.ResultRenvoi},                          // no reason
		{HearingID: h.ID, Kind: domain.ResultRadiation},                       // no reason
		{HearingID: h.ID, Kind: domain.ResultDelibere},                        // no decision
		{HearingID: h.ID, Kind: "appel"},                                      // unknown kind
		{HearingID: h.ID, Kind: domain.ResultRenvoi, Reason: "r", NewDate: "someday"}, // bad date
	}
	for _, opts := range cases {
		opts.ActorID = "tester"
		_, _, err := env.Engine.RecordResult(env.Ctx, opts)
		var ve engine.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("kind %s: expected validation error, got %v", opts.Kind, err)
		}
	}
	// Nothing was written: the hearing is untouched.
	got, err := env.Engine.Repo.GetHearing(env.Ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ResultID != nil {
		t.Fatalf("validation failure must not create a result")
	}
}

func TestRenvoiSpawnsFollowUpHearing(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	hTime := "14:00"
	h := env.mustHearing(t, c.ID, -2, engine.HearingCreateOptions{Time: hTime, Type: "Plaidoirie"})

	newDate := testNow.AddDate(0, 0, 14).Format("2006-01-02")
	updated, res, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID,
		Kind:      domain.ResultRenvoi,
		Reason:    "expert report pending",
		NewDate:   newDate,
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatalf("record renvoi: %v", err)
	}
	if updated.Status != domain.HearingHeld {
		t.Fatalf("hearing status = %s, want held", updated.Status)
	}
	if res.Kind != domain.ResultRenvoi {
		t.Fatalf("result kind = %s", res.Kind)
	}
	hearings, err := env.Engine.Repo.ListHearings(env.Ctx, repo.HearingFilters{CaseID: c.ID, Status: domain.HearingUpcoming})
	if err != nil {
		t.Fatal(err)
	}
	if len(hearings) != 1 {
		t.Fatalf("expected 1 follow-up hearing, got %d", len(hearings))
	}
	follow := hearings[0]
	if follow.Date != newDate {
		t.Fatalf("follow-up date = %s, want %s", follow.Date, newDate)
	}
	if follow.Time == nil || *follow.Time != hTime {
		t.Fatalf("follow-up did not carry time-of-day forward")
	}
	if follow.Type != "Plaidoirie" {
		t.Fatalf("follow-up type = %s", follow.Type)
	}
	if follow.PrepNotes == "" {
		t.Fatalf("follow-up prep notes not populated")
	}
	// Case stays active after a renvoi.
	got, _ := env.Engine.Repo.GetCase(env.Ctx, c.ID)
	if got.Status != domain.CaseActive {
		t.Fatalf("case status = %s after renvoi", got.Status)
	}
}

func TestRenvoiWithoutNewDateSpawnsNothing(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID, Kind: domain.ResultRenvoi, Reason: "sine die", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	hearings, _ := env.Engine.Repo.ListHearings(env.Ctx, repo.HearingFilters{CaseID: c.ID})
	if len(hearings) != 1 {
		t.Fatalf("expected no follow-up, got %d hearings", len(hearings))
	}
}

func TestRadiationRadiatesCase(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID, Kind: domain.ResultRadiation, Reason: "withdrawn", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	got, _ := env.Engine.Repo.GetCase(env.Ctx, c.ID)
	if got.Status != domain.CaseRadiated {
		t.Fatalf("case status = %s, want radiated", got.Status)
	}
}

func TestDelibereClosesCaseAndOpensAppealWindow(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	deadline := testNow.AddDate(0, 0, 10).Format("2006-01-02")
	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID:      h.ID,
		Kind:           domain.ResultDelibere,
		Decision:       "claim granted",
		AppealOptIn:    true,
		AppealDeadline: deadline,
		AppealNotes:    "client to decide on appeal",
		ActorID:        "tester",
	}); err != nil {
		t.Fatal(err)
	}
	got, _ := env.Engine.Repo.GetCase(env.Ctx, c.ID)
	if got.Status != domain.CaseClosed {
		t.Fatalf("case status = %s, want closed", got.Status)
	}
	rems, err := env.Engine.ListActiveReminders(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rems) != 1 {
		t.Fatalf("expected 1 appeal reminder, got %d", len(rems))
	}
	if rems[0].Done {
		t.Fatalf("new reminder must not be done")
	}
	if rems[0].Deadline != deadline {
		t.Fatalf("deadline = %s, want %s", rems[0].Deadline, deadline)
	}
}

func TestDelibereWithoutOptInCreatesNoReminder(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID, Kind: domain.ResultDelibere, Decision: "dismissed", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	rems, _ := env.Engine.ListActiveReminders(env.Ctx, c.ID)
	if len(rems) != 0 {
		t.Fatalf("expected no reminders, got %d", len(rems))
	}
}

func TestCaseStatusNeverRevertsToActive(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h1 := env.mustHearing(t, c.ID, -2, engine.HearingCreateOptions{})
	h2 := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})

	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h1.ID, Kind: domain.ResultRadiation, Reason: "withdrawn", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	// A later delibere on a sibling hearing must not flip the radiated case.
	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h2.ID, Kind: domain.ResultDelibere, Decision: "moot", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	got, _ := env.Engine.Repo.GetCase(env.Ctx, c.ID)
	if got.Status != domain.CaseRadiated {
		t.Fatalf("case status = %s, want radiated to stick", got.Status)
	}
}

func TestHeldAndResultInvariant(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	updated, res, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID, Kind: domain.ResultDelibere, Decision: "done", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.HearingHeld || updated.ResultID == nil {
		t.Fatalf("held hearing must carry its result link")
	}
	stored, err := env.Engine.Repo.GetResultByHearing(env.Ctx, h.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID != res.ID {
		t.Fatalf("stored result mismatch")
	}
}

func TestAppealReminderCompletionIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	rem, err := env.Engine.CreateAppealReminder(env.Ctx, engine.ReminderCreateOptions{
		CaseID: c.ID, Notes: "check with client", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	// Default deadline comes from the configured window.
	if rem.Deadline == "" {
		t.Fatalf("expected defaulted deadline")
	}
	done, err := env.Engine.MarkAppealReminderComplete(env.Ctx, rem.ID, "tester")
	if err != nil {
		t.Fatal(err)
	}
	if !done.Done || done.CompletedAt == nil {
		t.Fatalf("completion must set done and the timestamp")
	}
	stamp := *done.CompletedAt
	_, err = env.Engine.MarkAppealReminderComplete(env.Ctx, rem.ID, "tester")
	if !errors.Is(err, engine.ErrConflict) {
		t.Fatalf("second completion: expected conflict, got %v", err)
	}
	again, _ := env.Engine.Repo.GetAppealReminder(env.Ctx, rem.ID)
	if again.CompletedAt == nil || *again.CompletedAt != stamp {
		t.Fatalf("completion timestamp must never change")
	}
}

func TestUpdateAppealReminder(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	rem, err := env.Engine.CreateAppealReminder(env.Ctx, engine.ReminderCreateOptions{CaseID: c.ID, ActorID: "tester"})
	if err != nil {
		t.Fatal(err)
	}
	newDeadline := testNow.AddDate(0, 0, 30).Format("2006-01-02")
	notes := "extended by agreement"
	updated, err := env.Engine.UpdateAppealReminder(env.Ctx, engine.ReminderUpdateOptions{
		ID: rem.ID, Deadline: &newDeadline, Notes: &notes, ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Deadline != newDeadline || updated.Notes != notes {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestListActiveRemindersOrdering(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	later := testNow.AddDate(0, 0, 20).Format("2006-01-02")
	sooner := testNow.AddDate(0, 0, 5).Format("2006-01-02")
	if _, err := env.Engine.CreateAppealReminder(env.Ctx, engine.ReminderCreateOptions{CaseID: c.ID, Deadline: later, ActorID: "tester"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CreateAppealReminder(env.Ctx, engine.ReminderCreateOptions{CaseID: c.ID, Deadline: sooner, ActorID: "tester"}); err != nil {
		t.Fatal(err)
	}
	rems, err := env.Engine.ListActiveReminders(env.Ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rems) != 2 || rems[0].Deadline != sooner {
		t.Fatalf("expected soonest deadline first, got %+v", rems)
	}
	if rems[0].DaysLeft != 5 {
		t.Fatalf("days left = %d, want 5", rems[0].DaysLeft)
	}
}

func TestEnrollmentReminderVisibilityAndCompletion(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	// Hearing in 2 business-ish days: reminder window already open.
	near := env.mustHearing(t, c.ID, 2, engine.HearingCreateOptions{EnrollRequired: true})
	// Hearing far out: reminder not yet due.
	env.mustHearing(t, c.ID, 30, engine.HearingCreateOptions{EnrollRequired: true})

	due, err := env.Engine.ListEnrollmentReminders(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != near.ID {
		t.Fatalf("expected only the near hearing to be due, got %d", len(due))
	}

	if _, err := env.Engine.MarkEnrollmentComplete(env.Ctx, near.ID, "tester"); err != nil {
		t.Fatal(err)
	}
	due, err = env.Engine.ListEnrollmentReminders(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Fatalf("completed enrollment must stop the reminder")
	}
	_, err = env.Engine.MarkEnrollmentComplete(env.Ctx, near.ID, "tester")
	if !errors.Is(err, engine.ErrConflict) {
		t.Fatalf("second completion: expected conflict, got %v", err)
	}
}

func TestNotFoundSurfaced(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: "missing", Kind: domain.ResultRadiation, Reason: "x", ActorID: "tester",
	})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = env.Engine.MarkAppealReminderComplete(env.Ctx, "missing", "tester")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAuditTrailWritten(t *testing.T) {
	env := newTestEnv(t)
	c := env.mustCase(t)
	h := env.mustHearing(t, c.ID, -1, engine.HearingCreateOptions{})
	if _, _, err := env.Engine.RecordResult(env.Ctx, engine.ResultOptions{
		HearingID: h.ID, Kind: domain.ResultDelibere, Decision: "done", ActorID: "tester",
	}); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := env.Engine.DB.QueryRowContext(env.Ctx,
		`SELECT count(*) FROM audit_log WHERE entity_kind='result'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 result audit row, got %d", count)
	}
	var before, after int
	if err := env.Engine.DB.QueryRowContext(env.Ctx,
		`SELECT count(before_json), count(after_json) FROM audit_log WHERE entity_kind='hearing' AND action='update'`).Scan(&before, &after); err != nil {
		t.Fatal(err)
	}
	if before == 0 || after == 0 {
		t.Fatalf("hearing update audit must carry before and after snapshots")
	}
}
