package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/squadmarket/go/internal/events"
	"github.com/mcdev12/squadmarket/go/internal/gateway"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/mcdev12/squadmarket/go/internal/team"
)

type fakeTeamBuilder struct {
	created   *models.Team
	createErr error
	count     int
	calls     int
}

func (f *fakeTeamBuilder) CreateTeamForUser(ctx context.Context, userID uuid.UUID, email string) (*models.Team, error) {
	f.calls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeTeamBuilder) CountPlayers(ctx context.Context, teamID uuid.UUID) (int, error) {
	return f.count, nil
}

type fakeJobStore struct {
	running    []uuid.UUID
	completed  []uuid.UUID
	failed     map[uuid.UUID]string
	recorded   map[uuid.UUID]string
	runningErr error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		failed:   make(map[uuid.UUID]string),
		recorded: make(map[uuid.UUID]string),
	}
}

func (f *fakeJobStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	if f.runningErr != nil {
		return f.runningErr
	}
	f.running = append(f.running, id)
	return nil
}

func (f *fakeJobStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeJobStore) RecordError(ctx context.Context, id uuid.UUID, lastError string) error {
	f.recorded[id] = lastError
	return nil
}

func (f *fakeJobStore) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	f.failed[id] = lastError
	return nil
}

type fakeNotifier struct {
	events map[uuid.UUID][]*gateway.Event
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(map[uuid.UUID][]*gateway.Event)}
}

func (f *fakeNotifier) Publish(userID uuid.UUID, event *gateway.Event) {
	f.events[userID] = append(f.events[userID], event)
}

func testMessage() teamCreationMessage {
	return teamCreationMessage{
		JobID:  uuid.New(),
		UserID: uuid.New(),
		Email:  "alice@example.com",
	}
}

func TestHandleJobSuccess(t *testing.T) {
	msg := testMessage()
	teamID := uuid.New()
	builder := &fakeTeamBuilder{
		created: &models.Team{ID: teamID, UserID: msg.UserID, Name: "alice FC", Budget: models.StartingBudget},
		count:   team.GeneratedSquadSize,
	}
	jobs := newFakeJobStore()
	notifier := newFakeNotifier()
	o := newOrchestrator(builder, jobs, notifier, clockwork.NewFakeClock())

	if err := o.handleJob(context.Background(), msg, false); err != nil {
		t.Fatalf("handleJob: %v", err)
	}

	if len(jobs.running) != 1 || len(jobs.completed) != 1 {
		t.Errorf("job transitions: running %d, completed %d, want 1 each", len(jobs.running), len(jobs.completed))
	}

	got := notifier.events[msg.UserID]
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].Type != gateway.EventTypeTeamCreated {
		t.Fatalf("event type = %s, want %s", got[0].Type, gateway.EventTypeTeamCreated)
	}

	var payload events.TeamCreatedPayload
	if err := json.Unmarshal(got[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !payload.Success || payload.TeamID != teamID.String() || payload.PlayerCount != team.GeneratedSquadSize {
		t.Errorf("payload = %+v", payload)
	}
	if payload.TeamName != "alice FC" {
		t.Errorf("team name = %q, want %q", payload.TeamName, "alice FC")
	}
}

func TestHandleJobRetryableFailure(t *testing.T) {
	msg := testMessage()
	builder := &fakeTeamBuilder{createErr: errors.New("db unavailable")}
	jobs := newFakeJobStore()
	notifier := newFakeNotifier()
	o := newOrchestrator(builder, jobs, notifier, clockwork.NewFakeClock())

	err := o.handleJob(context.Background(), msg, false)
	var retry errRetryable
	if !errors.As(err, &retry) {
		t.Fatalf("err = %v, want errRetryable", err)
	}

	if jobs.recorded[msg.JobID] != "db unavailable" {
		t.Errorf("recorded error = %q", jobs.recorded[msg.JobID])
	}
	if len(jobs.failed) != 0 {
		t.Error("job marked failed before final attempt")
	}
	if len(notifier.events) != 0 {
		t.Error("user notified before final attempt")
	}
}

func TestHandleJobFinalFailure(t *testing.T) {
	msg := testMessage()
	builder := &fakeTeamBuilder{createErr: errors.New("db unavailable")}
	jobs := newFakeJobStore()
	notifier := newFakeNotifier()
	o := newOrchestrator(builder, jobs, notifier, clockwork.NewFakeClock())

	// The last delivery acks even on failure so the message leaves the queue.
	if err := o.handleJob(context.Background(), msg, true); err != nil {
		t.Fatalf("handleJob on final attempt: %v", err)
	}

	if jobs.failed[msg.JobID] != "db unavailable" {
		t.Errorf("failed reason = %q", jobs.failed[msg.JobID])
	}

	got := notifier.events[msg.UserID]
	if len(got) != 1 || got[0].Type != gateway.EventTypeTeamCreationFailed {
		t.Fatalf("notifications = %v", got)
	}
	var payload events.TeamCreationFailedPayload
	if err := json.Unmarshal(got[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Success || payload.Error != "db unavailable" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHandleJobMissingOwnerIsTerminal(t *testing.T) {
	msg := testMessage()
	builder := &fakeTeamBuilder{createErr: team.ErrOwnerNotFound}
	jobs := newFakeJobStore()
	notifier := newFakeNotifier()
	o := newOrchestrator(builder, jobs, notifier, clockwork.NewFakeClock())

	// A deleted user cannot be fixed by redelivery, even on attempt one.
	if err := o.handleJob(context.Background(), msg, false); err != nil {
		t.Fatalf("handleJob: %v", err)
	}
	if _, ok := jobs.failed[msg.JobID]; !ok {
		t.Error("job not marked failed")
	}
	if len(notifier.events[msg.UserID]) != 1 {
		t.Error("user not notified of terminal failure")
	}
}

func TestHandleJobLedgerErrorsDoNotStall(t *testing.T) {
	msg := testMessage()
	builder := &fakeTeamBuilder{
		created: &models.Team{ID: uuid.New(), UserID: msg.UserID, Name: "alice FC"},
		count:   team.GeneratedSquadSize,
	}
	jobs := newFakeJobStore()
	jobs.runningErr = errors.New("ledger down")
	notifier := newFakeNotifier()
	o := newOrchestrator(builder, jobs, notifier, clockwork.NewFakeClock())

	if err := o.handleJob(context.Background(), msg, false); err != nil {
		t.Fatalf("handleJob: %v", err)
	}
	if builder.calls != 1 {
		t.Errorf("team creation calls = %d, want 1", builder.calls)
	}
	if len(notifier.events[msg.UserID]) != 1 {
		t.Error("success notification missing")
	}
}

func TestDecodeMessage(t *testing.T) {
	valid := testMessage()
	data, _ := json.Marshal(valid)

	var out teamCreationMessage
	if err := decodeMessage(data, &out); err != nil {
		t.Fatalf("decode valid message: %v", err)
	}
	if out.JobID != valid.JobID || out.UserID != valid.UserID || out.Email != valid.Email {
		t.Errorf("decoded = %+v, want %+v", out, valid)
	}

	if err := decodeMessage([]byte("not json"), &out); err == nil {
		t.Error("malformed JSON accepted")
	}

	missing, _ := json.Marshal(teamCreationMessage{Email: "x@y.z"})
	if err := decodeMessage(missing, &out); err == nil {
		t.Error("message without identifiers accepted")
	}
}
