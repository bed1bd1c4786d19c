package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskdispatch/pkg/model"
)

var fixedNow = time.Date(2025, 9, 28, 9, 30, 0, 0, time.UTC)

type fakeStore struct {
	err   error
	calls int
	got   []model.Task
}

func (f *fakeStore) Put(ctx context.Context, tasks []model.Task) error {
	f.calls++
	f.got = tasks
	return f.err
}

type fakeMirror struct {
	err   error
	calls int
	rows  [][]interface{}
}

func (f *fakeMirror) AppendRows(ctx context.Context, rows [][]interface{}) error {
	f.calls++
	f.rows = rows
	return f.err
}

type fakeDocs struct {
	err   error
	calls int
	title string
	body  string
}

func (f *fakeDocs) CreateDocument(ctx context.Context, title, body string) (string, error) {
	f.calls++
	f.title, f.body = title, body
	return "doc-1", f.err
}

type fakeMessenger struct {
	fail map[string]bool
	sent map[string]string
}

func (f *fakeMessenger) SendMessage(ctx context.Context, token, text string) error {
	if f.fail[token] {
		return errors.New("invalid token")
	}
	if f.sent == nil {
		f.sent = make(map[string]string)
	}
	f.sent[token] = text
	return nil
}

type fakeMailer struct {
	err  error
	sent []string
}

func (f *fakeMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func sampleTasks() []model.Task {
	due := model.NewDate(fixedNow)
	return []model.Task{
		{Title: "檢驗新原料", Description: "品質部門需要檢驗新原料", Priority: model.PriorityMedium, Status: model.StatusTodo, Category: "品質確保", Assignee: "艾蜜莉"},
		{Title: "完成報告", Description: "老闆交代", Priority: model.PriorityUrgent, Status: model.StatusTodo, Category: "Executive Directive", Assignee: "艾蜜莉", DueDate: &due},
	}
}

func TestDispatchAllStepsDone(t *testing.T) {
	store, mirror, docs := &fakeStore{}, &fakeMirror{}, &fakeDocs{}
	bus := NewBus()
	var events []Event
	unsubscribe := bus.Subscribe(func(ev Event) { events = append(events, ev) })
	defer unsubscribe()

	o := &Orchestrator{Store: store, Mirror: mirror, Documents: docs, Bus: bus, Now: func() time.Time { return fixedNow }}
	status, err := o.Dispatch(context.Background(), sampleTasks(), "1. 檢驗新原料")
	require.NoError(t, err)

	assert.Equal(t, PhaseDone, status.Phase)
	assert.True(t, status.Completed())
	assert.Equal(t, "done", status.Message(StepPersistPrimary))
	assert.Equal(t, "done", status.Message(StepPersistSecondary))
	assert.Equal(t, "done", status.Message(StepGenerateDocument))
	assert.Equal(t, "pending", status.Message(StepNotify))

	assert.Len(t, store.got, 2)
	require.Len(t, mirror.rows, 2)
	assert.Equal(t, []interface{}{"完成報告", "老闆交代", "緊急", "待辦事項", "Executive Directive", "艾蜜莉", "2025-09-28", "2025-09-28T09:30:00Z"}, mirror.rows[1])
	assert.Equal(t, "任務摘要 - 2025/9/28", docs.title)
	assert.Contains(t, docs.body, "1. 檢驗新原料")

	// running then done for each of the three steps
	require.Len(t, events, 6)
	assert.Equal(t, StepPersistPrimary, events[0].Step)
	assert.Equal(t, StateRunning, events[0].State)
	assert.Equal(t, StepGenerateDocument, events[5].Step)
	assert.Equal(t, StateDone, events[5].State)
	assert.Equal(t, 6, len(bus.History()))
}

func TestDispatchMirrorFailure(t *testing.T) {
	store, docs := &fakeStore{}, &fakeDocs{}
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	o := &Orchestrator{Store: store, Mirror: mirror, Documents: docs}

	status, err := o.Dispatch(context.Background(), sampleTasks(), "")
	require.NoError(t, err)

	assert.Equal(t, "done", status.Message(StepPersistPrimary))
	assert.Equal(t, "failed: quota exceeded", status.Message(StepPersistSecondary))
	assert.Equal(t, "not attempted", status.Message(StepGenerateDocument))
	assert.Equal(t, "pending", status.Message(StepNotify))
	assert.Equal(t, PhaseFailed, status.Phase)
	assert.Equal(t, 0, docs.calls)
	assert.Equal(t, 1, store.calls)
}

func TestDispatchPrimaryFailure(t *testing.T) {
	mirror, docs := &fakeMirror{}, &fakeDocs{}
	o := &Orchestrator{Store: &fakeStore{err: errors.New("disk full")}, Mirror: mirror, Documents: docs}

	status, err := o.Dispatch(context.Background(), sampleTasks(), "")
	require.NoError(t, err)
	assert.Equal(t, "failed: disk full", status.Message(StepPersistPrimary))
	assert.Equal(t, "not attempted", status.Message(StepPersistSecondary))
	assert.Equal(t, "not attempted", status.Message(StepGenerateDocument))
	assert.Zero(t, mirror.calls)
	assert.Zero(t, docs.calls)
}

func TestDispatchSkipsUnconfigured(t *testing.T) {
	o := &Orchestrator{Store: &fakeStore{}}
	status, err := o.Dispatch(context.Background(), sampleTasks(), "")
	require.NoError(t, err)
	assert.Equal(t, "skipped: not configured", status.Message(StepPersistSecondary))
	assert.Equal(t, "skipped: not configured", status.Message(StepGenerateDocument))
	assert.True(t, status.Completed())
}

func TestDispatchEmpty(t *testing.T) {
	o := &Orchestrator{Store: &fakeStore{}}
	_, err := o.Dispatch(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoTasks)
}

func TestDispatchCancelled(t *testing.T) {
	store := &fakeStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := (&Orchestrator{Store: store}).Dispatch(ctx, sampleTasks(), "")
	require.NoError(t, err)
	for _, step := range []Step{StepPersistPrimary, StepPersistSecondary, StepGenerateDocument} {
		assert.Equal(t, "not attempted", status.Message(step))
	}
	assert.Equal(t, PhaseFailed, status.Phase)
	assert.Zero(t, store.calls)
}

func TestNotifyNothing(t *testing.T) {
	mail := &fakeMailer{}
	o := &Orchestrator{Mailer: mail}
	status := NewStatus()
	assert.Nil(t, o.Notify(context.Background(), status, nil))
	assert.Equal(t, "skipped: nothing to notify", status.Message(StepNotify))
	assert.Empty(t, mail.sent)
}

func TestNotifyChannelsAreIndependent(t *testing.T) {
	msg := &fakeMessenger{fail: map[string]bool{"bad-token": true}}
	mail := &fakeMailer{}
	o := &Orchestrator{Messenger: msg, Mailer: mail}
	tasks := sampleTasks()
	payloads := []model.NotificationPayload{
		{Assignee: model.Assignee{Name: "艾蜜莉", MessagingToken: "bad-token", Email: "emily@example.com"}, Tasks: tasks[:1]},
		{Assignee: model.Assignee{Name: "班傑明", MessagingToken: "good-token"}, Tasks: tasks[1:]},
	}

	status := NewStatus()
	deliveries := o.Notify(context.Background(), status, payloads)
	require.Len(t, deliveries, 2)

	assert.Equal(t, []string{ChannelEmail}, deliveries[0].Succeeded)
	assert.Contains(t, deliveries[0].Failed, ChannelMessaging)
	assert.Equal(t, []string{ChannelMessaging}, deliveries[1].Succeeded)
	assert.Empty(t, deliveries[1].Failed)

	assert.Equal(t, []string{"emily@example.com"}, mail.sent)
	assert.Contains(t, msg.sent["good-token"], "完成報告 (優先級: 緊急)")
	assert.Equal(t, StateFailed, status.Step(StepNotify).State)
	assert.Contains(t, status.Message(StepNotify), "failed: 1 of 3 deliveries failed")
}

func TestNotifyDone(t *testing.T) {
	o := &Orchestrator{Mailer: &fakeMailer{}}
	status := NewStatus()
	o.Notify(context.Background(), status, []model.NotificationPayload{
		{Assignee: model.Assignee{Name: "A", Email: "a@example.com"}, Tasks: sampleTasks()},
	})
	assert.Equal(t, "done", status.Message(StepNotify))
}

func TestStatusJSON(t *testing.T) {
	status := NewStatus()
	status.set(StepPersistSecondary, StateFailed, "quota exceeded")

	b, err := json.Marshal(status)
	require.NoError(t, err)

	var back Status
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "failed: quota exceeded", back.Message(StepPersistSecondary))
	assert.Contains(t, string(b), `"messages"`)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	var a, b int
	unsubA := bus.Subscribe(func(Event) { a++ })
	bus.Subscribe(func(Event) { b++ })

	bus.Publish(Event{Step: StepNotify})
	unsubA()
	bus.Publish(Event{Step: StepNotify})

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}
