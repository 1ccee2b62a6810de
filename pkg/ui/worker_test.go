package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"muddle/pkg/catalog"
	"muddle/pkg/moodle"
)

func i64(v int64) *int64 { return &v }

// scriptedAPI serves a fixed catalog; gate, when set, blocks the walk inside
// SiteInfo until released so tests can observe the running state.
type scriptedAPI struct {
	gate    chan struct{}
	courses []moodle.CourseRecord
	entries map[int64][]moodle.SectionRecord
}

func (s *scriptedAPI) SiteInfo(ctx context.Context) (*moodle.SiteInfo, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &moodle.SiteInfo{UserID: 1, Username: "student"}, nil
}

func (s *scriptedAPI) UserCourses(ctx context.Context, userID int64) ([]moodle.CourseRecord, error) {
	return s.courses, nil
}

func (s *scriptedAPI) CourseContents(ctx context.Context, courseID int64) ([]moodle.SectionRecord, error) {
	return s.entries[courseID], nil
}

// msgSink records messages in arrival order, standing in for program.Send.
type msgSink struct {
	mu       sync.Mutex
	msgs     []tea.Msg
	done     chan struct{}
	doneOnce sync.Once
}

func newMsgSink() *msgSink {
	return &msgSink{done: make(chan struct{})}
}

func (s *msgSink) send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	if _, ok := msg.(FetchDoneMsg); ok {
		s.doneOnce.Do(func() { close(s.done) })
	}
}

func (s *msgSink) wait(t *testing.T) []tea.Msg {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("no FetchDoneMsg within timeout")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tea.Msg(nil), s.msgs...)
}

func TestWorkerDeliversEventsInWalkOrder(t *testing.T) {
	api := &scriptedAPI{
		courses: []moodle.CourseRecord{{ID: i64(1), ShortName: "CS101"}},
		entries: map[int64][]moodle.SectionRecord{
			1: {{ID: i64(10), Name: "Week1", Modules: []moodle.ModuleRecord{
				{ID: i64(100), Name: "Slides", ModName: "resource", Contents: []moodle.ContentRecord{
					{Type: "file", Filename: "a.pdf", FileURL: "http://x/a.pdf"},
				}},
			}}},
		},
	}
	sink := newMsgSink()
	w := NewFetchWorker(api, sink.send)
	defer w.Stop()

	if !w.Refresh() {
		t.Fatal("first Refresh should start a walk")
	}

	msgs := sink.wait(t)
	wantKinds := []catalog.Kind{catalog.KindCourse, catalog.KindSection, catalog.KindModule, catalog.KindContent}
	if len(msgs) != len(wantKinds)+1 {
		t.Fatalf("got %d messages, want %d node messages plus done", len(msgs), len(wantKinds))
	}
	for i, k := range wantKinds {
		node, ok := msgs[i].(NodeLoadedMsg)
		if !ok {
			t.Fatalf("msg[%d] = %T, want NodeLoadedMsg", i, msgs[i])
		}
		if node.Event.Kind != k {
			t.Errorf("msg[%d] kind = %s, want %s", i, node.Event.Kind, k)
		}
	}
	done, ok := msgs[len(msgs)-1].(FetchDoneMsg)
	if !ok {
		t.Fatalf("last msg = %T, want FetchDoneMsg", msgs[len(msgs)-1])
	}
	if done.Err != nil {
		t.Errorf("done.Err = %v", done.Err)
	}

	if w.State() != WorkerIdle {
		t.Errorf("worker state after walk = %v, want idle", w.State())
	}
}

// TestWorkerRefreshGuard verifies Refresh is rejected while a walk is in
// flight and accepted again once it finishes.
func TestWorkerRefreshGuard(t *testing.T) {
	api := &scriptedAPI{gate: make(chan struct{})}
	sink := newMsgSink()
	w := NewFetchWorker(api, sink.send)
	defer w.Stop()

	if !w.Refresh() {
		t.Fatal("first Refresh should start")
	}
	if w.Refresh() {
		t.Error("second Refresh during a walk must be rejected")
	}
	if w.State() != WorkerRunning {
		t.Errorf("state = %v, want running", w.State())
	}

	close(api.gate)
	sink.wait(t)

	// Walk finished; a new refresh is allowed again.
	api.gate = nil
	if !w.Refresh() {
		t.Error("Refresh after a finished walk should start")
	}
}

func TestWorkerStop(t *testing.T) {
	api := &scriptedAPI{gate: make(chan struct{})}
	sink := newMsgSink()
	w := NewFetchWorker(api, sink.send)

	if !w.Refresh() {
		t.Fatal("Refresh should start")
	}

	// Stop cancels the in-flight walk and blocks until it returns.
	stopDone := make(chan struct{})
	go func() {
		w.Stop()
		close(stopDone)
	}()
	select {
	case <-stopDone:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	if w.State() != WorkerStopped {
		t.Errorf("state = %v, want stopped", w.State())
	}
	if w.Refresh() {
		t.Error("Refresh after Stop must be rejected")
	}
	w.Stop() // idempotent
}
