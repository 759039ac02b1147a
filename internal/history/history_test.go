package history

import (
	"sync"
	"testing"
)

func add(state int, a Action) int {
	n, _ := a.Payload.(int)
	return state + n
}

func addAction(n int) Action {
	return Action{Name: "add", Payload: n}
}

func neverMerge(Action, Action) bool { return false }

func TestStore_UndoRedo(t *testing.T) {
	t.Parallel()
	s := New(0, add, neverMerge)

	s.Dispatch(addAction(1))
	s.Dispatch(addAction(2))
	s.Dispatch(addAction(3))
	if got := s.State(); got != 6 {
		t.Fatalf("State() = %d, want 6", got)
	}

	steps := []struct {
		action Action
		want   int
	}{
		{Action{Name: ActionUndo}, 3},
		{Action{Name: ActionUndo}, 1},
		{Action{Name: ActionRedo}, 3},
		{Action{Name: ActionUndo}, 1},
		{Action{Name: ActionUndo}, 0},
		{Action{Name: ActionUndo}, 0},
		{Action{Name: ActionRedo}, 1},
		{Action{Name: ActionRedo}, 3},
		{Action{Name: ActionRedo}, 6},
		{Action{Name: ActionRedo}, 6},
	}
	for i, step := range steps {
		s.Dispatch(step.action)
		if got := s.State(); got != step.want {
			t.Fatalf("step %d (%s): State() = %d, want %d", i, step.action.Name, got, step.want)
		}
	}
}

func TestStore_NewActionClearsRedo(t *testing.T) {
	t.Parallel()
	s := New(0, add, nil)
	s.Dispatch(addAction(1))
	s.Dispatch(addAction(2))
	s.Undo()
	if !s.CanRedo() {
		t.Fatal("CanRedo() = false after undo")
	}
	s.Dispatch(addAction(10))
	if s.CanRedo() {
		t.Error("CanRedo() = true after a new action")
	}
	s.Redo()
	if got := s.State(); got != 11 {
		t.Errorf("State() = %d, want 11", got)
	}
}

// A merged action replaces the previous undo step: it is applied to the
// state before that step.
func TestStore_Merging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		merge    AutoMerger
		actions  []Action
		want     int
		wantUndo int
	}{
		{
			name:     "same merge key",
			actions:  []Action{{Name: "add", MergeKey: "k", Payload: 1}, {Name: "add", MergeKey: "k", Payload: 2}},
			want:     2,
			wantUndo: 0,
		},
		{
			name:     "different merge keys",
			actions:  []Action{{Name: "add", MergeKey: "a", Payload: 1}, {Name: "add", MergeKey: "b", Payload: 2}},
			want:     3,
			wantUndo: 1,
		},
		{
			name:     "one merge key",
			merge:    func(Action, Action) bool { return true },
			actions:  []Action{{Name: "add", MergeKey: "a", Payload: 1}, {Name: "add", Payload: 2}},
			want:     3,
			wantUndo: 1,
		},
		{
			name:     "auto merger agrees",
			merge:    func(a, prev Action) bool { return a.Name == prev.Name },
			actions:  []Action{addAction(1), addAction(2), addAction(3)},
			want:     3,
			wantUndo: 0,
		},
		{
			name:     "auto merger refuses",
			merge:    neverMerge,
			actions:  []Action{addAction(1), addAction(2)},
			want:     3,
			wantUndo: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := New(0, add, tt.merge)
			for _, a := range tt.actions {
				s.Dispatch(a)
			}
			if got := s.State(); got != tt.want {
				t.Fatalf("State() = %d, want %d", got, tt.want)
			}
			s.Undo()
			if got := s.State(); got != tt.wantUndo {
				t.Errorf("after undo State() = %d, want %d", got, tt.wantUndo)
			}
		})
	}
}

func TestStore_MergeIgnoredAfterUndoRedo(t *testing.T) {
	t.Parallel()
	s := New(0, add, nil)
	s.Dispatch(Action{Name: "add", MergeKey: "k", Payload: 1})
	s.Dispatch(Action{Name: "add", MergeKey: "k", Payload: 1})
	s.Undo()
	s.Redo()
	if s.LastMergeKey() != "" {
		t.Errorf("LastMergeKey() = %q after redo, want empty", s.LastMergeKey())
	}
	s.Dispatch(Action{Name: "add", MergeKey: "k", Payload: 5})
	if got := s.State(); got != 6 {
		t.Fatalf("State() = %d, want 6", got)
	}
	s.Undo()
	if got := s.State(); got != 1 {
		t.Errorf("State() = %d, want 1", got)
	}
}

func TestStore_ClearHistory(t *testing.T) {
	t.Parallel()
	s := New(0, add, nil)
	s.Dispatch(addAction(1))
	s.Dispatch(addAction(2))
	s.Undo()
	s.Dispatch(Action{Name: ActionClearHistory})

	if got := s.State(); got != 1 {
		t.Errorf("State() = %d, want 1", got)
	}
	if s.CanUndo() || s.CanRedo() {
		t.Errorf("CanUndo() = %v, CanRedo() = %v after clear", s.CanUndo(), s.CanRedo())
	}
	s.Undo()
	if got := s.State(); got != 1 {
		t.Errorf("undo after clear changed state to %d", got)
	}
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()
	s := New(0, add, nil)

	var got []int
	cancel := s.Subscribe(func(v int) { got = append(got, v) })
	s.Dispatch(addAction(2))
	s.Undo()
	s.Redo()
	s.ClearHistory()
	cancel()
	s.Dispatch(addAction(5))

	want := []int{2, 0, 2}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	t.Parallel()
	s := New(0, add, nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(addAction(1))
		}()
	}
	wg.Wait()
	if got := s.State(); got != 50 {
		t.Errorf("State() = %d, want 50", got)
	}
}
