package resource

import (
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

type dropCounter struct {
	drops int
}

func (d *dropCounter) Drop() { d.drops++ }

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Insert(1, "test", 1)
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if _, ok := table.GetTyped(h, 1); !ok {
		t.Fatal("GetTyped with correct type failed")
	}
	if _, ok := table.GetTyped(h, 2); ok {
		t.Fatal("GetTyped with wrong type should fail")
	}

	val, destroyed, ok := table.Release(h)
	if !ok || !destroyed {
		t.Fatalf("Release: ok=%v destroyed=%v", ok, destroyed)
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after last Release")
	}
}

func TestTable_RetainRelease(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}

	h := table.Insert(3, d, 1)
	if !table.Retain(h) {
		t.Fatal("Retain failed")
	}
	if refs, _ := table.Refs(h); refs != 2 {
		t.Fatalf("refs = %d, want 2", refs)
	}

	if _, destroyed, ok := table.Release(h); !ok || destroyed {
		t.Fatalf("first Release: ok=%v destroyed=%v", ok, destroyed)
	}
	if d.drops != 0 {
		t.Fatal("Drop called while references remain")
	}

	if _, destroyed, ok := table.Release(h); !ok || !destroyed {
		t.Fatalf("second Release: ok=%v destroyed=%v", ok, destroyed)
	}
	if d.drops != 1 {
		t.Fatalf("drops = %d, want 1", d.drops)
	}

	if _, _, ok := table.Release(h); ok {
		t.Fatal("Release of destroyed handle should fail")
	}
	if table.Retain(h) {
		t.Fatal("Retain of destroyed handle should fail")
	}
}

func TestTable_FloatingEntry(t *testing.T) {
	table := NewTable()

	h := table.Insert(1, "floating", 0)
	if h == 0 {
		t.Fatal("Insert with zero refs failed")
	}
	if _, _, ok := table.Release(h); ok {
		t.Fatal("Release of a floating entry should fail")
	}
	if table.Len() != 1 {
		t.Fatal("floating entry should stay alive")
	}

	table.Retain(h)
	if _, destroyed, _ := table.Release(h); !destroyed {
		t.Fatal("retain+release of floating entry should destroy it")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert(7, "x", 1)
	table.Retain(h)
	table.Release(h)
	table.Release(h)

	want := []EventType{EventCreated, EventRetained, EventReleased, EventReleased, EventDestroyed}
	if len(obs.events) != len(want) {
		t.Fatalf("got %d events, want %d", len(obs.events), len(want))
	}
	for i, e := range obs.events {
		if e.Type != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Type, want[i])
		}
		if e.Handle != h || e.TypeID != 7 {
			t.Errorf("event %d handle=%d type=%d", i, e.Handle, e.TypeID)
		}
	}
	if obs.events[1].Refs != 2 || obs.events[3].Refs != 0 {
		t.Errorf("refs in events: %d, %d", obs.events[1].Refs, obs.events[3].Refs)
	}
}

func TestTable_ObserverFunc(t *testing.T) {
	table := NewTable()
	destroyed := 0
	table.Subscribe(ObserverFunc(func(e Event) {
		if e.Type == EventDestroyed {
			destroyed++
		}
	}))

	table.Release(table.Insert(1, 1, 1))
	table.Release(table.Insert(1, 2, 1))
	if destroyed != 2 {
		t.Fatalf("destroyed = %d, want 2", destroyed)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}
	table.Insert(1, d, 3)

	if err := table.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if d.drops != 1 {
		t.Fatalf("drops = %d, want 1", d.drops)
	}
	if h := table.Insert(1, "late", 1); h != 0 {
		t.Fatal("Insert after Close should return 0")
	}
}
