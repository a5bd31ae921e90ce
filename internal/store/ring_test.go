package store

import (
	"fmt"
	"testing"

	"github.com/callscope/adminfeed/internal/model"
)

func notif(i int) model.Notification {
	return model.Notification{
		ID:    fmt.Sprintf("n-%d", i),
		Title: fmt.Sprintf("notification %d", i),
	}
}

func TestRingBuffer_PushWithinCapacity(t *testing.T) {
	b := newRingBuffer(10)

	for i := 0; i < 3; i++ {
		b.Push(notif(i))
	}

	if got := b.Len(); got != 3 {
		t.Fatalf("Len = %d, want 3", got)
	}

	items := b.Items()
	// Newest first.
	for i, want := range []string{"n-2", "n-1", "n-0"} {
		if items[i].ID != want {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, want)
		}
	}
}

func TestRingBuffer_EvictsOldest(t *testing.T) {
	b := newRingBuffer(100)

	for i := 0; i < 105; i++ {
		b.Push(notif(i))
	}

	if got := b.Len(); got != 100 {
		t.Fatalf("Len = %d, want 100", got)
	}

	items := b.Items()
	if items[0].ID != "n-104" {
		t.Errorf("newest = %q, want n-104", items[0].ID)
	}
	if items[99].ID != "n-5" {
		t.Errorf("oldest = %q, want n-5 (n-0..n-4 evicted)", items[99].ID)
	}

	// The evicted five are gone.
	for _, n := range items {
		for i := 0; i < 5; i++ {
			if n.ID == fmt.Sprintf("n-%d", i) {
				t.Errorf("evicted notification %q still present", n.ID)
			}
		}
	}

	if b.totalPushed != 105 {
		t.Errorf("totalPushed = %d, want 105", b.totalPushed)
	}
	if b.totalEvicted != 5 {
		t.Errorf("totalEvicted = %d, want 5", b.totalEvicted)
	}
}

func TestRingBuffer_MarkRead(t *testing.T) {
	b := newRingBuffer(10)
	for i := 0; i < 3; i++ {
		b.Push(notif(i))
	}

	if got := b.UnreadCount(); got != 3 {
		t.Fatalf("UnreadCount = %d, want 3", got)
	}

	if !b.MarkRead("n-1") {
		t.Error("MarkRead(n-1) = false, want true")
	}
	if got := b.UnreadCount(); got != 2 {
		t.Errorf("UnreadCount after MarkRead = %d, want 2", got)
	}

	// Marking the same ID again still reports found.
	if !b.MarkRead("n-1") {
		t.Error("second MarkRead(n-1) = false, want true")
	}
	if got := b.UnreadCount(); got != 2 {
		t.Errorf("UnreadCount after repeat MarkRead = %d, want 2", got)
	}

	if b.MarkRead("missing") {
		t.Error("MarkRead(missing) = true, want false")
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	b := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		b.Push(notif(i))
	}

	b.Clear()

	if got := b.Len(); got != 0 {
		t.Errorf("Len after Clear = %d, want 0", got)
	}
	if got := len(b.Items()); got != 0 {
		t.Errorf("Items after Clear has %d entries, want 0", got)
	}
	if got := b.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount after Clear = %d, want 0", got)
	}

	// Buffer is usable again after Clear.
	b.Push(notif(42))
	if items := b.Items(); len(items) != 1 || items[0].ID != "n-42" {
		t.Errorf("push after Clear: items = %v", items)
	}
}

func TestRingBuffer_MinimumCapacity(t *testing.T) {
	b := newRingBuffer(0)
	b.Push(notif(1))
	b.Push(notif(2))

	items := b.Items()
	if len(items) != 1 || items[0].ID != "n-2" {
		t.Errorf("capacity-1 buffer items = %v, want just n-2", items)
	}
}
