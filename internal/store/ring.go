package store

import (
	"sync"

	"github.com/callscope/adminfeed/internal/model"
)

// ringBuffer is a thread-safe, fixed-capacity notification buffer.
// Pushing beyond capacity evicts the oldest entry.
type ringBuffer struct {
	mu       sync.Mutex
	buf      []model.Notification
	head     int // oldest entry
	count    int
	capacity int

	// Stats
	totalPushed  int64
	totalEvicted int64
}

// newRingBuffer creates a buffer with the given capacity.
func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{
		buf:      make([]model.Notification, capacity),
		capacity: capacity,
	}
}

// Push adds a notification, evicting the oldest when full.
func (b *ringBuffer) Push(n model.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tail := (b.head + b.count) % b.capacity
	b.buf[tail] = n
	if b.count < b.capacity {
		b.count++
	} else {
		// Overwrote the oldest entry; advance head past it.
		b.head = (b.head + 1) % b.capacity
		b.totalEvicted++
	}
	b.totalPushed++
}

// Items returns a newest-first copy of the buffer contents.
func (b *ringBuffer) Items() []model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.Notification, b.count)
	for i := 0; i < b.count; i++ {
		// Walk backwards from the newest entry.
		idx := (b.head + b.count - 1 - i + b.capacity) % b.capacity
		out[i] = b.buf[idx]
	}
	return out
}

// MarkRead flips the read flag on the notification with the given ID.
// Returns false if the notification is not in the buffer.
func (b *ringBuffer) MarkRead(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 0; i < b.count; i++ {
		idx := (b.head + i) % b.capacity
		if b.buf[idx].ID == id {
			b.buf[idx].Read = true
			return true
		}
	}
	return false
}

// UnreadCount returns the number of unread notifications.
func (b *ringBuffer) UnreadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	unread := 0
	for i := 0; i < b.count; i++ {
		if !b.buf[(b.head+i)%b.capacity].Read {
			unread++
		}
	}
	return unread
}

// Clear removes all notifications.
func (b *ringBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.buf)
	b.head = 0
	b.count = 0
}

// Len returns the current number of notifications.
func (b *ringBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
