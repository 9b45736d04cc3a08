package web

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"photoaudit/internal/audit"
	"photoaudit/internal/exif"
	"photoaudit/internal/photo"
)

// Session is one uploaded photo and what has been learned about it.
type Session struct {
	ID       string
	Created  time.Time
	Raw      *photo.RawImage
	Image    *photo.Image
	Metadata exif.Metadata

	mu     sync.Mutex
	result *audit.Result
}

// Result returns the last audit result, or nil when none ran yet.
func (s *Session) Result() *audit.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) setResult(r audit.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = &r
}

// store keeps the most recent sessions in memory, evicting the least
// recently used beyond capacity and anything older than ttl.
type store struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[string]*list.Element
	now      func() time.Time
}

func newStore(capacity int, ttl time.Duration) *store {
	if capacity <= 0 {
		capacity = 32
	}
	return &store{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

func (s *store) put(raw *photo.RawImage, img *photo.Image, md exif.Metadata) *Session {
	sess := &Session{
		ID:       uuid.NewString(),
		Created:  s.now(),
		Raw:      raw,
		Image:    img,
		Metadata: md,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID] = s.order.PushFront(sess)
	for s.order.Len() > s.capacity {
		s.removeLocked(s.order.Back())
	}
	return sess
}

func (s *store) get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[id]
	if !ok {
		return nil, false
	}
	sess := el.Value.(*Session)
	if s.ttl > 0 && s.now().Sub(sess.Created) > s.ttl {
		s.removeLocked(el)
		return nil, false
	}
	s.order.MoveToFront(el)
	return sess, true
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *store) removeLocked(el *list.Element) {
	sess := s.order.Remove(el).(*Session)
	delete(s.items, sess.ID)
}
