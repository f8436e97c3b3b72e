package engine

import "sync"

// freeList keeps up to cap(free) idle engine handles for reuse. Handles
// returned when the list is full, and every idle handle on close, are
// released with closeFn instead of being left to the garbage collector.
type freeList[T any] struct {
	free    chan T
	newFn   func() T
	closeFn func(T)

	mu     sync.Mutex
	closed bool
}

func newFreeList[T any](size int, newFn func() T, closeFn func(T)) *freeList[T] {
	if size < 1 {
		size = 1
	}
	return &freeList[T]{free: make(chan T, size), newFn: newFn, closeFn: closeFn}
}

func (l *freeList[T]) get() T {
	select {
	case v := <-l.free:
		return v
	default:
		return l.newFn()
	}
}

func (l *freeList[T]) put(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.closeFn(v)
		return
	}
	select {
	case l.free <- v:
	default:
		l.closeFn(v)
	}
}

// close releases the idle handles. Handles still in use are released when
// they are put back.
func (l *freeList[T]) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for {
		select {
		case v := <-l.free:
			l.closeFn(v)
		default:
			return
		}
	}
}
