package session

import "sync"

// serial runs functions in background goroutines one after another, in the
// order Go was called
type serial struct {
	mu   sync.Mutex
	tail chan struct{}
}

func (q *serial) Go(wg *sync.WaitGroup, fn func()) {
	q.mu.Lock()
	prev := q.tail
	done := make(chan struct{})
	q.tail = done
	q.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		fn()
	}()
}
