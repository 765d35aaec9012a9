package api

import (
	"sync"
)

// Closer stops a goroutine and waits for it. Close is idempotent.
type Closer struct {
	stopch chan<- struct{}
	wg     *sync.WaitGroup
	once   *sync.Once
}

func MakeCloser(stopch chan<- struct{}, wg *sync.WaitGroup) Closer {
	return Closer{
		stopch: stopch,
		wg:     wg,
		once:   &sync.Once{},
	}
}

func (closer Closer) Close() error {
	closer.once.Do(func() {
		close(closer.stopch)
	})
	closer.wg.Wait()
	return nil
}
