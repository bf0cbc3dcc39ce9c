package utils

import "sync"

func WrapLock(lock sync.Locker, fn func()) {
	lock.Lock()
	defer lock.Unlock()

	fn()
}

func WrapRLock(lock *sync.RWMutex, fn func()) {
	lock.RLock()
	defer lock.RUnlock()

	fn()
}
