package ioc

import (
	"fmt"
	"sync"
)

// Disposable is implemented by services that hold resources.
// A container closes the Disposable singletons it constructed when it is
// closed. Values passed to RegisterInstance stay owned by the caller.
//
// Example:
//
//	type DatabaseConnection struct {
//	    conn *sql.DB
//	}
//
//	func (dc *DatabaseConnection) Close() error {
//	    return dc.conn.Close()
//	}
type Disposable interface {
	Close() error
}

// lifecycleManager tracks disposable singletons in creation order.
type lifecycleManager struct {
	disposables []trackedDisposable
	disposed    bool
	mu          sync.Mutex
}

type trackedDisposable struct {
	key Key
	d   Disposable
}

func newLifecycleManager() *lifecycleManager {
	return &lifecycleManager{
		disposables: make([]trackedDisposable, 0),
	}
}

// track adds instance if it is Disposable. It reports false once dispose
// has run, in which case the caller still owns instance.
func (m *lifecycleManager) track(key Key, instance any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return false
	}
	if d, ok := instance.(Disposable); ok {
		m.disposables = append(m.disposables, trackedDisposable{key: key, d: d})
	}
	return true
}

// dispose closes all tracked instances in reverse order.
func (m *lifecycleManager) dispose() error {
	m.mu.Lock()
	disposables := m.disposables
	m.disposables = nil
	m.disposed = true
	m.mu.Unlock()

	var errs []error

	// LIFO: dependents were constructed after their dependencies.
	for i := len(disposables) - 1; i >= 0; i-- {
		if err := disposables[i].d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", disposables[i].key, err))
		}
	}

	if len(errs) > 0 {
		return DisposalError{Errors: errs}
	}

	return nil
}
