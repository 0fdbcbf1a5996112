package testutil

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrAlreadyClosed   = errors.New("already closed")
	ErrAlreadyDisposed = errors.New("already disposed")
)

// TestLogger is a test logger interface
type TestLogger interface {
	Log(msg string)
	GetLogs() []string
}

// TestLoggerImpl implements TestLogger
type TestLoggerImpl struct {
	ID   string
	logs []string
	mu   sync.Mutex
}

func NewTestLogger() TestLogger {
	return &TestLoggerImpl{ID: uuid.NewString()}
}

func (l *TestLoggerImpl) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, msg)
}

func (l *TestLoggerImpl) GetLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]string, len(l.logs))
	copy(result, l.logs)
	return result
}

// TestDatabase is a test database interface
type TestDatabase interface {
	Query(sql string) string
	Close() error
}

// TestDatabaseImpl implements TestDatabase
type TestDatabaseImpl struct {
	name     string
	closed   bool
	closeMu  sync.Mutex
	closeErr error
}

func NewTestDatabase() TestDatabase {
	return &TestDatabaseImpl{name: "testdb"}
}

func NewTestDatabaseNamed(name string) TestDatabase {
	return &TestDatabaseImpl{name: name}
}

func NewTestDatabaseWithCloseError(err error) TestDatabase {
	return &TestDatabaseImpl{name: "testdb", closeErr: err}
}

func (d *TestDatabaseImpl) Query(sql string) string {
	return fmt.Sprintf("%s: %s", d.name, sql)
}

func (d *TestDatabaseImpl) Close() error {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()

	if d.closed {
		return ErrAlreadyClosed
	}
	d.closed = true
	return d.closeErr
}

func (d *TestDatabaseImpl) IsClosed() bool {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	return d.closed
}

// TestCache is a test cache interface
type TestCache interface {
	Get(key string) (string, bool)
	Set(key string, value string)
}

// TestCacheImpl implements TestCache
type TestCacheImpl struct {
	data map[string]string
	mu   sync.RWMutex
}

func NewTestCache() TestCache {
	return &TestCacheImpl{data: make(map[string]string)}
}

func (c *TestCacheImpl) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *TestCacheImpl) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

// TestService depends on a logger, a database and a cache.
type TestService struct {
	ID       string
	Logger   TestLogger
	Database TestDatabase
	Cache    TestCache
}

func NewTestServiceWithDeps(logger TestLogger, db TestDatabase, cache TestCache) *TestService {
	return &TestService{
		ID:       uuid.NewString(),
		Logger:   logger,
		Database: db,
		Cache:    cache,
	}
}

// TestDisposable records whether it was closed and in which order.
type TestDisposable struct {
	ID           string
	disposed     bool
	disposeError error
	onDispose    func(id string)
	mu           sync.Mutex
}

func NewTestDisposable() *TestDisposable {
	return &TestDisposable{
		ID: uuid.NewString(),
	}
}

func NewTestDisposableWithError(err error) *TestDisposable {
	return &TestDisposable{
		ID:           uuid.NewString(),
		disposeError: err,
	}
}

// NewTestDisposableRecording calls record with id when it is closed.
func NewTestDisposableRecording(id string, record func(id string)) *TestDisposable {
	return &TestDisposable{
		ID:        id,
		onDispose: record,
	}
}

func (s *TestDisposable) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrAlreadyDisposed
	}

	s.disposed = true
	if s.onDispose != nil {
		s.onDispose(s.ID)
	}
	return s.disposeError
}

func (s *TestDisposable) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
