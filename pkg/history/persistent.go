package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// DefaultStoreKey is the badger key the stacks are stored under.
const DefaultStoreKey = "waypoint/history"

// PersistentConfig configures a Persistent provider.
type PersistentConfig struct {
	// Path is the badger directory. Required unless InMemory is set.
	Path string

	// InMemory keeps the database in memory, for tests.
	InMemory bool

	// Key is the storage key. Defaults to DefaultStoreKey.
	Key string

	// Initial is the current path when nothing has been stored yet.
	Initial string

	// MaxEntries bounds the past stack, see WithMaxEntries.
	MaxEntries int

	// SyncWrites makes every save durable before returning.
	SyncWrites bool

	// Logger receives save failures and badger's own log output.
	Logger *slog.Logger
}

// Persistent is a Memory provider whose stacks survive restarts. The stacks
// are saved to badger after every change and restored on open.
type Persistent struct {
	mem    *Memory
	db     *badger.DB
	key    []byte
	logger *slog.Logger

	mu      sync.Mutex
	lastErr error
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenPersistent opens (or creates) a persistent history.
// The caller must call Close when done.
func OpenPersistent(cfg PersistentConfig) (*Persistent, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("history store path is required")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultStoreKey
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create history directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	p := &Persistent{
		mem:    NewMemory(cfg.Initial, WithMaxEntries(cfg.MaxEntries)),
		db:     db,
		key:    []byte(cfg.Key),
		logger: logger,
	}

	stack, found, err := p.load()
	if err != nil {
		db.Close()
		return nil, err
	}
	if found {
		p.mem.Restore(stack)
		logger.Debug("history restored", "current", stack.Current, "past", len(stack.Past), "future", len(stack.Future))
	}
	return p, nil
}

func (p *Persistent) load() (Stack, bool, error) {
	var stack Stack
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(p.key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stack)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Stack{}, false, nil
	}
	if err != nil {
		return Stack{}, false, fmt.Errorf("load history: %w", err)
	}
	return stack, true, nil
}

func (p *Persistent) save() {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.Marshal(p.mem.Snapshot())
	if err == nil {
		err = p.db.Update(func(txn *badger.Txn) error {
			return txn.Set(p.key, data)
		})
	}
	p.lastErr = err
	if err != nil {
		p.logger.Error("history save failed", "error", err)
	}
}

// Err returns the error of the most recent save, if any.
func (p *Persistent) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close closes the underlying store.
func (p *Persistent) Close() error {
	return p.db.Close()
}

// Current returns the current path.
func (p *Persistent) Current() string { return p.mem.Current() }

// CanGoBack reports whether there is a previous path.
func (p *Persistent) CanGoBack() bool { return p.mem.CanGoBack() }

// CanGoForward reports whether there is a next path.
func (p *Persistent) CanGoForward() bool { return p.mem.CanGoForward() }

// Snapshot returns a copy of the stacks.
func (p *Persistent) Snapshot() Stack { return p.mem.Snapshot() }

// Push makes path current, clears the forward history and saves.
func (p *Persistent) Push(path string) {
	p.mem.Push(path)
	p.save()
}

// Replace overwrites the current path and saves.
func (p *Persistent) Replace(path string) {
	p.mem.Replace(path)
	p.save()
}

// GoBack moves to the previous path and saves.
func (p *Persistent) GoBack() {
	if !p.mem.CanGoBack() {
		return
	}
	p.mem.GoBack()
	p.save()
}

// GoForward moves to the next path and saves.
func (p *Persistent) GoForward() {
	if !p.mem.CanGoForward() {
		return
	}
	p.mem.GoForward()
	p.save()
}
