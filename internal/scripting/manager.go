package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/Bam6561/AethelPlugin-sub005/internal/game/dice"
)

// EntryPoint is the global function every ability script must define. It is
// called as invoke(caster, target).
const EntryPoint = "invoke"

// ErrUnknownScript is returned when invoking a script that was never loaded.
var ErrUnknownScript = errors.New("unknown script")

// ErrScriptFailed wraps Lua runtime errors, including exhausted instruction budgets.
var ErrScriptFailed = errors.New("script failed")

// StatusRequest is a status application requested by a script.
type StatusRequest struct {
	Target    string
	Type      string
	Stacks    int
	Magnitude float64
	Ticks     int
}

// Callbacks connect a script invocation to the game. A nil field makes the
// matching engine.* function a no-op.
type Callbacks struct {
	ReadStacks    func(uid, statusType string) int
	ConsumeStacks func(uid, statusType string, amount int) (int, error)
	ApplyStatus   func(req StatusRequest) (string, error)
	EmitDamage    func(uid string, amount float64)
}

type script struct {
	name   string
	mu     sync.Mutex
	L      *lua.LState
	cancel context.CancelFunc
	limit  int
	cb     Callbacks
}

// Manager owns one sandboxed LState per ability script.
//
// Manager is safe for concurrent use. Invocations of the same script are
// serialised; different scripts run concurrently.
type Manager struct {
	mu      sync.RWMutex
	scripts map[string]*script
	src     dice.Source
	logger  *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(src dice.Source, logger *zap.Logger) *Manager {
	return &Manager{
		scripts: make(map[string]*script),
		src:     src,
		logger:  logger,
	}
}

// Load compiles source into a new VM registered under name, replacing any
// script with the same name.
//
// Precondition: name must be non-empty.
// Postcondition: Has(name) is true, or an error is returned and nothing changes.
func (m *Manager) Load(name, source string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	s := &script{name: name, L: L, cancel: cancel, limit: instLimit}
	m.registerModules(s)
	if err := L.DoString(source); err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	if fn := L.GetGlobal(EntryPoint); fn.Type() != lua.LTFunction {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: loading %q: %s is not defined", name, EntryPoint)
	}

	m.mu.Lock()
	old := m.scripts[name]
	m.scripts[name] = s
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	return nil
}

// LoadDir loads every *.lua file in dir in lexicographic order. Each file
// becomes a script named after the file without its extension.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the loaded names, or the first error encountered.
func (m *Manager) LoadDir(dir string, instLimit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	names := make([]string, 0, len(paths))
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return names, fmt.Errorf("scripting: reading %q: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), ".lua")
		if err := m.Load(name, string(src), instLimit); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	m.logger.Info("ability scripts loaded", zap.String("dir", dir), zap.Int("count", len(names)))
	return names, nil
}

// Has reports whether a script named name is loaded.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scripts[name]
	return ok
}

// Names returns the loaded script names in ascending order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.scripts))
	for name := range m.scripts {
		out = append(out, name)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Invoke calls the entry point of script name with caster and target, wiring
// engine.* to cb for the duration of the call. Each call gets a fresh
// instruction budget.
//
// Postcondition: returns ErrUnknownScript if name is not loaded and wraps Lua
// runtime errors with ErrScriptFailed.
func (m *Manager) Invoke(ctx context.Context, name string, cb Callbacks, caster, target string) error {
	m.mu.RLock()
	s, ok := m.scripts[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scripting: invoking %q: %w", name, ErrUnknownScript)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
	defer func() { s.cb = Callbacks{} }()
	cancel := armLimit(ctx, s.L, s.limit)
	defer cancel()

	err := s.L.CallByParam(lua.P{
		Fn:      s.L.GetGlobal(EntryPoint),
		NRet:    0,
		Protect: true,
	}, lua.LString(caster), lua.LString(target))
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", name),
			zap.Error(err),
		)
		return fmt.Errorf("scripting: invoking %q: %w: %w", name, ErrScriptFailed, err)
	}
	return nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	scripts := m.scripts
	m.scripts = make(map[string]*script)
	m.mu.Unlock()
	for _, s := range scripts {
		s.close()
	}
}

func (s *script) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.L.Close()
}
