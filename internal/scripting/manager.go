package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/d7/internal/game/dice"
)

// vm is one named LState. LStates are single-threaded, so every use holds mu.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel context.CancelFunc
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancel()
	v.L.Close()
}

// Manager owns named sandboxed VMs and dispatches calls into them.
//
// Manager is safe for concurrent use; calls into the same VM are serialized.
type Manager struct {
	mu        sync.RWMutex
	vms       map[string]*vm
	roller    *dice.Roller
	logger    *zap.Logger
	instLimit int
}

// NewManager creates a Manager whose VMs roll through roller.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0.
// Postcondition: Returns a non-nil Manager with no VMs loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:       make(map[string]*vm),
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
}

// LoadDir creates a VM called name, registers the engine.* modules, then
// executes every *.lua file in scriptDir in lexicographic order. A VM already
// registered under name is replaced and closed.
//
// Precondition: name must be non-empty; scriptDir must be a readable directory.
func (m *Manager) LoadDir(name, scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, name, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	return m.load(name, func(L *lua.LState) error {
		for _, path := range luaFiles {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q for %q: %w", path, name, err)
			}
		}
		return nil
	})
}

// LoadString is LoadDir for a single in-memory chunk.
func (m *Manager) LoadString(name, src string) error {
	return m.load(name, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading chunk for %q: %w", name, err)
		}
		return nil
	})
}

func (m *Manager) load(name string, run func(*lua.LState) error) error {
	L, cancel := NewSandboxedState(m.instLimit)
	m.RegisterModules(L)

	if err := run(L); err != nil {
		cancel()
		L.Close()
		return err
	}

	m.mu.Lock()
	old := m.vms[name]
	m.vms[name] = &vm{L: L, cancel: cancel}
	m.mu.Unlock()

	if old != nil {
		old.close()
	}
	m.logger.Debug("scripting: vm loaded", zap.String("name", name))
	return nil
}

// Call invokes the Lua global fn in the VM called name and returns its first
// result. Returns (LNil, nil) if fn is not defined. Lua runtime errors are
// logged at Warn level and returned. Each call runs under a fresh
// instruction budget.
//
// Precondition: args must be valid lua.LValue instances.
func (m *Manager) Call(name, fn string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[name]
	m.mu.RUnlock()
	if !ok {
		return lua.LNil, fmt.Errorf("scripting: no vm named %q", name)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.cancel()
	v.cancel = ResetBudget(v.L, m.instLimit)

	f := v.L.GetGlobal(fn)
	if f == lua.LNil {
		m.logger.Info("scripting: function not defined",
			zap.String("vm", name),
			zap.String("function", fn),
		)
		return lua.LNil, nil
	}

	if err := v.L.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("vm", name),
			zap.String("function", fn),
			zap.Error(err),
		)
		return lua.LNil, fmt.Errorf("scripting: calling %s in %q: %w", fn, name, err)
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close closes every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()

	for _, v := range vms {
		v.close()
	}
}
