// Package mock provides shared service types and recipes used across the
// bindkit test suites.
package mock

import (
	"fmt"
	"sync/atomic"

	"github.com/bindkit/bindkit"
)

// Core interfaces
type Database interface {
	Ping() bool
}

type Cache interface {
	Lookup(key string) (string, bool)
}

// MockDB is a trivial Database used as a leaf dependency.
type MockDB struct {
	Connected bool
	Addr      string
}

func (m *MockDB) Ping() bool {
	return m.Connected
}

// MockCache depends on a Database.
type MockCache struct {
	DB      Database
	entries map[string]string
}

func (m *MockCache) Lookup(key string) (string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// DBRecipe builds a connected MockDB with no dependencies.
func DBRecipe() bindkit.Recipe {
	return bindkit.Func(func([]any) (any, error) {
		return &MockDB{Connected: true}, nil
	})
}

// CacheRecipe builds a MockCache wired to the bound Database.
func CacheRecipe() bindkit.Recipe {
	return bindkit.Func(func(deps []any) (any, error) {
		return &MockCache{DB: deps[0].(Database), entries: map[string]string{}}, nil
	}, bindkit.Dep[Database]())
}

// Three-level chain for deep resolution tests.
type DeepService3 interface {
	Value() string
}

type DeepService2 interface {
	Third() DeepService3
}

type DeepService1 interface {
	Second() DeepService2
}

type DeepImpl3 struct{ Val string }

func (d *DeepImpl3) Value() string { return d.Val }

type DeepImpl2 struct{ S3 DeepService3 }

func (d *DeepImpl2) Third() DeepService3 { return d.S3 }

type DeepImpl1 struct{ S2 DeepService2 }

func (d *DeepImpl1) Second() DeepService2 { return d.S2 }

// DeepRecipes registers the full three-level chain on c.
func DeepRecipes(c *bindkit.Container, leafValue string) error {
	if err := bindkit.Bind[DeepService3](c, bindkit.Func(func([]any) (any, error) {
		return &DeepImpl3{Val: leafValue}, nil
	})); err != nil {
		return err
	}
	if err := bindkit.Bind[DeepService2](c, bindkit.Func(func(deps []any) (any, error) {
		return &DeepImpl2{S3: deps[0].(DeepService3)}, nil
	}, bindkit.Dep[DeepService3]())); err != nil {
		return err
	}
	return bindkit.Bind[DeepService1](c, bindkit.Func(func(deps []any) (any, error) {
		return &DeepImpl1{S2: deps[0].(DeepService2)}, nil
	}, bindkit.Dep[DeepService2]()))
}

// Editor and SpellChecker form a two-node cycle. Editor holds its checker
// directly; SpellChecker holds the editor through a deferred handle bound
// after the editor finishes construction.
type Editor struct {
	Checker *SpellChecker
}

type SpellChecker struct {
	Editor *bindkit.Handle
}

// EditorOf returns the editor behind the checker's handle.
func (s *SpellChecker) EditorOf() (*Editor, error) {
	v, err := s.Editor.Get()
	if err != nil {
		return nil, err
	}
	return v.(*Editor), nil
}

// CycleRecipes registers the Editor/SpellChecker pair on c. The checker's
// back-reference is declared deferred, so the cycle resolves via a handle.
func CycleRecipes(c *bindkit.Container) error {
	if err := bindkit.Bind[*Editor](c, bindkit.Func(func(deps []any) (any, error) {
		return &Editor{Checker: deps[0].(*SpellChecker)}, nil
	}, bindkit.Dep[*SpellChecker]())); err != nil {
		return err
	}
	return bindkit.Bind[*SpellChecker](c, bindkit.Func(func(deps []any) (any, error) {
		return &SpellChecker{Editor: deps[0].(*bindkit.Handle)}, nil
	}, bindkit.DeferredDep[*Editor]()))
}

// HardCycleRecipes registers the same pair without the deferred declaration,
// so the back-reference is a plain constructor argument and the cycle is
// fatal.
func HardCycleRecipes(c *bindkit.Container) error {
	if err := bindkit.Bind[*Editor](c, bindkit.Func(func(deps []any) (any, error) {
		return &Editor{Checker: deps[0].(*SpellChecker)}, nil
	}, bindkit.Dep[*SpellChecker]())); err != nil {
		return err
	}
	return bindkit.Bind[*SpellChecker](c, bindkit.Func(func(deps []any) (any, error) {
		ed := deps[0].(*Editor)
		return &SpellChecker{Editor: bindkit.Direct(ed)}, nil
	}, bindkit.Dep[*Editor]()))
}

// Counter is a leaf whose recipe counts constructions, for exactly-once and
// fresh-instance assertions.
type Counter struct {
	N uint64
}

// CountingRecipe builds a new Counter per construction and increments built
// each time the factory runs.
func CountingRecipe(built *atomic.Uint64) bindkit.Recipe {
	return bindkit.Func(func([]any) (any, error) {
		return &Counter{N: built.Add(1)}, nil
	})
}

// FailingRecipe fails construction with the given error until the flag is
// cleared, for singleton retry tests.
func FailingRecipe(fail *atomic.Bool, errText string) bindkit.Recipe {
	return bindkit.Func(func([]any) (any, error) {
		if fail.Load() {
			return nil, fmt.Errorf("%s", errText)
		}
		return &MockDB{Connected: true}, nil
	})
}
