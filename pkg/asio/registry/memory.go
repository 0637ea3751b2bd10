// ABOUTME: In-memory registry store
// ABOUTME: Case-insensitive key tree used by tests, the simulator and non-Windows builds
package registry

import (
	"fmt"
	"strings"
	"sync"
)

// Memory is a Store held in memory. Key and value names are matched
// case-insensitively; sub-keys enumerate in creation order.
type Memory struct {
	mu    sync.RWMutex
	roots map[Root]*node
}

type node struct {
	name     string
	children []*node
	byName   map[string]*node
	values   map[string]string
}

func newNode(name string) *node {
	return &node{
		name:   name,
		byName: make(map[string]*node),
		values: make(map[string]string),
	}
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{roots: make(map[Root]*node)}
}

func splitPath(path string) []string {
	parts := strings.Split(path, `\`)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CreateKey creates path and any missing parents.
func (m *Memory) CreateKey(root Root, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.create(root, path)
}

func (m *Memory) create(root Root, path string) *node {
	n, ok := m.roots[root]
	if !ok {
		n = newNode(root.String())
		m.roots[root] = n
	}
	for _, part := range splitPath(path) {
		child, ok := n.byName[strings.ToLower(part)]
		if !ok {
			child = newNode(part)
			n.byName[strings.ToLower(part)] = child
			n.children = append(n.children, child)
		}
		n = child
	}
	return n
}

// SetString sets a string value, creating the key if needed. name "" sets
// the default value.
func (m *Memory) SetString(root Root, path, name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.create(root, path).values[strings.ToLower(name)] = value
}

// OpenKey implements Store.
func (m *Memory) OpenKey(root Root, path string) (Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.roots[root]
	if !ok {
		return nil, fmt.Errorf("%s\\%s: %w", root, path, ErrNotExist)
	}
	n, err := walk(n, path)
	if err != nil {
		return nil, fmt.Errorf("%s\\%s: %w", root, path, err)
	}
	return &memKey{m: m, n: n}, nil
}

func walk(n *node, path string) (*node, error) {
	for _, part := range splitPath(path) {
		child, ok := n.byName[strings.ToLower(part)]
		if !ok {
			return nil, ErrNotExist
		}
		n = child
	}
	return n, nil
}

type memKey struct {
	m *Memory
	n *node
}

func (k *memKey) SubKeyCount() (int, error) {
	k.m.mu.RLock()
	defer k.m.mu.RUnlock()
	return len(k.n.children), nil
}

func (k *memKey) SubKeyName(index int, dst []uint16) (int, error) {
	k.m.mu.RLock()
	defer k.m.mu.RUnlock()

	if index < 0 || index >= len(k.n.children) {
		return 0, ErrNotExist
	}
	return PutString(dst, k.n.children[index].name), nil
}

func (k *memKey) OpenSubKey(path string) (Key, error) {
	k.m.mu.RLock()
	defer k.m.mu.RUnlock()

	n, err := walk(k.n, path)
	if err != nil {
		return nil, fmt.Errorf("%s\\%s: %w", k.n.name, path, err)
	}
	return &memKey{m: k.m, n: n}, nil
}

func (k *memKey) StringValue(name string, dst []uint16) (int, error) {
	k.m.mu.RLock()
	defer k.m.mu.RUnlock()

	v, ok := k.n.values[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("value %q: %w", name, ErrNotExist)
	}
	return PutString(dst, v), nil
}

func (k *memKey) Close() error {
	return nil
}
