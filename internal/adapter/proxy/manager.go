// Package proxy rotates outbound proxies and User-Agent strings.
package proxy

import (
	"math/rand/v2"
	"sync"
)

// DefaultUserAgents are desktop browser identities sent when none are
// configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Manager hands out proxies round-robin and User-Agents at random.
// The zero value uses no proxy and no User-Agent.
type Manager struct {
	proxies    []string
	userAgents []string

	mu         sync.Mutex
	proxyIndex int
}

// NewManager copies proxies and userAgents. A nil userAgents selects
// DefaultUserAgents.
func NewManager(proxies, userAgents []string) *Manager {
	if userAgents == nil {
		userAgents = DefaultUserAgents
	}
	return &Manager{
		proxies:    append([]string(nil), proxies...),
		userAgents: append([]string(nil), userAgents...),
	}
}

// GetProxy returns the next proxy URL, or "" when none are configured.
func (m *Manager) GetProxy() string {
	if m == nil || len(m.proxies) == 0 {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.proxies[m.proxyIndex]
	m.proxyIndex = (m.proxyIndex + 1) % len(m.proxies)
	return p
}

// GetUserAgent returns a random User-Agent, or "" when none are configured.
func (m *Manager) GetUserAgent() string {
	if m == nil || len(m.userAgents) == 0 {
		return ""
	}
	return m.userAgents[rand.IntN(len(m.userAgents))]
}

// HasProxies reports whether any proxy is configured.
func (m *Manager) HasProxies() bool {
	return m != nil && len(m.proxies) > 0
}
