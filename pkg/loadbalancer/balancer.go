package loadbalancer

import (
	"net/http"
	"sync"
)

type LoadBalancer struct {
	servers []string
	mu      sync.Mutex
	current int
}

func NewLoadBalancer(servers []string) *LoadBalancer {
	return &LoadBalancer{
		servers: servers,
		current: 0,
	}
}

// GetNextServer returns the next backend in round-robin order,
// or "" when the balancer has no servers.
func (lb *LoadBalancer) GetNextServer() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if len(lb.servers) == 0 {
		return ""
	}
	server := lb.servers[lb.current]
	lb.current = (lb.current + 1) % len(lb.servers)
	return server
}

// Servers returns a copy of the configured backend list.
func (lb *LoadBalancer) Servers() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	out := make([]string, len(lb.servers))
	copy(out, lb.servers)
	return out
}

func (lb *LoadBalancer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server := lb.GetNextServer()
	if server == "" {
		http.Error(w, "no backends configured", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, server+r.RequestURI, http.StatusTemporaryRedirect)
}
