package loadbalancer

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetNextServer_RoundRobin(t *testing.T) {
	lb := NewLoadBalancer([]string{"http://a:7143", "http://b:7143"})

	assert.Equal(t, "http://a:7143", lb.GetNextServer())
	assert.Equal(t, "http://b:7143", lb.GetNextServer())
	assert.Equal(t, "http://a:7143", lb.GetNextServer())
}

func TestGetNextServer_Empty(t *testing.T) {
	lb := NewLoadBalancer(nil)
	assert.Equal(t, "", lb.GetNextServer())
}

func TestGetNextServer_Concurrent(t *testing.T) {
	lb := NewLoadBalancer([]string{"http://a:7143", "http://b:7143", "http://c:7143"})

	var wg sync.WaitGroup
	counts := make(chan string, 300)
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts <- lb.GetNextServer()
		}()
	}
	wg.Wait()
	close(counts)

	seen := map[string]int{}
	for s := range counts {
		seen[s]++
	}
	assert.Equal(t, 100, seen["http://a:7143"])
	assert.Equal(t, 100, seen["http://b:7143"])
	assert.Equal(t, 100, seen["http://c:7143"])
}

func TestServeHTTP_RedirectsToBackend(t *testing.T) {
	lb := NewLoadBalancer([]string{"http://a:7143"})

	req := httptest.NewRequest(http.MethodGet, "/recon/runs", nil)
	rec := httptest.NewRecorder()
	lb.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "http://a:7143/recon/runs", rec.Header().Get("Location"))
}

func TestServeHTTP_NoBackends(t *testing.T) {
	lb := NewLoadBalancer(nil)

	req := httptest.NewRequest(http.MethodGet, "/recon/runs", nil)
	rec := httptest.NewRecorder()
	lb.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
