package api

import (
	"OurFloWorks/internal/logger"
	"OurFloWorks/pkg/loadbalancer"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
)

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}

// reconBackends returns the list of recon service backends. Multiple
// instances can be configured via RECON_BACKENDS (comma separated).
func reconBackends() []string {
	raw := strings.TrimSpace(os.Getenv("RECON_BACKENDS"))
	if raw == "" {
		return []string{"http://localhost:7143"}
	}
	var servers []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	if len(servers) == 0 {
		return []string{"http://localhost:7143"}
	}
	return servers
}

// createReverseProxy returns a reverse proxy handler that picks a target
// from the balancer per request
func createReverseProxy(lb *loadbalancer.LoadBalancer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logr := logger.GlobalLogger

		clientIP := extractClientIP(r)

		// Try to extract the acting user from a JSON body (if present)
		var uploadedBy string
		if r.Method == "POST" || r.Method == "PUT" {
			if r.Header.Get("Content-Type") == "application/json" {
				bodyBytes, err := io.ReadAll(r.Body)
				if err == nil && len(bodyBytes) > 0 {
					var bodyMap map[string]interface{}
					if err := json.Unmarshal(bodyBytes, &bodyMap); err == nil {
						if by, ok := bodyMap["uploaded_by"]; ok {
							uploadedBy, _ = by.(string)
						}
					}
				}
				r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			}
		}

		msg := fmt.Sprintf("[Gateway] Incoming request: %s %s from %s uploadedBy=%s", r.Method, r.URL.Path, clientIP, uploadedBy)
		if logr != nil {
			logr.LogAudit(msg)
		} else {
			log.Println(msg)
		}

		target := lb.GetNextServer()
		url, err := url.Parse(target)
		if err != nil || target == "" {
			msg := fmt.Sprintf("[Gateway][ERROR] Proxy error: bad target URL %q for %s", target, r.URL.Path)
			if logr != nil {
				logr.LogAudit(msg)
			} else {
				log.Println(msg)
			}
			http.Error(w, "Bad target URL", http.StatusInternalServerError)
			return
		}
		proxy := httputil.NewSingleHostReverseProxy(url)

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}
		proxy.ServeHTTP(rw, r)
		if rw.statusCode >= 400 {
			msg = fmt.Sprintf("[Gateway][ERROR] Proxied to %s for %s, status %d, error: %s", target, r.URL.Path, rw.statusCode, rw.body.String())
		} else {
			msg = fmt.Sprintf("[Gateway] Proxied to %s for %s, status %d", target, r.URL.Path, rw.statusCode)
		}
		if logr != nil {
			logr.LogAudit(msg)
		} else {
			log.Println(msg)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// StartGateway starts the API gateway server
func StartGateway(cfg map[string]interface{}) {
	port := 8081
	if cfg != nil {
		switch v := cfg["port"].(type) {
		case int:
			if v > 0 {
				port = v
			}
		case float64:
			if v > 0 {
				port = int(v)
			}
		}
	}

	lb := loadbalancer.NewLoadBalancer(reconBackends())

	mux := http.NewServeMux()
	mux.HandleFunc("/recon/", createReverseProxy(lb))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("API Gateway is healthy"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		logr := logger.GlobalLogger
		msg := "[Gateway] [Error] " + r.URL.Path + " from " + r.RemoteAddr + " (route not found)"
		if logr != nil {
			logr.LogAudit(msg)
		} else {
			log.Println(msg)
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("404 - Route not found"))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Println("API Gateway started on", addr)
	err := http.ListenAndServe(addr, mux)
	if err != nil {
		log.Fatalf("Gateway server failed: %v", err)
	}
}
