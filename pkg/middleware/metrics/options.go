// pkg/middleware/metrics/options.go
package metrics

import (
	"net/http"
	"strings"
	"sync"
)

// labels decides which requests Collect records and how their uri label
// is derived.
var labels = struct {
	sync.RWMutex
	skip     map[string]struct{}
	prefixes []string
	uri      func(*http.Request) string
}{
	skip: map[string]struct{}{"/metrics": {}},
	uri:  func(r *http.Request) string { return r.URL.Path },
}

// AddMetricsSkipPaths keeps more paths out of the HTTP series. A path
// ending in "/" skips everything under it.
func AddMetricsSkipPaths(paths ...string) {
	labels.Lock()
	defer labels.Unlock()
	for _, p := range paths {
		switch p = strings.TrimSpace(p); {
		case p == "":
		case strings.HasSuffix(p, "/") && p != "/":
			labels.prefixes = append(labels.prefixes, p)
		default:
			labels.skip[p] = struct{}{}
		}
	}
}

// SetPathNormalizer replaces the uri label source; the gateway passes the
// matched route template so ids do not become label values. nil is ignored.
func SetPathNormalizer(fn func(*http.Request) string) {
	if fn == nil {
		return
	}
	labels.Lock()
	labels.uri = fn
	labels.Unlock()
}

func isSkipPath(r *http.Request) bool {
	p := r.URL.Path
	labels.RLock()
	defer labels.RUnlock()
	if _, ok := labels.skip[p]; ok {
		return true
	}
	for _, pre := range labels.prefixes {
		if strings.HasPrefix(p, pre) {
			return true
		}
	}
	return false
}

func normalizePath(r *http.Request) string {
	labels.RLock()
	fn := labels.uri
	labels.RUnlock()
	return fn(r)
}
