package client

import (
	"net/http"
	"slices"
	"sync"
)

// Interceptor wraps every round trip made by HTTPClient. It may inspect or
// modify the request, must call next to send it, and returns what next
// returned unless it deliberately replaces the outcome.
type Interceptor interface {
	Intercept(req *http.Request, next http.RoundTripper) (*http.Response, error)
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(req *http.Request, next http.RoundTripper) (*http.Response, error)

func (f InterceptorFunc) Intercept(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	return f(req, next)
}

type registration struct {
	id          uint64
	interceptor Interceptor
}

// interceptorChain is an http.RoundTripper whose interceptors can be added
// and removed at runtime. The first registered interceptor is the outermost.
type interceptorChain struct {
	base http.RoundTripper

	mu     sync.RWMutex
	nextID uint64
	items  []registration
}

func newInterceptorChain(base http.RoundTripper) *interceptorChain {
	if base == nil {
		base = http.DefaultTransport
	}
	return &interceptorChain{base: base}
}

func (c *interceptorChain) use(i Interceptor) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.items = append(c.items, registration{id: id, interceptor: i})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.items = slices.DeleteFunc(c.items, func(r registration) bool { return r.id == id })
		})
	}
}

func (c *interceptorChain) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *interceptorChain) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	items := slices.Clone(c.items)
	c.mu.RUnlock()

	var rt http.RoundTripper = c.base
	for i := len(items) - 1; i >= 0; i-- {
		rt = link{interceptor: items[i].interceptor, next: rt}
	}
	return rt.RoundTrip(req)
}

type link struct {
	interceptor Interceptor
	next        http.RoundTripper
}

func (l link) RoundTrip(req *http.Request) (*http.Response, error) {
	return l.interceptor.Intercept(req, l.next)
}
