package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// ProcessStatus is the JSON body served from /health and /ready (/live
// serves only a status and uptime). A doculexd process only ever reports on itself, so it
// carries the two subsystems that can independently fail to come up —
// the document store (snapshot load) and the TCP listener — rather
// than an open-ended list of named components.
type ProcessStatus struct {
	Status    string    `json:"status"` // "healthy"/"unhealthy" or "ready"/"not_ready"
	Timestamp time.Time `json:"timestamp"`
	Store     string    `json:"store,omitempty"`
	Listener  string    `json:"listener,omitempty"`
	Message   string    `json:"message,omitempty"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// subsystemState is the last-reported health of one of the two
// subsystems. registered distinguishes "never reported in" from
// "reported in and currently unhealthy": a process that hasn't
// finished starting up yet has neither, which /health treats as
// vacuously fine but /ready treats as not ready.
type subsystemState struct {
	registered bool
	healthy    bool
	message    string
	updated    time.Time
}

// processHealth tracks the store and listener subsystems of a single
// doculexd process.
type processHealth struct {
	mu        sync.RWMutex
	store     subsystemState
	listener  subsystemState
	startTime time.Time
	version   string
}

var health = &processHealth{startTime: time.Now()}

// SetVersion sets the version string reported on every health
// endpoint.
func SetVersion(version string) {
	health.mu.Lock()
	defer health.mu.Unlock()
	health.version = version
}

// RegisterComponent records the health of "store" or "listener", the
// only two subsystems a doculexd process tracks. Any other name is a
// caller error and is silently dropped.
func RegisterComponent(name string, healthy bool, message string) {
	health.mu.Lock()
	defer health.mu.Unlock()

	state := subsystemState{registered: true, healthy: healthy, message: message, updated: time.Now()}
	switch name {
	case "store":
		health.store = state
	case "listener":
		health.listener = state
	}
}

// UpdateComponent is an alias for RegisterComponent, for callers that
// are reporting a state change rather than a first-time registration.
func UpdateComponent(name string, healthy bool, message string) {
	RegisterComponent(name, healthy, message)
}

func describe(s subsystemState) string {
	if !s.registered {
		return "not registered"
	}
	if s.healthy {
		return "healthy"
	}
	return "unhealthy: " + s.message
}

// GetHealth reports the current state of both subsystems. A
// subsystem that has never registered is treated as healthy here —
// there is nothing yet known to be wrong with it — which is what
// keeps /health green in the brief window before serve has run its
// first RegisterComponent call.
func GetHealth() ProcessStatus {
	health.mu.RLock()
	defer health.mu.RUnlock()

	status := "healthy"
	if health.store.registered && !health.store.healthy {
		status = "unhealthy"
	}
	if health.listener.registered && !health.listener.healthy {
		status = "unhealthy"
	}

	return ProcessStatus{
		Status:    status,
		Timestamp: time.Now(),
		Store:     describe(health.store),
		Listener:  describe(health.listener),
		Version:   health.version,
		Uptime:    time.Since(health.startTime).String(),
	}
}

// GetReadiness reports whether the process is ready to serve
// requests: both the store and listener must have registered in and
// be healthy. Unlike GetHealth, an unregistered subsystem here means
// not ready, not healthy — readiness is a positive claim that startup
// finished, not the absence of a known problem.
func GetReadiness() ProcessStatus {
	health.mu.RLock()
	defer health.mu.RUnlock()

	status := "ready"
	message := ""
	if !health.store.registered || !health.store.healthy {
		status = "not_ready"
		message = "waiting for store"
	} else if !health.listener.registered || !health.listener.healthy {
		status = "not_ready"
		message = "waiting for listener"
	}

	return ProcessStatus{
		Status:    status,
		Timestamp: time.Now(),
		Store:     describe(health.store),
		Listener:  describe(health.listener),
		Message:   message,
		Version:   health.version,
		Uptime:    time.Since(health.startTime).String(),
	}
}

// HealthHandler serves /health: 200 while both subsystems are
// healthy (or unreported), 503 once either has reported unhealthy.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := GetHealth()

		w.Header().Set("Content-Type", "application/json")
		statusCode := http.StatusOK
		if status.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
		w.WriteHeader(statusCode)

		_ = json.NewEncoder(w).Encode(status)
	}
}

// ReadyHandler serves /ready: 200 once both the store and listener
// have reported healthy, 503 until then.
func ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readiness := GetReadiness()

		w.Header().Set("Content-Type", "application/json")
		statusCode := http.StatusOK
		if readiness.Status != "ready" {
			statusCode = http.StatusServiceUnavailable
		}
		w.WriteHeader(statusCode)

		_ = json.NewEncoder(w).Encode(readiness)
	}
}

// LivenessHandler serves /live: always 200 while the process is
// running at all, independent of store/listener health. A process
// wedged badly enough to fail this isn't running this handler.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "alive",
			"uptime": time.Since(health.startTime).String(),
		})
	}
}
