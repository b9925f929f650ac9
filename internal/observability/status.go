package observability

import (
	"sync"
	"time"
)

type Role string

const (
	RoleIdle        Role = "IDLE"
	RolePlanning    Role = "PLANNING"
	RoleDispatching Role = "DISPATCHING"
)

type SystemStatus struct {
	mu            sync.RWMutex
	CurrentRole   Role
	ActiveTask    string
	ActivePlans   int
	LastHeartbeat time.Time
}

// Snapshot is a copy of the status safe to serialise.
type Snapshot struct {
	Role          Role      `json:"role"`
	ActiveTask    string    `json:"active_task,omitempty"`
	ActivePlans   int       `json:"active_plans"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Uptime        string    `json:"uptime"`
}

var globalStatus = &SystemStatus{
	CurrentRole:   RoleIdle,
	LastHeartbeat: time.Now(),
}

// SetStatus updates the role and task shown on the dashboard.
func SetStatus(role Role, task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentRole = role
	globalStatus.ActiveTask = task
}

// BeginPlan marks a plan request as in flight. The returned func ends it;
// the status returns to idle once no plan is left.
func BeginPlan(task string) func() {
	globalStatus.mu.Lock()
	globalStatus.ActivePlans++
	globalStatus.CurrentRole = RolePlanning
	globalStatus.ActiveTask = task
	globalStatus.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			globalStatus.mu.Lock()
			defer globalStatus.mu.Unlock()
			globalStatus.ActivePlans--
			if globalStatus.ActivePlans <= 0 {
				globalStatus.ActivePlans = 0
				globalStatus.CurrentRole = RoleIdle
				globalStatus.ActiveTask = ""
			}
		})
	}
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() Snapshot {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return Snapshot{
		Role:          globalStatus.CurrentRole,
		ActiveTask:    globalStatus.ActiveTask,
		ActivePlans:   globalStatus.ActivePlans,
		LastHeartbeat: globalStatus.LastHeartbeat,
		Uptime:        time.Since(startTime).Round(time.Second).String(),
	}
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.LastHeartbeat = time.Now()
}
