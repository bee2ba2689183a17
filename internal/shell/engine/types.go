// Package engine speaks the container runtime's management API over its
// local socket using plain HTTP/1.1 framing. Every call opens a fresh
// connection; responses may arrive chunked.
package engine

// =============================================================================
// Container Types
// =============================================================================

// ContainerState represents the lifecycle state reported by the runtime.
type ContainerState string

const (
	ContainerStateCreated    ContainerState = "created"
	ContainerStateRunning    ContainerState = "running"
	ContainerStatePaused     ContainerState = "paused"
	ContainerStateRestarting ContainerState = "restarting"
	ContainerStateRemoving   ContainerState = "removing"
	ContainerStateExited     ContainerState = "exited"
	ContainerStateDead       ContainerState = "dead"
)

// ContainerRecord is an immutable snapshot of one container as returned by
// the runtime's list endpoint. Field names follow the runtime's wire format.
type ContainerRecord struct {
	ID      string            `json:"Id"`
	Names   []string          `json:"Names"`
	Image   string            `json:"Image"`
	ImageID string            `json:"ImageID"`
	Command string            `json:"Command"`
	Created int64             `json:"Created"`
	State   ContainerState    `json:"State"`
	Status  string            `json:"Status"`
	Labels  map[string]string `json:"Labels"`
	Mounts  []MountPoint      `json:"Mounts"`
}

// MountPoint describes one mount attached to a container.
type MountPoint struct {
	Type        string `json:"Type"`
	Source      string `json:"Source"`
	Target      string `json:"Destination"`
	Mode        string `json:"Mode"`
	RW          bool   `json:"RW"`
	Propagation string `json:"Propagation"`
}

// PrimaryName returns the container's first name without the leading slash
// the runtime prepends, or "" when the record carries no names.
func (c ContainerRecord) PrimaryName() string {
	if len(c.Names) == 0 {
		return ""
	}
	name := c.Names[0]
	if len(name) > 0 && name[0] == '/' {
		return name[1:]
	}
	return name
}
