package models

import "time"

// InstanceState is the lifecycle state of a compute instance as reported
// by the provider.
type InstanceState string

const (
	StatePending  InstanceState = "pending"
	StateRunning  InstanceState = "running"
	StateStopping InstanceState = "stopping"
	StateStopped  InstanceState = "stopped"
	StateStarting InstanceState = "starting"
	StateUnknown  InstanceState = "unknown"

	// StateTerminated never appears in a FleetSnapshot; discovery filters
	// terminated instances before they enter the model.
	StateTerminated InstanceState = "terminated"
)

// ParseState maps a raw provider state string onto the known set,
// falling back to unknown.
func ParseState(s string) InstanceState {
	switch InstanceState(s) {
	case StatePending, StateRunning, StateStopping, StateStopped, StateStarting, StateTerminated:
		return InstanceState(s)
	default:
		return StateUnknown
	}
}

// Instance is an immutable snapshot of one compute instance. Instances are
// recreated wholesale on each discovery round and never patched in place.
// Region is attached at creation and never inferred later.
type Instance struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	State            InstanceState `json:"state"`
	InstanceType     string        `json:"instance_type"`
	Region           string        `json:"region"`
	AvailabilityZone string        `json:"availability_zone"`
	LaunchTime       time.Time     `json:"launch_time,omitzero"`
	PublicIP         string        `json:"public_ip,omitempty"`
	PrivateIP        string        `json:"private_ip,omitempty"`
}

// InstanceDetail is the expanded status view of a single instance.
type InstanceDetail struct {
	ID           string        `json:"id"`
	State        InstanceState `json:"state"`
	InstanceType string        `json:"instance_type"`
	Region       string        `json:"region"`
	LaunchTime   time.Time     `json:"launch_time,omitzero"`
	PublicIP     string        `json:"public_ip,omitempty"`
	PrivateIP    string        `json:"private_ip,omitempty"`
}

// RegionResult is the unit of discovery fan-in: exactly one is produced
// per queried region per round. A failed region carries Err and zero
// instances.
type RegionResult struct {
	Region    string
	Instances []Instance
	Err       error
}

// FleetSnapshot is the aggregated view of one discovery round. It is
// replaced atomically on refresh, never mutated field by field. Instance
// order groups by first-seen region, preserving the provider-returned
// order within each region.
type FleetSnapshot struct {
	Instances     []Instance `json:"instances"`
	FetchedAt     time.Time  `json:"fetched_at"`
	FailedRegions []string   `json:"failed_regions,omitempty"`
}
