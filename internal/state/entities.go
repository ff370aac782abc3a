// Copyright 2026 mvirt authors.

// Package state implements the control plane's deterministic state
// machine: apply(command) -> (response, events). See Machine.Apply.
package state

// Node, Project, Network, NIC, VM, Volume, Snapshot, Template, ImportJob
// and SecurityGroup are the entities owned by the replicated control
// plane. All are keyed by opaque string ids and carry timestamps taken
// from the command that created or last mutated them, never the wall
// clock, so that Apply stays a pure function of its inputs.

type NodeStatus string

const (
	NodeOnline  NodeStatus = "online"
	NodeOffline NodeStatus = "offline"
)

// NodeResources is the node's total and currently free capacity, used by
// the Scheduler's fit-check.
type NodeResources struct {
	CPU        int   `json:"cpu"`
	MemoryMB   int64 `json:"memory_mb"`
	FreeCPU    int   `json:"free_cpu"`
	FreeMemory int64 `json:"free_memory_mb"`
}

type Node struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Address       string            `json:"address"`
	Status        NodeStatus        `json:"status"`
	Resources     NodeResources     `json:"resources"`
	Labels        map[string]string `json:"labels"`
	LastHeartbeat string            `json:"last_heartbeat"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type Network struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	Name        string   `json:"name"`
	IPv4Enabled bool     `json:"ipv4_enabled"`
	IPv4Prefix  string   `json:"ipv4_prefix,omitempty"`
	IPv6Enabled bool     `json:"ipv6_enabled"`
	IPv6Prefix  string   `json:"ipv6_prefix,omitempty"`
	DNSServers  []string `json:"dns_servers"`
	NTPServers  []string `json:"ntp_servers"`
	IsPublic    bool     `json:"is_public"`
	NicCount    int      `json:"nic_count"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type NicState string

const (
	NicCreated   NicState = "created"
	NicConnected NicState = "connected"
)

type Nic struct {
	ID                  string   `json:"id"`
	ProjectID           string   `json:"project_id"`
	Name                string   `json:"name,omitempty"`
	NetworkID           string   `json:"network_id"`
	MACAddress          string   `json:"mac_address"`
	IPv4Address         string   `json:"ipv4_address,omitempty"`
	IPv6Address         string   `json:"ipv6_address,omitempty"`
	RoutedIPv4Prefixes  []string `json:"routed_ipv4_prefixes,omitempty"`
	RoutedIPv6Prefixes  []string `json:"routed_ipv6_prefixes,omitempty"`
	SecurityGroupID     string   `json:"security_group_id,omitempty"`
	VMID                string   `json:"vm_id,omitempty"`
	SocketPath          string   `json:"socket_path"`
	State               NicState `json:"state"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

type VMPhase string

const (
	VMPending   VMPhase = "pending"
	VMScheduled VMPhase = "scheduled"
	VMRunning   VMPhase = "running"
	VMStopping  VMPhase = "stopping"
	VMStopped   VMPhase = "stopped"
	VMFailed    VMPhase = "failed"
)

type VMSpec struct {
	Name         string            `json:"name"`
	NicID        string            `json:"nic_id"`
	CPU          int               `json:"cpu"`
	MemoryMB     int64             `json:"memory_mb"`
	DesiredState string            `json:"desired_state,omitempty"`
	NodeAffinity map[string]string `json:"node_affinity,omitempty"`
}

type VMStatus struct {
	Phase     VMPhase `json:"phase"`
	NodeID    string  `json:"node_id,omitempty"`
	IPAddress string  `json:"ip_address,omitempty"`
	Message   string  `json:"message,omitempty"`
}

type VM struct {
	ID        string   `json:"id"`
	Spec      VMSpec   `json:"spec"`
	Status    VMStatus `json:"status"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type Snapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UsedBytes int64  `json:"used_bytes"`
	CreatedAt string `json:"created_at"`
}

type Volume struct {
	ID                string     `json:"id"`
	ProjectID         string     `json:"project_id"`
	NodeID            string     `json:"node_id"`
	Name              string     `json:"name"`
	Path              string     `json:"path"`
	SizeBytes         int64      `json:"size_bytes"`
	UsedBytes         int64      `json:"used_bytes"`
	CompressionRatio  float64    `json:"compression_ratio"`
	Snapshots         []Snapshot `json:"snapshots"`
	TemplateID        string     `json:"template_id,omitempty"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}

type Template struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	NodeID     string `json:"node_id"`
	Name       string `json:"name"`
	SizeBytes  int64  `json:"size_bytes"`
	CloneCount int    `json:"clone_count"`
	CreatedAt  string `json:"created_at"`
}

type ImportJobState string

const (
	ImportPending   ImportJobState = "pending"
	ImportRunning   ImportJobState = "running"
	ImportCompleted ImportJobState = "completed"
	ImportFailed    ImportJobState = "failed"
	ImportCancelled ImportJobState = "cancelled"
)

type ImportJob struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	NodeID        string         `json:"node_id"`
	TemplateName  string         `json:"template_name"`
	URL           string         `json:"url"`
	State         ImportJobState `json:"state"`
	BytesWritten  int64          `json:"bytes_written"`
	TotalBytes    int64          `json:"total_bytes"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

type SGDirection string

const (
	SGIngress SGDirection = "ingress"
	SGEgress  SGDirection = "egress"
)

type SGProtocol string

const (
	SGAll    SGProtocol = "all"
	SGTCP    SGProtocol = "tcp"
	SGUDP    SGProtocol = "udp"
	SGICMP   SGProtocol = "icmp"
	SGICMPv6 SGProtocol = "icmpv6"
)

type SecurityGroupRule struct {
	ID             string      `json:"id"`
	Direction      SGDirection `json:"direction"`
	Protocol       SGProtocol  `json:"protocol"`
	PortRangeStart int         `json:"port_range_start,omitempty"`
	PortRangeEnd   int         `json:"port_range_end,omitempty"`
	CIDR           string      `json:"cidr,omitempty"`
	Description    string      `json:"description,omitempty"`
	CreatedAt      string      `json:"created_at"`
}

type SecurityGroup struct {
	ID          string              `json:"id"`
	ProjectID   string              `json:"project_id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Rules       []SecurityGroupRule `json:"rules"`
	NicCount    int                 `json:"nic_count"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}

// State is the full, serializable control-plane value replicated by the
// engine and snapshotted periodically. Every field is exported so
// encoding/gob (and any future snapshot codec) can (de)serialize it
// without custom hooks.
type State struct {
	Nodes          map[string]Node          `json:"nodes"`
	Projects       map[string]Project       `json:"projects"`
	Networks       map[string]Network       `json:"networks"`
	Nics           map[string]Nic           `json:"nics"`
	VMs            map[string]VM            `json:"vms"`
	Volumes        map[string]Volume        `json:"volumes"`
	Templates      map[string]Template      `json:"templates"`
	ImportJobs     map[string]ImportJob     `json:"import_jobs"`
	SecurityGroups map[string]SecurityGroup `json:"security_groups"`
}

// NewState returns an empty, ready-to-use control-plane state value.
func NewState() *State {
	return &State{
		Nodes:          make(map[string]Node),
		Projects:       make(map[string]Project),
		Networks:       make(map[string]Network),
		Nics:           make(map[string]Nic),
		VMs:            make(map[string]VM),
		Volumes:        make(map[string]Volume),
		Templates:      make(map[string]Template),
		ImportJobs:     make(map[string]ImportJob),
		SecurityGroups: make(map[string]SecurityGroup),
	}
}

// Clone returns a deep copy, used by Machine so that Response/Event
// payloads handed out to callers can't be mutated by a later Apply.
func (s *State) Clone() *State {
	out := NewState()
	for k, v := range s.Nodes {
		v.Labels = cloneMap(v.Labels)
		out.Nodes[k] = v
	}
	for k, v := range s.Projects {
		out.Projects[k] = v
	}
	for k, v := range s.Networks {
		v.DNSServers = append([]string(nil), v.DNSServers...)
		v.NTPServers = append([]string(nil), v.NTPServers...)
		out.Networks[k] = v
	}
	for k, v := range s.Nics {
		v.RoutedIPv4Prefixes = append([]string(nil), v.RoutedIPv4Prefixes...)
		v.RoutedIPv6Prefixes = append([]string(nil), v.RoutedIPv6Prefixes...)
		out.Nics[k] = v
	}
	for k, v := range s.VMs {
		v.Spec.NodeAffinity = cloneMap(v.Spec.NodeAffinity)
		out.VMs[k] = v
	}
	for k, v := range s.Volumes {
		v.Snapshots = append([]Snapshot(nil), v.Snapshots...)
		out.Volumes[k] = v
	}
	for k, v := range s.Templates {
		out.Templates[k] = v
	}
	for k, v := range s.ImportJobs {
		out.ImportJobs[k] = v
	}
	for k, v := range s.SecurityGroups {
		v.Rules = append([]SecurityGroupRule(nil), v.Rules...)
		out.SecurityGroups[k] = v
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
