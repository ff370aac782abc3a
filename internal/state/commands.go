// Copyright 2026 mvirt authors.

package state

// Command is a tagged union of every mutation the state machine accepts.
// Exactly one of the typed fields is non-nil per Kind. This "struct of
// optional payload pointers" shape mirrors gopacket/layers' approach to
// representing a decoded-layer union and keeps encoding/gob's struct
// encoding deterministic (fixed field order, no interface values).
type CommandKind string

const (
	KindRegisterNode          CommandKind = "RegisterNode"
	KindUpdateNodeStatus      CommandKind = "UpdateNodeStatus"
	KindUpdateNodeLabels      CommandKind = "UpdateNodeLabels"
	KindDeregisterNode        CommandKind = "DeregisterNode"
	KindCreateProject         CommandKind = "CreateProject"
	KindDeleteProject         CommandKind = "DeleteProject"
	KindCreateNetwork         CommandKind = "CreateNetwork"
	KindUpdateNetwork         CommandKind = "UpdateNetwork"
	KindDeleteNetwork         CommandKind = "DeleteNetwork"
	KindCreateNic             CommandKind = "CreateNic"
	KindUpdateNic             CommandKind = "UpdateNic"
	KindDeleteNic             CommandKind = "DeleteNic"
	KindAttachNic             CommandKind = "AttachNic"
	KindDetachNic             CommandKind = "DetachNic"
	KindCreateVM              CommandKind = "CreateVM"
	KindUpdateVMSpec          CommandKind = "UpdateVMSpec"
	KindUpdateVMStatus        CommandKind = "UpdateVMStatus"
	KindDeleteVM              CommandKind = "DeleteVM"
	KindCreateVolume          CommandKind = "CreateVolume"
	KindResizeVolume          CommandKind = "ResizeVolume"
	KindCreateSnapshot        CommandKind = "CreateSnapshot"
	KindDeleteVolume          CommandKind = "DeleteVolume"
	KindCreateTemplate        CommandKind = "CreateTemplate"
	KindCreateImportJob       CommandKind = "CreateImportJob"
	KindUpdateImportJob       CommandKind = "UpdateImportJob"
	KindCreateSecurityGroup   CommandKind = "CreateSecurityGroup"
	KindDeleteSecurityGroup   CommandKind = "DeleteSecurityGroup"
	KindCreateSGRule          CommandKind = "CreateSecurityGroupRule"
	KindDeleteSGRule          CommandKind = "DeleteSecurityGroupRule"
)

// Command carries the discriminant, the idempotency key, the
// client-supplied timestamp (so Apply never touches the wall clock), and
// one payload struct selected by Kind.
type Command struct {
	Kind      CommandKind
	RequestID string
	Timestamp string

	RegisterNode        *RegisterNodeCmd
	UpdateNodeStatus    *UpdateNodeStatusCmd
	UpdateNodeLabels    *UpdateNodeLabelsCmd
	DeregisterNode      *DeregisterNodeCmd
	CreateProject       *CreateProjectCmd
	DeleteProject       *DeleteProjectCmd
	CreateNetwork       *CreateNetworkCmd
	UpdateNetwork       *UpdateNetworkCmd
	DeleteNetwork       *DeleteNetworkCmd
	CreateNic           *CreateNicCmd
	UpdateNic           *UpdateNicCmd
	DeleteNic           *DeleteNicCmd
	AttachNic           *AttachNicCmd
	DetachNic           *DetachNicCmd
	CreateVM            *CreateVMCmd
	UpdateVMSpec        *UpdateVMSpecCmd
	UpdateVMStatus      *UpdateVMStatusCmd
	DeleteVM            *DeleteVMCmd
	CreateVolume        *CreateVolumeCmd
	ResizeVolume        *ResizeVolumeCmd
	CreateSnapshot      *CreateSnapshotCmd
	DeleteVolume        *DeleteVolumeCmd
	CreateTemplate      *CreateTemplateCmd
	CreateImportJob     *CreateImportJobCmd
	UpdateImportJob     *UpdateImportJobCmd
	CreateSecurityGroup *CreateSecurityGroupCmd
	DeleteSecurityGroup *DeleteSecurityGroupCmd
	CreateSGRule        *CreateSGRuleCmd
	DeleteSGRule        *DeleteSGRuleCmd
}

type RegisterNodeCmd struct {
	ID        string
	Name      string
	Address   string
	Resources NodeResources
	Labels    map[string]string
}

type UpdateNodeStatusCmd struct {
	NodeID    string
	Status    NodeStatus
	Resources *NodeResources
}

type UpdateNodeLabelsCmd struct {
	NodeID string
	Labels map[string]string
}

type DeregisterNodeCmd struct {
	NodeID string
}

type CreateProjectCmd struct {
	ID          string
	Name        string
	Description string
}

type DeleteProjectCmd struct {
	ID string
}

type CreateNetworkCmd struct {
	ID          string
	ProjectID   string
	Name        string
	IPv4Enabled bool
	IPv4Prefix  string
	IPv6Enabled bool
	IPv6Prefix  string
	DNSServers  []string
	NTPServers  []string
	IsPublic    bool
}

type UpdateNetworkCmd struct {
	ID         string
	DNSServers []string
	NTPServers []string
}

type DeleteNetworkCmd struct {
	ID    string
	Force bool
}

type CreateNicCmd struct {
	ID                 string
	ProjectID          string
	NetworkID          string
	Name               string
	MACAddress         string
	IPv4Address        string
	IPv6Address        string
	RoutedIPv4Prefixes []string
	RoutedIPv6Prefixes []string
	SecurityGroupID    string
}

type UpdateNicCmd struct {
	ID                 string
	RoutedIPv4Prefixes []string
	RoutedIPv6Prefixes []string
}

type DeleteNicCmd struct {
	ID string
}

type AttachNicCmd struct {
	ID   string
	VMID string
}

type DetachNicCmd struct {
	ID string
}

type CreateVMCmd struct {
	ID   string
	Spec VMSpec
}

type UpdateVMSpecCmd struct {
	ID           string
	DesiredState string
}

type UpdateVMStatusCmd struct {
	ID     string
	Status VMStatus
}

type DeleteVMCmd struct {
	ID string
}

type CreateVolumeCmd struct {
	ID         string
	ProjectID  string
	NodeID     string
	Name       string
	SizeBytes  int64
	TemplateID string
}

type ResizeVolumeCmd struct {
	ID        string
	SizeBytes int64
}

type CreateSnapshotCmd struct {
	ID       string
	VolumeID string
	Name     string
}

type DeleteVolumeCmd struct {
	ID string
}

type CreateTemplateCmd struct {
	ID        string
	ProjectID string
	NodeID    string
	Name      string
	SizeBytes int64
}

type CreateImportJobCmd struct {
	ID           string
	ProjectID    string
	NodeID       string
	TemplateName string
	URL          string
	TotalBytes   int64
}

type UpdateImportJobCmd struct {
	ID           string
	BytesWritten int64
	State        ImportJobState
	Error        string
}

type CreateSecurityGroupCmd struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
}

type DeleteSecurityGroupCmd struct {
	ID string
}

type CreateSGRuleCmd struct {
	ID              string
	SecurityGroupID string
	Direction       SGDirection
	Protocol        SGProtocol
	PortRangeStart  int
	PortRangeEnd    int
	CIDR            string
	Description     string
}

type DeleteSGRuleCmd struct {
	SecurityGroupID string
	RuleID          string
}
