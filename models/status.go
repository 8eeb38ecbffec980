package models

// ReportStatus is the workflow position of a report. Values are exchanged
// with clients exactly as written here.
type ReportStatus string

const (
	StatusSubmitted    ReportStatus = "submitted"
	StatusAcknowledged ReportStatus = "acknowledged"
	StatusAssigned     ReportStatus = "assigned"
	StatusInProgress   ReportStatus = "in_progress"
	StatusResolved     ReportStatus = "resolved"
	StatusRejected     ReportStatus = "rejected"
	StatusClosed       ReportStatus = "closed"
)

// ColorCategory is the semantic color a surface uses to render a status.
type ColorCategory string

const (
	ColorInfo    ColorCategory = "info"
	ColorWarning ColorCategory = "warning"
	ColorSuccess ColorCategory = "success"
	ColorError   ColorCategory = "error"
	ColorDefault ColorCategory = "default"
)

var colorPalette = map[ColorCategory][2]string{
	ColorInfo:    {"#2196F3", "#E3F2FD"},
	ColorWarning: {"#FF9800", "#FFF3E0"},
	ColorSuccess: {"#4CAF50", "#E8F5E8"},
	ColorError:   {"#F44336", "#FFEBEE"},
	ColorDefault: {"#757575", "#F5F5F5"},
}

// Hex is the foreground color used by surfaces that need a concrete color.
func (c ColorCategory) Hex() string {
	if p, ok := colorPalette[c]; ok {
		return p[0]
	}
	return colorPalette[ColorDefault][0]
}

// BgHex is the matching background color.
func (c ColorCategory) BgHex() string {
	if p, ok := colorPalette[c]; ok {
		return p[1]
	}
	return colorPalette[ColorDefault][1]
}

// StatusInfo is the display metadata registered for a status.
type StatusInfo struct {
	Label       string        `json:"label"`
	Color       ColorCategory `json:"color"`
	Description string        `json:"description"`
}

// StatusOption is one entry of a status select.
type StatusOption struct {
	Value ReportStatus  `json:"value"`
	Label string        `json:"label"`
	Color ColorCategory `json:"color"`
}

const unknownStatusDescription = "Unknown status"

// statusOrder is the registry insertion order; selects rely on it to show
// statuses in workflow order.
var statusOrder = []ReportStatus{
	StatusSubmitted,
	StatusAcknowledged,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusRejected,
	StatusClosed,
}

var statusRegistry = map[ReportStatus]StatusInfo{
	StatusSubmitted: {
		Label:       "Submitted",
		Color:       ColorInfo,
		Description: "Report has been submitted and is waiting for acknowledgment",
	},
	StatusAcknowledged: {
		Label:       "Acknowledged",
		Color:       ColorInfo,
		Description: "Report has been acknowledged by the administration",
	},
	StatusAssigned: {
		Label:       "Assigned",
		Color:       ColorWarning,
		Description: "Report has been assigned to a staff member",
	},
	StatusInProgress: {
		Label:       "In Progress",
		Color:       ColorWarning,
		Description: "Work is in progress on this report",
	},
	StatusResolved: {
		Label:       "Resolved",
		Color:       ColorSuccess,
		Description: "Report has been resolved successfully",
	},
	StatusRejected: {
		Label:       "Rejected",
		Color:       ColorError,
		Description: "Report has been rejected",
	},
	StatusClosed: {
		Label:       "Closed",
		Color:       ColorDefault,
		Description: "Report has been closed",
	},
}

var (
	pendingStatuses   = []ReportStatus{StatusSubmitted, StatusAcknowledged, StatusAssigned, StatusInProgress}
	completedStatuses = []ReportStatus{StatusResolved, StatusRejected, StatusClosed}
)

// AllStatuses returns every canonical status in registry order.
func AllStatuses() []ReportStatus {
	out := make([]ReportStatus, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// ParseStatus returns the canonical status for s. Matching is exact.
func ParseStatus(s string) (ReportStatus, bool) {
	st := ReportStatus(s)
	_, ok := statusRegistry[st]
	return st, ok
}

// IsValid reports whether s is one of the seven canonical statuses.
func (s ReportStatus) IsValid() bool {
	_, ok := statusRegistry[s]
	return ok
}

// LookupStatus returns the registered metadata for status. Keys the registry
// does not know render as their raw value with the default color.
func LookupStatus(status string) StatusInfo {
	if info, ok := statusRegistry[ReportStatus(status)]; ok {
		return info
	}
	return StatusInfo{
		Label:       status,
		Color:       ColorDefault,
		Description: unknownStatusDescription,
	}
}

func StatusLabel(status string) string {
	return LookupStatus(status).Label
}

func StatusColor(status string) ColorCategory {
	return LookupStatus(status).Color
}

func StatusDescription(status string) string {
	return LookupStatus(status).Description
}

// StatusOptions lists every status for selects, in registry order.
func StatusOptions() []StatusOption {
	opts := make([]StatusOption, 0, len(statusOrder))
	for _, s := range statusOrder {
		info := statusRegistry[s]
		opts = append(opts, StatusOption{Value: s, Label: info.Label, Color: info.Color})
	}
	return opts
}

// IsPendingStatus reports whether status still needs work.
func IsPendingStatus(status string) bool {
	return containsStatus(pendingStatuses, ReportStatus(status))
}

// IsCompletedStatus reports whether work on status has ended.
func IsCompletedStatus(status string) bool {
	return containsStatus(completedStatuses, ReportStatus(status))
}

// PendingStatuses returns the pending bucket, for store queries.
func PendingStatuses() []ReportStatus {
	return append([]ReportStatus(nil), pendingStatuses...)
}

// CompletedStatuses returns the completed bucket, for store queries.
func CompletedStatuses() []ReportStatus {
	return append([]ReportStatus(nil), completedStatuses...)
}

func containsStatus(set []ReportStatus, s ReportStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
