package diag

// Severity orders diagnostics by importance. Higher values are worse, so
// severities compare directly.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
