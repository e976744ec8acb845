package usermode

// Result reports how the store handled a notification
type Result int

const (
	// Applied means the notification was interpreted and the store updated
	Applied Result = iota
	// SkippedMissingFields means a required channel, nick or mode was empty
	SkippedMissingFields
	// SkippedUnknownOperation means a mode change did not start with '+' or '-'
	SkippedUnknownOperation
	// SkippedNoModes means nothing in the notification translated to a mode letter
	SkippedNoModes
	// SkippedNoData means the connection has no tracked state to act on
	SkippedNoData
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case SkippedMissingFields:
		return "missing_fields"
	case SkippedUnknownOperation:
		return "unknown_operation"
	case SkippedNoModes:
		return "no_modes"
	case SkippedNoData:
		return "no_data"
	}
	return "unknown"
}
