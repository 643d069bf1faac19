package domain

type Action string

const (
	ActionTurnOn    Action = "turn_on"
	ActionTurnOff   Action = "turn_off"
	ActionToggle    Action = "toggle"
	ActionGetStatus Action = "get_status"
	ActionUnknown   Action = "unknown"
)

// ParseAction maps CLI verbs onto actions.
func ParseAction(verb string) Action {
	switch verb {
	case "on", string(ActionTurnOn):
		return ActionTurnOn
	case "off", string(ActionTurnOff):
		return ActionTurnOff
	case string(ActionToggle):
		return ActionToggle
	case "status", string(ActionGetStatus):
		return ActionGetStatus
	default:
		return ActionUnknown
	}
}

type Command struct {
	Action     Action
	TargetName string
	TargetID   string
}
