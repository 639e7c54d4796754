package onvif

// Operation is the classified kind of a PTZ envelope. Everything the proxy
// doesn't model is OpPassThrough and travels byte-identical both ways.
type Operation uint8

const (
	OpPassThrough Operation = iota
	OpRelativeMove
	OpAbsoluteMove
	OpContinuousMove
	OpGotoPreset
	OpStop
	OpGetStatus
	OpGetConfigurationOptions
	OpGetServiceCapabilities
)

// Classify tags an envelope by its Body-child local name. It never fails:
// empty or unknown bodies are simply OpPassThrough, so operations added to
// ONVIF later keep flowing through the proxy untouched.
func Classify(e *Envelope) Operation {
	switch e.Action() {
	case "RelativeMove":
		return OpRelativeMove
	case "AbsoluteMove":
		return OpAbsoluteMove
	case "ContinuousMove":
		return OpContinuousMove
	case "GotoPreset":
		return OpGotoPreset
	case "Stop":
		return OpStop
	case "GetStatus":
		return OpGetStatus
	case "GetConfigurationOptions":
		return OpGetConfigurationOptions
	case "GetServiceCapabilities":
		return OpGetServiceCapabilities
	}
	return OpPassThrough
}

func (op Operation) String() string {
	switch op {
	case OpRelativeMove:
		return "RelativeMove"
	case OpAbsoluteMove:
		return "AbsoluteMove"
	case OpContinuousMove:
		return "ContinuousMove"
	case OpGotoPreset:
		return "GotoPreset"
	case OpStop:
		return "Stop"
	case OpGetStatus:
		return "GetStatus"
	case OpGetConfigurationOptions:
		return "GetConfigurationOptions"
	case OpGetServiceCapabilities:
		return "GetServiceCapabilities"
	}
	return "PassThrough"
}
