package ir

// Version constants for the wire format and engine.
const (
	// WireVersion is the version of the change/choice broadcast format.
	WireVersion = "1"

	// EngineVersion is the beyond engine version.
	EngineVersion = "0.3.0"
)
