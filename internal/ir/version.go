package ir

// Version constants for journal records and the engine.
const (
	// IRVersion is the journal schema version.
	IRVersion = "1"

	// EngineVersion is the spread engine version.
	EngineVersion = "0.1.0"
)
