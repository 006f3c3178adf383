package ir

// Version constants for the content model and engine.
const (
	// SchemaVersion is the persisted character document schema version.
	SchemaVersion = "1"

	// EngineVersion is the storylet engine version.
	EngineVersion = "0.1.0"
)
