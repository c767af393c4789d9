package state

// Version constants for the exchange format and engine.
const (
	// FormatVersion is the export/import record version.
	FormatVersion = 1

	// EngineVersion is the vellum engine version.
	EngineVersion = "0.1.0"
)
