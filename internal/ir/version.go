package ir

// Version constants for persisted snapshots and the engine.
const (
	// SnapshotVersion is the rules snapshot schema version. Snapshots carrying
	// any other version are discarded on load.
	SnapshotVersion = 1

	// EngineVersion is the metrics-rules engine version.
	EngineVersion = "0.1.0"

	// LibKey is the key hosts use to store the snapshot in a font's lib.
	LibKey = "com.typedev.spacing.metricsRules"
)
