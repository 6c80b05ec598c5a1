package ir

// EngineVersion is the offsync engine version.
const EngineVersion = "0.1.0"
