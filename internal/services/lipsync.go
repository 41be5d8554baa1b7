package services

// LipSyncRequest describes one lip synchronization run.
type LipSyncRequest struct {
	Video   string
	Audio   string
	Output  string
	Quality string
}
