package models

// IngestQueue is sent to the retry queue for objects whose collection record
// could not be written, and received by ingestRetry.
type IngestQueue struct {
	Region string   `json:"region"`
	Vault  string   `json:"vault"`
	Keys   []string `json:"keys"`
}
