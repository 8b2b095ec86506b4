package entity

import "time"

// KeyStatus is the lifecycle state of an LLM API KeyRecord.
type KeyStatus string

const (
	// KeyStatusUnknown is the initial state before a balance has ever been checked.
	KeyStatusUnknown KeyStatus = "unknown"
	// KeyStatusValid means the key was last observed with balance >= threshold.
	KeyStatusValid KeyStatus = "valid"
	// KeyStatusError means the last balance check failed transiently.
	KeyStatusError KeyStatus = "error"
	// KeyStatusDisabled is terminal: the key dropped below threshold and will
	// never be re-selected.
	KeyStatusDisabled KeyStatus = "disabled"
)

// KeyRecord tracks one LLM API credential's balance and health.
type KeyRecord struct {
	Key      string    `json:"key"`
	Balance  float64   `json:"balance"`
	LastUsed time.Time `json:"last_used"`
	Status   KeyStatus `json:"status"`
}

// Disable transitions the record to the terminal disabled state.
func (k *KeyRecord) Disable() {
	k.Status = KeyStatusDisabled
}

// Usable reports whether the key can still be selected as active.
func (k *KeyRecord) Usable() bool {
	return k.Status != KeyStatusDisabled
}
