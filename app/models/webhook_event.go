package models

import "time"

// WebhookEvent stores every inbound gateway notification with deduplication
// metadata so redelivered events are acknowledged without reprocessing.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	DedupeKey       string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_dedupe" json:"dedupe_key"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	Payload         string     `gorm:"type:longtext;not null" json:"payload"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
