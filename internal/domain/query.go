package domain

import (
	"time"

	"gorm.io/datatypes"
)

// QueryMeta describes how an answer was produced.
type QueryMeta struct {
	Model        string `json:"model"`
	Orchestrator string `json:"orchestrator"`
	LatencyMS    int64  `json:"latency_ms"`
}

type Query struct {
	ID        uint64                        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint64                        `json:"userId" gorm:"not null;index"`
	User      *User                         `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Question  string                        `json:"question" gorm:"type:text;not null"`
	Answer    *string                       `json:"answer" gorm:"type:text"`
	Meta      datatypes.JSONType[QueryMeta] `json:"meta"`
	CreatedAt time.Time                     `json:"createdAt" gorm:"autoCreateTime;index"`
}
