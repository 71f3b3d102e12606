package model

import "time"

type PhotoPack struct {
	ID             string
	Title          string
	Slug           string
	Gender         string
	PreviewURL     string
	SortOrder      int
	IsActive       bool
	OwnerPartnerID *int64
	CreatedAt      time.Time
	Prompts        []PackPrompt
}

type PackPrompt struct {
	ID             string
	PackID         string
	PromptText     string
	NegativePrompt string
	StyleTags      []string
	SortOrder      int
}
