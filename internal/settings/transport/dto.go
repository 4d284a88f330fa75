// Package transport defines request and response DTOs for the settings module.
package transport

// UpsertSettingRequest is the payload for creating or updating a setting.
type UpsertSettingRequest struct {
	Key         string  `json:"key" validate:"required,max=100"`
	Value       string  `json:"value" validate:"required,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}
