package api

import (
	"wavemark/app/interfaces"
)

// AnnotationEntry is one stored annotation record for a recording. The
// backend may hold several entries per recording (historical saves,
// imports); the editor loads the latest one.
type AnnotationEntry struct {
	ID            int                      `json:"id"`
	RecordingID   int                      `json:"recording_id"`
	UserID        int                      `json:"user_id,omitempty"`
	CreatedAt     string                   `json:"created_at,omitempty"`
	UpdatedAt     string                   `json:"updated_at,omitempty"`
	BoundingBoxes []interfaces.BoundingBox `json:"bounding_boxes"`
}

// SaveAnnotationsRequest is the persistence payload for one recording.
type SaveAnnotationsRequest struct {
	RecordingID   int                      `json:"recording_id"`
	BoundingBoxes []interfaces.BoundingBox `json:"bounding_boxes"`
}

// ErrorResponse is the backend's error envelope.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RefreshRequest asks for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse carries the refreshed token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
