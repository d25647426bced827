package domain

// Event types sent to clients. The envelope on the wire is
// {"type": <EventType>, "data": <payload>}.
const (
	EventNewUpload    = "newUpload"
	EventDeleteUpload = "deleteUpload"
	EventNewPending   = "newPending"
	EventUploadsData  = "uploadsData"
)

// UploadEvent is the trimmed submission payload broadcast to display
// audiences. Moderation metadata is deliberately stripped.
type UploadEvent struct {
	ID          int64   `json:"id"`
	ImageName   *string `json:"image_name"`
	TextContent string  `json:"text_content"`
}

// NewUploadEvent builds the display payload for a submission.
func NewUploadEvent(s *Submission) UploadEvent {
	return UploadEvent{
		ID:          s.ID,
		ImageName:   s.ImageName,
		TextContent: s.TextContent,
	}
}

// DeleteEvent is broadcast when a submission is removed.
type DeleteEvent struct {
	ID int64 `json:"id"`
}

// Publisher fans an event out to every live connection whose role matches
// the audience predicate. Delivery is best effort and per recipient; a
// failed send never aborts the publishing operation. Implemented by
// broadcast.Router.
type Publisher interface {
	Publish(eventType string, data any, audience func(Role) bool)
}
