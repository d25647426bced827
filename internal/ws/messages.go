package ws

import "github.com/THE3-EDU/web-the3meetup/internal/intake"

// inboundMessage is the union of everything a client may send: an
// identification ({"clientName": ...}) or an upload ({"type": "upload", ...}).
type inboundMessage struct {
	Type        string        `json:"type"`
	ClientName  string        `json:"clientName"`
	TextContent string        `json:"textContent"`
	Image       *intake.Image `json:"image"`
}

type connectedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type clientIdentifiedMessage struct {
	Type       string `json:"type"`
	ClientName string `json:"clientName"`
	IsTD       bool   `json:"isTD"`
	IsWeb      bool   `json:"isWeb"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type uploadSuccessMessage struct {
	Type string            `json:"type"`
	Data uploadSuccessData `json:"data"`
}

type uploadSuccessData struct {
	ID          int64   `json:"id"`
	ImageName   *string `json:"imageName"`
	TextContent string  `json:"textContent"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Status      string  `json:"status"`
	Message     string  `json:"message"`
}
