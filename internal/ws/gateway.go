// Package ws runs the per-connection session protocol: admission into the
// registry, role classification, upload intake over the socket, and the
// one-time history replay for installation clients. Each connection's
// inbound stream is processed by its own goroutine; handling one connection
// never blocks another.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/THE3-EDU/web-the3meetup/internal/broadcast"
	"github.com/THE3-EDU/web-the3meetup/internal/domain"
	"github.com/THE3-EDU/web-the3meetup/internal/intake"
	"github.com/THE3-EDU/web-the3meetup/internal/metrics"
	"github.com/THE3-EDU/web-the3meetup/internal/moderation"
	"github.com/THE3-EDU/web-the3meetup/internal/registry"
)

const (
	// Base64-encoded images arrive inline, so the read limit matches the
	// 50MB body limit of the HTTP upload route.
	maxMessageSize = 50 << 20

	opTimeout = 10 * time.Second
)

type Gateway struct {
	registry   *registry.Registry
	intake     *intake.Service
	moderation *moderation.Service
	clock      clockwork.Clock
}

func NewGateway(reg *registry.Registry, intakeSvc *intake.Service, moderationSvc *moderation.Service, clock clockwork.Clock) *Gateway {
	return &Gateway{
		registry:   reg,
		intake:     intakeSvc,
		moderation: moderationSvc,
		clock:      clock,
	}
}

// HandleConnection owns conn until the peer disconnects. It admits the
// connection as unclassified, sends the welcome message and then pumps
// inbound messages. The registry entry is removed on exit.
func (g *Gateway) HandleConnection(conn *websocket.Conn, remoteAddr string) {
	conn.SetReadLimit(maxMessageSize)

	writer := registry.NewWriter(conn, g.clock)
	handle := g.registry.Admit(remoteAddr, writer)
	defer g.registry.Remove(handle)

	conn.SetPongHandler(func(string) error {
		g.registry.MarkAlive(handle)
		return nil
	})

	g.send(writer, connectedMessage{Type: "connection", Message: "success"})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Debug("Connection closed", "handle", handle.String(), "remote_addr", remoteAddr, "error", err)
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Discarding unparseable message", "handle", handle.String(), "bytes", len(data))
			continue
		}

		switch {
		case msg.Type == "upload":
			g.handleUpload(writer, handle, msg)
		case msg.ClientName != "":
			g.handleIdentify(writer, handle, msg.ClientName)
		}
	}
}

// handleIdentify runs the role classifier. Unknown names and repeated
// identifications get an error envelope but the connection stays open and
// usable; classification happens exactly once per connection.
func (g *Gateway) handleIdentify(writer *registry.Writer, handle uuid.UUID, clientName string) {
	role, err := domain.RoleFromClientName(clientName)
	if err != nil {
		metrics.ClassificationsTotal.WithLabelValues(clientName, "unknown").Inc()
		slog.Warn("Unknown client name", "handle", handle.String(), "client_name", clientName)
		g.send(writer, errorMessage{Type: "error", Error: "unknown clientName: " + clientName})
		return
	}

	if err := g.registry.SetRole(handle, role); err != nil {
		if errors.Is(err, domain.ErrAlreadyClassified) {
			metrics.ClassificationsTotal.WithLabelValues(clientName, "already_classified").Inc()
			g.send(writer, errorMessage{Type: "error", Error: "connection already identified"})
			return
		}
		slog.Warn("Failed to classify connection", "handle", handle.String(), "error", err)
		return
	}

	metrics.ClassificationsTotal.WithLabelValues(clientName, "ok").Inc()
	slog.Info("Client identified", "handle", handle.String(), "client_name", clientName)

	g.send(writer, clientIdentifiedMessage{
		Type:       "clientIdentified",
		ClientName: clientName,
		IsTD:       role == domain.RoleInstallation,
		IsWeb:      role == domain.RolePublic,
	})

	if role == domain.RoleInstallation {
		g.sendHistory(writer, handle)
	}
}

// sendHistory is the one-time replay of approved submissions to a freshly
// classified installation client. Point-to-point: other connections are
// unaffected.
func (g *Gateway) sendHistory(writer *registry.Writer, handle uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	subs, err := g.moderation.ListApproved(ctx)
	if err != nil {
		slog.Error("Failed to load history for installation client", "handle", handle.String(), "error", err)
		return
	}

	g.send(writer, broadcast.Envelope{Type: domain.EventUploadsData, Data: subs})
	metrics.HistoryReplaysTotal.Inc()
	slog.Info("History replay sent", "handle", handle.String(), "count", len(subs))
}

func (g *Gateway) handleUpload(writer *registry.Writer, handle uuid.UUID, msg inboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sub, err := g.intake.Submit(ctx, msg.TextContent, msg.Image)
	if err != nil {
		slog.Warn("Upload rejected", "handle", handle.String(), "error", err)
		g.send(writer, errorMessage{Type: "uploadError", Error: uploadErrorText(err)})
		return
	}

	var imageURL string
	if sub.ImageName != nil {
		imageURL = g.intake.ImageURL(*sub.ImageName)
	}

	g.send(writer, uploadSuccessMessage{
		Type: "uploadSuccess",
		Data: uploadSuccessData{
			ID:          sub.ID,
			ImageName:   sub.ImageName,
			TextContent: sub.TextContent,
			ImageURL:    imageURL,
			Status:      string(sub.Status),
			Message:     "upload accepted, awaiting review",
		},
	})
}

// uploadErrorText maps intake errors to user-facing messages without
// leaking internals.
func uploadErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyText):
		return "text content must not be empty"
	case errors.Is(err, domain.ErrTextTooLong):
		return "text content must not exceed 10 characters"
	case errors.Is(err, domain.ErrInvalidImageType):
		return "please upload a valid image file"
	case errors.Is(err, domain.ErrStorageFailure):
		return "image upload failed, please try again later"
	default:
		return "upload failed, please try again later"
	}
}

func (g *Gateway) send(writer *registry.Writer, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal outbound message", "error", err)
		return
	}
	if err := writer.Send(data); err != nil {
		slog.Debug("Point-to-point send failed", "error", err)
	}
}
