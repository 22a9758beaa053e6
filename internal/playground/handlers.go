package playground

import (
	"encoding/json"

	"cafeassist/internal/assistant"

	"go.uber.org/zap"
)

const (
	frameReset         = "reset"
	unavailableMessage = "AI assistant is unavailable right now. Please try again."
)

// ClientFrame is what the client sends: a chat message, or {"type":"reset"}
type ClientFrame struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResetFrame acknowledges a reset
type ResetFrame struct {
	Type  string `json:"type"`
	Reply string `json:"reply"`
}

// ErrorFrame reports a frame that could not be handled
type ErrorFrame struct {
	Error string `json:"error"`
}

// handleFrame runs one client frame against the connection's conversation
func (c *ChatConnection) handleFrame(data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.sendJSON(ErrorFrame{Error: "Invalid JSON body."})
		return
	}

	if frame.Type == frameReset {
		c.state = assistant.NewState()
		c.sendJSON(ResetFrame{Type: frameReset, Reply: "Conversation reset. What would you like to order?"})
		return
	}

	message, err := assistant.ValidateMessage(frame.Message)
	if err != nil {
		c.sendJSON(ErrorFrame{Error: "Missing 'message'."})
		return
	}

	reply, next, err := c.server.engine.Handle(c.ctx, c.state, c.actor, message)
	if err != nil {
		c.logger.Error("assistant turn failed", zap.Error(err))
		c.sendJSON(ErrorFrame{Error: unavailableMessage})
		return
	}
	c.state = next
	c.sendJSON(reply)
}

func (c *ChatConnection) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("encode frame", zap.Error(err))
		return
	}
	c.queue(data)
}
