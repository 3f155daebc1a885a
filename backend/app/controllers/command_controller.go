package controllers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/dto"
	"fleet-relay/backend/app/middleware"
	"fleet-relay/backend/app/services"
	"fleet-relay/backend/global"
)

type CommandController struct {
	Commands *services.CommandService
	// Timeout bounds the storage work of one claim, on top of any wait.
	Timeout time.Duration
}

func NewCommandController(commands *services.CommandService, timeout time.Duration) *CommandController {
	return &CommandController{Commands: commands, Timeout: timeout}
}

// Send queues a command for a device.
// POST /api/command/send
func (c *CommandController) Send(w http.ResponseWriter, r *http.Request) {
	var req dto.SendCommandRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := c.Commands.Enqueue(r.Context(), req.DeviceID, req.CommandType, req.CommandData)
	if err != nil {
		writeError(w, err)
		return
	}
	operator := "-"
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		operator = claims.Username
	}
	global.Logger.Info().Uint("command_id", id).Str("device", req.DeviceID).Str("type", req.CommandType).Str("operator", operator).Msg("command queued")
	writeJSON(w, http.StatusCreated, dto.SendCommandResponse{Status: dto.StatusSuccess, Message: "Command queued.", CommandID: id})
}

// Claim hands every pending command of the device to the caller and marks
// them sent. Despite being a GET it mutates the queue. An optional wait
// parameter ("25s" or seconds) turns it into a long-poll.
// GET /api/device/{deviceId}/commands
func (c *CommandController) Claim(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")
	wait, err := parseWait(r.URL.Query().Get("wait"))
	if err != nil {
		writeError(w, err)
		return
	}
	if limit := c.Commands.MaxWait(); limit > 0 && wait > limit {
		wait = limit
	}
	ctx := r.Context()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait+c.Timeout)
		defer cancel()
	}
	cmds, err := c.Commands.ClaimPendingWait(ctx, deviceID, wait)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommandResponses(cmds))
}

// Execute records a completion report.
// POST /api/command/{commandId}/execute
func (c *CommandController) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "commandId")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := c.Commands.MarkExecuted(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, fmt.Sprintf("Command %d marked as executed.", id))
}

// Queue lists a device's commands without claiming them.
// GET /api/device/{deviceId}/queue?status=pending|sent|executed
func (c *CommandController) Queue(w http.ResponseWriter, r *http.Request) {
	cmds, err := c.Commands.ListQueue(r.Context(), r.PathValue("deviceId"), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommandResponses(cmds))
}

func parseWait(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 || n > math.MaxInt64/int64(time.Second) {
			return 0, apperr.Validation("invalid wait %q", raw)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, apperr.Validation("invalid wait %q", raw)
	}
	return d, nil
}

func toCommandResponses(cmds []services.ClaimedCommand) []dto.CommandResponse {
	out := make([]dto.CommandResponse, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, dto.CommandResponse{
			ID:          c.ID,
			DeviceID:    c.DeviceID,
			CommandType: c.CommandType,
			CommandData: c.Payload,
			Status:      string(c.Status),
			CreatedAt:   c.CreatedAt,
		})
	}
	return out
}
