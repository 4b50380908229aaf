package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type placeHoldRequest struct {
	AccountNumber string `json:"account_number"`
	Amount        int64  `json:"amount"`
}

type placeHoldResponse struct {
	HoldReference string `json:"hold_reference"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) PlaceHold(ctx context.Context, accountNumber string, amount int64) (HoldReference, error) {
	var resp placeHoldResponse
	err := c.do(ctx, http.MethodPost, "/holds", placeHoldRequest{
		AccountNumber: accountNumber,
		Amount:        amount,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.HoldReference == "" {
		return "", &Error{Code: CodeUnknown, Cause: errors.New("empty hold reference")}
	}

	c.logger.Debug("hold placed", "hold_reference", resp.HoldReference, "amount", amount)
	return HoldReference(resp.HoldReference), nil
}

func (c *Client) WithdrawFunds(ctx context.Context, hold HoldReference) (*Receipt, error) {
	var receipt Receipt
	path := fmt.Sprintf("/holds/%s/withdraw", url.PathEscape(string(hold)))
	if err := c.do(ctx, http.MethodPost, path, nil, &receipt); err != nil {
		return nil, err
	}

	c.logger.Debug("funds withdrawn", "hold_reference", hold, "receipt_id", receipt.ID)
	return &receipt, nil
}

func (c *Client) ReleaseHold(ctx context.Context, hold HoldReference) error {
	path := fmt.Sprintf("/holds/%s/release", url.PathEscape(string(hold)))
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return err
	}

	c.logger.Debug("hold released", "hold_reference", hold)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("accounts service unreachable", "method", method, "path", path, "error", err)
		return &Error{Code: CodeServiceUnavailable, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeUnknown, StatusCode: resp.StatusCode, Cause: fmt.Errorf("response read error: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Code: CodeUnknown, StatusCode: resp.StatusCode, Cause: fmt.Errorf("response unmarshal error: %w", err)}
	}
	return nil
}

func decodeError(statusCode int, body []byte) *Error {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &Error{Code: payload.Error, StatusCode: statusCode}
	}

	code := CodeUnknown
	if statusCode == http.StatusServiceUnavailable || statusCode == http.StatusBadGateway || statusCode == http.StatusGatewayTimeout {
		code = CodeServiceUnavailable
	}
	return &Error{Code: code, StatusCode: statusCode, Cause: fmt.Errorf("HTTP %d: %s", statusCode, string(body))}
}
