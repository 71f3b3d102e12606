package tbank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	APIURL     = "https://securepay.tinkoff.ru/v2"
	TestAPIURL = "https://rest-api-test.tinkoff.ru/v2"
)

// Payment statuses the notification webhook delivers.
const (
	StatusConfirmed = "CONFIRMED"
	StatusRejected  = "REJECTED"
	StatusRefunded  = "REFUNDED"
)

type Client struct {
	terminalKey string
	password    string
	testMode    bool
	httpClient  *http.Client
}

func NewClient(terminalKey, password string, testMode bool) *Client {
	return &Client{
		terminalKey: terminalKey,
		password:    password,
		testMode:    testMode,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) apiURL() string {
	if c.testMode {
		return TestAPIURL
	}
	return APIURL
}

func (c *Client) IsConfigured() bool {
	return c.terminalKey != "" && c.password != ""
}

func (c *Client) Password() string {
	return c.password
}

type initRequest struct {
	TerminalKey string `json:"TerminalKey"`
	Amount      int64  `json:"Amount"`
	OrderID     string `json:"OrderId"`
	Description string `json:"Description"`
	PayType     string `json:"PayType,omitempty"`
	Token       string `json:"Token"`
}

type InitResponse struct {
	Success    bool   `json:"Success"`
	ErrorCode  string `json:"ErrorCode"`
	Message    string `json:"Message"`
	Status     string `json:"Status"`
	PaymentID  string `json:"PaymentId"`
	PaymentURL string `json:"PaymentURL"`
}

type Notification struct {
	TerminalKey string `json:"TerminalKey"`
	OrderID     string `json:"OrderId"`
	Success     bool   `json:"Success"`
	Status      string `json:"Status"`
	PaymentID   int64  `json:"PaymentId"`
	ErrorCode   string `json:"ErrorCode"`
	Amount      int64  `json:"Amount"`
	Token       string `json:"Token"`
}

// PayTypeSBP selects the SBP QR flow on Init; the QR payload is then
// fetched with GetQR.
const PayTypeSBP = "O"

// Init registers a payment with the terminal. Amount is in kopecks. An
// empty payType leaves the terminal's default card flow.
func (c *Client) Init(ctx context.Context, orderID string, amount int64, description, payType string) (*InitResponse, error) {
	params := map[string]string{
		"TerminalKey": c.terminalKey,
		"Amount":      fmt.Sprintf("%d", amount),
		"OrderId":     orderID,
		"Description": description,
	}
	if payType != "" {
		params["PayType"] = payType
	}

	req := initRequest{
		TerminalKey: c.terminalKey,
		Amount:      amount,
		OrderID:     orderID,
		Description: description,
		PayType:     payType,
		Token:       GenerateToken(params, c.password),
	}

	var resp InitResponse
	if err := c.post(ctx, "/Init", req, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("tbank error: %s - %s", resp.ErrorCode, resp.Message)
	}

	return &resp, nil
}

type getQRRequest struct {
	TerminalKey string `json:"TerminalKey"`
	PaymentID   string `json:"PaymentId"`
	DataType    string `json:"DataType"`
	Token       string `json:"Token"`
}

type GetQRResponse struct {
	Success   bool   `json:"Success"`
	ErrorCode string `json:"ErrorCode"`
	Message   string `json:"Message"`
	Data      string `json:"Data"`
}

// GetQR fetches the SBP payment link for an initialized payment.
func (c *Client) GetQR(ctx context.Context, paymentID string) (string, error) {
	params := map[string]string{
		"TerminalKey": c.terminalKey,
		"PaymentId":   paymentID,
		"DataType":    "PAYLOAD",
	}

	req := getQRRequest{
		TerminalKey: c.terminalKey,
		PaymentID:   paymentID,
		DataType:    "PAYLOAD",
		Token:       GenerateToken(params, c.password),
	}

	var resp GetQRResponse
	if err := c.post(ctx, "/GetQr", req, &resp); err != nil {
		return "", err
	}

	if !resp.Success {
		return "", fmt.Errorf("tbank error: %s - %s", resp.ErrorCode, resp.Message)
	}

	return resp.Data, nil
}

type getStateRequest struct {
	TerminalKey string `json:"TerminalKey"`
	PaymentID   string `json:"PaymentId"`
	Token       string `json:"Token"`
}

type GetStateResponse struct {
	Success   bool   `json:"Success"`
	ErrorCode string `json:"ErrorCode"`
	Message   string `json:"Message"`
	Status    string `json:"Status"`
	PaymentID string `json:"PaymentId"`
}

func (c *Client) GetState(ctx context.Context, paymentID string) (*GetStateResponse, error) {
	params := map[string]string{
		"TerminalKey": c.terminalKey,
		"PaymentId":   paymentID,
	}

	req := getStateRequest{
		TerminalKey: c.terminalKey,
		PaymentID:   paymentID,
		Token:       GenerateToken(params, c.password),
	}

	var resp GetStateResponse
	if err := c.post(ctx, "/GetState", req, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("tbank error: %s - %s", resp.ErrorCode, resp.Message)
	}

	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if len(respBody) == 0 {
		return fmt.Errorf("empty response from tbank api")
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error parsing response: %w (body: %s)", err, string(respBody))
	}

	return nil
}
