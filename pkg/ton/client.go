package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultAPIURL = "https://toncenter.com/api/v2"

// Client reads incoming transfers of a wallet through the toncenter HTTP
// API. Payments are matched by the transfer comment.
type Client struct {
	apiURL     string
	apiKey     string
	wallet     string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey, wallet string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		wallet:     wallet,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Wallet() string {
	return c.wallet
}

func (c *Client) IsConfigured() bool {
	return c.wallet != ""
}

type Transfer struct {
	// Amount in nanotons.
	Amount  int64
	Comment string
	Hash    string
}

type transactionsResponse struct {
	Ok     bool `json:"ok"`
	Result []struct {
		TransactionID struct {
			Hash string `json:"hash"`
		} `json:"transaction_id"`
		InMsg struct {
			Value   string `json:"value"`
			Message string `json:"message"`
		} `json:"in_msg"`
	} `json:"result"`
}

// GetIncomingTransfers returns the latest incoming transfers of the
// configured wallet, newest first.
func (c *Client) GetIncomingTransfers(ctx context.Context, limit int) ([]Transfer, error) {
	q := url.Values{}
	q.Set("address", c.wallet)
	q.Set("limit", fmt.Sprintf("%d", limit))
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+"/getTransactions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	var parsed transactionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	if !parsed.Ok {
		return nil, fmt.Errorf("toncenter api error")
	}

	transfers := make([]Transfer, 0, len(parsed.Result))
	for _, tx := range parsed.Result {
		if tx.InMsg.Value == "" || tx.InMsg.Value == "0" {
			continue
		}
		var amount int64
		if _, err := fmt.Sscanf(tx.InMsg.Value, "%d", &amount); err != nil {
			continue
		}
		transfers = append(transfers, Transfer{
			Amount:  amount,
			Comment: tx.InMsg.Message,
			Hash:    tx.TransactionID.Hash,
		})
	}

	return transfers, nil
}
