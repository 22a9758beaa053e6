package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// ApiClient talks to the cafe assistant API. The cookie jar keeps the
// conversation's session across calls.
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
}

// ChatReply is one assistant reply
type ChatReply struct {
	Reply        string `json:"reply"`
	RequireLogin bool   `json:"require_login"`
	OrderID      uint   `json:"order_id"`
}

// MenuEntry is one active menu item
type MenuEntry struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Price        string  `json:"price"`
	CategoryName *string `json:"category_name"`
}

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status code: %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// NewApiClient creates a client for baseURL, falling back to CAFE_API_URL
// and then localhost.
func NewApiClient(baseURL string) *ApiClient {
	if baseURL == "" {
		baseURL = os.Getenv("CAFE_API_URL")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	// cookiejar.New only fails when given a PublicSuffixList
	jar, _ := cookiejar.New(nil)
	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
			Jar:     jar,
		},
		BaseURL: baseURL,
		Token:   os.Getenv("CAFE_TOKEN"),
	}
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}

	return true, nil
}

// Chat sends one message in the current conversation
func (c *ApiClient) Chat(message string) (*ChatReply, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, err
	}

	var reply ChatReply
	if err := c.do(http.MethodPost, "/api/v1/assistant/chat", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Reset starts the conversation over
func (c *ApiClient) Reset() error {
	return c.do(http.MethodPost, "/api/v1/assistant/session", nil, nil)
}

// GetMenu returns the active menu
func (c *ApiClient) GetMenu() ([]MenuEntry, error) {
	var menu []MenuEntry
	if err := c.do(http.MethodGet, "/api/v1/menu", nil, &menu); err != nil {
		return nil, err
	}
	return menu, nil
}

// GetOrderStatus returns the status of a placed order
func (c *ApiClient) GetOrderStatus(id uint) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/status", id), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *ApiClient) do(method, path string, body []byte, out interface{}) error {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
