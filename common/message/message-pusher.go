package message

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/hamming-ci/common/config"
)

type request struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Channel     string `json:"channel"`
	Token       string `json:"token"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// SendMessage sends a message to the message pusher service.
func SendMessage(ctx context.Context, cfg *config.Config, title, description, content, url string) error {
	if cfg.MessagePusherAddress == "" {
		return errors.New("message pusher address is not set")
	}
	req := request{
		Title:       title,
		Description: description,
		Content:     content,
		URL:         url,
		Token:       cfg.MessagePusherToken,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		cfg.MessagePusherAddress, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var res response
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return errors.Wrap(err, "decode response")
	}

	if !res.Success {
		return errors.New(res.Message)
	}

	return nil
}
