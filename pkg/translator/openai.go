// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 4096

	// DefaultSystemPrompt is the Java-to-PHP instruction; overridable via
	// configuration so model and prompt stay settings, not constants.
	DefaultSystemPrompt = "You are a source code translator. Translate the Java source file " +
		"provided by the user into PHP. Respond with only the translated PHP code, " +
		"no explanations and no code fences."
)

// 🚫 ErrNoChoices is returned when the endpoint answers successfully but the
// response carries zero translation candidates.
var ErrNoChoices = errors.New("no translation candidates returned")

// 🌐 StatusError reports a non-success HTTP status from the endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// 💥 RemoteError is an application-level error reported by the endpoint in
// an otherwise well-formed response.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error: %s", e.Message)
}

// 🔧 Options configures the OpenAI-compatible client.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	HTTPClient   *http.Client // shared, not owned
}

// 🤖 OpenAIClient talks to a chat-completions endpoint, one request per
// file. It is stateless across calls and safe for concurrent use.
type OpenAIClient struct {
	opts Options
}

// 🏭 NewOpenAIClient creates a client, filling in defaults for anything not
// set in opts.
func NewOpenAIClient(opts Options) *OpenAIClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &OpenAIClient{opts: opts}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// 🔄 Translate sends content to the endpoint and returns the first
// candidate. Each failure mode is a distinguishable error: transport
// failures are wrapped, non-2xx statuses become *StatusError, error
// payloads become *RemoteError, and an empty candidate list is ErrNoChoices.
func (c *OpenAIClient) Translate(ctx context.Context, content string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.opts.SystemPrompt},
			{Role: "user", Content: content},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", errors.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return "", errors.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Errorf("decoding response: %w", err)
	}
	if parsed.Error != nil {
		return "", &RemoteError{Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return "", ErrNoChoices
	}

	zerolog.Ctx(ctx).Debug().
		Str("model", c.opts.Model).
		Int("bytes", len(parsed.Choices[0].Message.Content)).
		Msg("translation received")

	return parsed.Choices[0].Message.Content, nil
}
