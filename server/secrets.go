package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caretone/intake-core/core/config"
	"github.com/caretone/intake-core/core/prompt"
	"github.com/caretone/intake-core/core/tools"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// secretsClient mints ephemeral realtime credentials so the browser
// never sees the main API key. The minted session carries the generic
// prompt; the sideband attach re-configures it with patient context.
type secretsClient struct {
	cfg    config.Config
	client *http.Client
}

func newSecretsClient(cfg config.Config) *secretsClient {
	return &secretsClient{
		cfg: cfg,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   15 * time.Second,
		},
	}
}

type clientSecretRequest struct {
	Session clientSecretSession `json:"session"`
}

type clientSecretSession struct {
	Type         string             `json:"type"`
	Model        string             `json:"model"`
	Instructions string             `json:"instructions"`
	Tools        []tools.Definition `json:"tools"`
	Audio        clientSecretAudio  `json:"audio"`
}

type clientSecretAudio struct {
	Input  clientSecretAudioInput `json:"input"`
	Output clientSecretVoice      `json:"output"`
}

// Input transcription is not accepted when minting a credential; it is
// installed later over the sideband session update.
type clientSecretAudioInput struct {
	TurnDetection clientSecretTurnDetection `json:"turn_detection"`
}

type clientSecretTurnDetection struct {
	Type              string `json:"type"`
	Eagerness         string `json:"eagerness"`
	CreateResponse    bool   `json:"create_response"`
	InterruptResponse bool   `json:"interrupt_response"`
}

type clientSecretVoice struct {
	Voice string `json:"voice"`
}

func (c *secretsClient) mint(r *http.Request) (string, error) {
	payload := clientSecretRequest{
		Session: clientSecretSession{
			Type:         "realtime",
			Model:        c.cfg.Model,
			Instructions: prompt.Instructions(""),
			Tools:        tools.Definitions(),
			Audio: clientSecretAudio{
				Input: clientSecretAudioInput{
					TurnDetection: clientSecretTurnDetection{
						Type:              "semantic_vad",
						Eagerness:         "high",
						CreateResponse:    true,
						InterruptResponse: true,
					},
				},
				Output: clientSecretVoice{Voice: c.cfg.Voice},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode session config: %w", err)
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, c.cfg.ClientSecretsURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach credentials endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("credentials endpoint returned %d: %s", resp.StatusCode, detail)
	}

	var minted struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&minted); err != nil {
		return "", fmt.Errorf("failed to decode credentials response: %w", err)
	}
	if minted.Value == "" {
		return "", fmt.Errorf("credentials response carried no key")
	}
	return minted.Value, nil
}

func (s *Server) handleEphemeralKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.secrets.mint(r)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to mint ephemeral key", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate ephemeral key")
		return
	}
	logger.InfoContext(r.Context(), "minted ephemeral key")
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}
