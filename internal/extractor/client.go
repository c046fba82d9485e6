// Package extractor talks to the inference sidecar that runs the face models.
// The pipeline treats both models as black boxes: landmarks in canonical mesh
// order and a fixed-length embedding vector.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/face-sentry/internal/landmarks"
)

const defaultBaseURL = "http://localhost:8000"

// Client computes landmarks and embeddings using the inference sidecar.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a sidecar client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// landmarksResponse represents the response from the landmark endpoint.
type landmarksResponse struct {
	FaceFound bool `json:"face_found"`
	Points    []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"points"`
}

// embeddingResponse represents the response from the embedding endpoint.
type embeddingResponse struct {
	FaceFound bool      `json:"face_found"`
	Embedding []float32 `json:"embedding"`
	Dim       int       `json:"dim"`
	Model     string    `json:"model"`
}

// Landmarks extracts the canonical landmark mesh from a frame. Returns
// (nil, nil) when the sidecar finds no face; a face-free frame is not an error.
func (c *Client) Landmarks(ctx context.Context, frame []byte) (landmarks.Face, error) {
	body, err := c.postMultipartImage(ctx, "/landmarks", frame)
	if err != nil {
		return nil, err
	}

	var resp landmarksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse landmarks response: %w", err)
	}
	if !resp.FaceFound {
		return nil, nil
	}

	face := make(landmarks.Face, len(resp.Points))
	for i, p := range resp.Points {
		face[i] = landmarks.Point{X: p.X, Y: p.Y, Z: p.Z}
	}
	return face, nil
}

// Embedding extracts the face embedding from a frame. Returns (nil, nil) when
// the sidecar finds no face; the embedding detector may miss a face the
// landmark extractor found, and vice versa.
func (c *Client) Embedding(ctx context.Context, frame []byte) ([]float32, error) {
	body, err := c.postMultipartImage(ctx, "/embedding", frame)
	if err != nil {
		return nil, err
	}

	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if !resp.FaceFound || len(resp.Embedding) == 0 {
		return nil, nil
	}
	return resp.Embedding, nil
}

// Health checks whether the sidecar is reachable and its models are loaded.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sidecar unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// postMultipartImage constructs a multipart form with the frame data and posts
// it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, frame []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to write frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
