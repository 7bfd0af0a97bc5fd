package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// ImagePrimaryModel and ImageFallbackModel form the image chain in
	// fallback order.
	ImagePrimaryModel  = "black-forest-labs/FLUX.1-schnell"
	ImageFallbackModel = "stabilityai/stable-diffusion-xl-base-1.0"

	hfVideoModel = "damo-vilab/text-to-video-ms-1.7b"
)

// HFImage generates an image from a prompt on the Hugging Face inference
// API. Two instances with different models form the image fallback chain.
type HFImage struct {
	client *resty.Client
	model  string
}

func NewHFImage(baseURL, apiKey, model string, timeout time.Duration) *HFImage {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &HFImage{client: c, model: model}
}

type hfImageRequest struct {
	Inputs     string            `json:"inputs"`
	Parameters hfImageParameters `json:"parameters,omitempty"`
}

type hfImageParameters struct {
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Steps          int    `json:"num_inference_steps,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

// Generate returns the raw image bytes for the prompt.
func (h *HFImage) Generate(ctx context.Context, prompt string, opts ImageOptions) (GeneratedMedia, error) {
	started := time.Now()
	req := hfImageRequest{
		Inputs: prompt,
		Parameters: hfImageParameters{
			Width:          opts.Width,
			Height:         opts.Height,
			Steps:          opts.Steps,
			NegativePrompt: opts.NegativePrompt,
		},
	}
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(&req).
		Post("/models/" + h.model)
	if err != nil {
		return GeneratedMedia{}, fmt.Errorf("huggingface image request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return GeneratedMedia{}, fmt.Errorf("huggingface image status %d: %s",
			resp.StatusCode(), truncate(resp.String(), 200))
	}
	data := resp.Body()
	if len(data) == 0 {
		return GeneratedMedia{}, fmt.Errorf("huggingface returned an empty image")
	}
	return GeneratedMedia{
		Data:           data,
		Provider:       "huggingface",
		Model:          h.model,
		ProcessingTime: time.Since(started),
	}, nil
}

// HFVideo generates a short video clip from a prompt.
type HFVideo struct {
	client *resty.Client
	model  string
}

func NewHFVideo(baseURL, apiKey string, timeout time.Duration) *HFVideo {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &HFVideo{client: c, model: hfVideoModel}
}

func (h *HFVideo) Generate(ctx context.Context, prompt string) (GeneratedMedia, error) {
	started := time.Now()
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"inputs": prompt}).
		Post("/models/" + h.model)
	if err != nil {
		return GeneratedMedia{}, fmt.Errorf("huggingface video request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return GeneratedMedia{}, fmt.Errorf("huggingface video status %d: %s",
			resp.StatusCode(), truncate(resp.String(), 200))
	}
	data := resp.Body()
	if len(data) == 0 {
		return GeneratedMedia{}, fmt.Errorf("huggingface returned an empty video")
	}
	return GeneratedMedia{
		Data:           data,
		Provider:       "huggingface",
		Model:          h.model,
		ProcessingTime: time.Since(started),
	}, nil
}
