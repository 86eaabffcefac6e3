package bria

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the Bria image engine. All calls are synchronous; the
// engine is asked for sync results and answers with one of the known
// response shapes.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// GenerateOptions tune text-to-image generation.
type GenerateOptions struct {
	NumResults  int     `json:"num_results,omitempty"`
	AspectRatio string  `json:"aspect_ratio,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
	Steps       int     `json:"steps_num,omitempty"`
	Guidance    float64 `json:"text_guidance_scale,omitempty"`
	Medium      string  `json:"medium,omitempty"`
	EnhanceIMG  bool    `json:"enhance_image,omitempty"`
}

// GenerateHDImage produces images from a text prompt.
func (c *Client) GenerateHDImage(ctx context.Context, prompt string, opts GenerateOptions) ([]string, error) {
	payload := map[string]interface{}{
		"prompt": prompt,
		"sync":   true,
	}
	if opts.NumResults > 0 {
		payload["num_results"] = opts.NumResults
	}
	if opts.AspectRatio != "" {
		payload["aspect_ratio"] = opts.AspectRatio
	}
	if opts.Seed != 0 {
		payload["seed"] = opts.Seed
	}
	if opts.Steps > 0 {
		payload["steps_num"] = opts.Steps
	}
	if opts.Guidance > 0 {
		payload["text_guidance_scale"] = opts.Guidance
	}
	if opts.Medium != "" {
		payload["medium"] = opts.Medium
	}
	if opts.EnhanceIMG {
		payload["enhance_image"] = true
	}
	return c.imageCall(ctx, "/text-to-image/hd/2.2", payload)
}

// CreatePackshot removes the background and places the product on a clean
// packshot background.
func (c *Client) CreatePackshot(ctx context.Context, imageURL, backgroundColor string, forceRemoveBackground bool) ([]string, error) {
	payload := map[string]interface{}{
		"image_url": imageURL,
		"sync":      true,
	}
	if backgroundColor != "" {
		payload["background_color"] = backgroundColor
	}
	if forceRemoveBackground {
		payload["force_rmbg"] = true
	}
	return c.imageCall(ctx, "/product/packshot", payload)
}

// ShadowOptions tune product shadow placement.
type ShadowOptions struct {
	Type            string `json:"type,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	Intensity       int    `json:"shadow_intensity,omitempty"`
	Blur            int    `json:"shadow_blur,omitempty"`
}

// AddShadow renders a product shadow under the subject.
func (c *Client) AddShadow(ctx context.Context, imageURL string, opts ShadowOptions) ([]string, error) {
	payload := map[string]interface{}{
		"image_url": imageURL,
		"sync":      true,
	}
	if opts.Type != "" {
		payload["type"] = opts.Type
	}
	if opts.BackgroundColor != "" {
		payload["background_color"] = opts.BackgroundColor
	}
	if opts.Intensity > 0 {
		payload["shadow_intensity"] = opts.Intensity
	}
	if opts.Blur > 0 {
		payload["shadow_blur"] = opts.Blur
	}
	return c.imageCall(ctx, "/product/shadow", payload)
}

// GenerativeFill redraws the masked region of an image from a prompt. The
// image and mask travel as base64 strings.
func (c *Client) GenerativeFill(ctx context.Context, imageBase64, maskBase64, prompt string) ([]string, error) {
	payload := map[string]interface{}{
		"file":      imageBase64,
		"mask_file": maskBase64,
		"prompt":    prompt,
		"sync":      true,
	}
	return c.imageCall(ctx, "/gen_fill", payload)
}

// EraseForeground removes the foreground subject and reconstructs the
// background behind it.
func (c *Client) EraseForeground(ctx context.Context, imageURL string) ([]string, error) {
	payload := map[string]interface{}{
		"image_url": imageURL,
		"sync":      true,
	}
	return c.imageCall(ctx, "/erase_foreground", payload)
}

// LifestyleOptions tune lifestyle shot placement.
type LifestyleOptions struct {
	Placement  string `json:"placement_type,omitempty"`
	NumResults int    `json:"num_results,omitempty"`
	ShotSize   []int  `json:"shot_size,omitempty"`
}

// LifestyleShotByText places the product in a scene described by text.
func (c *Client) LifestyleShotByText(ctx context.Context, imageURL, sceneDescription string, opts LifestyleOptions) ([]string, error) {
	payload := map[string]interface{}{
		"image_url":         imageURL,
		"scene_description": sceneDescription,
		"sync":              true,
	}
	if opts.Placement != "" {
		payload["placement_type"] = opts.Placement
	}
	if opts.NumResults > 0 {
		payload["num_results"] = opts.NumResults
	}
	if len(opts.ShotSize) == 2 {
		payload["shot_size"] = opts.ShotSize
	}
	return c.imageCall(ctx, "/product/lifestyle_shot_by_text", payload)
}

// LifestyleShotByImage places the product in a scene given as a reference
// image.
func (c *Client) LifestyleShotByImage(ctx context.Context, imageURL, referenceImageURL string, opts LifestyleOptions) ([]string, error) {
	payload := map[string]interface{}{
		"image_url":     imageURL,
		"ref_image_url": referenceImageURL,
		"sync":          true,
	}
	if opts.Placement != "" {
		payload["placement_type"] = opts.Placement
	}
	if opts.NumResults > 0 {
		payload["num_results"] = opts.NumResults
	}
	return c.imageCall(ctx, "/product/lifestyle_shot_by_image", payload)
}

// EnhancePrompt asks the engine for a richer version of a generation prompt.
func (c *Client) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	body, err := c.post(ctx, "/prompt_enhancer", map[string]interface{}{
		"prompt": prompt,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Result json.RawMessage `json:"prompt variations"`
		Plain  string          `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
	}

	if resp.Plain != "" {
		return resp.Plain, nil
	}
	if len(resp.Result) > 0 {
		var variations []struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(resp.Result, &variations); err == nil && len(variations) > 0 {
			return variations[0].Prompt, nil
		}
		var single string
		if err := json.Unmarshal(resp.Result, &single); err == nil && single != "" {
			return single, nil
		}
	}
	return "", ErrUnrecognizedResponse
}

// imageCall POSTs the payload and resolves the tagged response union to the
// produced image URLs.
func (c *Client) imageCall(ctx context.Context, endpoint string, payload map[string]interface{}) ([]string, error) {
	body, err := c.post(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var resp engineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
	}
	return resp.imageURLs()
}

func (c *Client) post(ctx context.Context, endpoint string, payload map[string]interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: %s %s", ErrServiceUnavailable, resp.Status, endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image engine returned %s for %s: %s", resp.Status, endpoint, body)
	}

	return body, nil
}
