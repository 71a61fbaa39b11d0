package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/snaplist/internal/shared"
)

const defaultVisionBaseURL = "https://vision.googleapis.com/v1"

// VisionService implements [TextDetector] with the Cloud Vision images:annotate endpoint.
type VisionService struct {
	api *googleAPI
}

// NewVisionService creates a Vision client authenticated by apiKey.
func NewVisionService(apiKey string, opts ...Option) *VisionService {
	return &VisionService{api: newGoogleAPI("vision", defaultVisionBaseURL, apiKey, opts...)}
}

type annotateRequest struct {
	Requests []annotateImageRequest `json:"requests"`
}

type annotateImageRequest struct {
	Image struct {
		Content string `json:"content"`
	} `json:"image"`
	Features []struct {
		Type string `json:"type"`
	} `json:"features"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// DetectText runs TEXT_DETECTION on image and returns the first (block-level) annotation.
func (v *VisionService) DetectText(ctx context.Context, image []byte) (*OCRResult, error) {
	if len(image) == 0 {
		return nil, shared.ErrNoImage
	}

	var req annotateImageRequest
	req.Image.Content = base64.StdEncoding.EncodeToString(image)
	req.Features = append(req.Features, struct {
		Type string `json:"type"`
	}{Type: "TEXT_DETECTION"})

	var resp annotateResponse
	body := annotateRequest{Requests: []annotateImageRequest{req}}
	if err := v.api.do(ctx, nil, http.MethodPost, "/images:annotate", nil, body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Responses) == 0 {
		return nil, shared.ErrNoTextFound
	}

	first := resp.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("%w: vision error %d: %s", shared.ErrAPIRequest, first.Error.Code, first.Error.Message)
	}
	if len(first.TextAnnotations) == 0 || strings.TrimSpace(first.TextAnnotations[0].Description) == "" {
		return nil, shared.ErrNoTextFound
	}

	return &OCRResult{FullText: first.TextAnnotations[0].Description}, nil
}
