package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

type IntentClassifier struct {
	client *Client
}

func NewIntentClassifier(client *Client) *IntentClassifier {
	return &IntentClassifier{client: client}
}

func (c *IntentClassifier) ClassifyIntent(ctx context.Context, text string) (domain.Intent, error) {
	raw, err := c.client.completeJSON(ctx, c.client.textModel, []chatMessage{
		systemMessage(intentPrompt),
		userMessage(text),
	}, "classify_intent")
	if err != nil {
		return domain.Intent{}, err
	}

	var payload struct {
		MotorcycleLoanIntent bool    `json:"motorcycle_loan_intent"`
		Confidence           float64 `json:"confidence"`
		Rationale            string  `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.Intent{}, fmt.Errorf("parse intent json: %w", err)
	}
	return domain.Intent{
		MotorcycleLoanIntent: payload.MotorcycleLoanIntent,
		Confidence:           clamp01(payload.Confidence),
		Rationale:            payload.Rationale,
	}, nil
}

type MotorcycleChecker struct {
	client *Client
}

func NewMotorcycleChecker(client *Client) *MotorcycleChecker {
	return &MotorcycleChecker{client: client}
}

func (c *MotorcycleChecker) CheckMotorcycle(ctx context.Context, imagePath string) (domain.MotorcycleCheck, error) {
	dataURL, err := imageFileToDataURL(imagePath)
	if err != nil {
		return domain.MotorcycleCheck{}, fmt.Errorf("load bike image: %w", err)
	}

	raw, err := c.client.completeJSON(ctx, c.client.visionModel, []chatMessage{
		userImageMessage(motorcycleCheckPrompt, dataURL),
	}, "check_motorcycle")
	if err != nil {
		return domain.MotorcycleCheck{}, err
	}

	var payload struct {
		IsMotorcycle bool    `json:"is_motorcycle"`
		Confidence   float64 `json:"confidence"`
		Rationale    string  `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.MotorcycleCheck{}, fmt.Errorf("parse motorcycle check json: %w", err)
	}
	return domain.MotorcycleCheck{
		IsMotorcycle: payload.IsMotorcycle,
		Confidence:   clamp01(payload.Confidence),
		Rationale:    payload.Rationale,
	}, nil
}

type BikeAppraiser struct {
	client *Client
}

func NewBikeAppraiser(client *Client) *BikeAppraiser {
	return &BikeAppraiser{client: client}
}

func (c *BikeAppraiser) AppraiseBike(ctx context.Context, imagePath string) (domain.Appraisal, error) {
	dataURL, err := imageFileToDataURL(imagePath)
	if err != nil {
		return domain.Appraisal{}, fmt.Errorf("load bike image: %w", err)
	}

	raw, err := c.client.completeJSON(ctx, c.client.visionModel, []chatMessage{
		userImageMessage(appraisalPrompt, dataURL),
	}, "appraise_bike")
	if err != nil {
		return domain.Appraisal{}, err
	}

	var payload struct {
		AppraisedValueTHB float64 `json:"appraised_value_thb"`
		Confidence        float64 `json:"confidence"`
		Notes             string  `json:"notes"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.Appraisal{}, fmt.Errorf("parse appraisal json: %w", err)
	}
	if payload.AppraisedValueTHB < 0 || math.IsNaN(payload.AppraisedValueTHB) {
		return domain.Appraisal{}, fmt.Errorf("appraisal value out of range: %v", payload.AppraisedValueTHB)
	}
	return domain.Appraisal{
		ValueTHB:   int(payload.AppraisedValueTHB),
		Confidence: clamp01(payload.Confidence),
		Notes:      payload.Notes,
	}, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
