package provider

import "context"

type Provider interface {
	Generate(context.Context, Request) (*Response, error)
}

// GenerationConfig carries the sampling settings for a request. Backends
// ignore settings they do not support.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
}

type Request struct {
	// Model names the backend model; empty selects the backend default.
	Model             string
	SystemInstruction string
	Prompt            string
	Config            GenerationConfig
}

// Candidate is one completion returned by the model.
type Candidate struct {
	Parts        []string
	FinishReason string
}

type Response struct {
	Candidates []Candidate
}
