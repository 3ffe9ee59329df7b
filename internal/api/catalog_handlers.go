package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/echoverse/echoverse-server/internal/narration"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listVoices",
		Method:      http.MethodGet,
		Path:        "/api/v1/voices",
		Summary:     "List voices",
		Description: "Returns the voice pool in assignment order. The first voice narrates.",
		Tags:        []string{"Catalog"},
	}, s.handleListVoices)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTones",
		Method:      http.MethodGet,
		Path:        "/api/v1/tones",
		Summary:     "List tones",
		Description: "Returns the tones accepted by rewrite and synthesis",
		Tags:        []string{"Catalog"},
	}, s.handleListTones)
}

// VoicesResponse lists the available voices.
type VoicesResponse struct {
	Voices []narration.VoiceInfo `json:"voices" doc:"Voices in pool order"`
}

// VoicesOutput wraps the voice list for Huma.
type VoicesOutput struct {
	Body VoicesResponse
}

// TonesResponse lists the available tones.
type TonesResponse struct {
	Tones []narration.ToneInfo `json:"tones" doc:"Supported tones"`
}

// TonesOutput wraps the tone list for Huma.
type TonesOutput struct {
	Body TonesResponse
}

func (s *Server) handleListVoices(_ context.Context, _ *struct{}) (*VoicesOutput, error) {
	return &VoicesOutput{Body: VoicesResponse{Voices: narration.Voices()}}, nil
}

func (s *Server) handleListTones(_ context.Context, _ *struct{}) (*TonesOutput, error) {
	return &TonesOutput{Body: TonesResponse{Tones: narration.Tones()}}, nil
}
