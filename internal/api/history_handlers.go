package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/service"
)

func (s *Server) registerHistoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/history",
		Summary:     "List history",
		Description: "Returns the caller's rewrite and narration history, newest first",
		Tags:        []string{"History"},
		Security:    bearerSecurity,
	}, s.handleListHistory)

	// Registered before /{id} so "search" is not taken for an ID.
	huma.Register(s.api, huma.Operation{
		OperationID: "searchHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/search",
		Summary:     "Search history",
		Description: "Full-text search over the caller's original and rewritten texts",
		Tags:        []string{"History"},
		Security:    bearerSecurity,
	}, s.handleSearchHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/{id}",
		Summary:     "Get history record",
		Tags:        []string{"History"},
		Security:    bearerSecurity,
	}, s.handleGetHistory)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteHistory",
		Method:        http.MethodDelete,
		Path:          "/api/v1/history/{id}",
		Summary:       "Delete history record",
		Description:   "Deletes the record together with its downloads and audio files",
		Tags:          []string{"History"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusOK,
	}, s.handleDeleteHistory)
}

// === DTOs ===

// ListHistoryInput holds list parameters.
type ListHistoryInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum records to return"`
}

// HistoryListResponse lists history records.
type HistoryListResponse struct {
	History []*domain.History `json:"history" doc:"History records, newest first"`
	Count   int               `json:"count" doc:"Number of records returned"`
}

// HistoryListOutput wraps the history list for Huma.
type HistoryListOutput struct {
	Body HistoryListResponse
}

// HistoryIDInput identifies one history record.
type HistoryIDInput struct {
	ID string `path:"id" doc:"History record ID"`
}

// HistoryOutput wraps one record for Huma.
type HistoryOutput struct {
	Body *domain.History
}

// SearchHistoryInput holds search parameters.
type SearchHistoryInput struct {
	Query string `query:"q" doc:"Search text"`
	Tone  string `query:"tone" doc:"Only records with this tone"`
	Limit int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Maximum hits to return"`
}

// SearchHistoryOutput wraps search results for Huma.
type SearchHistoryOutput struct {
	Body *service.SearchResponse
}

// === Handlers ===

func (s *Server) handleListHistory(ctx context.Context, input *ListHistoryInput) (*HistoryListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.services.History.List(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.History{}
	}
	return &HistoryListOutput{Body: HistoryListResponse{History: items, Count: len(items)}}, nil
}

func (s *Server) handleGetHistory(ctx context.Context, input *HistoryIDInput) (*HistoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	h, err := s.services.History.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &HistoryOutput{Body: h}, nil
}

func (s *Server) handleDeleteHistory(ctx context.Context, input *HistoryIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.History.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "History record deleted"}}, nil
}

func (s *Server) handleSearchHistory(ctx context.Context, input *SearchHistoryInput) (*SearchHistoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.History.Search(ctx, userID, input.Query, input.Tone, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchHistoryOutput{Body: resp}, nil
}
