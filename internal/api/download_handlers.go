package api

import (
	"context"
	"mime"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/http/response"
	"github.com/echoverse/echoverse-server/internal/service"
)

func (s *Server) registerDownloadRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listDownloads",
		Method:      http.MethodGet,
		Path:        "/api/v1/downloads",
		Summary:     "List downloads",
		Description: "Returns the caller's generated audio files, newest first",
		Tags:        []string{"Downloads"},
		Security:    bearerSecurity,
	}, s.handleListDownloads)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteDownload",
		Method:        http.MethodDelete,
		Path:          "/api/v1/downloads/{id}",
		Summary:       "Delete download",
		Description:   "Deletes the download record and its audio file",
		Tags:          []string{"Downloads"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusOK,
	}, s.handleDeleteDownload)

	// Binary body, served outside huma.
	s.router.Get("/api/v1/downloads/{id}/file", s.handleDownloadFile)
}

// ListDownloadsInput holds list parameters.
type ListDownloadsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum downloads to return"`
}

// DownloadListResponse lists downloads.
type DownloadListResponse struct {
	Downloads []*domain.Download `json:"downloads" doc:"Downloads, newest first"`
	Count     int                `json:"count" doc:"Number of downloads returned"`
}

// DownloadListOutput wraps the download list for Huma.
type DownloadListOutput struct {
	Body DownloadListResponse
}

// DownloadIDInput identifies one download.
type DownloadIDInput struct {
	ID string `path:"id" doc:"Download ID"`
}

func (s *Server) handleListDownloads(ctx context.Context, input *ListDownloadsInput) (*DownloadListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Downloads.List(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Download{}
	}
	return &DownloadListOutput{Body: DownloadListResponse{Downloads: items, Count: len(items)}}, nil
}

func (s *Server) handleDeleteDownload(ctx context.Context, input *DownloadIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Downloads.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Download deleted"}}, nil
}

// handleDownloadFile sends a download as an attachment and counts the fetch.
// GET /api/v1/downloads/{id}/file
func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	f, err := s.services.Downloads.Open(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer f.File.Close()

	s.serveAudio(w, r, f, "attachment")
}

// serveAudio writes an opened audio file with Range support.
func (s *Server) serveAudio(w http.ResponseWriter, r *http.Request, f *service.AudioFile, disposition string) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": f.Name}))
	w.Header().Set("Cache-Control", CacheOneDayPrivate)

	// ServeContent handles Range, If-Range and Last-Modified.
	http.ServeContent(w, r, f.Name, f.Info.ModTime(), f.File)
}
