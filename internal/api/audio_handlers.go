package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/echoverse/echoverse-server/internal/http/response"
)

func (s *Server) registerAudioRoutes() {
	s.router.Get("/download-audio/{filename}", s.handleDownloadAudio)
}

// handleDownloadAudio serves a generated file by name for in-page playback.
// GET /download-audio/{filename}
func (s *Server) handleDownloadAudio(w http.ResponseWriter, r *http.Request) {
	// Routing may leave the parameter escaped.
	name, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil || name == "" {
		response.BadRequest(w, "File name is required", s.logger)
		return
	}

	f, err := s.services.Downloads.OpenAudio(name)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer f.File.Close()

	s.serveAudio(w, r, f, "inline")
}
