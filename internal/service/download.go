package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/echoverse/echoverse-server/internal/audio"
	"github.com/echoverse/echoverse-server/internal/domain"
	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/store"
)

// DownloadService serves stored audio files and their records.
type DownloadService struct {
	store   store.Store
	storage *media.Storage
	logger  *slog.Logger
}

// NewDownloadService creates a download service.
func NewDownloadService(store store.Store, storage *media.Storage, logger *slog.Logger) *DownloadService {
	return &DownloadService{store: store, storage: storage, logger: logger}
}

// AudioFile is an opened audio file. Callers must close File.
type AudioFile struct {
	File        *os.File
	Info        fs.FileInfo
	Name        string
	ContentType string
	Download    *domain.Download // nil for direct file access
}

// List returns the user's downloads with their history summary.
func (s *DownloadService) List(ctx context.Context, userID string, limit int) ([]*domain.Download, error) {
	items, err := s.store.ListDownloads(ctx, userID, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	return items, nil
}

// Open opens a download owned by the user and counts the fetch.
func (s *DownloadService) Open(ctx context.Context, userID, downloadID string) (*AudioFile, error) {
	d, err := s.owned(ctx, userID, downloadID)
	if err != nil {
		return nil, err
	}

	f, err := s.OpenAudio(d.Filename)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.store.RecordDownload(ctx, d.ID, now); err != nil {
		s.logger.Warn("failed to record download", "download_id", d.ID, "error", err)
	} else {
		d.MarkDownloaded(now)
	}

	f.Download = d
	if d.ContentType != "" {
		f.ContentType = d.ContentType
	}
	return f, nil
}

// OpenAudio opens a stored file by name.
func (s *DownloadService) OpenAudio(name string) (*AudioFile, error) {
	f, info, err := s.storage.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrInvalidName):
			return nil, domainerrors.Validation("invalid file name")
		case errors.Is(err, media.ErrNotFound):
			return nil, domainerrors.NotFound("Audio file not found")
		default:
			return nil, err
		}
	}
	return &AudioFile{
		File:        f,
		Info:        info,
		Name:        name,
		ContentType: audio.ContentTypeForFile(name),
	}, nil
}

// Delete removes a download record and its file.
func (s *DownloadService) Delete(ctx context.Context, userID, downloadID string) error {
	d, err := s.owned(ctx, userID, downloadID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDownload(ctx, d.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("download not found")
		}
		return fmt.Errorf("delete download: %w", err)
	}
	if err := s.storage.Delete(d.Filename); err != nil {
		s.logger.Warn("failed to delete audio file", "file", d.Filename, "download_id", d.ID, "error", err)
	}
	return nil
}

func (s *DownloadService) owned(ctx context.Context, userID, downloadID string) (*domain.Download, error) {
	d, err := s.store.GetDownload(ctx, downloadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("download not found")
		}
		return nil, fmt.Errorf("get download: %w", err)
	}
	if d.UserID != userID {
		return nil, domainerrors.NotFound("download not found")
	}
	return d, nil
}
