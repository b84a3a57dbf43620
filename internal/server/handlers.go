package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"codequiz/internal/export"
	"codequiz/internal/filesync"
	"codequiz/internal/models"
	"codequiz/internal/services"
)

const maxBodyBytes = 16 << 20

func attach(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

// handleLive serves the snapshot bootstrap fetches. It is never cached.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := export.LiveSnapshot(data, s.store.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Content-Type", export.JSONContentType)
	_, _ = w.Write(out)
}

func (s *Server) handleBootstrapStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bootstrap)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := export.FullBackup(data, s.store.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attach(w, export.BackupFileName, export.JSONContentType, out)
}

func (s *Server) handleUsersJSON(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetAllUserStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := export.UsersReport(stats)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attach(w, export.UsersJSONName, export.JSONContentType, out)
}

func (s *Server) handleUsersCSV(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetAllUserStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := export.UsersCSV(stats)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attach(w, export.UsersCSVName, export.CSVContentType, out)
}

func (s *Server) handleResultsCSV(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.GetResults(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	users, err := s.store.GetUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := export.ResultsCSV(results, users)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attach(w, export.ResultsCSVName, export.CSVContentType, out)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return nil, false
	}
	return body, true
}

func (s *Server) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	opts := services.ImportOptions{
		Subject:    r.URL.Query().Get("subject"),
		Difficulty: models.Difficulty(r.URL.Query().Get("difficulty")),
	}
	added, err := s.store.ImportQuestions(r.Context(), body, opts)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var invalid validator.ValidationErrors
		if errors.Is(err, services.ErrImportNotArray) || errors.As(err, &syntaxErr) || errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(added)})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := s.store.RestoreBackup(r.Context(), body); err != nil {
		if errors.Is(err, services.ErrInvalidSnapshot) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.files.Status())
}

func (s *Server) handleSyncConnect(w http.ResponseWriter, r *http.Request) {
	s.syncResult(w, r, s.files.Connect(r.Context(), r.URL.Query().Get("name")))
}

func (s *Server) handleSyncLoad(w http.ResponseWriter, r *http.Request) {
	s.syncResult(w, r, s.files.Load(r.Context(), r.URL.Query().Get("name")))
}

func (s *Server) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	s.syncResult(w, r, s.files.SyncNow(r.Context()))
}

func (s *Server) handleSyncDisconnect(w http.ResponseWriter, r *http.Request) {
	s.files.Disconnect()
	s.syncResult(w, r, nil)
}

func (s *Server) handleSyncDownload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", export.JSONContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.SyncFileName))
	if err := s.files.Download(r.Context(), w); err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handleSyncUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	s.syncResult(w, r, s.files.LoadUploaded(r.Context(), r.Body))
}

// syncResult maps adapter errors onto status codes and otherwise answers
// with the current sync status.
func (s *Server) syncResult(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, s.files.Status())
	case errors.Is(err, filesync.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, filesync.ErrNotConnected), errors.Is(err, filesync.ErrSyncInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, filesync.ErrCancelled), errors.Is(err, filesync.ErrInvalidFile):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.fail(w, r, err)
	}
}
