package server

import (
	"encoding/json"
	"net/http"

	"github.com/hyperjump/qsim/internal/models"
	"github.com/hyperjump/qsim/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var query models.RankQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(s.config.Ranking.TopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("rank request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	report, err := s.ranker.Run(r.Context(), query.Query, query.TopK)
	if err != nil {
		s.logger.Error("rank failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"folders": s.folders.Folders(),
		"config": map[string]interface{}{
			"embedding_provider":   s.config.Embedding.Provider,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"top_k":                s.config.Ranking.TopK,
			"dedup_key":            s.config.Ranking.DedupKey,
			"concurrency":          s.config.Ranking.Concurrency,
			"cache_path":           s.config.Storage.CachePath,
		},
	}
	if s.storage != nil {
		ctx := r.Context()
		count, err := s.storage.CountEmbeddings(ctx)
		if err != nil {
			s.logger.Error("status: count embeddings failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["cached_embeddings"] = count
		if byModel, err := s.storage.CountByModel(ctx); err == nil {
			resp["cached_by_model"] = byModel
		}
		if diskBytes, err := storage.DatabaseDiskUsage(s.config.Storage.CachePath); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
