package server

import (
	"encoding/json"
	"net/http"
	"phishdetect/pkg/history"
	"strings"
)

type predictRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages,omitempty"`
}

type historyResponse struct {
	Records []history.Record `json:"records"`
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be JSON like {\"url\": \"...\"}"})
		return
	}

	rawURL := strings.TrimSpace(req.URL)
	res, err := s.checker.Check(r.Context(), rawURL)
	if err != nil {
		s.logger.Error("prediction failed", "url", rawURL, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:    "Error: " + err.Error(),
			Messages: []string{MsgUnexpected},
		})
		return
	}

	// Invalid URLs are a verdict, not a failure, but the caller still
	// sent something unusable.
	status := http.StatusOK
	if !res.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	records := s.records()
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Records: records})
}
