// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/nlpd/internal/log"
)

func TestWrite(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/annotate?text=x", nil)
	req = req.WithContext(log.ContextWithRequestID(req.Context(), "rid-42"))
	rr := httptest.NewRecorder()
	rr.Header().Set("Content-Type", "application/json")

	Write(rr, req, http.StatusGatewayTimeout, CodePipelineTimeout, "pipeline did not finish within 60s")

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.Equal(t, ContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, "rid-42", rr.Header().Get(HeaderRequestID))

	var d Details
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, Details{
		Type:      "nlpd/pipeline_timeout",
		Title:     "Gateway Timeout",
		Status:    http.StatusGatewayTimeout,
		Code:      CodePipelineTimeout,
		Detail:    "pipeline did not finish within 60s",
		Instance:  "/annotate",
		RequestID: "rid-42",
	}, d)
}

func TestWriteFallsBackToResponseHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Header().Set(HeaderRequestID, "from-header")

	Write(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusInternalServerError, CodeInternal, "")

	var d Details
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, "from-header", d.RequestID)
	assert.Empty(t, d.Detail)
}
