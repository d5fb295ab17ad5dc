package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RefdataHandler reports and restarts reference data synchronization.
type RefdataHandler struct {
	svc TradeService
}

// NewRefdataHandler creates a RefdataHandler.
func NewRefdataHandler(svc TradeService) *RefdataHandler {
	return &RefdataHandler{svc: svc}
}

// RefdataStatusOutput is the response for GET /api/v1/refdata/status.
type RefdataStatusOutput struct {
	Body struct {
		State          string `json:"state" enum:"idle,fetching,ready,failed" doc:"Synchronizer state"`
		Ready          bool   `json:"ready"`
		Busy           bool   `json:"busy" doc:"A sync batch is in flight"`
		Leagues        int    `json:"leagues" doc:"Number of known leagues"`
		SelectedLeague string `json:"selected_league,omitempty"`
	}
}

// Status returns the synchronizer state.
func (h *RefdataHandler) Status(_ context.Context, _ *struct{}) (*RefdataStatusOutput, error) {
	st := h.svc.Status()

	resp := &RefdataStatusOutput{}
	resp.Body.State = st.State
	resp.Body.Ready = st.Ready
	resp.Body.Busy = st.Busy
	resp.Body.Leagues = st.Leagues
	resp.Body.SelectedLeague = st.SelectedLeague
	return resp, nil
}

// SyncOutput is the response for POST /api/v1/refdata/sync.
type SyncOutput struct {
	Body StatusResponse
}

// Sync discards the reference data and starts a fresh sync in the background.
func (h *RefdataHandler) Sync(_ context.Context, _ *struct{}) (*SyncOutput, error) {
	if err := h.svc.Resync(); err != nil {
		return nil, apiError(err)
	}
	return &SyncOutput{Body: StatusResponse{Status: "sync started"}}, nil
}

// RegisterRefdataRoutes registers reference data endpoints with the Huma API.
func RegisterRefdataRoutes(api huma.API, h *RefdataHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-refdata-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/refdata/status",
		Summary:     "Get reference data status",
		Tags:        []string{"refdata"},
	}, h.Status)

	huma.Register(api, huma.Operation{
		OperationID:   "resync-refdata",
		Method:        http.MethodPost,
		Path:          "/api/v1/refdata/sync",
		Summary:       "Resynchronize reference data",
		Description:   "Clears the reference data and fetches every collection again.",
		Tags:          []string{"refdata"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusServiceUnavailable},
	}, h.Sync)
}
