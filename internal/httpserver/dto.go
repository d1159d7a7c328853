package httpserver

import (
	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

type errorResponse struct {
	Error string `json:"error"`
}

type admissionResponse struct {
	WorkloadID string `json:"workloadId"`
	Status     string `json:"status"`
}

type completionRequest struct {
	Status string `json:"status"`
}

type completionResponse struct {
	Workload workloadResponse `json:"workload"`
	Pool     ledger.Pool      `json:"pool"`
	Capped   bool             `json:"capped"`
}

type workloadResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	ClusterID    string           `json:"clusterId"`
	Image        string           `json:"image,omitempty"`
	Status       string           `json:"status"`
	Priority     int              `json:"priority"`
	Required     ledger.Resources `json:"required"`
	Dependencies []string         `json:"dependencies,omitempty"`
}

type clusterResponse struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Pool ledger.Pool `json:"pool"`
}

func toWorkloadResponse(w *scheduler.Workload) workloadResponse {
	return workloadResponse{
		ID:           w.ID,
		Name:         w.Name,
		ClusterID:    w.ClusterID,
		Image:        w.Image,
		Status:       string(w.Status),
		Priority:     w.Priority,
		Required:     w.Required,
		Dependencies: w.Dependencies,
	}
}
