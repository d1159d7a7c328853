// Package kvcodec holds the JSON records and key layout shared by the
// key/value stores.
package kvcodec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

// DefaultPrefix is the root of every key written by the stores.
const DefaultPrefix = "/admission"

const (
	workloadsDir = "/workloads/"
	clustersDir  = "/clusters/"
)

// Keys builds store keys under one prefix.
type Keys struct {
	prefix string
}

func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return Keys{prefix: strings.TrimRight(prefix, "/")}
}

func (k Keys) Workload(id string) string {
	return k.prefix + workloadsDir + id
}

func (k Keys) Cluster(id string) string {
	return k.prefix + clustersDir + id
}

// Clusters is the key prefix of every cluster record.
func (k Keys) Clusters() string {
	return k.prefix + clustersDir
}

// ClusterIndex is the set of cluster IDs, for stores without prefix scans.
func (k Keys) ClusterIndex() string {
	return k.prefix + "/cluster-index"
}

type workloadRecord struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	ClusterID    string           `json:"clusterId"`
	Image        string           `json:"image,omitempty"`
	Status       string           `json:"status"`
	Priority     int              `json:"priority"`
	Required     ledger.Resources `json:"required"`
	Dependencies []string         `json:"dependencies,omitempty"`
}

type clusterRecord struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Limit     ledger.Resources `json:"limit"`
	Available ledger.Resources `json:"available"`
}

func EncodeWorkload(w *scheduler.Workload) ([]byte, error) {
	data, err := json.Marshal(workloadRecord{
		ID:           w.ID,
		Name:         w.Name,
		ClusterID:    w.ClusterID,
		Image:        w.Image,
		Status:       string(w.Status),
		Priority:     w.Priority,
		Required:     w.Required,
		Dependencies: w.Dependencies,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal workload %s: %w", w.ID, err)
	}

	return data, nil
}

func DecodeWorkload(data []byte) (*scheduler.Workload, error) {
	var rec workloadRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal workload: %w", err)
	}

	status := scheduler.Status(rec.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("workload %s: %w: %q", rec.ID, scheduler.ErrInvalidStatus, rec.Status)
	}

	return &scheduler.Workload{
		ID:           rec.ID,
		Name:         rec.Name,
		ClusterID:    rec.ClusterID,
		Image:        rec.Image,
		Status:       status,
		Priority:     rec.Priority,
		Required:     rec.Required,
		Dependencies: rec.Dependencies,
	}, nil
}

func EncodeCluster(c *scheduler.Cluster) ([]byte, error) {
	data, err := json.Marshal(clusterRecord{
		ID:        c.ID,
		Name:      c.Name,
		Limit:     c.Pool.Limit,
		Available: c.Pool.Available,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cluster %s: %w", c.ID, err)
	}

	return data, nil
}

func DecodeCluster(data []byte) (*scheduler.Cluster, error) {
	var rec clusterRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cluster: %w", err)
	}

	return &scheduler.Cluster{
		ID:   rec.ID,
		Name: rec.Name,
		Pool: ledger.Pool{Limit: rec.Limit, Available: rec.Available},
	}, nil
}
