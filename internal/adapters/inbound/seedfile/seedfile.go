// Package seedfile loads clusters and workloads from a YAML file and
// registers them with a store.
package seedfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

const bytesPerGiB = 1 << 30

var (
	ErrInvalidSeed     = errors.New("invalid seed")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrUnknownCluster  = errors.New("unknown cluster")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

type clusterEntry struct {
	ID   string  `koanf:"id"`
	Name string  `koanf:"name"`
	CPU  string  `koanf:"cpu"`
	RAM  string  `koanf:"ram"`
	GPU  float64 `koanf:"gpu"`
}

type workloadEntry struct {
	ID           string   `koanf:"id"`
	Name         string   `koanf:"name"`
	Cluster      string   `koanf:"cluster"`
	Image        string   `koanf:"image"`
	Status       string   `koanf:"status"`
	Priority     int      `koanf:"priority"`
	CPU          string   `koanf:"cpu"`
	RAM          string   `koanf:"ram"`
	GPU          float64  `koanf:"gpu"`
	Dependencies []string `koanf:"dependencies"`
}

type document struct {
	Clusters  []clusterEntry  `koanf:"clusters"`
	Workloads []workloadEntry `koanf:"workloads"`
}

// Seed is the validated content of a seed file.
type Seed struct {
	Clusters  []scheduler.Cluster
	Workloads []scheduler.Workload
}

// Load reads and validates the seed file at path.
func Load(path string) (*Seed, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load seed file %s: %w", path, err)
	}

	var doc document
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("unmarshal seed file %s: %w", path, err)
	}

	return convert(&doc)
}

func convert(doc *document) (*Seed, error) {
	seed := &Seed{
		Clusters:  make([]scheduler.Cluster, 0, len(doc.Clusters)),
		Workloads: make([]scheduler.Workload, 0, len(doc.Workloads)),
	}

	clusters := make(map[string]struct{}, len(doc.Clusters))

	for i, e := range doc.Clusters {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: clusters[%d]: empty id", ErrInvalidSeed, i)
		}

		if _, ok := clusters[e.ID]; ok {
			return nil, fmt.Errorf("%w: %w: cluster %s", ErrInvalidSeed, ErrDuplicateID, e.ID)
		}

		clusters[e.ID] = struct{}{}

		limit, err := toResources(e.CPU, e.RAM, e.GPU)
		if err != nil {
			return nil, fmt.Errorf("%w: cluster %s: %w", ErrInvalidSeed, e.ID, err)
		}

		pool, err := ledger.NewPool(limit)
		if err != nil {
			return nil, fmt.Errorf("%w: cluster %s: %w", ErrInvalidSeed, e.ID, err)
		}

		seed.Clusters = append(seed.Clusters, scheduler.Cluster{ID: e.ID, Name: e.Name, Pool: pool})
	}

	workloads := make(map[string]struct{}, len(doc.Workloads))

	for i, e := range doc.Workloads {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: workloads[%d]: empty id", ErrInvalidSeed, i)
		}

		if _, ok := workloads[e.ID]; ok {
			return nil, fmt.Errorf("%w: %w: workload %s", ErrInvalidSeed, ErrDuplicateID, e.ID)
		}

		workloads[e.ID] = struct{}{}

		if _, ok := clusters[e.Cluster]; !ok {
			return nil, fmt.Errorf("%w: %w: workload %s: %q", ErrInvalidSeed, ErrUnknownCluster, e.ID, e.Cluster)
		}

		status := scheduler.StatusPending
		if e.Status != "" {
			status = scheduler.Status(strings.ToLower(e.Status))
		}

		if !status.Valid() {
			return nil, fmt.Errorf("%w: workload %s: %w: %q", ErrInvalidSeed, e.ID, scheduler.ErrInvalidStatus, e.Status)
		}

		// a running workload would need a reservation the seeded pool never made
		if status == scheduler.StatusRunning {
			return nil, fmt.Errorf("%w: workload %s: %w", ErrInvalidSeed, e.ID, scheduler.ErrRegisterRunning)
		}

		required, err := toResources(e.CPU, e.RAM, e.GPU)
		if err != nil {
			return nil, fmt.Errorf("%w: workload %s: %w", ErrInvalidSeed, e.ID, err)
		}

		seed.Workloads = append(seed.Workloads, scheduler.Workload{
			ID:           e.ID,
			Name:         e.Name,
			ClusterID:    e.Cluster,
			Image:        e.Image,
			Status:       status,
			Priority:     e.Priority,
			Required:     required,
			Dependencies: e.Dependencies,
		})
	}

	return seed, nil
}

func toResources(cpu, ram string, gpu float64) (ledger.Resources, error) {
	cores, err := parseCPU(cpu)
	if err != nil {
		return ledger.Resources{}, err
	}

	gib, err := parseRAM(ram)
	if err != nil {
		return ledger.Resources{}, err
	}

	out := ledger.Resources{CPU: cores, RAM: gib, GPU: gpu}
	if err := out.Validate(); err != nil {
		return ledger.Resources{}, err
	}

	return out, nil
}

// parseCPU accepts cores ("2", "0.5") or a quantity ("500m").
func parseCPU(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}

	q, err := resource.ParseQuantity(s)
	if err != nil {
		return 0, fmt.Errorf("%w: cpu %q: %w", ErrInvalidQuantity, s, err)
	}

	return float64(q.MilliValue()) / 1000, nil
}

// parseRAM accepts GiB as a bare number ("32") or a quantity ("32Gi", "512Mi").
func parseRAM(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}

	if gib, err := strconv.ParseFloat(s, 64); err == nil {
		return gib, nil
	}

	q, err := resource.ParseQuantity(s)
	if err != nil {
		return 0, fmt.Errorf("%w: ram %q: %w", ErrInvalidQuantity, s, err)
	}

	return float64(q.Value()) / bytesPerGiB, nil
}

type registrar interface {
	RegisterClusterCommand(ctx context.Context, c scheduler.Cluster) (bool, error)
	RegisterWorkloadCommand(ctx context.Context, w scheduler.Workload) (bool, error)
}

// Summary counts what Apply wrote and what already existed.
type Summary struct {
	ClustersCreated  int
	ClustersKept     int
	WorkloadsCreated int
	WorkloadsKept    int
}

// Apply registers every cluster and then every workload of seed. Records
// that already exist are left untouched.
func Apply(ctx context.Context, logger *slog.Logger, store registrar, seed *Seed) (Summary, error) {
	var sum Summary

	for _, c := range seed.Clusters {
		created, err := store.RegisterClusterCommand(ctx, c)
		if err != nil {
			return sum, fmt.Errorf("seed cluster %s: %w", c.ID, err)
		}

		if created {
			sum.ClustersCreated++
		} else {
			sum.ClustersKept++
		}
	}

	for _, w := range seed.Workloads {
		created, err := store.RegisterWorkloadCommand(ctx, w)
		if err != nil {
			return sum, fmt.Errorf("seed workload %s: %w", w.ID, err)
		}

		if created {
			sum.WorkloadsCreated++
		} else {
			sum.WorkloadsKept++
		}
	}

	logger.InfoContext(ctx, "seed applied",
		"clustersCreated", sum.ClustersCreated,
		"clustersKept", sum.ClustersKept,
		"workloadsCreated", sum.WorkloadsCreated,
		"workloadsKept", sum.WorkloadsKept,
	)

	return sum, nil
}
