package k8s

import (
	"context"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
)

// Capacity is what a Kubernetes cluster can offer to the scheduler.
type Capacity struct {
	Resources ledger.Resources
	Nodes     int
	Skipped   int
}

type Adapter struct {
	logger    *slog.Logger
	clientset kubernetes.Interface
}

// New creates a new K8s capacity adapter.
func New(
	logger *slog.Logger,
	clientset kubernetes.Interface,
) *Adapter {
	return &Adapter{
		logger:    logger.With("component", "k8s-capacity"),
		clientset: clientset,
	}
}

// CapacityQuery sums the allocatable resources of every ready, schedulable
// node matching labelSelector.
func (a *Adapter) CapacityQuery(
	ctx context.Context,
	labelSelector string,
) (*Capacity, error) {
	nodeList, err := a.clientset.CoreV1().Nodes().List(
		ctx,
		metav1.ListOptions{
			LabelSelector: labelSelector,
		},
	)
	if err != nil {
		switch {
		case apierrors.IsTooManyRequests(err):
			return nil, fmt.Errorf("list nodes: %w", errTooManyRequests)
		case apierrors.IsForbidden(err):
			return nil, fmt.Errorf("list nodes: %w", ErrForbidden)
		}

		return nil, fmt.Errorf("list nodes: %w", err)
	}

	out := &Capacity{}

	for i := range nodeList.Items {
		node := &nodeList.Items[i]

		if !schedulable(node) {
			out.Skipped++

			a.logger.DebugContext(ctx, "node skipped",
				"node", node.Name,
				"unschedulable", node.Spec.Unschedulable,
			)

			continue
		}

		out.Resources = out.Resources.Add(toResources(node.Status.Allocatable))
		out.Nodes++
	}

	if out.Nodes == 0 {
		return nil, fmt.Errorf("list nodes: %w", ErrNoSchedulableNodes)
	}

	a.logger.InfoContext(ctx, "cluster capacity discovered",
		"nodes", out.Nodes,
		"skipped", out.Skipped,
		"capacity", out.Resources.String(),
	)

	return out, nil
}

func schedulable(node *corev1.Node) bool {
	if node.Spec.Unschedulable {
		return false
	}

	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}

	return false
}
