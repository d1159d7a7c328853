package k8s_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/k8s"
	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
)

type nodeOpt func(*corev1.Node)

func unschedulable(n *corev1.Node) { n.Spec.Unschedulable = true }

func notReady(n *corev1.Node) { n.Status.Conditions[0].Status = corev1.ConditionFalse }

func withLabel(key, value string) nodeOpt {
	return func(n *corev1.Node) {
		n.Labels[key] = value
	}
}

func node(name, cpu, memory, gpu string, opts ...nodeOpt) *corev1.Node {
	allocatable := corev1.ResourceList{
		corev1.ResourceCPU:    resource.MustParse(cpu),
		corev1.ResourceMemory: resource.MustParse(memory),
	}

	if gpu != "" {
		allocatable[k8s.ResourceGPU] = resource.MustParse(gpu)
	}

	n := &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: map[string]string{}},
		Status: corev1.NodeStatus{
			Allocatable: allocatable,
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
			},
		},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

type capacityCase struct {
	name         string
	giveNodes    []runtime.Object
	giveSelector string
	wantCapacity ledger.Resources
	wantNodes    int
	wantSkipped  int
	wantErr      error
}

func TestAdapter_CapacityQuery(t *testing.T) {
	t.Parallel()

	tests := []capacityCase{
		{
			name: "sums ready nodes",
			giveNodes: []runtime.Object{
				node("n1", "4", "16Gi", "1"),
				node("n2", "3500m", "8Gi", ""),
			},
			wantCapacity: ledger.Resources{CPU: 7.5, RAM: 24, GPU: 1},
			wantNodes:    2,
		},
		{
			name: "skips cordoned and not ready nodes",
			giveNodes: []runtime.Object{
				node("n1", "4", "16Gi", "2"),
				node("n2", "8", "32Gi", "2", unschedulable),
				node("n3", "8", "32Gi", "2", notReady),
			},
			wantCapacity: ledger.Resources{CPU: 4, RAM: 16, GPU: 2},
			wantNodes:    1,
			wantSkipped:  2,
		},
		{
			name: "label selector narrows the pool",
			giveNodes: []runtime.Object{
				node("n1", "4", "16Gi", "", withLabel("pool", "gpu")),
				node("n2", "8", "32Gi", ""),
			},
			giveSelector: "pool=gpu",
			wantCapacity: ledger.Resources{CPU: 4, RAM: 16},
			wantNodes:    1,
		},
		{
			name: "no usable nodes is an error",
			giveNodes: []runtime.Object{
				node("n1", "4", "16Gi", "", unschedulable),
			},
			wantErr: k8s.ErrNoSchedulableNodes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clientset := fake.NewSimpleClientset(tt.giveNodes...)
			adapter := k8s.New(slog.Default(), clientset)

			got, err := adapter.CapacityQuery(t.Context(), tt.giveSelector)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantCapacity, got.Resources)
			require.Equal(t, tt.wantNodes, got.Nodes)
			require.Equal(t, tt.wantSkipped, got.Skipped)
		})
	}
}

func TestAdapter_CapacityQuery_APIErrors(t *testing.T) {
	t.Parallel()

	t.Run("throttling is reported as too many requests", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewSimpleClientset()
		clientset.PrependReactor("list", "nodes", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, apierrors.NewTooManyRequests("slow down", 1)
		})

		_, err := k8s.New(slog.Default(), clientset).CapacityQuery(t.Context(), "")

		var target *k8s.TooManyRequestsError
		require.True(t, errors.As(err, &target))
	})

	t.Run("rbac denial is forbidden", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewSimpleClientset()
		clientset.PrependReactor("list", "nodes", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, apierrors.NewForbidden(schema.GroupResource{Resource: "nodes"}, "", errors.New("denied"))
		})

		_, err := k8s.New(slog.Default(), clientset).CapacityQuery(t.Context(), "")
		require.ErrorIs(t, err, k8s.ErrForbidden)
	})
}
