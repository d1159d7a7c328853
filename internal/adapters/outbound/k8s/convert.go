package k8s

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
)

// ResourceGPU is the extended resource advertised by the NVIDIA device plugin.
const ResourceGPU corev1.ResourceName = "nvidia.com/gpu"

const bytesPerGiB = 1 << 30

// toResources converts an allocatable list into cores, GiB and devices.
func toResources(list corev1.ResourceList) ledger.Resources {
	var out ledger.Resources

	if cpu, ok := list[corev1.ResourceCPU]; ok {
		out.CPU = float64(cpu.MilliValue()) / 1000
	}

	if memory, ok := list[corev1.ResourceMemory]; ok {
		out.RAM = float64(memory.Value()) / bytesPerGiB
	}

	if gpu, ok := list[ResourceGPU]; ok {
		out.GPU = float64(gpu.Value())
	}

	return out
}
