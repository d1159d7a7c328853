package ledger

import (
	"fmt"
	"math"
)

// Resources is a fixed CPU/RAM/GPU triple used both for demand and capacity.
// RAM is expressed in GiB and CPU in cores.
type Resources struct {
	CPU float64 `json:"cpu"`
	RAM float64 `json:"ram"`
	GPU float64 `json:"gpu"`
}

// Validate rejects negative, NaN and infinite amounts.
func (r Resources) Validate() error {
	for _, d := range r.dimensions() {
		if math.IsNaN(d.value) || math.IsInf(d.value, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidAmount, d.name, d.value)
		}

		if d.value < 0 {
			return fmt.Errorf("%w: %s=%v", ErrNegativeAmount, d.name, d.value)
		}
	}

	return nil
}

// FitsIn reports whether every dimension of r is covered by available.
func (r Resources) FitsIn(available Resources) bool {
	return r.CPU <= available.CPU &&
		r.RAM <= available.RAM &&
		r.GPU <= available.GPU
}

func (r Resources) Add(other Resources) Resources {
	return Resources{
		CPU: r.CPU + other.CPU,
		RAM: r.RAM + other.RAM,
		GPU: r.GPU + other.GPU,
	}
}

func (r Resources) Sub(other Resources) Resources {
	return Resources{
		CPU: r.CPU - other.CPU,
		RAM: r.RAM - other.RAM,
		GPU: r.GPU - other.GPU,
	}
}

func (r Resources) String() string {
	return fmt.Sprintf("cpu=%g ram=%g gpu=%g", r.CPU, r.RAM, r.GPU)
}

type dimension struct {
	name  string
	value float64
}

func (r Resources) dimensions() [3]dimension {
	return [3]dimension{
		{name: "cpu", value: r.CPU},
		{name: "ram", value: r.RAM},
		{name: "gpu", value: r.GPU},
	}
}
