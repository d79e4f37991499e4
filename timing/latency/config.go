package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds latency values for different instruction types.
// Defaults model a small in-order RV32 core with an iterative divider.
type TimingConfig struct {
	// ALULatency is the execution latency for basic integer operations
	// (ADD, SUB, logic, shifts, LUI, AUIPC). Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// BranchLatency is the base execution latency for branches and jumps.
	// This does not include misprediction penalty. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// BranchMispredictPenalty is the additional cycles lost on a taken
	// branch with a static not-taken predictor. Default: 3 cycles.
	BranchMispredictPenalty uint64 `json:"branch_mispredict_penalty"`

	// LoadLatency is the latency for load operations assuming L1 cache hit.
	// Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the latency for store operations.
	// Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// MultiplyLatency is the latency for integer multiply operations.
	// Default: 3 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatencyMin is the minimum latency for integer divide and
	// remainder operations. Default: 8 cycles.
	DivideLatencyMin uint64 `json:"divide_latency_min"`

	// DivideLatencyMax is the maximum latency for integer divide and
	// remainder operations. Default: 34 cycles.
	DivideLatencyMax uint64 `json:"divide_latency_max"`

	// CSRLatency is the latency for CSR read-modify-write instructions.
	// Default: 1 cycle.
	CSRLatency uint64 `json:"csr_latency"`

	// SystemLatency is the latency for ECALL, EBREAK, and FENCE.
	// Default: 1 cycle (handling is external).
	SystemLatency uint64 `json:"system_latency"`

	// FPAddLatency is the latency for FADD.S, FSUB.S, and the simple
	// FP operations (sign injection, min/max, compares, moves, converts).
	// Default: 4 cycles.
	FPAddLatency uint64 `json:"fp_add_latency"`

	// FPMultiplyLatency is the latency for FMUL.S.
	// Default: 4 cycles.
	FPMultiplyLatency uint64 `json:"fp_multiply_latency"`

	// FPFMALatency is the latency for the fused multiply-add group.
	// Default: 5 cycles.
	FPFMALatency uint64 `json:"fp_fma_latency"`

	// FPDivideLatencyMin is the minimum latency for FDIV.S and FSQRT.S.
	// Default: 9 cycles.
	FPDivideLatencyMin uint64 `json:"fp_divide_latency_min"`

	// FPDivideLatencyMax is the maximum latency for FDIV.S and FSQRT.S.
	// Default: 17 cycles.
	FPDivideLatencyMax uint64 `json:"fp_divide_latency_max"`

	// L1HitLatency is the L1 data cache hit latency.
	// Default: 2 cycles.
	L1HitLatency uint64 `json:"l1_hit_latency"`

	// L2HitLatency is the L2 cache hit latency.
	// Default: 10 cycles.
	L2HitLatency uint64 `json:"l2_hit_latency"`

	// MemoryLatency is the main memory access latency.
	// Default: 80 cycles.
	MemoryLatency uint64 `json:"memory_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:              1,
		BranchLatency:           1,
		BranchMispredictPenalty: 3,
		LoadLatency:             2,
		StoreLatency:            1,
		MultiplyLatency:         3,
		DivideLatencyMin:        8,
		DivideLatencyMax:        34,
		CSRLatency:              1,
		SystemLatency:           1,
		FPAddLatency:            4,
		FPMultiplyLatency:       4,
		FPFMALatency:            5,
		FPDivideLatencyMin:      9,
		FPDivideLatencyMax:      17,
		L1HitLatency:            2,
		L2HitLatency:            10,
		MemoryLatency:           80,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the per-class execution latencies are nonzero and
// that the divide latency ranges are ordered (min <= max).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.CSRLatency == 0 {
		return fmt.Errorf("csr_latency must be > 0")
	}
	if c.SystemLatency == 0 {
		return fmt.Errorf("system_latency must be > 0")
	}
	if c.FPAddLatency == 0 {
		return fmt.Errorf("fp_add_latency must be > 0")
	}
	if c.FPMultiplyLatency == 0 {
		return fmt.Errorf("fp_multiply_latency must be > 0")
	}
	if c.FPFMALatency == 0 {
		return fmt.Errorf("fp_fma_latency must be > 0")
	}
	if c.DivideLatencyMin > c.DivideLatencyMax {
		return fmt.Errorf("divide_latency_min must be <= divide_latency_max")
	}
	if c.FPDivideLatencyMin > c.FPDivideLatencyMax {
		return fmt.Errorf(
			"fp_divide_latency_min must be <= fp_divide_latency_max")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
