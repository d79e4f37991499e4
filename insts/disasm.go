package insts

import "fmt"

// ABI register names, indexed by register number.
var xRegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var fRegNames = [32]string{
	"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7",
	"fs0", "fs1", "fa0", "fa1", "fa2", "fa3", "fa4", "fa5",
	"fa6", "fa7", "fs2", "fs3", "fs4", "fs5", "fs6", "fs7",
	"fs8", "fs9", "fs10", "fs11", "ft8", "ft9", "ft10", "ft11",
}

// XRegName returns the ABI name of integer register r.
func XRegName(r uint8) string {
	return xRegNames[r&0x1f]
}

// FRegName returns the ABI name of floating-point register r.
func FRegName(r uint8) string {
	return fRegNames[r&0x1f]
}

// Disassemble renders in as a one-line assembly string using ABI register
// names. Each call builds a fresh string.
func Disassemble(in *Instruction) string {
	mn := in.Mnemonic

	switch in.Format {
	case FormatR:
		return disassembleR(in)
	case FormatR4:
		return fmt.Sprintf("%s %s,%s,%s,%s", mn,
			FRegName(in.Rd), FRegName(in.Rs1), FRegName(in.Rs2), FRegName(in.Rs3))
	case FormatI:
		switch in.Op {
		case OpLB, OpLH, OpLW, OpLBU, OpLHU, OpJALR:
			return fmt.Sprintf("%s %s,%d(%s)", mn,
				XRegName(in.Rd), in.ImmI, XRegName(in.Rs1))
		case OpFLW:
			return fmt.Sprintf("%s %s,%d(%s)", mn,
				FRegName(in.Rd), in.ImmI, XRegName(in.Rs1))
		}
		return fmt.Sprintf("%s %s,%s,%d", mn,
			XRegName(in.Rd), XRegName(in.Rs1), in.ImmI)
	case FormatIShift:
		return fmt.Sprintf("%s %s,%s,%d", mn,
			XRegName(in.Rd), XRegName(in.Rs1), in.Rs2)
	case FormatS:
		if in.Op == OpFSW {
			return fmt.Sprintf("%s %s,%d(%s)", mn,
				FRegName(in.Rs2), in.ImmS, XRegName(in.Rs1))
		}
		return fmt.Sprintf("%s %s,%d(%s)", mn,
			XRegName(in.Rs2), in.ImmS, XRegName(in.Rs1))
	case FormatB:
		return fmt.Sprintf("%s %s,%s,%d", mn,
			XRegName(in.Rs1), XRegName(in.Rs2), in.ImmB)
	case FormatU:
		return fmt.Sprintf("%s %s,0x%x", mn,
			XRegName(in.Rd), uint32(in.ImmU)>>12)
	case FormatJ:
		return fmt.Sprintf("%s %s,%d", mn, XRegName(in.Rd), in.ImmJ)
	case FormatCSR:
		return fmt.Sprintf("%s %s,0x%03x,%s", mn,
			XRegName(in.Rd), in.CSR, XRegName(in.Rs1))
	case FormatCSRImm:
		return fmt.Sprintf("%s %s,0x%03x,%d", mn,
			XRegName(in.Rd), in.CSR, in.Rs1)
	case FormatFence, FormatSystem:
		return mn
	}

	return fmt.Sprintf("reserved 0x%08x", in.Raw)
}

// disassembleR renders R-format instructions, picking the register file
// for each operand by operation.
func disassembleR(in *Instruction) string {
	mn := in.Mnemonic

	switch in.Op {
	case OpFSQRTS:
		return fmt.Sprintf("%s %s,%s", mn, FRegName(in.Rd), FRegName(in.Rs1))
	case OpFCVTWS, OpFCVTWUS, OpFMVXW, OpFCLASSS:
		return fmt.Sprintf("%s %s,%s", mn, XRegName(in.Rd), FRegName(in.Rs1))
	case OpFCVTSW, OpFCVTSWU, OpFMVWX:
		return fmt.Sprintf("%s %s,%s", mn, FRegName(in.Rd), XRegName(in.Rs1))
	case OpFEQS, OpFLTS, OpFLES:
		return fmt.Sprintf("%s %s,%s,%s", mn,
			XRegName(in.Rd), FRegName(in.Rs1), FRegName(in.Rs2))
	case OpFADDS, OpFSUBS, OpFMULS, OpFDIVS,
		OpFSGNJS, OpFSGNJNS, OpFSGNJXS, OpFMINS, OpFMAXS:
		return fmt.Sprintf("%s %s,%s,%s", mn,
			FRegName(in.Rd), FRegName(in.Rs1), FRegName(in.Rs2))
	}

	return fmt.Sprintf("%s %s,%s,%s", mn,
		XRegName(in.Rd), XRegName(in.Rs1), XRegName(in.Rs2))
}
