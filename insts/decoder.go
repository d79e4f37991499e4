package insts

// Table sizes for each lookup level.
const (
	numPrimaryOpcodes   = 32  // opcode bits 6:2
	numSecondaryOpcodes = 8   // funct3
	numTertiaryOpcodes  = 128 // funct7
	numSystemOpcodes    = 32  // rs2 field of SYSTEM encodings
)

// indexKind selects which instruction field indexes a subtable.
type indexKind uint8

const (
	indexFunct3 indexKind = iota
	indexFunct7
	indexRs2
)

// entry is one cell of a decode table: either a leaf naming the decoded
// operation or a reference to the next-level table.
type entry struct {
	sub      bool
	kind     indexKind
	table    int
	op       Op
	format   Format
	mnemonic string
}

func leaf(op Op, format Format, mnemonic string) entry {
	return entry{op: op, format: format, mnemonic: mnemonic}
}

func subtable(kind indexKind, table int) entry {
	return entry{sub: true, kind: kind, table: table}
}

var reservedEntry = leaf(OpReserved, FormatIllegal, "reserved")

// Decoder decodes RV32 machine code through a multi-level table walk:
// primary by opcode, secondary by funct3, tertiary by funct7, quaternary by
// funct3/rm. All tables live in one flat vector and reference their
// children by index. Unpopulated cells hold a reserved leaf.
type Decoder struct {
	tables [][]entry
	exts   Extension

	primary int

	// Tertiary tables under OP, in funct3 order. The M extension overlays
	// its leaves onto these at funct7 slot 0x01.
	opTertiary [numSecondaryOpcodes]int

	system int
}

// NewDecoder creates a decoder with the default extension set.
func NewDecoder() *Decoder {
	return NewDecoderWithExtensions(DefaultExtensions())
}

// NewDecoderWithExtensions creates a decoder recognizing the base integer
// set plus the given extensions. Extension leaves are overlaid onto the
// base tables at construction.
func NewDecoderWithExtensions(exts Extension) *Decoder {
	d := &Decoder{exts: exts}
	d.buildBase()

	if exts.Has(ExtM) {
		d.installM()
	}
	if exts.Has(ExtF) {
		d.installF()
	}
	if exts.Has(ExtZicsr) {
		d.installZicsr()
	}

	return d
}

// Extensions returns the extension set the decoder was built with.
func (d *Decoder) Extensions() Extension {
	return d.exts
}

// newTable appends a table of the given size, every cell reserved, and
// returns its index.
func (d *Decoder) newTable(size int) int {
	t := make([]entry, size)
	for i := range t {
		t[i] = reservedEntry
	}
	d.tables = append(d.tables, t)
	return len(d.tables) - 1
}

// buildBase populates the RV32I tables.
func (d *Decoder) buildBase() {
	d.primary = d.newTable(numPrimaryOpcodes)

	loadTbl := d.newTable(numSecondaryOpcodes)
	d.tables[loadTbl][0] = leaf(OpLB, FormatI, "lb")
	d.tables[loadTbl][1] = leaf(OpLH, FormatI, "lh")
	d.tables[loadTbl][2] = leaf(OpLW, FormatI, "lw")
	d.tables[loadTbl][4] = leaf(OpLBU, FormatI, "lbu")
	d.tables[loadTbl][5] = leaf(OpLHU, FormatI, "lhu")

	miscMemTbl := d.newTable(numSecondaryOpcodes)
	d.tables[miscMemTbl][0] = leaf(OpFENCE, FormatFence, "fence")

	slliTbl := d.newTable(numTertiaryOpcodes)
	d.tables[slliTbl][0x00] = leaf(OpSLLI, FormatIShift, "slli")

	sriTbl := d.newTable(numTertiaryOpcodes)
	d.tables[sriTbl][0x00] = leaf(OpSRLI, FormatIShift, "srli")
	d.tables[sriTbl][0x20] = leaf(OpSRAI, FormatIShift, "srai")

	opImmTbl := d.newTable(numSecondaryOpcodes)
	d.tables[opImmTbl][0] = leaf(OpADDI, FormatI, "addi")
	d.tables[opImmTbl][1] = subtable(indexFunct7, slliTbl)
	d.tables[opImmTbl][2] = leaf(OpSLTI, FormatI, "slti")
	d.tables[opImmTbl][3] = leaf(OpSLTIU, FormatI, "sltiu")
	d.tables[opImmTbl][4] = leaf(OpXORI, FormatI, "xori")
	d.tables[opImmTbl][5] = subtable(indexFunct7, sriTbl)
	d.tables[opImmTbl][6] = leaf(OpORI, FormatI, "ori")
	d.tables[opImmTbl][7] = leaf(OpANDI, FormatI, "andi")

	storeTbl := d.newTable(numSecondaryOpcodes)
	d.tables[storeTbl][0] = leaf(OpSB, FormatS, "sb")
	d.tables[storeTbl][1] = leaf(OpSH, FormatS, "sh")
	d.tables[storeTbl][2] = leaf(OpSW, FormatS, "sw")

	arithTbl := d.newTable(numTertiaryOpcodes)
	d.tables[arithTbl][0x00] = leaf(OpADD, FormatR, "add")
	d.tables[arithTbl][0x20] = leaf(OpSUB, FormatR, "sub")

	sllTbl := d.newTable(numTertiaryOpcodes)
	d.tables[sllTbl][0x00] = leaf(OpSLL, FormatR, "sll")

	sltTbl := d.newTable(numTertiaryOpcodes)
	d.tables[sltTbl][0x00] = leaf(OpSLT, FormatR, "slt")

	sltuTbl := d.newTable(numTertiaryOpcodes)
	d.tables[sltuTbl][0x00] = leaf(OpSLTU, FormatR, "sltu")

	xorTbl := d.newTable(numTertiaryOpcodes)
	d.tables[xorTbl][0x00] = leaf(OpXOR, FormatR, "xor")

	srrTbl := d.newTable(numTertiaryOpcodes)
	d.tables[srrTbl][0x00] = leaf(OpSRL, FormatR, "srl")
	d.tables[srrTbl][0x20] = leaf(OpSRA, FormatR, "sra")

	orTbl := d.newTable(numTertiaryOpcodes)
	d.tables[orTbl][0x00] = leaf(OpOR, FormatR, "or")

	andTbl := d.newTable(numTertiaryOpcodes)
	d.tables[andTbl][0x00] = leaf(OpAND, FormatR, "and")

	d.opTertiary = [numSecondaryOpcodes]int{
		arithTbl, sllTbl, sltTbl, sltuTbl, xorTbl, srrTbl, orTbl, andTbl,
	}

	opTbl := d.newTable(numSecondaryOpcodes)
	for f3, t := range d.opTertiary {
		d.tables[opTbl][f3] = subtable(indexFunct7, t)
	}

	branchTbl := d.newTable(numSecondaryOpcodes)
	d.tables[branchTbl][0] = leaf(OpBEQ, FormatB, "beq")
	d.tables[branchTbl][1] = leaf(OpBNE, FormatB, "bne")
	d.tables[branchTbl][4] = leaf(OpBLT, FormatB, "blt")
	d.tables[branchTbl][5] = leaf(OpBGE, FormatB, "bge")
	d.tables[branchTbl][6] = leaf(OpBLTU, FormatB, "bltu")
	d.tables[branchTbl][7] = leaf(OpBGEU, FormatB, "bgeu")

	eTbl := d.newTable(numSystemOpcodes)
	d.tables[eTbl][0] = leaf(OpECALL, FormatSystem, "ecall")
	d.tables[eTbl][1] = leaf(OpEBREAK, FormatSystem, "ebreak")

	d.system = d.newTable(numSecondaryOpcodes)
	d.tables[d.system][0] = subtable(indexRs2, eTbl)

	p := d.tables[d.primary]
	p[0x00] = subtable(indexFunct3, loadTbl)
	p[0x03] = subtable(indexFunct3, miscMemTbl)
	p[0x04] = subtable(indexFunct3, opImmTbl)
	p[0x05] = leaf(OpAUIPC, FormatU, "auipc")
	p[0x08] = subtable(indexFunct3, storeTbl)
	p[0x0c] = subtable(indexFunct3, opTbl)
	p[0x0d] = leaf(OpLUI, FormatU, "lui")
	p[0x18] = subtable(indexFunct3, branchTbl)
	p[0x19] = leaf(OpJALR, FormatI, "jalr")
	p[0x1b] = leaf(OpJAL, FormatJ, "jal")
	p[0x1c] = subtable(indexFunct3, d.system)
}

// installM overlays the multiply/divide leaves onto funct7 slot 0x01 of
// the OP tertiary tables.
func (d *Decoder) installM() {
	ops := [numSecondaryOpcodes]entry{
		leaf(OpMUL, FormatR, "mul"),
		leaf(OpMULH, FormatR, "mulh"),
		leaf(OpMULHSU, FormatR, "mulhsu"),
		leaf(OpMULHU, FormatR, "mulhu"),
		leaf(OpDIV, FormatR, "div"),
		leaf(OpDIVU, FormatR, "divu"),
		leaf(OpREM, FormatR, "rem"),
		leaf(OpREMU, FormatR, "remu"),
	}
	for f3, e := range ops {
		d.tables[d.opTertiary[f3]][0x01] = e
	}
}

// installF installs the LOAD-FP, STORE-FP and fused multiply-add primary
// slots plus the OP-FP subtree, and a funct3 subtable under each of the
// memory slots so the unsupported D widths stay reserved.
func (d *Decoder) installF() {
	loadFPTbl := d.newTable(numSecondaryOpcodes)
	d.tables[loadFPTbl][2] = leaf(OpFLW, FormatI, "flw")

	storeFPTbl := d.newTable(numSecondaryOpcodes)
	d.tables[storeFPTbl][2] = leaf(OpFSW, FormatS, "fsw")

	fsgnjTbl := d.newTable(numSecondaryOpcodes)
	d.tables[fsgnjTbl][0] = leaf(OpFSGNJS, FormatR, "fsgnj.s")
	d.tables[fsgnjTbl][1] = leaf(OpFSGNJNS, FormatR, "fsgnjn.s")
	d.tables[fsgnjTbl][2] = leaf(OpFSGNJXS, FormatR, "fsgnjx.s")

	fminmaxTbl := d.newTable(numSecondaryOpcodes)
	d.tables[fminmaxTbl][0] = leaf(OpFMINS, FormatR, "fmin.s")
	d.tables[fminmaxTbl][1] = leaf(OpFMAXS, FormatR, "fmax.s")

	fcmpTbl := d.newTable(numSecondaryOpcodes)
	d.tables[fcmpTbl][0] = leaf(OpFLES, FormatR, "fle.s")
	d.tables[fcmpTbl][1] = leaf(OpFLTS, FormatR, "flt.s")
	d.tables[fcmpTbl][2] = leaf(OpFEQS, FormatR, "feq.s")

	fmvTbl := d.newTable(numSecondaryOpcodes)
	d.tables[fmvTbl][0] = leaf(OpFMVXW, FormatR, "fmv.x.w")
	d.tables[fmvTbl][1] = leaf(OpFCLASSS, FormatR, "fclass.s")

	fsTbl := d.newTable(numTertiaryOpcodes)
	fs := d.tables[fsTbl]
	fs[0x00] = leaf(OpFADDS, FormatR, "fadd.s")
	fs[0x04] = leaf(OpFSUBS, FormatR, "fsub.s")
	fs[0x08] = leaf(OpFMULS, FormatR, "fmul.s")
	fs[0x0c] = leaf(OpFDIVS, FormatR, "fdiv.s")
	fs[0x10] = subtable(indexFunct3, fsgnjTbl)
	fs[0x14] = subtable(indexFunct3, fminmaxTbl)
	fs[0x2c] = leaf(OpFSQRTS, FormatR, "fsqrt.s")
	fs[0x50] = subtable(indexFunct3, fcmpTbl)
	fs[0x60] = leaf(OpFCVTWS, FormatR, "fcvt.w.s") // rs2 selects W or WU
	fs[0x68] = leaf(OpFCVTSW, FormatR, "fcvt.s.w") // rs2 selects W or WU
	fs[0x70] = subtable(indexFunct3, fmvTbl)
	fs[0x78] = leaf(OpFMVWX, FormatR, "fmv.w.x")

	// Every funct3 routes to the same tertiary: OP-FP instructions keep
	// the rounding mode in the funct3 field, so funct3 only matters in the
	// quaternary tables.
	fsopTbl := d.newTable(numSecondaryOpcodes)
	for f3 := 0; f3 < numSecondaryOpcodes; f3++ {
		d.tables[fsopTbl][f3] = subtable(indexFunct7, fsTbl)
	}

	p := d.tables[d.primary]
	p[0x01] = subtable(indexFunct3, loadFPTbl)
	p[0x09] = subtable(indexFunct3, storeFPTbl)
	p[0x10] = leaf(OpFMADDS, FormatR4, "fmadd.s")
	p[0x11] = leaf(OpFMSUBS, FormatR4, "fmsub.s")
	p[0x12] = leaf(OpFNMSUBS, FormatR4, "fnmsub.s")
	p[0x13] = leaf(OpFNMADDS, FormatR4, "fnmadd.s")
	p[0x14] = subtable(indexFunct3, fsopTbl)
}

// installZicsr installs the CSR access leaves under SYSTEM.
func (d *Decoder) installZicsr() {
	s := d.tables[d.system]
	s[1] = leaf(OpCSRRW, FormatCSR, "csrrw")
	s[2] = leaf(OpCSRRS, FormatCSR, "csrrs")
	s[3] = leaf(OpCSRRC, FormatCSR, "csrrc")
	s[5] = leaf(OpCSRRWI, FormatCSRImm, "csrrwi")
	s[6] = leaf(OpCSRRSI, FormatCSRImm, "csrrsi")
	s[7] = leaf(OpCSRRCI, FormatCSRImm, "csrrci")
}

// Decode decodes a 32-bit instruction word. Words that do not resolve to a
// populated leaf come back with Op OpReserved and Format FormatIllegal.
func (d *Decoder) Decode(word uint32) *Instruction {
	in := &Instruction{}
	extractFields(in, word)

	if word&0x3 != 0x3 {
		in.Op = reservedEntry.op
		in.Format = reservedEntry.format
		in.Mnemonic = reservedEntry.mnemonic
		return in
	}

	e := d.tables[d.primary][in.Opcode]
	for e.sub {
		var idx uint8
		switch e.kind {
		case indexFunct3:
			idx = in.Funct3
		case indexFunct7:
			idx = in.Funct7
		case indexRs2:
			idx = in.Rs2
		}
		e = d.tables[e.table][idx]
	}

	in.Op = e.op
	in.Format = e.format
	in.Mnemonic = e.mnemonic

	d.resolveConvert(in)

	return in
}

// resolveConvert narrows the FCVT leaves, whose signed/unsigned variant
// lives in the rs2 field.
func (d *Decoder) resolveConvert(in *Instruction) {
	switch in.Op {
	case OpFCVTWS:
		switch in.Rs2 {
		case 0:
		case 1:
			in.Op = OpFCVTWUS
			in.Mnemonic = "fcvt.wu.s"
		default:
			in.Op = OpReserved
			in.Format = FormatIllegal
			in.Mnemonic = "reserved"
		}
	case OpFCVTSW:
		switch in.Rs2 {
		case 0:
		case 1:
			in.Op = OpFCVTSWU
			in.Mnemonic = "fcvt.s.wu"
		default:
			in.Op = OpReserved
			in.Format = FormatIllegal
			in.Mnemonic = "reserved"
		}
	}
}
