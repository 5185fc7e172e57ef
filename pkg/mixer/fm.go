package mixer

import "math"

// oplClock is the OPL2 sample clock the F-number is expressed against.
const oplClock = 49716.0

// FMRegisters is an OPL2 register file. It implements st3.FMPort.
type FMRegisters struct {
	regs   [256]uint8
	writes int
}

// Reset zeroes every register.
func (f *FMRegisters) Reset() {
	*f = FMRegisters{}
}

func (f *FMRegisters) WriteFM(reg, val uint8) {
	f.regs[reg] = val
	f.writes++
}

// Reg returns the last value written to reg.
func (f *FMRegisters) Reg(reg uint8) uint8 {
	return f.regs[reg]
}

// Writes returns the number of register writes since Reset.
func (f *FMRegisters) Writes() int {
	return f.writes
}

// KeyOn reports whether melody channel ch (0..8) is keyed on.
func (f *FMRegisters) KeyOn(ch int) bool {
	return f.regs[0xB0+ch]&0x20 != 0
}

// Frequency returns the tone of melody channel ch in Hz.
func (f *FMRegisters) Frequency(ch int) float64 {
	hi := f.regs[0xB0+ch]
	fnum := uint32(f.regs[0xA0+ch]) | uint32(hi&3)<<8
	block := int(hi>>2) & 7
	return float64(fnum) * oplClock / math.Exp2(float64(20-block))
}
