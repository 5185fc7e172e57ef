package st3

// Lookup tables as laid out in the ST3.21 data segment. notespd and octavediv
// are deliberately over-long: the player indexes past their nominal ends and
// reads whatever followed them in memory, and songs depend on that.

// notespd holds the periods of octave 0 (C..B), one extra C, then the first
// three vibsin entries that follow it in memory.
var notespd = [16]int16{
	1712 * 16, 1616 * 16, 1524 * 16, 1440 * 16, 1356 * 16, 1280 * 16,
	1208 * 16, 1140 * 16, 1076 * 16, 1016 * 16, 960 * 16, 907 * 16,
	1712 * 8,
	0, 24, 49,
}

// octavediv holds the per-octave shift; the second half is the low bytes of
// xfinetuneAmiga read as shift counts.
var octavediv = [16]uint8{
	0, 1, 2, 3, 4, 5, 6, 7,
	0xD7, 0x1E, 0x05, 0x1F, 0x31, 0x1F, 0x6E, 0x1F,
}

// xfinetuneAmiga maps an S2x nibble to a C2 rate.
var xfinetuneAmiga = [16]uint16{
	7895, 7941, 7985, 8046, 8107, 8169, 8232, 8280,
	8363, 8413, 8463, 8529, 8581, 8651, 8723, 8757,
}

var vibsin = [64]int16{
	0, 24, 49, 74, 97, 120, 141, 161, 180, 197, 212, 224, 235, 244, 250, 253,
	255, 253, 250, 244, 235, 224, 212, 197, 180, 161, 141, 120, 97, 74, 49, 24,
	0, -24, -49, -74, -97, -120, -141, -161, -180, -197, -212, -224, -235, -244, -250, -253,
	-255, -253, -250, -244, -235, -224, -212, -197, -180, -161, -141, -120, -97, -74, -49, -24,
}

var vibramp = [64]int16{
	0, -248, -240, -232, -224, -216, -208, -200, -192, -184, -176, -168, -160, -152, -144, -136,
	-128, -120, -112, -104, -96, -88, -80, -72, -64, -56, -48, -40, -32, -24, -16, -8,
	0, 8, 16, 24, 32, 40, 48, 56, 64, 72, 80, 88, 96, 104, 112, 120,
	128, 136, 144, 152, 160, 168, 176, 184, 192, 200, 208, 216, 224, 232, 240, 248,
}

var vibsqu = [64]uint8{
	255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255,
	255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255, 255,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// retrigvoladd: first half is the Qxy add/subtract amount per x, second half
// the multiplier (in 1/16ths) when nonzero.
var retrigvoladd = [32]int8{
	0, -1, -2, -4, -8, -16, 0, 0,
	0, 1, 2, 4, 8, 16, 0, 0,
	0, 0, 0, 0, 0, 0, 10, 8,
	0, 0, 0, 0, 0, 0, 24, 32,
}

// FM operator register offsets for the nine melodic channels.
var fmOperatorOffset = [FMChannels]uint8{0, 1, 2, 8, 9, 10, 16, 17, 18}

var fmEmptyInstrument = [12]uint8{0, 0, 63, 63, 0, 0, 0, 0, 0, 0, 0, 0}
