package lha

// Static Huffman decoder shared by the -lh4- .. -lh7- methods. The methods
// differ only in dictionary size and in the width of the position-table count.

const (
	bitBufSize = 16
	maxMatch   = 256
	threshold  = 3
	nc         = 255 + maxMatch + 2 - threshold // literal + length alphabet
	cBit       = 9
	codeBit    = 16
	nt         = codeBit + 3
	tBit       = 5
	npMax      = 17 // dicbit 16 + 1
	nptMax     = nt // nt > npMax
)

type decoder struct {
	in    []byte
	inPos int

	bitBuf    uint16
	subBitBuf uint8
	bitCount  int

	left  [2*nc - 1]uint16
	right [2*nc - 1]uint16

	cLen    [nc]uint8
	ptLen   [nptMax]uint8
	cTable  [4096]uint16
	ptTable [256]uint16

	blockSize uint16
	np        int
	pBit      int
	corrupt   bool
}

func newDecoder(packed []byte, dicBit int) *decoder {
	d := &decoder{in: packed, np: dicBit + 1, pBit: 4}
	if dicBit > 13 {
		d.pBit = 5
	}
	d.fill(bitBufSize)
	return d
}

// fill shifts n bits out of bitBuf and refills it from the input.
func (d *decoder) fill(n int) {
	d.bitBuf <<= uint(n)
	for n > d.bitCount {
		n -= d.bitCount
		d.bitBuf |= uint16(d.subBitBuf) << uint(n)
		if d.inPos < len(d.in) {
			d.subBitBuf = d.in[d.inPos]
			d.inPos++
		} else {
			d.subBitBuf = 0
		}
		d.bitCount = 8
	}
	d.bitCount -= n
	d.bitBuf |= uint16(d.subBitBuf) >> uint(d.bitCount)
}

func (d *decoder) bits(n int) uint16 {
	x := d.bitBuf >> uint(bitBufSize-n)
	d.fill(n)
	return x
}

// buildTable fills a direct lookup table of tableBits bits for the code
// lengths in bitLen, spilling longer codes into the left/right tree.
func (d *decoder) buildTable(nchar int, bitLen []uint8, tableBits int, table []uint16) {
	var count [17]uint32
	var weight [17]uint32
	var start [18]uint32

	for i := 0; i < nchar; i++ {
		if bitLen[i] <= 16 {
			count[bitLen[i]]++
		}
	}
	for i := 1; i <= 16; i++ {
		start[i+1] = start[i] + count[i]<<uint(16-i)
	}
	if start[17] != 1<<16 {
		d.corrupt = true
		return
	}

	jut := uint(16 - tableBits)
	for i := 1; i <= tableBits; i++ {
		start[i] >>= jut
		weight[i] = 1 << uint(tableBits-i)
	}
	for i := tableBits + 1; i <= 16; i++ {
		weight[i] = 1 << uint(16-i)
	}

	if i := start[tableBits+1] >> jut; i != 0 {
		for k := i; k < 1<<uint(tableBits) && int(k) < len(table); k++ {
			table[k] = 0
		}
	}

	avail := uint16(nchar)
	mask := uint32(1) << uint(15-tableBits)
	for ch := 0; ch < nchar; ch++ {
		l := int(bitLen[ch])
		if l == 0 {
			continue
		}
		next := start[l] + weight[l]
		if l <= tableBits {
			for i := start[l]; i < next && int(i) < len(table); i++ {
				table[i] = uint16(ch)
			}
		} else {
			k := start[l]
			idx := int(k >> jut)
			if idx >= len(table) {
				d.corrupt = true
				return
			}
			p := &table[idx]
			for n := l - tableBits; n > 0; n-- {
				if *p == 0 {
					if int(avail) >= len(d.left) {
						d.corrupt = true
						return
					}
					d.left[avail], d.right[avail] = 0, 0
					*p = avail
					avail++
				}
				if int(*p) >= len(d.left) {
					d.corrupt = true
					return
				}
				if k&mask != 0 {
					p = &d.right[*p]
				} else {
					p = &d.left[*p]
				}
				k <<= 1
			}
			*p = uint16(ch)
		}
		start[l] = next
	}
}

// walk follows the overflow tree for codes longer than the table width.
func (d *decoder) walk(c uint16, limit uint16, tableBits int) uint16 {
	mask := uint16(1) << uint(bitBufSize-1-tableBits)
	for c >= limit {
		if int(c) >= len(d.left) || mask == 0 {
			d.corrupt = true
			return 0
		}
		if d.bitBuf&mask != 0 {
			c = d.right[c]
		} else {
			c = d.left[c]
		}
		mask >>= 1
	}
	return c
}

func (d *decoder) readPtLen(nn, nBit, special int) {
	n := int(d.bits(nBit))
	if n == 0 {
		c := d.bits(nBit)
		for i := 0; i < nn; i++ {
			d.ptLen[i] = 0
		}
		for i := range d.ptTable {
			d.ptTable[i] = c
		}
		return
	}
	if n > nn {
		n = nn
	}

	i := 0
	for i < n {
		c := int(d.bitBuf >> (bitBufSize - 3))
		if c == 7 {
			mask := uint16(1) << (bitBufSize - 1 - 3)
			for mask&d.bitBuf != 0 {
				mask >>= 1
				c++
			}
		}
		if c < 7 {
			d.fill(3)
		} else {
			d.fill(c - 3)
		}
		d.ptLen[i] = uint8(c)
		i++
		if i == special {
			for z := d.bits(2); z > 0 && i < nn; z-- {
				d.ptLen[i] = 0
				i++
			}
		}
	}
	for ; i < nn; i++ {
		d.ptLen[i] = 0
	}
	d.buildTable(nn, d.ptLen[:], 8, d.ptTable[:])
}

func (d *decoder) readCLen() {
	n := int(d.bits(cBit))
	if n == 0 {
		c := d.bits(cBit)
		for i := range d.cLen {
			d.cLen[i] = 0
		}
		for i := range d.cTable {
			d.cTable[i] = c
		}
		return
	}
	if n > nc {
		n = nc
	}

	i := 0
	for i < n {
		c := d.walk(d.ptTable[d.bitBuf>>(bitBufSize-8)], nt, 8)
		d.fill(int(d.ptLen[c]))
		if c > 2 {
			d.cLen[i] = uint8(c - 2)
			i++
			continue
		}
		var run int
		switch c {
		case 0:
			run = 1
		case 1:
			run = int(d.bits(4)) + 3
		default:
			run = int(d.bits(cBit)) + 20
		}
		for ; run > 0 && i < nc; run-- {
			d.cLen[i] = 0
			i++
		}
	}
	for ; i < nc; i++ {
		d.cLen[i] = 0
	}
	d.buildTable(nc, d.cLen[:], 12, d.cTable[:])
}

func (d *decoder) decodeC() uint16 {
	if d.blockSize == 0 {
		d.blockSize = d.bits(16)
		d.readPtLen(nt, tBit, 3)
		d.readCLen()
		d.readPtLen(d.np, d.pBit, -1)
	}
	d.blockSize--

	j := d.walk(d.cTable[d.bitBuf>>(bitBufSize-12)], nc, 12)
	d.fill(int(d.cLen[j]))
	return j
}

func (d *decoder) decodeP() uint32 {
	j := d.walk(d.ptTable[d.bitBuf>>(bitBufSize-8)], uint16(d.np), 8)
	d.fill(int(d.ptLen[j]))
	if j == 0 {
		return 0
	}
	j--
	return uint32(1)<<j + uint32(d.bits(int(j)))
}

// inflate decodes exactly size bytes of output.
func (d *decoder) inflate(size int) ([]byte, error) {
	out := make([]byte, 0, size)
	for len(out) < size {
		c := d.decodeC()
		if d.corrupt {
			return nil, ErrCorrupt
		}
		if c <= 255 {
			out = append(out, byte(c))
			continue
		}

		length := int(c) - (255 + 1 - threshold)
		dist := int(d.decodeP()) + 1
		if d.corrupt || dist > len(out) {
			return nil, ErrCorrupt
		}
		from := len(out) - dist
		for ; length > 0 && len(out) < size; length-- {
			out = append(out, out[from])
			from++
		}
	}
	return out, nil
}
