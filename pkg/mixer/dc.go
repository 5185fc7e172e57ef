package mixer

const dcBufferLen = 512

// dcAdjuster tracks the running mean of the last dcBufferLen samples.
type dcAdjuster struct {
	buffer [dcBufferLen]float32
	pos    int
	sum    float32
}

func (d *dcAdjuster) Reset() {
	*d = dcAdjuster{}
}

func (d *dcAdjuster) AddSample(s float32) {
	d.sum -= d.buffer[d.pos]
	d.sum += s
	d.buffer[d.pos] = s
	d.pos = (d.pos + 1) & (dcBufferLen - 1)
}

func (d *dcAdjuster) Level() float32 {
	return d.sum / dcBufferLen
}
