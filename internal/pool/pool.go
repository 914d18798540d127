// Package pool implements the per-voice buffer pool: a fixed set of named
// mono sample buffers that stages read from and accumulate into.
package pool

import "github.com/cbegin/microwave-go/internal/control"

// BufferRef names a destination or source buffer: either the mixdown sink
// (AudioOut) or one of the pool's N named scratch buffers.
type BufferRef struct {
	audioOut bool
	index    int
}

// AudioOut targets the mixdown sink.
func AudioOut() BufferRef { return BufferRef{audioOut: true} }

// Named targets pool buffer i.
func Named(i int) BufferRef { return BufferRef{index: i} }

func (r BufferRef) IsAudioOut() bool { return r.audioOut }
func (r BufferRef) Index() int       { return r.index }

// OutSpec is a stage's destination: which buffer to accumulate into, and
// how much to scale each sample by (sampled once per block).
type OutSpec struct {
	Buffer BufferRef
	Level  control.Source
}

// Pool holds N named mono buffers plus audio_in (host-provided input) and
// audio_out (the mixdown sink). All buffers share one block length, set
// by New and changed only when Clear is given a different one.
type Pool struct {
	named    [][]float64
	audioIn  []float64
	audioOut []float64
}

// New allocates a pool with numBuffers named buffers, each blockLen long.
func New(numBuffers, blockLen int) *Pool {
	p := &Pool{
		named:    make([][]float64, numBuffers),
		audioIn:  make([]float64, blockLen),
		audioOut: make([]float64, blockLen),
	}
	for i := range p.named {
		p.named[i] = make([]float64, blockLen)
	}
	return p
}

// BlockLen reports the current block length.
func (p *Pool) BlockLen() int {
	return len(p.audioOut)
}

// Clear zeroes every buffer, resizing in place if blockLen changed.
func (p *Pool) Clear(blockLen int) {
	if len(p.audioOut) != blockLen {
		p.audioOut = make([]float64, blockLen)
		p.audioIn = make([]float64, blockLen)
		for i := range p.named {
			p.named[i] = make([]float64, blockLen)
		}
		return
	}
	zero(p.audioOut)
	zero(p.audioIn)
	for _, buf := range p.named {
		zero(buf)
	}
}

func zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// SetAudioIn copies host-provided input samples into the audio_in buffer.
func (p *Pool) SetAudioIn(samples []float64) {
	copy(p.audioIn, samples)
}

// AudioOut returns the mixdown sink buffer.
func (p *Pool) AudioOut() []float64 {
	return p.audioOut
}

// AudioIn returns the host-provided input buffer.
func (p *Pool) AudioIn() []float64 {
	return p.audioIn
}

func (p *Pool) buffer(ref BufferRef) []float64 {
	if ref.audioOut {
		return p.audioOut
	}
	return p.named[ref.index]
}

// ReadZeroAndWrite calls gen() once per sample, scales by out.Level
// (evaluated once for the whole block), and adds into out.Buffer.
func (p *Pool) ReadZeroAndWrite(out OutSpec, ctl *control.Context, gen func() float64) {
	level := out.Level.Next(ctl)
	dst := p.buffer(out.Buffer)
	for i := range dst {
		dst[i] += gen() * level
	}
}

// ReadOneAndWrite transforms each sample of in.Buffer by fn, scales by
// out.Level, and adds into out.Buffer.
func (p *Pool) ReadOneAndWrite(in BufferRef, out OutSpec, ctl *control.Context, fn func(float64) float64) {
	level := out.Level.Next(ctl)
	src := p.buffer(in)
	dst := p.buffer(out.Buffer)
	for i := range dst {
		dst[i] += fn(src[i]) * level
	}
}

// ReadTwoAndWrite is the binary form of ReadOneAndWrite.
func (p *Pool) ReadTwoAndWrite(in1, in2 BufferRef, out OutSpec, ctl *control.Context, fn func(a, b float64) float64) {
	level := out.Level.Next(ctl)
	src1 := p.buffer(in1)
	src2 := p.buffer(in2)
	dst := p.buffer(out.Buffer)
	for i := range dst {
		dst[i] += fn(src1[i], src2[i]) * level
	}
}

// Buffer exposes a named buffer directly, for stages that need read/write
// access outside the read-transform-write shape (e.g. waveguides).
func (p *Pool) Buffer(ref BufferRef) []float64 {
	return p.buffer(ref)
}
