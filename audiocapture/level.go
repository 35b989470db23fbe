package audiocapture

import (
	"math"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// meterStream is the persistent low-duty stream behind Level. It stays
// open across polls because recreating a device per read is far too slow;
// it is dropped and lazily rebuilt on error or device change.
type meterStream struct {
	device  *malgo.Device
	percent atomic.Uint64 // math.Float64bits of the latest level
	closing atomic.Bool
	failed  atomic.Bool
}

func (m *meterStream) store(v float64) {
	m.percent.Store(math.Float64bits(v))
}

func (m *meterStream) load() float64 {
	return math.Float64frombits(m.percent.Load())
}

func (m *meterStream) drop() {
	m.closing.Store(true)
	if m.device != nil {
		m.device.Stop()
		m.device.Uninit()
	}
}

// Level returns the current input loudness in [0,100]. It reads the
// persistent metering stream, creating it on first use. While muted or
// recording it reports zero without touching the stream; on stream error
// it reports zero and the stream is rebuilt on the next call.
func (e *Engine) Level() float64 {
	e.mu.Lock()
	if e.closed || e.muted || e.active != nil {
		e.mu.Unlock()
		return 0
	}
	m := e.meter
	if m != nil && m.failed.Load() {
		e.meter = nil
		e.mu.Unlock()
		m.drop()
		return 0
	}
	if m == nil {
		var err error
		m, err = e.openMeter(e.deviceID)
		if err != nil {
			e.mu.Unlock()
			e.log.Warn("open metering stream failed", "error", err)
			return 0
		}
		e.meter = m
	}
	e.mu.Unlock()
	return m.load()
}

func (e *Engine) openMeter(id *malgo.DeviceID) (*meterStream, error) {
	m := &meterStream{}
	cfg := e.deviceConfig(id)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.store(levelPercent(decodeS16(input)))
		},
		Stop: func() {
			if !m.closing.Load() {
				m.failed.Store(true)
			}
		},
	}
	device, err := malgo.InitDevice(e.actx.Context, cfg, callbacks)
	if err != nil {
		return nil, err
	}
	if err := device.Start(); err != nil {
		m.closing.Store(true)
		device.Uninit()
		return nil, err
	}
	m.device = device
	return m, nil
}

// levelPercent maps chunk RMS to a 0-100 meter value. Full scale is
// reached around an RMS of 500, loud enough for close speech.
func levelPercent(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	pct := rms / 500 * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
