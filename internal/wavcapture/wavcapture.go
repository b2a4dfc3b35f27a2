// package wavcapture records duty writes into an 8 bit mono wav file.
// It stands in for the speaker on development machines: anything that
// drives a pwm channel can drive a Recorder instead and the result can
// be listened to.
package wavcapture

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("main.wavcapture")

// Recorder collects duty values and encodes them on Close.
type Recorder struct {
	path string
	f    *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
	rate int
}

// New truncates path and prepares an 8 bit mono encoder at rate hz.
func New(path string, rate int) (*Recorder, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("sample rate %d out of range", rate)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %v failed: %v", path, err)
	}

	return &Recorder{
		path: path,
		f:    f,
		enc:  wav.NewEncoder(f, rate, 8, 1, 1),
		rate: rate,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
			SourceBitDepth: 8,
		},
	}, nil
}

// SetDuty records one sample. Duty values map straight onto unsigned
// 8 bit pcm.
func (r *Recorder) SetDuty(v uint8) error {
	r.buf.Data = append(r.buf.Data, int(v))
	return nil
}

// Enable only marks the log; a recorder has no signal to switch on.
func (r *Recorder) Enable() error {
	logger.Debugf("capture to %v enabled", r.path)
	return nil
}

func (r *Recorder) Disable() {
	logger.Debugf("capture to %v disabled", r.path)
}

// Len is the number of samples recorded so far.
func (r *Recorder) Len() int {
	return len(r.buf.Data)
}

// Duration is the play time of the recording.
func (r *Recorder) Duration() time.Duration {
	return time.Duration(r.Len()) * time.Second / time.Duration(r.rate)
}

// Close writes the samples out and finalizes the wav header.
func (r *Recorder) Close() error {
	if err := r.enc.Write(r.buf); err != nil {
		_ = r.f.Close()
		return fmt.Errorf("writing %v failed: %v", r.path, err)
	}
	if err := r.enc.Close(); err != nil {
		_ = r.f.Close()
		return fmt.Errorf("finalizing %v failed: %v", r.path, err)
	}
	return r.f.Close()
}
