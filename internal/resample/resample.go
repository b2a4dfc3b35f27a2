// package resample upsamples unsigned 8 bit audio by 16x so clips
// authored at a sixteenth of the output rate can feed the duty register
// directly. Zero stuffing followed by a fourth order butterworth 1/16
// band lowpass, run as two second order sections.
package resample

// Factor is the fixed upsampling ratio.
const Factor = 16

// input gain; the zero stuffing spreads each sample's energy over
// Factor output slots, slightly under the full 16 to keep the filter
// overshoot inside the 8 bit range
const gain = 15.0

// coefficients from scipy.signal:
// iirfilter(4, 1/16, rs=40, btype='lowpass', ftype='butter', output='sos')
var coeffs = [2][2][3]float32{
	{
		{7.27725493e-05, 1.45545099e-04, 7.27725493e-05},
		{1.00000000e+00, -1.66200996e+00, 6.94570660e-01},
	},
	{
		{1.00000000e+00, 2.00000000e+00, 1.00000000e+00},
		{1.00000000e+00, -1.82529778e+00, 8.61057480e-01},
	},
}

// section is a single direct form I biquad with its delay line.
type section struct {
	c [2][3]float32
	x [3]float32
	y [2]float32
}

func (s *section) step(x0 float32) float32 {
	s.x[2], s.x[1], s.x[0] = s.x[1], s.x[0], x0

	b, a := s.c[0], s.c[1]
	y0 := b[0]*s.x[0] + b[1]*s.x[1] + b[2]*s.x[2] - a[1]*s.y[0] - a[2]*s.y[1]

	s.y[1], s.y[0] = s.y[0], y0
	return y0
}

// Upsample16 resamples src to sixteen times its rate. Samples are
// centered on 128 on the way in and recentered and clamped on the way
// out. The output is always Factor times the input length.
func Upsample16(src []uint8) []uint8 {
	s0 := &section{c: coeffs[0]}
	s1 := &section{c: coeffs[1]}

	out := make([]uint8, 0, len(src)*Factor)
	for _, s := range src {
		// the sample followed by fifteen zeros, gain applied up front
		in := gain * (float32(s) - 128.0)
		for i := 0; i < Factor; i++ {
			y := s1.step(s0.step(in))
			out = append(out, clamp(y+128.0))
			in = 0
		}
	}

	return out
}

// Rate16 rounds hz down to a playable multiple of Factor: a clip
// authored at Rate16(hz)/Factor plays at Rate16(hz) once upsampled.
func Rate16(hz int) int {
	return (hz / Factor) * Factor
}

func clamp(v float32) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
