// +build !amd64

// package display drives the ssd1306 oled screen over i2c.
// The screen is 128x64 which fits four lines of 8x16 text: a title line,
// two content lines and a help line. The two content lines can instead
// show one large frequency readout. The image is blanked after a period
// of inactivity to prevent burn-in.
package display

import (
	"context"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/juju/loggo"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/devices/ssd1306"
	"periph.io/x/periph/devices/ssd1306/image1bit"
	"periph.io/x/periph/host"
)

var logger = loggo.GetLogger("main.display")
var textFont = inconsolata.Bold8x16

// The ScreenTimeout after which the display is blanked to prevent burn-in.
var ScreenTimeout = 10 * time.Minute

// lineCount defines how many lines of text fit on the screen
const lineCount = 4

const readoutSize = 28 // points, spans the two content lines

type Screen struct {
	ctx context.Context
	dev *ssd1306.Dev
	big font.Face

	mu         sync.Mutex
	img        *image1bit.VerticalLSB
	lastActive time.Time
}

func NewScreen(ctx context.Context) (*Screen, error) {
	if _, err := host.Init(); err != nil {
		logger.Warningf("no display detected, skipping: %v", err)
		return nil, err
	}

	b, err := i2creg.Open("")
	if err != nil {
		logger.Warningf("could not open i2c bus, display disabled: %v", err)
		return nil, err
	}

	opts := ssd1306.DefaultOpts
	opts.Rotated = false
	dev, err := ssd1306.NewI2C(b, &opts)
	if err != nil {
		logger.Warningf("could not find ssd1306 screen, display disabled: %v", err)
		return nil, err
	}

	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}

	s := &Screen{
		ctx: ctx,
		dev: dev,
		big: truetype.NewFace(f, &truetype.Options{
			Size:    readoutSize,
			DPI:     72,
			Hinting: font.HintingFull,
		}),
		img:        image1bit.NewVerticalLSB(dev.Bounds()),
		lastActive: time.Now(),
	}

	go s.handleScreenSaver()

	return s, nil
}

// WriteTitle draws the text in black on a white background into the first line (line #0)
func (s *Screen) WriteTitle(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fillLine(0, image1bit.On)
	s.text(0, text, image1bit.Off)
	s.draw()
}

// WriteLine writes the text in white on black into the indicated line (usually #1 or #2)
func (s *Screen) WriteLine(line int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fillLine(line, image1bit.Off)
	s.text(line, text, image1bit.On)
	s.draw()
}

// WriteHelp writes help text in black on white into the last line (line #3)
func (s *Screen) WriteHelp(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fillLine(lineCount-1, image1bit.On)
	s.text(lineCount-1, text, image1bit.Off)
	s.draw()
}

// WriteReadout draws text large and centered over both content lines,
// meant for the current frequency.
func (s *Screen) WriteReadout(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fillLine(1, image1bit.Off)
	s.fillLine(2, image1bit.Off)

	d := font.Drawer{
		Dst:  s.img,
		Src:  &image.Uniform{image1bit.On},
		Face: s.big,
	}
	adv := d.MeasureString(text)
	width := fixed.I(s.img.Bounds().Dx())
	x := (width - adv) / 2
	if x < 0 {
		x = 0
	}
	// baseline sits near the bottom of line #2, leaving room for descenders
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(3*textFont.Height - 6)}
	d.DrawString(text)

	s.draw()
}

func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.img = image1bit.NewVerticalLSB(s.dev.Bounds())
	s.draw()
}

// fillLine floods the 8x16 text line with the given bit, callers hold s.mu
func (s *Screen) fillLine(line int, b image1bit.Bit) {
	r := image.Rect(0, line*textFont.Height, s.img.Bounds().Dx(), (line+1)*textFont.Height)
	draw.Draw(s.img, r, &image.Uniform{b}, image.Point{}, draw.Src)
}

// text draws one line of 8x16 text, callers hold s.mu
func (s *Screen) text(line int, text string, b image1bit.Bit) {
	d := font.Drawer{
		Dst:  s.img,
		Src:  &image.Uniform{b},
		Face: textFont,
		Dot:  fixed.P(0, (line+1)*textFont.Height-textFont.Descent),
	}
	d.DrawString(text)
}

// draw pushes the image to the device and resets the burn-in timer,
// callers hold s.mu
func (s *Screen) draw() {
	s.lastActive = time.Now()
	err := s.dev.Draw(s.dev.Bounds(), s.img, image.Point{})
	if err != nil {
		logger.Debugf("draw failed: %v", err)
	}
}

func (s *Screen) shouldBlank() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	blankAfter := s.lastActive.Add(ScreenTimeout)
	return time.Now().After(blankAfter)
}

// handleScreenSaver blanks the device without touching the image, so the
// next write picks up right where the screen left off.
func (s *Screen) handleScreenSaver() {
	t := time.NewTicker(1 * time.Minute)
	defer t.Stop()

	blank := image1bit.NewVerticalLSB(s.dev.Bounds())
	blanked := false
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-t.C:
		}

		if s.shouldBlank() {
			if blanked {
				continue
			}
			blanked = true
			if err := s.dev.Draw(s.dev.Bounds(), blank, image.Point{}); err != nil {
				logger.Debugf("blanking failed: %v", err)
			}
		} else {
			blanked = false
		}
	}
}
