// package status monitors the health of the device:
// new dmesg output is captured and shipped via telegram,
// system temperature, uptime and load are tracked,
// accumulated log output is zipped and shipped,
// and the pwm channel is probed for outside interference.
package status

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/file"
	"code.sztanpet.net/zvpsz/tone-box/internal/telegram"
	"github.com/juju/loggo"
	"golang.org/x/sys/unix"
)

var logger = loggo.GetLogger("main.status")

// thermalPath reports millidegrees, 43802 means 43.802C
const thermalPath = "/sys/class/thermal/thermal_zone0/temp"
const tempWarnThreshold = 70.0

type Status struct {
	ctx context.Context
	bot *telegram.Bot

	pwmHealthy func() bool
	pwmAlerted bool
	dmesgSeen  int
}

func New(ctx context.Context, bot *telegram.Bot) *Status {
	return &Status{
		ctx: ctx,
		bot: bot,
	}
}

// WatchPWM registers a probe reporting whether the pwm channel is still
// exported and usable. The probe going false raises a single warning,
// recovery is logged once too.
func (s *Status) WatchPWM(healthy func() bool) {
	s.pwmHealthy = healthy
}

// Check runs every health check once, logpath names the log file to ship.
func (s *Status) Check(logpath string) {
	s.dmesg()
	s.temperature()
	s.pwm()
	s.shipLog(logpath)
}

func (s *Status) dmesg() {
	// clearing the ring buffer keeps the delta tracking trivial
	cmd := exec.CommandContext(s.ctx, "dmesg", "-e", "-c")
	out, err := cmd.CombinedOutput()
	if err != nil {
		// without root the buffer cannot be cleared, track how much of it
		// was already reported instead
		cmd = exec.CommandContext(s.ctx, "dmesg", "-e")
		out, err = cmd.CombinedOutput()
		if err != nil {
			logger.Warningf("dmesg failed: %v", err)
			return
		}

		if len(out) < s.dmesgSeen {
			// the ring buffer wrapped, everything counts as new
			s.dmesgSeen = 0
		}
		out = out[s.dmesgSeen:]
		s.dmesgSeen += len(out)
	}

	if len(out) == 0 {
		return
	}

	name := time.Now().Format("dmesg_20060102_150405") + ".txt"
	err = s.bot.SendFile(out, name, true)
	if err != nil {
		logger.Warningf("sending dmesg failed: %v", err)
	}
}

func (s *Status) temperature() {
	c, err := readTemp()
	if err != nil {
		logger.Tracef("temperature unavailable: %v", err)
		return
	}

	if c >= tempWarnThreshold {
		logger.Warningf("SoC temperature high: %.1fC", c)
		return
	}

	logger.Tracef("SoC temperature: %.1fC", c)
}

func (s *Status) pwm() {
	if s.pwmHealthy == nil {
		return
	}

	healthy := s.pwmHealthy()
	if !healthy && !s.pwmAlerted {
		s.pwmAlerted = true
		logger.Warningf("pwm channel lost, was it unexported behind our back?")
		return
	}

	if healthy && s.pwmAlerted {
		s.pwmAlerted = false
		logger.Infof("pwm channel recovered")
	}
}

// shipLog zips and sends the accumulated log output and truncates the
// file on success so nothing gets reported twice.
func (s *Status) shipLog(logpath string) {
	if logpath == "" || !file.Exists(logpath) || file.Empty(logpath) {
		logger.Tracef("log was empty: %v", logpath)
		return
	}
	logger.Infof("zipping and sending log: %v", logpath)

	f, err := os.Open(logpath)
	if err != nil {
		logger.Warningf("could not open log %v, error was: %v", logpath, err)
		return
	}
	defer f.Close()

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	zf, err := w.Create(filepath.Base(logpath))
	if err != nil {
		logger.Warningf("could not create zip file for log %v, error was: %v", logpath, err)
		return
	}

	_, err = io.Copy(zf, f)
	if err != nil {
		logger.Warningf("could not copy log %v, error was: %v", logpath, err)
		return
	}
	err = w.Close()
	if err != nil {
		logger.Warningf("could not close zip for log %v, error was: %v", logpath, err)
		return
	}

	filename := filepath.Base(logpath) + time.Now().Format("_20060102_150405") + ".zip"
	err = s.bot.SendFile(buf.Bytes(), filename, true)
	if err != nil {
		logger.Warningf("sending file failed: %v", err)
		return
	}

	err = os.Truncate(logpath, 0)
	if err != nil {
		logger.Warningf("truncating log %v failed: %v", logpath, err)
	}
}

// Summary returns the system half of the status report, the daemon
// appends what the speaker is doing.
func (s *Status) Summary() string {
	var b strings.Builder

	si := &unix.Sysinfo_t{}
	err := unix.Sysinfo(si)
	if err != nil {
		logger.Warningf("sysinfo failed: %v", err)
	} else {
		scale := 65536.0 // magic
		unit := uint64(si.Unit)

		fmt.Fprintf(&b, "uptime: %v\n", time.Duration(si.Uptime)*time.Second)
		fmt.Fprintf(&b, "load: %.2f %.2f %.2f\n",
			float64(si.Loads[0])/scale,
			float64(si.Loads[1])/scale,
			float64(si.Loads[2])/scale,
		)
		fmt.Fprintf(&b, "ram: %v/%v MB free\n",
			uint64(si.Freeram)*unit/1024/1024,
			uint64(si.Totalram)*unit/1024/1024,
		)
	}

	if c, err := readTemp(); err == nil {
		fmt.Fprintf(&b, "temperature: %.1fC\n", c)
	}

	if s.pwmHealthy != nil {
		if s.pwmHealthy() {
			b.WriteString("pwm: ok\n")
		} else {
			b.WriteString("pwm: LOST\n")
		}
	}

	return b.String()
}

func readTemp() (float64, error) {
	raw, err := ioutil.ReadFile(thermalPath)
	if err != nil {
		return 0, err
	}

	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("unparsable temperature %q: %v", raw, err)
	}

	return float64(v) / 1000, nil
}
