package config

import (
	"bytes"
	"io/ioutil"
	"os"
	"strconv"

	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("main.config")

type Config struct {
	StatePath         string
	UpdateBaseURL     string
	DatabaseDSN       string
	TelegramToken     string
	TelegramChannelID int64
	MachineID         string
	HardwareVersion   int64

	// speaker output
	PWMChip       int64
	PWMChannel    int64
	SampleRate    int64
	ToneFrequency int64

	// play button, periph.io pin name; optional
	ButtonPin string
}

func Get() *Config {
	StatePath := os.Getenv("STATE_PATH")
	if StatePath == "" {
		logger.Criticalf("Empty STATE_PATH env var!")
		os.Exit(1)
	}

	UpdateBaseURL := os.Getenv("UPDATE_BASEURL")
	if UpdateBaseURL == "" {
		logger.Criticalf("Empty UPDATE_BASEURL env var!")
		os.Exit(1)
	}

	DatabaseDSN := os.Getenv("DATABASE_DSN")
	if DatabaseDSN == "" {
		logger.Criticalf("Empty DATABASE_DSN env var!")
		os.Exit(1)
	}

	TelegramToken := os.Getenv("TELEGRAM_TOKEN")
	if TelegramToken == "" {
		logger.Criticalf("Empty TELEGRAM_TOKEN env var!")
		os.Exit(1)
	}

	cid := os.Getenv("TELEGRAM_CHANNELID")
	if cid == "" {
		logger.Criticalf("Empty TELEGRAM_CHANNELID env var!")
		os.Exit(1)
	}

	TelegramChannelID, err := strconv.ParseInt(cid, 10, 64)
	if err != nil {
		logger.Criticalf("Failed parsing TELEGRAM_CHANNELID env var!")
		os.Exit(1)
	}

	return &Config{
		StatePath:         StatePath,
		UpdateBaseURL:     UpdateBaseURL,
		DatabaseDSN:       DatabaseDSN,
		TelegramToken:     TelegramToken,
		TelegramChannelID: TelegramChannelID,
		MachineID:         machineID(),
		HardwareVersion:   intEnv("HARDWARE_VERSION", 1),
		PWMChip:           intEnv("PWM_CHIP", 0),
		PWMChannel:        intEnv("PWM_CHANNEL", 0),
		SampleRate:        intEnv("SAMPLE_RATE", 62500),
		ToneFrequency:     intEnv("TONE_FREQUENCY", 1043),
		ButtonPin:         os.Getenv("BUTTON_PIN"),
	}
}

// intEnv parses the named env var, exiting on garbage; empty means def.
func intEnv(name string, def int64) int64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		logger.Criticalf("Failed parsing %v env var!", name)
		os.Exit(1)
	}

	return n
}

func machineID() string {
	mid, err := ioutil.ReadFile("/etc/machine-id")
	if err != nil {
		panic("failed reading /etc/machine-id: " + err.Error())
	}

	mid = bytes.TrimSpace(mid)
	if len(mid) != 32 {
		panic("invalid contents of /etc/machine-id: " + string(mid))
	}

	return string(mid)
}
