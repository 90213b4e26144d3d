// Command irnec sends and receives NEC infrared codes on a Linux host with
// an IR LED and a demodulating IR receiver wired to GPIO pins.
//
// Usage:
//
//	irnec [flags]
//
// Flags:
//
//	-config string     YAML configuration file
//	-rx string         Receiver GPIO pin (default "GPIO17")
//	-tx string         IR LED GPIO pin (default "GPIO18")
//	-protocol string   Receive protocol: nec, keyestudio (default "nec")
//	-send string       Send a 32 bit code, e.g. 0x00FF02FD, then exit
//	-long string       Send a hex code of any length, then exit
//	-repeat int        Repeat codes to send after -send/-long
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Without -send or -long, irnec receives and logs datagrams and button
// presses until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sparques/irnec"
	"github.com/sparques/irnec/background"
	"github.com/sparques/irnec/nec"
	"github.com/sparques/irnec/periphio"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "irnec: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML configuration file")
	rxPin := flag.String("rx", "", "receiver GPIO pin")
	txPin := flag.String("tx", "", "IR LED GPIO pin")
	protocol := flag.String("protocol", "", "receive protocol: nec, keyestudio")
	send := flag.String("send", "", "send a 32 bit code and exit")
	long := flag.String("long", "", "send a hex code of any length and exit")
	repeat := flag.Int("repeat", 0, "repeat codes to send after -send/-long")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rx":
			cfg.RxPin = *rxPin
		case "tx":
			cfg.TxPin = *txPin
		case "protocol":
			cfg.Protocol = *protocol
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	level, err := cfg.logLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}

	if *send != "" || *long != "" {
		return transmit(cfg, logger, *send, *long, *repeat)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return receive(ctx, cfg, logger)
}

func transmit(cfg Config, logger *slog.Logger, code, long string, repeats int) error {
	pin := gpioreg.ByName(cfg.TxPin)
	if pin == nil {
		return fmt.Errorf("unknown tx pin %q", cfg.TxPin)
	}

	// Send swallows malformed input, check it here so the user hears about it
	if code != "" {
		if _, err := nec.ParseCode(code); err != nil {
			return err
		}
	} else if _, _, err := nec.ParseLong(long); err != nil {
		return err
	}

	carrier := periphio.NewCarrier(pin)
	tx, err := irnec.NewTxDevice(carrier, irnec.WithLogger(logger))
	if err != nil {
		return err
	}
	sender := nec.NewSender(tx)

	if code != "" {
		sender.Send(code)
	} else {
		sender.SendLong(long)
	}
	if err := carrier.Err(); err != nil {
		return err
	}
	logger.Info("sent", slog.String("code", code+long), slog.Duration("correction", tx.Correction()))

	for i := 0; i < repeats; i++ {
		time.Sleep(nec.RepeatPeriod)
		sender.SendRepeat()
	}
	return carrier.Err()
}

// newReceiver builds the receiver. At debug level every raw pair is logged
// as well.
func newReceiver(ctx context.Context, sched *background.Scheduler, cfg Config, logger *slog.Logger) *nec.Receiver {
	opts := []nec.Option{
		nec.WithLogger(logger),
		nec.WithRepeatTimeout(cfg.RepeatTimeout),
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		opts = append(opts, nec.WithTap(pairLogger{log: logger}))
	}
	return nec.NewReceiver(sched, opts...)
}

// pairLogger logs every mark/space pair the receiver sees.
type pairLogger struct {
	log *slog.Logger
}

func (p pairLogger) HandleTimePair(pair irnec.TimePair) {
	p.log.Debug("pair", slog.Duration("mark", pair.Mark()), slog.Duration("space", pair.Space()))
}

func receive(ctx context.Context, cfg Config, logger *slog.Logger) error {
	protocol, err := cfg.protocol()
	if err != nil {
		return err
	}
	pin := gpioreg.ByName(cfg.RxPin)
	if pin == nil {
		return fmt.Errorf("unknown rx pin %q", cfg.RxPin)
	}
	edges, err := periphio.NewEdges(pin)
	if err != nil {
		return err
	}

	sched := background.New(background.WithLogger(logger))
	defer sched.Close()

	rcv := newReceiver(ctx, sched, cfg, logger)
	rcv.OnDatagram(func() {
		logger.Info("datagram", slog.String("data", rcv.Datagram()))
	})
	rcv.OnButton(nec.AnyButton, nec.Pressed, func() {
		logger.Info("pressed", slog.String("button", fmt.Sprintf("%#x", rcv.HeldButton())))
	})
	rcv.OnButton(nec.AnyButton, nec.Released, func() {
		logger.Info("released", slog.String("button", fmt.Sprintf("%#x", rcv.LastButton())))
	})
	rcv.Connect(edges, protocol)

	logger.Info("listening", slog.String("pin", cfg.RxPin), slog.String("protocol", protocol.String()))
	if err := edges.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
