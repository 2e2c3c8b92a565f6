// Command lockstepdemo runs a two-peer lockstep match using
// internal/examplesim's x-axis mover simulation. It prints match state to
// stdout instead of rendering it, following server.go's [INFO]/[ERROR]
// log-tag convention instead of a UI window.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maxpoletaev/lockstep/internal/examplesim"
	"github.com/maxpoletaev/lockstep/metrics"
	"github.com/maxpoletaev/lockstep/netcode"
	"github.com/maxpoletaev/lockstep/transport"
)

const (
	tickRate   = 60
	tickPeriod = time.Second / tickRate
)

type opts struct {
	listenAddr  string
	connectAddr string
	inputDelay  int
	rollback    int
	packetBatch int
	metricsAddr string
	statePath   string
	printEvery  int
}

func parseOpts() *opts {
	o := &opts{}

	flag.StringVar(&o.listenAddr, "listen", "", "listen for a peer on this address (host mode)")
	flag.StringVar(&o.connectAddr, "connect", "", "connect to a peer at this address (client mode)")
	flag.IntVar(&o.inputDelay, "delay", 2, "fixed input delay, in frames")
	flag.IntVar(&o.rollback, "rollback", 8, "maximum allowed speculative rollback, in frames")
	flag.IntVar(&o.packetBatch, "batch", 4, "trailing local inputs batched into each Inputs packet")
	flag.StringVar(&o.metricsAddr, "metrics", "", "serve Prometheus metrics on this address (disabled if empty)")
	flag.StringVar(&o.statePath, "state", "", "checkpoint file to load on start and save on exit (disabled if empty)")
	flag.IntVar(&o.printEvery, "print-every", tickRate, "print match state every N ticks")
	flag.Parse()

	if o.listenAddr == "" && o.connectAddr == "" {
		log.Printf("[ERROR] one of -listen or -connect is required")
		os.Exit(1)
	}

	if o.listenAddr != "" && o.connectAddr != "" {
		log.Printf("[ERROR] -listen and -connect are mutually exclusive")
		os.Exit(1)
	}

	return o
}

func main() {
	o := parseOpts()

	isHost := o.listenAddr != ""

	sim := examplesim.New(2)
	loadCheckpoint(o.statePath, sim)

	var recorder *metrics.Recorder
	if o.metricsAddr != "" {
		recorder = startMetrics(o.metricsAddr)
	}

	client := netcode.NewClient[examplesim.Input, examplesim.State](o.packetBatch)
	client.SetInputDelay(o.inputDelay)
	client.SetAllowedRollback(o.rollback)
	client.SetPacketBufferSize(o.packetBatch)

	if recorder != nil {
		client.SetRecorder(recorder)
	}

	var (
		localHandle netcode.PlayerHandle
		netHandle   netcode.PlayerHandle
	)

	if isHost {
		localHandle = client.AddLocalPlayer(0)
		netHandle = client.AddNetPlayer(1)
	} else {
		netHandle = client.AddNetPlayer(0)
		localHandle = client.AddLocalPlayer(1)
	}

	conn := connect(o, isHost)
	defer conn.Close()

	conn.Start()

	log.Printf("[INFO] match started: delay=%d rollback=%d batch=%d", o.inputDelay, o.rollback, o.packetBatch)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	tick := 0

runLoop:
	for {
		select {
		case <-stop:
			log.Printf("[INFO] shutting down...")
			break runLoop
		case <-ticker.C:
		}

		if err := conn.Err(); err != nil {
			log.Printf("[ERROR] connection failed: %s", err)
			break runLoop
		}

		for {
			p, ok := conn.Recv()
			if !ok {
				break
			}

			if reply, hasReply := client.HandlePacket(p); hasReply {
				conn.Send(reply)
			}
		}

		input := syntheticInput(tick, netHandle)
		if p, ok := client.HandleLocalInput(input, localHandle); ok {
			conn.Send(p)
		}

		if p, stalled := client.Update(sim); stalled {
			conn.Send(p)
		}

		if tick%o.printEvery == 0 {
			log.Printf("[INFO] frame=%d positions=%v stall_rate=%.3f", sim.Frame(), sim.Positions(), client.StallRate())
		}

		tick++
	}

	saveCheckpoint(o.statePath, sim)
}

// syntheticInput stands in for a real input device: it sweeps the local
// player back and forth, which is enough to exercise prediction and
// rollback without requiring a terminal or window to read keys from.
func syntheticInput(tick int, _ netcode.PlayerHandle) examplesim.Input {
	switch (tick / tickRate) % 2 {
	case 0:
		return examplesim.Input{XAxis: 1}
	default:
		return examplesim.Input{XAxis: -1}
	}
}

func connect(o *opts, isHost bool) *transport.Conn[examplesim.Input] {
	if isHost {
		log.Printf("[INFO] waiting for a peer on %s...", o.listenAddr)

		conn, err := transport.Listen[examplesim.Input](o.listenAddr)
		if err != nil {
			log.Printf("[ERROR] failed to listen: %s", err)
			os.Exit(1)
		}

		log.Printf("[INFO] peer connected")

		return conn
	}

	log.Printf("[INFO] connecting to %s...", o.connectAddr)

	conn, err := transport.Dial[examplesim.Input](o.connectAddr)
	if err != nil {
		log.Printf("[ERROR] failed to connect: %s", err)
		os.Exit(1)
	}

	log.Printf("[INFO] connected")

	return conn
}

func startMetrics(addr string) *metrics.Recorder {
	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("[ERROR] metrics server stopped: %s", err)
		}
	}()

	log.Printf("[INFO] serving metrics on %s", addr)

	return recorder
}

func loadCheckpoint(path string, sim *examplesim.Sim) {
	if path == "" {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}

		log.Printf("[ERROR] failed to open checkpoint: %s", err)
		os.Exit(1)
	}
	defer file.Close()

	state, err := examplesim.DecodeState(file)
	if err != nil {
		log.Printf("[ERROR] failed to decode checkpoint: %s", err)
		os.Exit(1)
	}

	sim.LoadState(state)

	log.Printf("[INFO] checkpoint loaded: %s", path)
}

func saveCheckpoint(path string, sim *examplesim.Sim) {
	if path == "" {
		return
	}

	file, err := os.Create(path)
	if err != nil {
		log.Printf("[ERROR] failed to create checkpoint: %s", err)
		return
	}
	defer file.Close()

	if err := examplesim.EncodeState(file, sim.SaveState()); err != nil {
		log.Printf("[ERROR] failed to save checkpoint: %s", err)
		return
	}

	log.Printf("[INFO] checkpoint saved: %s", path)
}
