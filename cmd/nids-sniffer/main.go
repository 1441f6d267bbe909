package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NetSentry/internal/config"
	"NetSentry/internal/emitter"
	"NetSentry/internal/ml"
	"NetSentry/internal/model"
	"NetSentry/internal/policy"
	"NetSentry/internal/sniffer"
	"NetSentry/internal/transport"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

const sensitivityPollInterval = 2 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	iface := flag.String("iface", "", "Interface to capture from (overrides config).")
	pcapFile := flag.String("pcap", "", "Replay a pcap file instead of live capture (overrides config).")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *iface != "" {
		cfg.Sniffer.Interface = *iface
	}
	if *pcapFile != "" {
		cfg.Sniffer.PcapFile = *pcapFile
	}

	engine := ml.NewEngine(cfg.Model.Path)
	threshold := policy.NewThreshold(cfg.Sensitivity)
	log.Printf("Sensitivity threshold: %.2f", threshold.Load())

	sink, err := buildSink(cfg.Sink)
	if err != nil {
		log.Fatalf("Failed to create sink: %v", err)
	}
	defer sink.Close()

	flushInterval, err := time.ParseDuration(cfg.Emitter.FlushInterval)
	if err != nil {
		log.Fatalf("Invalid flush_interval: %v", err)
	}
	deliverTimeout, err := time.ParseDuration(cfg.Emitter.DeliverTimeout)
	if err != nil {
		log.Fatalf("Invalid deliver_timeout: %v", err)
	}

	em := emitter.New(sink, cfg.Emitter.BatchSize, flushInterval, deliverTimeout)
	em.Start()
	defer em.Stop() // final flush of any buffered records

	handle, offline, err := openHandle(cfg.Sniffer)
	if err != nil {
		log.Fatalf("Failed to open capture source: %v", err)
	}
	defer handle.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutdown signal received, stopping capture...")
		cancel()
	}()

	go watchSensitivity(ctx, *configPath, threshold)

	log.Println("Capture started.")
	sn := sniffer.New(engine, threshold, em)
	err = sn.Run(ctx, gopacket.NewPacketSource(handle, handle.LinkType()))

	switch {
	case err == nil:
		// stop signal
	case errors.Is(err, sniffer.ErrSourceClosed) && offline:
		log.Println("Reached end of pcap file.")
	default:
		log.Printf("TERMINAL: capture source failed: %v", err)
	}
	log.Println("Sniffer stopped.")
}

// buildSink constructs the configured downstream sink.
func buildSink(cfg config.SinkConfig) (model.Sink, error) {
	switch cfg.Type {
	case "http":
		return transport.NewHTTPSink(cfg.HTTP)
	case "nats":
		return transport.NewPublisher(cfg.NATS)
	case "clickhouse":
		return transport.NewClickHouseSink(cfg.ClickHouse)
	default:
		return nil, errors.New("unknown sink type: " + cfg.Type)
	}
}

// openHandle opens either an offline pcap file or a live interface. The
// bool reports whether the handle is an offline replay.
func openHandle(cfg config.SnifferConfig) (*pcap.Handle, bool, error) {
	if cfg.PcapFile != "" {
		handle, err := pcap.OpenOffline(cfg.PcapFile)
		if err != nil {
			return nil, false, err
		}
		log.Printf("Replaying pcap file %s", cfg.PcapFile)
		return handle, true, nil
	}

	if cfg.Interface == "" {
		return nil, false, errors.New("no interface configured; set sniffer.interface or pass -iface")
	}
	handle, err := pcap.OpenLive(cfg.Interface, cfg.SnapshotLen, cfg.Promiscuous, pcap.BlockForever)
	if err != nil {
		return nil, false, err
	}
	if cfg.BPFFilter != "" {
		if err := handle.SetBPFFilter(cfg.BPFFilter); err != nil {
			handle.Close()
			return nil, false, err
		}
	}
	log.Printf("Capturing on interface %s", cfg.Interface)
	return handle, false, nil
}

// watchSensitivity polls the config file and applies sensitivity changes
// without a restart. Every packet decision reads the threshold atomically,
// so an update takes effect on the next packet.
func watchSensitivity(ctx context.Context, path string, threshold *policy.Threshold) {
	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(sensitivityPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil || !info.ModTime().After(lastMod) {
				continue
			}
			lastMod = info.ModTime()

			cfg, err := config.LoadConfig(path)
			if err != nil {
				log.Printf("Config reload failed, keeping sensitivity %.2f: %v", threshold.Load(), err)
				continue
			}
			if cfg.Sensitivity != threshold.Load() {
				log.Printf("Sensitivity updated: %.2f -> %.2f", threshold.Load(), cfg.Sensitivity)
				threshold.Store(cfg.Sensitivity)
			}
		}
	}
}
