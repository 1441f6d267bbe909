package sniffer

import (
	"context"
	"errors"
	"log"

	"NetSentry/internal/emitter"
	"NetSentry/internal/extractor"
	"NetSentry/internal/model"
	"NetSentry/internal/policy"

	"github.com/google/gopacket"
)

// ErrSourceClosed marks a capture source that stopped producing packets,
// either because an offline file was exhausted or because the live handle
// failed. The caller decides which it is.
var ErrSourceClosed = errors.New("capture source closed")

// PacketSource yields decoded packets. Satisfied by *gopacket.PacketSource.
type PacketSource interface {
	Packets() chan gopacket.Packet
}

// Sniffer drives the per-packet pipeline: extract features, classify,
// apply the sensitivity threshold, assemble the enriched record and hand
// it to the batching emitter.
type Sniffer struct {
	classifier model.Classifier
	threshold  *policy.Threshold
	emitter    *emitter.Emitter
}

// New creates a sniffer. The threshold is read per packet, so sensitivity
// changes apply to the very next decision.
func New(classifier model.Classifier, threshold *policy.Threshold, em *emitter.Emitter) *Sniffer {
	return &Sniffer{
		classifier: classifier,
		threshold:  threshold,
		emitter:    em,
	}
}

// Run consumes packets until the context is cancelled or the source stops.
// A closed source returns ErrSourceClosed; cancellation returns nil. Any
// single packet's processing failure is isolated and logged, never fatal.
func (s *Sniffer) Run(ctx context.Context, src PacketSource) error {
	packets := src.Packets()
	processed := 0

	for {
		select {
		case <-ctx.Done():
			log.Printf("sniffer: stop signal received after %d packets", processed)
			return nil
		case packet, ok := <-packets:
			if !ok {
				return ErrSourceClosed
			}
			s.process(packet)
			processed++
			if processed%1000 == 0 {
				log.Printf("%d packets processed...", processed)
			}
		}
	}
}

func (s *Sniffer) process(packet gopacket.Packet) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sniffer: packet skipped after processing failure: %v", r)
		}
	}()

	fv, ok := extractor.Extract(packet)
	if !ok {
		return // no network layer, skip classification entirely
	}

	res := s.classifier.Predict(fv)
	res = policy.Apply(res, s.threshold.Load())

	s.emitter.Add(extractor.BuildRecord(packet, res, fv))
}
