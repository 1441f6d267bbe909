package extractor

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"NetSentry/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Extract converts a decoded packet into a feature vector ordered per
// model.FeatureOrder. The second return value is false for packets without
// an IPv4 layer; such packets never enter the classification pipeline.
// Pure function: no I/O, deterministic for identical packet bytes.
func Extract(packet gopacket.Packet) (model.FeatureVector, bool) {
	l := packet.Layer(layers.LayerTypeIPv4)
	if l == nil {
		return nil, false
	}
	ip := l.(*layers.IPv4)

	fv := make(model.FeatureVector, model.NumFeatures)
	fv[0] = float64(ip.Protocol)
	fv[1] = float64(len(packet.Data())) // full wire length, headers included
	fv[2] = float64(ip.TTL)
	if t := packet.Layer(layers.LayerTypeTCP); t != nil {
		fv[3] = float64(countFlags(t.(*layers.TCP)))
	}
	return fv, true
}

// countFlags counts the set {SYN, ACK, FIN, RST} control flags.
func countFlags(tcp *layers.TCP) int {
	n := 0
	for _, set := range []bool{tcp.SYN, tcp.ACK, tcp.FIN, tcp.RST} {
		if set {
			n++
		}
	}
	return n
}

// BuildRecord assembles the enriched log record for a classified packet.
// Raw bytes are base64-encoded so they survive the JSON boundary to the
// ingestion store unmodified.
func BuildRecord(packet gopacket.Packet, res model.ClassificationResult, fv model.FeatureVector) model.LogRecord {
	rec := model.LogRecord{
		Timestamp:      time.Now(),
		Size:           len(packet.Data()),
		Classification: res.Label.String(),
		Confidence:     res.Confidence,
		RawData:        base64.StdEncoding.EncodeToString(packet.Data()),
		Features:       fv,
	}
	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		rec.Timestamp = meta.Timestamp
	}

	if l := packet.Layer(layers.LayerTypeIPv4); l != nil {
		ip := l.(*layers.IPv4)
		rec.SrcIP = ip.SrcIP.String()
		rec.DstIP = ip.DstIP.String()
		rec.Protocol = strconv.Itoa(int(ip.Protocol))
	}
	if t := packet.Layer(layers.LayerTypeTCP); t != nil {
		rec.Protocol = "TCP"
		rec.Flags = flagString(t.(*layers.TCP))
	} else if packet.Layer(layers.LayerTypeUDP) != nil {
		rec.Protocol = "UDP"
	}
	return rec
}

func flagString(tcp *layers.TCP) string {
	var names []string
	for _, f := range []struct {
		set  bool
		name string
	}{
		{tcp.SYN, "SYN"},
		{tcp.ACK, "ACK"},
		{tcp.FIN, "FIN"},
		{tcp.RST, "RST"},
		{tcp.PSH, "PSH"},
		{tcp.URG, "URG"},
	} {
		if f.set {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}
