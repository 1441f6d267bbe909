package extractor

import (
	"bytes"
	"encoding/base64"
	"net"
	"testing"

	"NetSentry/internal/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildPacket(t *testing.T, ls ...gopacket.SerializableLayer) gopacket.Packet {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		t.Fatalf("Failed to serialize layers: %v", err)
	}
	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func tcpPacket(t *testing.T, ttl uint8, syn, ack, fin, rst bool, payloadLen int) gopacket.Packet {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		SrcIP:    net.IP{192, 168, 0, 1},
		DstIP:    net.IP{8, 8, 8, 8},
		Version:  4,
		TTL:      ttl,
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{
		SrcPort: 12345,
		DstPort: 80,
		SYN:     syn,
		ACK:     ack,
		FIN:     fin,
		RST:     rst,
		Window:  14600,
	}
	tcp.SetNetworkLayerForChecksum(ip)
	return buildPacket(t, eth, ip, tcp, gopacket.Payload(make([]byte, payloadLen)))
}

func TestExtractTCP(t *testing.T) {
	packet := tcpPacket(t, 64, true, true, false, false, 100)

	fv, ok := Extract(packet)
	if !ok {
		t.Fatal("Expected TCP packet to be extractable")
	}
	if len(fv) != model.NumFeatures {
		t.Fatalf("Expected %d features, got %d", model.NumFeatures, len(fv))
	}
	if fv[0] != 6 {
		t.Errorf("Expected protocol 6, got %f", fv[0])
	}
	if fv[1] != float64(len(packet.Data())) {
		t.Errorf("Expected length %d, got %f", len(packet.Data()), fv[1])
	}
	if fv[2] != 64 {
		t.Errorf("Expected TTL 64, got %f", fv[2])
	}
	if fv[3] != 2 {
		t.Errorf("Expected 2 control flags (SYN+ACK), got %f", fv[3])
	}
}

func TestExtractUDP(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
		Version:  4,
		TTL:      128,
		Protocol: layers.IPProtocolUDP,
	}
	udp := &layers.UDP{SrcPort: 5353, DstPort: 53}
	udp.SetNetworkLayerForChecksum(ip)
	packet := buildPacket(t, eth, ip, udp, gopacket.Payload(make([]byte, 40)))

	fv, ok := Extract(packet)
	if !ok {
		t.Fatal("Expected UDP packet to be extractable")
	}
	if fv[0] != 17 {
		t.Errorf("Expected protocol 17, got %f", fv[0])
	}
	if fv[3] != 0 {
		t.Errorf("Expected flag count 0 for UDP, got %f", fv[3])
	}
}

func TestExtractNonIPIsNotApplicable(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		SourceProtAddress: []byte{10, 0, 0, 1},
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte{10, 0, 0, 2},
	}
	packet := buildPacket(t, eth, arp)

	if _, ok := Extract(packet); ok {
		t.Error("Expected non-IP packet to be NotApplicable")
	}
}

func TestExtractDeterministic(t *testing.T) {
	packet := tcpPacket(t, 64, true, false, false, false, 10)
	reparsed := gopacket.NewPacket(packet.Data(), layers.LayerTypeEthernet, gopacket.Default)

	a, _ := Extract(packet)
	b, _ := Extract(reparsed)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Extraction not deterministic at feature %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestBuildRecord(t *testing.T) {
	packet := tcpPacket(t, 64, true, true, true, true, 100)
	fv, _ := Extract(packet)
	res := model.ClassificationResult{Label: model.LabelAnomaly, Confidence: 0.9}

	rec := BuildRecord(packet, res, fv)
	if rec.SrcIP != "192.168.0.1" || rec.DstIP != "8.8.8.8" {
		t.Errorf("Unexpected addresses: %s -> %s", rec.SrcIP, rec.DstIP)
	}
	if rec.Protocol != "TCP" {
		t.Errorf("Expected protocol TCP, got %s", rec.Protocol)
	}
	if rec.Flags != "SYN|ACK|FIN|RST" {
		t.Errorf("Unexpected flag string: %s", rec.Flags)
	}
	if rec.Classification != "Anomaly" || rec.Confidence != 0.9 {
		t.Errorf("Classification not carried: %s %f", rec.Classification, rec.Confidence)
	}
	if rec.Size != len(packet.Data()) {
		t.Errorf("Expected size %d, got %d", len(packet.Data()), rec.Size)
	}

	raw, err := base64.StdEncoding.DecodeString(rec.RawData)
	if err != nil {
		t.Fatalf("Raw data is not valid base64: %v", err)
	}
	if !bytes.Equal(raw, packet.Data()) {
		t.Error("Raw data does not round-trip to the captured bytes")
	}
}
