package main

import (
	"flag"
	"log"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Generates a mixed pcap of TCP, UDP and ARP packets for offline sniffer
// runs and manual testing. Roughly one packet in ten is shaped like an
// attack (all control flags set, oversized payload, low TTL).
func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	packetCount := flag.Int("c", 1000, "Number of packets to generate")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	log.Printf("Generating %d packets into %s...", *packetCount, *outputFile)

	for i := 0; i < *packetCount; i++ {
		var data []byte
		switch {
		case i%10 == 3:
			data = buildSuspiciousTCP(rng)
		case i%3 == 0:
			data = buildUDP(rng)
		case i%25 == 7:
			data = buildARP()
		default:
			data = buildTCP(rng)
		}

		ci := gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := pcapWriter.WritePacket(ci, data); err != nil {
			log.Fatalf("Failed to write packet: %v", err)
		}
	}

	log.Printf("Successfully generated %d packets into %s.", *packetCount, *outputFile)
}

func randomIP(rng *rand.Rand) net.IP {
	return net.IP{10, byte(rng.Intn(256)), byte(rng.Intn(256)), byte(rng.Intn(254) + 1)}
}

func ethLayer() *layers.Ethernet {
	return &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
}

func serialize(ls ...gopacket.SerializableLayer) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		log.Fatalf("Failed to serialize layers: %v", err)
	}
	return buf.Bytes()
}

func buildTCP(rng *rand.Rand) []byte {
	ip := &layers.IPv4{
		SrcIP:    randomIP(rng),
		DstIP:    randomIP(rng),
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(rng.Intn(65535-1024) + 1024),
		DstPort: 443,
		Seq:     rng.Uint32(),
		ACK:     true,
		Window:  14600,
	}
	tcp.SetNetworkLayerForChecksum(ip)

	payload := make([]byte, rng.Intn(400)+50)
	rng.Read(payload)
	return serialize(ethLayer(), ip, tcp, gopacket.Payload(payload))
}

func buildSuspiciousTCP(rng *rand.Rand) []byte {
	ip := &layers.IPv4{
		SrcIP:    randomIP(rng),
		DstIP:    randomIP(rng),
		Version:  4,
		TTL:      32,
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(rng.Intn(65535-1024) + 1024),
		DstPort: layers.TCPPort(rng.Intn(1024)),
		Seq:     rng.Uint32(),
		SYN:     true,
		ACK:     true,
		FIN:     true,
		RST:     true,
		Window:  1024,
	}
	tcp.SetNetworkLayerForChecksum(ip)

	payload := make([]byte, rng.Intn(200)+1300)
	rng.Read(payload)
	return serialize(ethLayer(), ip, tcp, gopacket.Payload(payload))
}

func buildUDP(rng *rand.Rand) []byte {
	ip := &layers.IPv4{
		SrcIP:    randomIP(rng),
		DstIP:    randomIP(rng),
		Version:  4,
		TTL:      128,
		Protocol: layers.IPProtocolUDP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(rng.Intn(65535-1024) + 1024),
		DstPort: 53,
	}
	udp.SetNetworkLayerForChecksum(ip)

	payload := make([]byte, rng.Intn(200)+40)
	rng.Read(payload)
	return serialize(ethLayer(), ip, udp, gopacket.Payload(payload))
}

func buildARP() []byte {
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
	return serialize(eth, arp)
}
