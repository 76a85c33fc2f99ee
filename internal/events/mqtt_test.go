package events

import (
	"context"
	"net"
	"testing"
	"time"
)

// dropAfterConnack accepts one MQTT client, acknowledges its CONNECT and
// then goes away entirely, leaving the client stuck reconnecting.
func dropAfterConnack(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		conn, err := ln.Accept()
		ln.Close()
		if err != nil {
			return
		}
		buf := make([]byte, 256)
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := conn.Read(buf); err == nil {
			conn.Write([]byte{0x20, 0x02, 0x00, 0x00})
		}
		time.Sleep(50 * time.Millisecond)
		conn.Close()
	}()
	return "tcp://" + ln.Addr().String()
}

func TestMQTTPublishHonorsContextWhileBrokerIsDown(t *testing.T) {
	pub, err := NewMQTTPublisher(dropAfterConnack(t), "oed-test", "oed/changes")
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()
	time.Sleep(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = pub.Publish(ctx, Change{Entity: "meter", ID: 1, Op: OpCreate})
	if err == nil {
		t.Error("publish to a vanished broker reported success")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Publish blocked for %v after its context expired", elapsed)
	}
}
