package arp_test

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/LanXuage/arpscanner/common"
	"github.com/LanXuage/arpscanner/core/arp"

	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/poll"
)

func waitFrames(r *arp.Receiver, n uint64) poll.Check {
	return func(t poll.LogT) poll.Result {
		if got := r.Stats().Frames; got < n {
			return poll.Continue("%d of %d frames read", got, n)
		}
		return poll.Success()
	}
}

func TestReceiverFiltersReplies(t *testing.T) {
	link := newFakeLink()
	r := arp.NewReceiver(link, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)
	<-r.Ready()

	replyIP := netip.MustParseAddr("192.168.1.10")
	link.Inject([]byte{0x01, 0x02, 0x03})
	link.Inject(buildIPv4Frame())
	link.Inject(buildARP(layers.ARPRequest, mustMac("02:00:00:00:00:09"), netip.MustParseAddr("192.168.1.9"), arp.ETH_BROADCAST, localIP))
	link.Inject(buildReply(mustMac("aa:bb:cc:dd:ee:ff"), replyIP))

	select {
	case reply := <-r.Replies():
		assert.Check(t, is.Equal(reply.IP, replyIP))
		assert.Check(t, is.Equal(reply.MAC.String(), "aa:bb:cc:dd:ee:ff"))
		assert.Check(t, !reply.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no reply forwarded")
	}

	poll.WaitOn(t, waitFrames(r, 4), poll.WithDelay(5*time.Millisecond), poll.WithTimeout(2*time.Second))
	stats := r.Stats()
	assert.Check(t, is.Equal(stats.Malformed, uint64(1)))
	assert.Check(t, is.Equal(stats.NotARP, uint64(1)))
	assert.Check(t, is.Equal(stats.Requests, uint64(1)))
	assert.Check(t, is.Equal(stats.Replies, uint64(1)))
	assert.Check(t, is.Len(r.Replies(), 0))
}

func TestReceiverStopsOnCancel(t *testing.T) {
	link := newFakeLink()
	r := arp.NewReceiver(link, 16)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	<-r.Ready()
	cancel()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not stop")
	}
	assert.NilError(t, r.Err())
}

func TestReceiverStopsWhenBlockedOnFullChannel(t *testing.T) {
	link := newFakeLink()
	r := arp.NewReceiver(link, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	<-r.Ready()
	for i := 10; i < 13; i++ {
		link.Inject(buildReply(mustMac("aa:bb:cc:dd:ee:ff"), netip.AddrFrom4([4]byte{192, 168, 1, byte(i)})))
	}
	poll.WaitOn(t, waitFrames(r, 2), poll.WithDelay(5*time.Millisecond), poll.WithTimeout(2*time.Second))
	cancel()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not stop")
	}
	assert.NilError(t, r.Err())
}

func TestReceiverReadErrorIsFatal(t *testing.T) {
	link := newFakeLink()
	r := arp.NewReceiver(link, 16)
	go r.Run(context.Background())
	link.readErr <- errors.New("device went away")

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("receiver kept running after a read error")
	}
	err := r.Err()
	assert.Check(t, is.ErrorIs(err, common.ErrLinkRead))
	assert.Check(t, common.IsTransportError(err))
}

func TestReceiverSurvivesGarbage(t *testing.T) {
	link := newFakeLink()
	r := arp.NewReceiver(link, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	full := buildReply(mustMac("aa:bb:cc:dd:ee:ff"), netip.MustParseAddr("192.168.1.10"))
	for n := 0; n < arp.FRAME_LEN; n++ {
		link.Inject(full[:n])
	}
	link.Inject(full)

	select {
	case reply := <-r.Replies():
		assert.Check(t, is.Equal(reply.IP.String(), "192.168.1.10"))
	case <-time.After(2 * time.Second):
		t.Fatal("receiver stopped on malformed frames")
	}
	assert.Check(t, is.Equal(r.Stats().Malformed, uint64(arp.FRAME_LEN)))
	assert.NilError(t, r.Err())
}
