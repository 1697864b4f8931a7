package crabcan

import "testing"

func TestSocketPairRoundTripBool(t *testing.T) {
	parentFd, childFd, err := newSocketPair()
	if err != nil {
		t.Fatalf("newSocketPair: %v", err)
	}
	defer closeFd(parentFd)
	defer closeFd(childFd)

	if sendErr := sendBool(childFd, true); sendErr != nil {
		t.Fatalf("sendBool: %v", sendErr)
	}

	got, recvErr := recvBool(parentFd)
	if recvErr != nil {
		t.Fatalf("recvBool: %v", recvErr)
	}
	if !got {
		t.Fatalf("expected true, got false")
	}

	if sendErr := sendBool(parentFd, false); sendErr != nil {
		t.Fatalf("sendBool: %v", sendErr)
	}
	got, recvErr = recvBool(childFd)
	if recvErr != nil {
		t.Fatalf("recvBool: %v", recvErr)
	}
	if got {
		t.Fatalf("expected false, got true")
	}
}

func TestSocketPairClosedFd(t *testing.T) {
	parentFd, childFd, err := newSocketPair()
	if err != nil {
		t.Fatalf("newSocketPair: %v", err)
	}
	if closeErr := closeFd(parentFd); closeErr != nil {
		t.Fatalf("closeFd: %v", closeErr)
	}
	if closeErr := closeFd(childFd); closeErr != nil {
		t.Fatalf("closeFd: %v", closeErr)
	}

	if _, recvErr := recvBool(parentFd); recvErr == nil {
		t.Fatalf("expected error receiving on closed fd")
	}
}
