package crabcan

import (
	"sync"
	"testing"
)

// TestHandleUIDMapSkipsWriteWithoutUserns exercises the protocol when the
// child reports it could not (or chose not to) unshare the user namespace:
// the parent must not attempt any /proc writes and must release the child
// with a success ack.
func TestHandleUIDMapSkipsWriteWithoutUserns(t *testing.T) {
	parentFd, childFd, err := newSocketPair()
	if err != nil {
		t.Fatalf("newSocketPair: %v", err)
	}
	defer closeFd(parentFd)
	defer closeFd(childFd)

	var wg sync.WaitGroup
	var parentErr *CrabcanError
	wg.Add(1)
	go func() {
		defer wg.Done()
		parentErr = handleUIDMap(0, parentFd)
	}()

	if sendErr := sendBool(childFd, false); sendErr != nil {
		t.Fatalf("sendBool: %v", sendErr)
	}
	ack, recvErr := recvBool(childFd)
	if recvErr != nil {
		t.Fatalf("recvBool: %v", recvErr)
	}
	wg.Wait()

	if parentErr != nil {
		t.Fatalf("handleUIDMap: %v", parentErr)
	}
	if ack {
		t.Fatalf("expected parent to ack success (false), got failure ack")
	}
}

// TestHandleUIDMapWriteFailure uses a PID that cannot have a uid_map (0 is
// never a valid child PID) to exercise the failure path without requiring
// an actual user namespace or root privileges.
func TestHandleUIDMapWriteFailure(t *testing.T) {
	parentFd, childFd, err := newSocketPair()
	if err != nil {
		t.Fatalf("newSocketPair: %v", err)
	}
	defer closeFd(parentFd)
	defer closeFd(childFd)

	var wg sync.WaitGroup
	var parentErr *CrabcanError
	wg.Add(1)
	go func() {
		defer wg.Done()
		parentErr = handleUIDMap(0, parentFd)
	}()

	if sendErr := sendBool(childFd, true); sendErr != nil {
		t.Fatalf("sendBool: %v", sendErr)
	}
	ack, recvErr := recvBool(childFd)
	if recvErr != nil {
		t.Fatalf("recvBool: %v", recvErr)
	}
	wg.Wait()

	if parentErr == nil {
		t.Fatalf("expected handleUIDMap to fail writing uid_map for pid 0")
	}
	if !ack {
		t.Fatalf("expected parent to ack failure (true)")
	}
}
