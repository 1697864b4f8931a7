package crabcan

import (
	"fmt"
	"math/rand/v2"

	"golang.org/x/sys/unix"
)

// The three fixed 12-element word lists (spec.md S4.3). The spec itself
// calls the choice of word lists peripheral, so these are plain data, not a
// configurable resource -- no ecosystem library in the pack offers "sample
// from a fixed closed list" as anything more than what math/rand already
// gives for free.
var (
	hostnameAdjectives = [12]string{
		"tiny", "small", "normal", "medium", "large", "huge",
		"silent", "noisy", "rusty", "spotted", "crooked", "round",
	}
	hostnameColors = [12]string{
		"red", "blue", "green", "brown", "purple", "yellow",
		"orange", "gold", "pink", "white", "black", "gray",
	}
	hostnameObjects = [12]string{
		"piano", "drum", "guitar", "synth", "bass", "oboe",
		"clarinet", "violin", "saxophone", "trumpet", "cello", "flute",
	}
)

func sampleWord(list [12]string) (string, *CrabcanError) {
	if len(list) == 0 {
		return "", rngError()
	}
	return list[rand.IntN(len(list))], nil
}

// generateHostname returns "<adj>-<color>-<object>", each token sampled
// uniformly (with replacement across calls) from its word list.
func generateHostname() (string, *CrabcanError) {
	adj, err := sampleWord(hostnameAdjectives)
	if err != nil {
		return "", err
	}
	color, err := sampleWord(hostnameColors)
	if err != nil {
		return "", err
	}
	object, err := sampleWord(hostnameObjects)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", adj, color, object), nil
}

// setContainerHostname calls sethostname(2). Must run inside the child's
// UTS namespace, before anything else in the setup pipeline (spec.md S4.9
// step 1).
func setContainerHostname(name string) *CrabcanError {
	if err := unix.Sethostname([]byte(name)); err != nil {
		return hostnameError(0, err)
	}
	return nil
}
