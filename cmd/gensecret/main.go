package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// Ticket sealing derives a 32 byte key from the configured secret; generating
// a full-entropy one here keeps the derivation honest.
const SecretKeyBytesLen = 32

func main() {
	b := make([]byte, SecretKeyBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Printf("error while generating secret key: %v", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
