// Package wallet generates and validates custodial deposit addresses.
// Keys are random identifiers recorded for a future signing collaborator;
// no on-chain signing happens in this process.
package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	addressPrefix = "0x"
	addressHexLen = 40
	keyHexLen     = 64
)

var ErrBadAddress = errors.New("wallet: malformed address")

// NewKeypair returns a fresh deposit address and its custody key.
// The custody key is owned exclusively by the account record it is
// assigned to and is never reassigned.
func NewKeypair() (address, custodyKey string, err error) {
	addrBytes := make([]byte, addressHexLen/2)
	if _, err := rand.Read(addrBytes); err != nil {
		return "", "", fmt.Errorf("wallet: generate address: %w", err)
	}
	keyBytes := make([]byte, keyHexLen/2)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", "", fmt.Errorf("wallet: generate custody key: %w", err)
	}
	return addressPrefix + hex.EncodeToString(addrBytes), hex.EncodeToString(keyBytes), nil
}

// ValidateAddress checks the destination address format used by the send
// flow: required 0x prefix followed by exactly 40 hex characters.
func ValidateAddress(addr string) error {
	if !strings.HasPrefix(addr, addressPrefix) {
		return ErrBadAddress
	}
	body := addr[len(addressPrefix):]
	if len(body) != addressHexLen {
		return ErrBadAddress
	}
	if _, err := hex.DecodeString(body); err != nil {
		return ErrBadAddress
	}
	return nil
}
