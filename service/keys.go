package service

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"voting-registrar/encryption"
	"voting-registrar/models"
	"voting-registrar/voting"
)

const registrarKeyFile = "registrar_key.json"

// LoadOrGenerateRegistrarKey reads the registrar key pair from storagePath,
// or generates one and saves it there readable only by the owner.
func LoadOrGenerateRegistrarKey(storagePath string, kidLen int) (models.KeyPairJSON, error) {
	keyPath := filepath.Join(storagePath, registrarKeyFile)

	// Try to load existing key pair
	data, err := os.ReadFile(keyPath)
	if err == nil {
		var pair models.KeyPairJSON
		if err := json.Unmarshal(data, &pair); err != nil {
			return models.KeyPairJSON{}, fmt.Errorf("failed to parse registrar key: %v", err)
		}
		if _, err := encryption.ParsePublicKey(pair.PKey, models.RoleRegistrar); err != nil {
			return models.KeyPairJSON{}, fmt.Errorf("failed to restore registrar key: %w", err)
		}
		if _, err := encryption.ParseSecretKey(pair.SKey, models.RoleRegistrar); err != nil {
			return models.KeyPairJSON{}, fmt.Errorf("failed to restore registrar key: %w", err)
		}
		return pair, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return models.KeyPairJSON{}, fmt.Errorf("failed to read registrar key: %v", err)
	}

	// Generate new key pair if none exists
	pair, err := voting.GenerateRegistrarKeyPair(kidLen, rand.Reader)
	if err != nil {
		return models.KeyPairJSON{}, fmt.Errorf("failed to generate registrar key: %w", err)
	}

	data, err = json.MarshalIndent(pair, "", "  ")
	if err != nil {
		return models.KeyPairJSON{}, fmt.Errorf("failed to marshal registrar key: %v", err)
	}

	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return models.KeyPairJSON{}, fmt.Errorf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(keyPath, data, 0600); err != nil {
		return models.KeyPairJSON{}, fmt.Errorf("failed to save registrar key: %v", err)
	}

	return pair, nil
}
