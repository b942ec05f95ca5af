package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service name for the OS credential store.
	credentialService = "agrolake"

	googleKeyName   = "google_api_key"
	hgBrasilKeyName = "hg_brasil_api_key"
)

// CredentialManager resolves API keys, preferring the environment and falling
// back to the OS credential store. Keys set through the TUI land in the store
// so they survive restarts without living in a file.
type CredentialManager struct {
	service string
}

func NewCredentialManager() *CredentialManager {
	return &CredentialManager{service: credentialService}
}

// GoogleAPIKey returns the Gemini API key from GOOGLE_API_KEY or the store.
func (cm *CredentialManager) GoogleAPIKey() (string, error) {
	return cm.resolve("GOOGLE_API_KEY", googleKeyName)
}

// HGBrasilAPIKey returns the weather API key from HG_BRASIL_API_KEY or the store.
func (cm *CredentialManager) HGBrasilAPIKey() (string, error) {
	return cm.resolve("HG_BRASIL_API_KEY", hgBrasilKeyName)
}

func (cm *CredentialManager) resolve(envVar, storeKey string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v, nil
	}

	value, err := keyring.Get(cm.service, storeKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no credential found for %s - set the %s environment variable or store it via the client", storeKey, envVar)
		}
		return "", fmt.Errorf("failed to read credential store: %w", err)
	}

	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("stored credential for %s is empty", storeKey)
	}
	return value, nil
}

// StoreGoogleAPIKey saves the Gemini API key in the OS credential store.
func (cm *CredentialManager) StoreGoogleAPIKey(key string) error {
	return cm.store(googleKeyName, key)
}

// StoreHGBrasilAPIKey saves the weather API key in the OS credential store.
func (cm *CredentialManager) StoreHGBrasilAPIKey(key string) error {
	return cm.store(hgBrasilKeyName, key)
}

func (cm *CredentialManager) store(storeKey, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("credential cannot be empty")
	}
	if err := keyring.Set(cm.service, storeKey, value); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// DeleteCredentials removes all stored keys. Missing entries are not errors.
func (cm *CredentialManager) DeleteCredentials() error {
	for _, key := range []string{googleKeyName, hgBrasilKeyName} {
		if err := keyring.Delete(cm.service, key); err != nil && err != keyring.ErrNotFound {
			return fmt.Errorf("failed to delete credential %s: %w", key, err)
		}
	}
	return nil
}
