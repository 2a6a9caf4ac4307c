package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockEncryptor is a mock implementation of encryption.Encryptor.
type MockEncryptor struct {
	mock.Mock
}

// Encrypt seals plaintext.
func (m *MockEncryptor) Encrypt(plaintext []byte) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

// Decrypt opens a sealed payload.
func (m *MockEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	args := m.Called(ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
