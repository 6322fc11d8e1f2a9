package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"gitee.com/flycash/msgpulse/internal/errs"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize    = 32
	iterations = 10000
)

var salt = []byte("msgpulse-salt")

// Cipher 供应商配置的加解密，AES-256-GCM，密文是 base64(nonce || ciphertext)
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher 用 PBKDF2-SHA256 从口令派生密钥
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: 加密口令不能为空", errs.ErrInvalidParameter)
	}
	key := pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

func (c *Cipher) Encrypt(plain string) (string, error) {
	if plain == "" {
		return plain, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return encoded, nil
	}
	plain, err := c.open(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrDecryptFailed, err)
	}
	return string(plain), nil
}

func (c *Cipher) open(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	ns := c.aead.NonceSize()
	if len(data) < ns+c.aead.Overhead() {
		return nil, fmt.Errorf("密文长度不足: %d", len(data))
	}
	return c.aead.Open(nil, data[:ns], data[ns:], nil)
}

// IsEncrypted GCM 带认证，能用当前密钥解开才算是密文
func (c *Cipher) IsEncrypted(value string) bool {
	if value == "" {
		return false
	}
	_, err := c.open(value)
	return err == nil
}

func (c *Cipher) EncryptIfNeeded(value string) (string, error) {
	if value == "" || c.IsEncrypted(value) {
		return value, nil
	}
	return c.Encrypt(value)
}

// DecryptIfNeeded 明文配置原样返回。
// 形如密文（合法 base64 且长度够）却解不开的，多半是密钥换了，返回 ErrDecryptFailed
func (c *Cipher) DecryptIfNeeded(value string) (string, error) {
	if !c.looksEncrypted(value) {
		return value, nil
	}
	plain, err := c.open(value)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrDecryptFailed, err)
	}
	return string(plain), nil
}

// looksEncrypted 明文配置是 JSON，不会是合法的标准 base64
func (c *Cipher) looksEncrypted(value string) bool {
	if value == "" {
		return false
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return false
	}
	return len(data) >= c.aead.NonceSize()+c.aead.Overhead()
}
