package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

func GenerateHash(payload string) (string, error) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	if err != nil {
		return "", err
	}

	t := uint32(3)
	memory := uint32(64 * 1024)
	threads := uint8(2)
	keyLen := uint32(32)
	hash := argon2.IDKey([]byte(payload), salt, t, memory, threads, keyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	hashed := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, t, threads, b64Salt, b64Hash)

	return hashed, nil
}

func VerifyHash(hashed, plain string) (bool, error) {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}

	memory, time, threads, err := parseHashParams(parts[3])
	if err != nil {
		return false, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}

	keyLen := uint32(len(expectedHash))
	computeHash := argon2.IDKey([]byte(plain), salt, time, memory, threads, keyLen)

	return subtle.ConstantTimeCompare(expectedHash, computeHash) == 1, nil
}

// parseHashParams parses the "m=65536,t=3,p=2" segment of an argon2id hash.
func parseHashParams(paramPart string) (memory, time uint32, threads uint8, err error) {
	paramItems := strings.Split(paramPart, ",")
	if len(paramItems) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid param format")
	}

	for _, item := range paramItems {
		keyVal := strings.Split(item, "=")
		if len(keyVal) != 2 {
			return 0, 0, 0, fmt.Errorf("invalid key=value format in params")
		}
		switch keyVal[0] {
		case "m":
			mem, perr := strconv.ParseUint(keyVal[1], 10, 32)
			if perr != nil {
				return 0, 0, 0, perr
			}
			memory = uint32(mem)
		case "t":
			t, perr := strconv.ParseUint(keyVal[1], 10, 32)
			if perr != nil {
				return 0, 0, 0, perr
			}
			time = uint32(t)
		case "p":
			p, perr := strconv.ParseUint(keyVal[1], 10, 8)
			if perr != nil {
				return 0, 0, 0, perr
			}
			threads = uint8(p)
		default:
			return 0, 0, 0, fmt.Errorf("unknown parameter: %s", keyVal[0])
		}
	}

	return memory, time, threads, nil
}
