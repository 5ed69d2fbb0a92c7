package crypto

import "errors"

var ErrDecryptionFailed = errors.New("failed to decrypt vote data")
var ErrInvalidKeyMaterial = errors.New("invalid encryption key material")
