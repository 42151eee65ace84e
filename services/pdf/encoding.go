package pdf

import "encoding/base64"

// EncodeBase64 turns the raw PDF into the transport encoding used in JSON responses.
func EncodeBase64(pdf []byte) string {
	return base64.StdEncoding.EncodeToString(pdf)
}
