package shortid

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// SlugLength gives ~35.7 bits over base62; collisions are handled by
// the create retry loop, not by growing the slug.
const SlugLength = 6

const secretBytes = 18

// Slug returns a random base62 identifier of SlugLength characters.
func Slug() string {
	return generate(SlugLength)
}

// Secret returns an owner credential: secretBytes of randomness in
// URL-safe base64 without padding. Independent of any slug.
func Secret() string {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		panic("shortid: crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func generate(length int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("shortid: crypto/rand failed: " + err.Error())
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String()
}
