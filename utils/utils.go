package utils

import "math/rand"

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// RandomAlphabetString returns n random lower case letters.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
