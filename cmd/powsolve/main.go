// Command powsolve brute-forces proof-of-work nonces: for each difficulty k
// it finds the smallest nonce such that sha256(input + "+" + nonce) starts
// with k zero hex digits.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	var (
		input string
		maxK  int
	)
	flag.StringVar(&input, "input", "topcoder", "base string to extend with a nonce")
	flag.IntVar(&maxK, "max-zeros", 3, "search difficulties 1..max-zeros (1-5)")
	flag.Parse()

	if maxK < 1 || maxK > 5 {
		fmt.Fprintln(os.Stderr, "--max-zeros must be between 1 and 5")
		os.Exit(1)
	}

	for k := 1; k <= maxK; k++ {
		nonce, digest, attempts := solve(input, k)
		fmt.Printf("zeros=%d attempts=%d input=%s+%d digest=%s\n", k, attempts, input, nonce, digest)
	}
}

// solve searches nonces from zero upward until the digest carries the
// required prefix. Each difficulty restarts from zero so the reported attempt
// count is comparable across difficulties.
func solve(input string, zeros int) (nonce int, digest string, attempts int) {
	prefix := strings.Repeat("0", zeros)
	for nonce = 0; ; nonce++ {
		attempts++
		sum := sha256.Sum256([]byte(input + "+" + strconv.Itoa(nonce)))
		digest = hex.EncodeToString(sum[:])
		if strings.HasPrefix(digest, prefix) {
			return nonce, digest, attempts
		}
	}
}
