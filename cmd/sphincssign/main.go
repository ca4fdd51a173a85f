// Command sphincssign is a thin demonstration front-end over the
// sphincsplus package. It is explicitly not part of the core signature
// construction; it exists only to exercise the library end-to-end from a
// terminal.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/hashforest/sphincsplus"
	"github.com/hashforest/sphincsplus/keystore"
)

// openCache opens the subtree cache at path if path is non-empty. An
// empty path leaves the signer uncached.
func openCache(path string) *keystore.Cache {
	if path == "" {
		return nil
	}
	c, err := keystore.Open(path)
	if err != nil {
		fail("opening cache %q: %s", path, err)
	}
	return c
}

func fail(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func cmdAlgs() {
	for _, name := range sphincsplus.ListNames() {
		p := sphincsplus.ParamsFromName(name)
		fmt.Printf("%-20s %s\n", name, p)
	}
}

func cmdKeygen(args []string) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	alg := fs.String("alg", "SPX-SMALL", "named parameter set")
	seedHex := fs.String("seed", "", "hex-encoded master seed (random if empty)")
	pubSeedHex := fs.String("public-seed", "", "hex-encoded public seed (random if empty)")
	cachePath := fs.String("cache", "", "path to a subtree cache file (disabled if empty)")
	fs.Parse(args)

	p := sphincsplus.ParamsFromName(*alg)
	if p == nil {
		fail("unknown parameter set %q; see 'sphincssign algs'", *alg)
	}
	ctx, err := sphincsplus.NewContext(*p)
	if err != nil {
		fail("%s", err)
	}

	seed := readOrRandomHex(*seedHex, 32)
	var publicSeed [32]byte
	copy(publicSeed[:], readOrRandomHex(*pubSeedHex, 32))

	signer := sphincsplus.NewSigner(ctx, seed, publicSeed)
	if cache := openCache(*cachePath); cache != nil {
		defer cache.Close()
		signer = signer.WithCache(cache)
	}
	pub, verr := signer.PublicKey()
	if verr != nil {
		fail("%s", verr)
	}

	pubBytes, _ := pub.MarshalBinary()
	fmt.Printf("seed:        %s\n", hex.EncodeToString(seed))
	fmt.Printf("public_seed: %s\n", hex.EncodeToString(publicSeed[:]))
	fmt.Printf("public_key:  %s\n", hex.EncodeToString(pubBytes))
}

func cmdSign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	alg := fs.String("alg", "SPX-SMALL", "named parameter set")
	seedHex := fs.String("seed", "", "hex-encoded master seed")
	pubSeedHex := fs.String("public-seed", "", "hex-encoded public seed")
	in := fs.String("in", "", "path to message file ('-' for stdin)")
	cachePath := fs.String("cache", "", "path to a subtree cache file (disabled if empty)")
	fs.Parse(args)

	p := sphincsplus.ParamsFromName(*alg)
	if p == nil {
		fail("unknown parameter set %q", *alg)
	}
	ctx, err := sphincsplus.NewContext(*p)
	if err != nil {
		fail("%s", err)
	}

	seed, err := hex.DecodeString(*seedHex)
	if err != nil {
		fail("bad -seed: %s", err)
	}
	pubSeedBytes, err := hex.DecodeString(*pubSeedHex)
	if err != nil {
		fail("bad -public-seed: %s", err)
	}
	var publicSeed [32]byte
	copy(publicSeed[:], pubSeedBytes)

	message := readMessage(*in)

	signer := sphincsplus.NewSigner(ctx, seed, publicSeed)
	if cache := openCache(*cachePath); cache != nil {
		defer cache.Close()
		signer = signer.WithCache(cache)
	}
	sig, verr := signer.Sign(message)
	if verr != nil {
		fail("%s", verr)
	}
	sigBytes, err := sig.MarshalBinary()
	if err != nil {
		fail("%s", err)
	}
	fmt.Println(hex.EncodeToString(sigBytes))
}

func cmdVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	alg := fs.String("alg", "SPX-SMALL", "named parameter set")
	pubHex := fs.String("public-key", "", "hex-encoded public key")
	sigHex := fs.String("sig", "", "hex-encoded signature")
	in := fs.String("in", "", "path to message file ('-' for stdin)")
	fs.Parse(args)

	p := sphincsplus.ParamsFromName(*alg)
	if p == nil {
		fail("unknown parameter set %q", *alg)
	}
	ctx, err := sphincsplus.NewContext(*p)
	if err != nil {
		fail("%s", err)
	}

	pubBytes, err := hex.DecodeString(*pubHex)
	if err != nil {
		fail("bad -public-key: %s", err)
	}
	pub, err := sphincsplus.UnmarshalSphincsPublic(pubBytes)
	if err != nil {
		fail("%s", err)
	}

	sigBytes, err := hex.DecodeString(*sigHex)
	if err != nil {
		fail("bad -sig: %s", err)
	}
	sig, err := sphincsplus.UnmarshalSphincsSignature(sigBytes, *p)
	if err != nil {
		fail("%s", err)
	}

	message := readMessage(*in)

	_, timestamp, verr := sphincsplus.Verify(ctx, message, sig, pub)
	if verr != nil {
		fail("invalid signature: %s", verr)
	}
	fmt.Printf("ok, signed at timestamp %d\n", timestamp)
}

func readOrRandomHex(h string, n int) []byte {
	if h != "" {
		b, err := hex.DecodeString(h)
		if err != nil {
			fail("bad hex input: %s", err)
		}
		return b
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		fail("generating random bytes: %s", err)
	}
	return b
}

func readMessage(path string) []byte {
	if path == "" || path == "-" {
		b, err := ioutil.ReadAll(os.Stdin)
		if err != nil {
			fail("reading stdin: %s", err)
		}
		return b
	}
	b, err := ioutil.ReadFile(path)
	if err != nil {
		fail("reading %s: %s", path, err)
	}
	return b
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: sphincssign <algs|keygen|sign|verify> [flags]")
		os.Exit(2)
	}
	switch os.Args[1] {
	case "algs":
		cmdAlgs()
	case "keygen":
		cmdKeygen(os.Args[2:])
	case "sign":
		cmdSign(os.Args[2:])
	case "verify":
		cmdVerify(os.Args[2:])
	default:
		fail("unknown command %q", os.Args[1])
	}
}
