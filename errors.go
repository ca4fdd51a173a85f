package sphincsplus

import (
	"fmt"
	goLog "log"
)

// Error is the error type returned by every fallible operation in this
// package. It wraps an inner error (if any), so callers can unwrap with
// Inner() without a type switch on the concrete cause.
type Error interface {
	error
	Inner() error // Returns the wrapped error, if any.
}

type errorImpl struct {
	msg   string
	inner error
}

func (err *errorImpl) Inner() error { return err.inner }

func (err *errorImpl) Error() string {
	if err.inner != nil {
		return fmt.Sprintf("%s: %s", err.msg, err.inner.Error())
	}
	return err.msg
}

// errorf formats a new Error.
func errorf(format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...)}
}

// wrapErrorf formats a new Error that wraps another.
func wrapErrorf(err error, format string, a ...interface{}) *errorImpl {
	return &errorImpl{msg: fmt.Sprintf(format, a...), inner: err}
}

// WrongMessageError is returned by Verify when the message supplied does
// not hash to the signature's stored data hash.
type WrongMessageError struct {
	*errorImpl
	ExpectedDigest [32]byte
}

// ForsFailureError is returned by Verify when the FORS public key
// reconstructed from the signature and message does not match the FORS
// public key declared in the signature. It indicates tampering with the
// FORS part of the signature or with the timestamp.
type ForsFailureError struct {
	*errorImpl
	Reconstructed [32]byte
	Declared      [32]byte
}

// ProofError is returned when a hypertree Merkle proof fails to validate
// at the indicated layer.
type ProofError struct {
	*errorImpl
	Layer          uint32
	ProvidedLeaf   [32]byte
	DeclaredRoot   [32]byte
	ReconstructRoot [32]byte
}

// PublicKeyError is returned when every hypertree layer validates but the
// final reconstructed root does not match the claimed master public key.
type PublicKeyError struct {
	*errorImpl
	Expected [32]byte
	Actual   [32]byte
}

func newWrongMessageError(expected [32]byte) *WrongMessageError {
	return &WrongMessageError{
		errorImpl:      errorf("message does not match signature's data hash"),
		ExpectedDigest: expected,
	}
}

func newForsFailureError(reconstructed, declared [32]byte) *ForsFailureError {
	return &ForsFailureError{
		errorImpl:     errorf("reconstructed FORS public key does not match signature"),
		Reconstructed: reconstructed,
		Declared:      declared,
	}
}

func newProofError(layer uint32, providedLeaf, declaredRoot, reconstructed [32]byte) *ProofError {
	return &ProofError{
		errorImpl:       errorf("hypertree proof failed at layer %d", layer),
		Layer:           layer,
		ProvidedLeaf:    providedLeaf,
		DeclaredRoot:    declaredRoot,
		ReconstructRoot: reconstructed,
	}
}

func newPublicKeyError(expected, actual [32]byte) *PublicKeyError {
	return &PublicKeyError{
		errorImpl: errorf("hypertree root does not match public key"),
		Expected:  expected,
		Actual:    actual,
	}
}

// Logger is the logging collaborator for this package. It defaults to a
// dummyLogger that discards everything; call SetLogger or EnableLogging
// to observe subtree cache hits and misses (subtree regeneration).
type Logger interface {
	Logf(format string, a ...interface{})
}

type dummyLogger struct{}

func (logger *dummyLogger) Logf(format string, a ...interface{}) {}

type stdlibLogger struct{}

func (logger *stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

var log Logger = &dummyLogger{}

// EnableLogging routes this package's log statements to the standard
// library log package. For more control, use SetLogger.
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// SetLogger installs logger as the destination for this package's log
// statements. Passing nil disables logging.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}
