package common

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind uint8

const (
	KindConfig    ErrorKind = iota + 1 // 配置错误，发包前即可发现
	KindTransport                      // 链路错误，扫描过程中致命
	KindOutput                         // 输出错误，不影响已完成的扫描
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindOutput:
		return "output"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// configuration
var (
	ErrInterfaceNotFound = errors.New("interface not found")
	ErrLoopbackInterface = errors.New("loopback interface")
	ErrNoIPv4Address     = errors.New("interface has no ipv4 address")
	ErrNotEthernet       = errors.New("interface has no ethernet hardware address")
	ErrInvalidSelector   = errors.New("select the interface by name or by index")
)

// transport
var (
	ErrLinkOpen       = errors.New("open link failed")
	ErrLinkWrite      = errors.New("write link failed")
	ErrLinkRead       = errors.New("read link failed")
	ErrReceiverClosed = errors.New("receiver closed unexpectedly")
)

// ErrReadTimeout is returned by a Link when no frame arrived within its poll
// interval. It is a tick, not a failure.
var ErrReadTimeout = errors.New("link read timeout")

type ScanError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

func newScanError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ScanError{Kind: kind, Op: op, Err: err}
}

func ConfigError(op string, err error) error {
	return newScanError(KindConfig, op, err)
}

func TransportError(op string, err error) error {
	return newScanError(KindTransport, op, err)
}

func OutputError(op string, err error) error {
	return newScanError(KindOutput, op, err)
}

func kindOf(err error) ErrorKind {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func IsConfigError(err error) bool {
	return kindOf(err) == KindConfig
}

func IsTransportError(err error) bool {
	return kindOf(err) == KindTransport
}

func IsOutputError(err error) bool {
	return kindOf(err) == KindOutput
}
