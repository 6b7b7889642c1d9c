package unimestre

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced to the presentation layer.
type Kind int

const (
	// TransportError is a network or connectivity failure. Retrying may help.
	TransportError Kind = iota + 1

	// LoginRejected means the portal answered but reported failure or sent no result.
	LoginRejected

	// MalformedPayload means a response or QR payload does not match the
	// expected schema.
	MalformedPayload

	// CodeReadError is a scanner-level failure, passed through unchanged.
	CodeReadError
)

func (k Kind) String() string {
	switch k {
	case TransportError:
		return "transport_error"
	case LoginRejected:
		return "login_rejected"
	case MalformedPayload:
		return "malformed_payload"
	case CodeReadError:
		return "code_read_error"
	default:
		return "unknown"
	}
}

// Method is how the credentials were supplied. It only changes the wording
// of LoginRejected messages.
type Method int

const (
	MethodUnknown Method = iota
	MethodQRCode
	MethodManual
)

func (m Method) String() string {
	switch m {
	case MethodQRCode:
		return "qrcode"
	case MethodManual:
		return "manual"
	default:
		return "unknown"
	}
}

// Error is the discriminated failure returned by the decoder, the transport
// and the sync protocol.
type Error struct {
	Kind   Kind
	Method Method
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the user-facing text for the failure.
func (e *Error) Message() string {
	switch e.Kind {
	case TransportError:
		return "houve um erro de conexão. verifique a sua conexão de internet."
	case LoginRejected:
		switch e.Method {
		case MethodQRCode:
			return "houve um erro na efetuação do login. certifique-se de que o QR code escaneado é o correto."
		case MethodManual:
			return "houve um erro na efetuação do login. certifique-se de que os dados inseridos estão corretos."
		default:
			return "houve um erro na efetuação do login. verifique as suas credenciais."
		}
	case MalformedPayload:
		if e.Method == MethodQRCode {
			return "houve um erro com os dados do QR code. certifique-se de que esse é o código correto."
		}
		return "houve um erro na leitura dos dados recebidos."
	case CodeReadError:
		return "houve um erro na leitura do QR code."
	default:
		return "houve um erro desconhecido."
	}
}

// WithMethod returns a copy of e tagged with the credential method.
func (e *Error) WithMethod(m Method) *Error {
	cp := *e
	cp.Method = m
	return &cp
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// TransportFailure wraps err as a TransportError.
func TransportFailure(err error) *Error { return newError(TransportError, err) }

// Rejected wraps err as a LoginRejected failure.
func Rejected(err error) *Error { return newError(LoginRejected, err) }

// Malformed wraps err as a MalformedPayload failure.
func Malformed(err error) *Error { return newError(MalformedPayload, err) }

// CodeRead wraps err as a CodeReadError.
func CodeRead(err error) *Error { return newError(CodeReadError, err) }

// KindOf reports the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsTransport returns true if err is a TransportError.
func IsTransport(err error) bool { return KindOf(err) == TransportError }

// IsLoginRejected returns true if err is a LoginRejected failure.
func IsLoginRejected(err error) bool { return KindOf(err) == LoginRejected }

// IsMalformed returns true if err is a MalformedPayload failure.
func IsMalformed(err error) bool { return KindOf(err) == MalformedPayload }

// IsCodeRead returns true if err is a CodeReadError.
func IsCodeRead(err error) bool { return KindOf(err) == CodeReadError }
