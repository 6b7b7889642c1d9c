// Package credentials builds the login payloads the portal accepts, either
// typed in by the user or read from the portal's QR code.
package credentials

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/neomestre/neomestre/internal/unimestre"
)

// ManualEncryption is the password scheme declared for typed-in credentials.
const ManualEncryption = "md5"

// Failure details carried inside MalformedPayload errors.
var (
	ErrCodeDecode = errors.New("QR code is not valid base64 text")
	ErrCodeData   = errors.New("QR code does not carry login data")
	ErrEmptyCode  = errors.New("no QR code was read")
)

// Payload is the body posted to the login endpoint.
type Payload struct {
	Login       string `json:"ds_login" validate:"notblank"`
	Password    string `json:"ds_senha" validate:"notblank"`
	Institution string `json:"cd_cliente" validate:"notblank"`
	Encryption  string `json:"ds_criptografia,omitempty"`

	// Method is how the credentials were supplied.
	Method unimestre.Method `json:"-"`

	// raw is the decoded QR document, forwarded as-is.
	raw []byte
}

// Key identifies the login attempt for in-flight tracking.
func (p Payload) Key() string {
	return "login:" + p.Institution + "/" + p.Login
}

// JSON returns the request body. QR payloads are sent exactly as the code
// carried them.
func (p Payload) JSON() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	return json.Marshal(p)
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Manual builds a payload from typed-in credentials.
func Manual(login, password, institution string) (Payload, error) {
	p := Payload{
		Login:       strings.TrimSpace(login),
		Password:    password,
		Institution: strings.TrimSpace(institution),
		Encryption:  ManualEncryption,
		Method:      unimestre.MethodManual,
	}
	if err := check(p); err != nil {
		return Payload{}, unimestre.Malformed(err).WithMethod(unimestre.MethodManual)
	}
	return p, nil
}

// DecodeQR reads the credentials carried by a scanned QR code: base64 text of
// a UTF-8 JSON object with ds_login, ds_senha and cd_cliente.
func DecodeQR(code string) (Payload, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Payload{}, unimestre.CodeRead(ErrEmptyCode).WithMethod(unimestre.MethodQRCode)
	}

	raw, err := decodeBase64(code)
	if err != nil {
		return Payload{}, qrMalformed(fmt.Errorf("%w: %v", ErrCodeDecode, err))
	}
	if !utf8.Valid(raw) {
		return Payload{}, qrMalformed(fmt.Errorf("%w: not UTF-8", ErrCodeDecode))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return Payload{}, qrMalformed(fmt.Errorf("%w: %v", ErrCodeData, err))
	}

	p := Payload{Method: unimestre.MethodQRCode, raw: raw}
	for key, dst := range map[string]*string{
		"ds_login":   &p.Login,
		"ds_senha":   &p.Password,
		"cd_cliente": &p.Institution,
	} {
		v, ok := doc[key]
		if !ok {
			return Payload{}, qrMalformed(fmt.Errorf("%w: missing %s", ErrCodeData, key))
		}
		s, ok := scalar(v)
		if !ok {
			return Payload{}, qrMalformed(fmt.Errorf("%w: %s is not text", ErrCodeData, key))
		}
		*dst = s
	}
	if enc, ok := doc["ds_criptografia"].(string); ok {
		p.Encryption = enc
	}
	if err := check(p); err != nil {
		return Payload{}, qrMalformed(fmt.Errorf("%w: %v", ErrCodeData, err))
	}
	return p, nil
}

// decodeBase64 accepts padded and unpadded input in either alphabet.
func decodeBase64(s string) ([]byte, error) {
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func scalar(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func check(p Payload) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("missing %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

func qrMalformed(err error) error {
	return unimestre.Malformed(err).WithMethod(unimestre.MethodQRCode)
}
