package credentials

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomestre/neomestre/internal/unimestre"
)

func TestManual(t *testing.T) {
	p, err := Manual(" ana.souza ", "s3nha", "77")
	require.NoError(t, err)
	assert.Equal(t, "ana.souza", p.Login)
	assert.Equal(t, unimestre.MethodManual, p.Method)
	assert.Equal(t, "login:77/ana.souza", p.Key())

	body, err := p.JSON()
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, map[string]string{
		"ds_login":        "ana.souza",
		"ds_senha":        "s3nha",
		"cd_cliente":      "77",
		"ds_criptografia": "md5",
	}, got)
}

func TestManual_MissingFields(t *testing.T) {
	tests := []struct {
		name                          string
		login, password, institution string
		wantField                     string
	}{
		{"no login", "", "x", "1", "ds_login"},
		{"blank password", "a", "   ", "1", "ds_senha"},
		{"no institution", "a", "x", "", "cd_cliente"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Manual(tt.login, tt.password, tt.institution)
			require.Error(t, err)
			assert.True(t, unimestre.IsMalformed(err))
			assert.Contains(t, err.Error(), tt.wantField)

			var uerr *unimestre.Error
			require.True(t, errors.As(err, &uerr))
			assert.Equal(t, unimestre.MethodManual, uerr.Method)
		})
	}
}

func encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestDecodeQR(t *testing.T) {
	doc := `{"ds_login":"ana","ds_senha":"abc123","cd_cliente":77}`

	for name, code := range map[string]string{
		"std":     encode(doc),
		"raw std": base64.RawStdEncoding.EncodeToString([]byte(doc)),
		"url":     base64.URLEncoding.EncodeToString([]byte(doc)),
		"padded":  "  " + encode(doc) + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			p, err := DecodeQR(code)
			require.NoError(t, err)
			assert.Equal(t, "ana", p.Login)
			assert.Equal(t, "abc123", p.Password)
			assert.Equal(t, "77", p.Institution)
			assert.Empty(t, p.Encryption)
			assert.Equal(t, unimestre.MethodQRCode, p.Method)

			body, err := p.JSON()
			require.NoError(t, err)
			assert.Equal(t, doc, string(body))
		})
	}
}

func TestDecodeQR_Failures(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantKind unimestre.Kind
		wantErr  error
	}{
		{"empty", "", unimestre.CodeReadError, ErrEmptyCode},
		{"not base64", "%%%not-base64%%%", unimestre.MalformedPayload, ErrCodeDecode},
		{"not utf8", base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd}), unimestre.MalformedPayload, ErrCodeDecode},
		{"not json", encode("hello"), unimestre.MalformedPayload, ErrCodeData},
		{"json array", encode(`["ds_login"]`), unimestre.MalformedPayload, ErrCodeData},
		{"missing password", encode(`{"ds_login":"a","cd_cliente":"1"}`), unimestre.MalformedPayload, ErrCodeData},
		{"object value", encode(`{"ds_login":{},"ds_senha":"x","cd_cliente":"1"}`), unimestre.MalformedPayload, ErrCodeData},
		{"blank login", encode(`{"ds_login":"","ds_senha":"x","cd_cliente":"1"}`), unimestre.MalformedPayload, ErrCodeData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeQR(tt.code)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, unimestre.KindOf(err))
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			var uerr *unimestre.Error
			require.True(t, errors.As(err, &uerr))
			assert.Equal(t, unimestre.MethodQRCode, uerr.Method)
		})
	}
}

func TestDecodeQR_KeepsEncryptionField(t *testing.T) {
	p, err := DecodeQR(encode(`{"ds_login":"a","ds_senha":"b","cd_cliente":"1","ds_criptografia":"md5"}`))
	require.NoError(t, err)
	assert.Equal(t, "md5", p.Encryption)
}
