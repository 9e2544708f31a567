package token

import (
	"encoding/json"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Codec firma y verifica tokens con el secreto del servicio (HS256).
// Los user tokens se verifican aparte, con el secreto de cada cuenta
// (ver InflateUserToken).
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// wireClaims es la forma firmada de los tokens propios del servicio.
// La expiración viaja como claim propio (no "exp"): la validación de
// expiry es nuestra, no de la librería.
type wireClaims struct {
	TokenType      Type            `json:"type"`
	Data           json.RawMessage `json:"data"`
	Invalidated    bool            `json:"invalidated"`
	ExpirationDate time.Time       `json:"expirationDate"`
	jwtv5.RegisteredClaims
}

type oneTimeLoginData struct {
	UserID   string     `json:"userId"`
	Consumed *time.Time `json:"consumed,omitempty"`
}

type urlData struct {
	ACL ACL `json:"acl"`
}

type userData struct {
	Sub              string     `json:"sub"`
	ImpersonatedUser string     `json:"impersonatedUser,omitempty"`
	IssuedAt         time.Time  `json:"iat"`
	Consumed         *time.Time `json:"consumed,omitempty"`
}

func (c *Codec) signWire(typ Type, data any, expirationDate time.Time) (string, json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", nil, err
	}
	claims := wireClaims{
		TokenType:      typ,
		Data:           raw,
		Invalidated:    false,
		ExpirationDate: expirationDate,
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, raw, nil
}

// BuildOneTimeLogin firma un token one-time-login para el userId dado.
func (c *Codec) BuildOneTimeLogin(userID string, expirationDate time.Time) (*OneTimeLoginToken, error) {
	signed, _, err := c.signWire(TypeOneTimeLogin, oneTimeLoginData{UserID: userID}, expirationDate)
	if err != nil {
		return nil, err
	}
	return &OneTimeLoginToken{
		meta:   meta{key: signed, typ: TypeOneTimeLogin, expirationDate: expirationDate},
		UserID: userID,
	}, nil
}

// BuildURL firma un URL token stateless con la ACL embebida.
func (c *Codec) BuildURL(acl ACL, expirationDate time.Time) (*URLToken, error) {
	signed, _, err := c.signWire(TypeURL, urlData{ACL: acl}, expirationDate)
	if err != nil {
		return nil, err
	}
	return &URLToken{
		meta: meta{key: signed, typ: TypeURL, expirationDate: expirationDate},
		ACL:  acl,
	}, nil
}

// BuildUser firma un user token con un secreto arbitrario (el de la
// cuenta emisora). Usa claims registrados sub/iat/exp.
func BuildUser(accountSecret []byte, sub, impersonatedUser string, issuedAt, expiresAt time.Time) (*UserToken, error) {
	claims := jwtv5.MapClaims{
		"sub": sub,
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
	}
	if impersonatedUser != "" {
		claims["impersonatedUser"] = impersonatedUser
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(accountSecret)
	if err != nil {
		return nil, err
	}
	return &UserToken{
		meta:             meta{key: signed, typ: TypeUser, expirationDate: expiresAt},
		Sub:              sub,
		ImpersonatedUser: impersonatedUser,
		IssuedAt:         issuedAt,
	}, nil
}

// Inflate verifica firma y decodifica un token del servicio.
// Firma inválida o payload malformado -> ErrInvalidToken; token bien
// formado pero vencido -> ErrTokenExpired. Los callers necesitan
// distinguirlos (mensajes distintos hacia el usuario).
func (c *Codec) Inflate(raw string) (Token, error) {
	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithoutClaimsValidation(),
	)
	var claims wireClaims
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwtv5.Token) (any, error) {
		return c.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	tok, err := Rehydrate(raw, claims.TokenType, claims.Data, claims.Invalidated, claims.ExpirationDate)
	if err != nil {
		return nil, err
	}
	if tok.IsExpired() {
		return nil, ErrTokenExpired
	}
	return tok, nil
}

// Verify retorna si el raw token es verificable y válido. Errores de
// firma o expiry cuentan como inválido, no como error.
func (c *Codec) Verify(raw string) (bool, error) {
	tok, err := c.Inflate(raw)
	if err != nil {
		return false, nil
	}
	return tok.IsValid(), nil
}

// InflateUserToken verifica un user token contra el secreto de la
// cuenta emisora. El claim exp es obligatorio; la expiración la evalúa
// el caller vía IsExpired, igual que con los demás tokens.
func InflateUserToken(raw string, accountSecret []byte) (*UserToken, error) {
	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithoutClaimsValidation(),
	)
	var claims struct {
		ImpersonatedUser string `json:"impersonatedUser"`
		jwtv5.RegisteredClaims
	}
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwtv5.Token) (any, error) {
		return accountSecret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}
	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return &UserToken{
		meta:             meta{key: raw, typ: TypeUser, expirationDate: claims.ExpiresAt.Time},
		Sub:              claims.Subject,
		ImpersonatedUser: claims.ImpersonatedUser,
		IssuedAt:         issuedAt,
	}, nil
}

// Rehydrate reconstruye un token tipado desde sus campos persistidos.
// No evalúa expiración: un token expirado en el store se reconstruye
// igual y falla recién en IsValid.
func Rehydrate(key string, typ Type, data []byte, invalidated bool, expirationDate time.Time) (Token, error) {
	m := meta{key: key, typ: typ, invalidated: invalidated, expirationDate: expirationDate}
	switch typ {
	case TypeOneTimeLogin:
		var d oneTimeLoginData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return &OneTimeLoginToken{meta: m, UserID: d.UserID, Consumed: d.Consumed}, nil
	case TypeURL:
		var d urlData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return &URLToken{meta: m, ACL: d.ACL}, nil
	case TypeUser:
		var d userData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return &UserToken{meta: m, Sub: d.Sub, ImpersonatedUser: d.ImpersonatedUser, IssuedAt: d.IssuedAt}, nil
	}
	return nil, fmt.Errorf("%w: unknown token type %d", ErrInvalidToken, int(typ))
}

// DataJSON serializa los datos propios de la variante, para persistir.
func DataJSON(t Token) ([]byte, error) {
	switch v := t.(type) {
	case *OneTimeLoginToken:
		return json.Marshal(oneTimeLoginData{UserID: v.UserID, Consumed: v.Consumed})
	case *URLToken:
		return json.Marshal(urlData{ACL: v.ACL})
	case *UserToken:
		return json.Marshal(userData{Sub: v.Sub, ImpersonatedUser: v.ImpersonatedUser, IssuedAt: v.IssuedAt})
	}
	return nil, fmt.Errorf("%w: unknown token variant %T", ErrInvalidToken, t)
}
