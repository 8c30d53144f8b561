package auth

import (
	"errors"

	"github.com/alexedwards/argon2id"
)

// ErrPasswordMismatch indica senha que não confere com o hash.
var ErrPasswordMismatch = errors.New("senha não confere")

var params = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera um hash Argon2id com os parâmetros embutidos.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// CheckPassword retorna ErrPasswordMismatch quando a senha não confere. Hash
// malformado também conta como divergência.
func CheckPassword(password, encodedHash string) error {
	ok, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	if err != nil || !ok {
		return ErrPasswordMismatch
	}
	return nil
}
