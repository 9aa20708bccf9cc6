package validate

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/onepage-api/internal/domain"
)

var (
	usernameRe   = regexp.MustCompile(`^[a-zA-Z0-9]{3,20}$`)
	domainNameRe = regexp.MustCompile(`^[a-zA-Z0-9-]{3,30}$`)
	maxUint256   = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

func init() {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister("username", func(fl validator.FieldLevel) bool { return Username(fl.Field().String()) })
	mustRegister("domainname", func(fl validator.FieldLevel) bool { return DomainName(fl.Field().String()) })
	mustRegister("ethaddr", func(fl validator.FieldLevel) bool { return Address(fl.Field().String()) })
	mustRegister("uint256", func(fl validator.FieldLevel) bool {
		_, ok := PositiveUint256(fl.Field().String())
		return ok
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Username reports whether s is 3-20 ASCII letters or digits.
func Username(s string) bool { return usernameRe.MatchString(s) }

// DomainName reports whether s is 3-30 ASCII letters, digits or hyphens.
func DomainName(s string) bool { return domainNameRe.MatchString(s) }

// Address reports whether s is a hex-encoded 20-byte account identifier.
func Address(s string) bool { return common.IsHexAddress(s) }

// PositiveUint256 parses a base-10 integer and reports whether it lies in (0, 2^256).
func PositiveUint256(s string) (*big.Int, bool) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || n.Sign() <= 0 || n.Cmp(maxUint256) > 0 {
		return nil, false
	}
	return n, true
}

// Struct validates the given struct using its validate tags.
// The first failing field is returned as a *domain.ValidationError.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err
	}
	fe := ve[0]
	return domain.NewValidationError(fe.Field(), fe.Tag(), message(fe))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Invalid email format"
	case "username":
		return "Invalid username format"
	case "domainname":
		return "Invalid domain format"
	case "ethaddr":
		if field == "walletAddress" {
			return "Invalid wallet address"
		}
		return "Invalid token address"
	case "uint256":
		return field + " must be a positive integer"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min", "max", "len":
		return fmt.Sprintf("%s has invalid length", field)
	case "numeric":
		return field + " must be numeric"
	}
	return fmt.Sprintf("field '%s' failed '%s'", field, fe.Tag())
}
