package main

import (
	"fmt"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/ppdb/apps/api/echo"
	"github.com/trezcool/ppdb/core"
)

var errUnknownRole = errors.New("role must be user or admin")

// token prints a token for development; real tokens are issued by the login service.
func (cli *commandLine) token(userID int, role, name, email string) error {
	role = core.CleanString(role, true /* lower */)
	if role != echoapi.RoleUser && role != echoapi.RoleAdmin {
		return errUnknownRole
	}
	claims := echoapi.NewClaims(cli.conf, userID, name, email, role)
	token, err := echoapi.GenerateToken(claims, cli.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
