package main

import (
	"fmt"

	"github.com/trezcool/tutorhub/core/user"
)

func (cli *commandLine) addUser(name, email, role, pwd string) error {
	usr, err := cli.usrSvc.Register(user.NewUser{
		Name:     name,
		Email:    email,
		Password: pwd,
		Role:     role,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s %q (%s)\n", usr.Role, usr.Name, usr.ID)
	return nil
}
