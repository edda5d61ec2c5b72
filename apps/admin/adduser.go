package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

type newUserArgs struct {
	username string
	email    string
	name     string
	password string
	isAdmin  bool
	teacher  string // name of the linked teacher record; empty for non teachers
}

// addUser updates or creates a user.User. A teacher record is linked to it when args.teacher is set.
func (cli *commandLine) addUser(args newUserArgs) error {
	ctx := context.Background()
	uname := core.CleanString(args.username, true /* lower */)
	email := core.CleanString(args.email, true /* lower */)

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: uname})
	if core.IsNotFound(err) {
		usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	}
	exists := err == nil
	if err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "getting user")
	}

	now := time.Now().UTC()
	if !exists {
		usr = user.User{CreatedAt: now}
	}
	usr.Username = uname
	usr.Email = email
	if name := core.CleanString(args.name); name != "" {
		usr.Name = name
	}
	switch {
	case args.isAdmin:
		usr.Roles = user.AdminRoles
	case args.teacher != "":
		usr.Roles = user.TeacherRoles
	}
	usr.UpdatedAt = now
	usr.SetActive(true)
	if err = usr.SetPassword(args.password); err != nil {
		return errors.Wrap(err, "setting password")
	}

	if exists {
		usr, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		usr, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	if err != nil {
		return errors.Wrap(err, "saving user")
	}

	if args.teacher == "" {
		return nil
	}
	if _, err = cli.schoolRepo.GetTeacher(ctx, school.TeacherGetFilter{UserID: usr.ID}); err == nil {
		return nil // already linked
	} else if !core.IsNotFound(err) {
		return errors.Wrap(err, "getting teacher")
	}
	_, err = cli.schoolRepo.CreateTeacher(ctx, school.Teacher{Name: core.CleanString(args.teacher), UserID: &usr.ID})
	return errors.Wrap(err, "creating teacher")
}
