package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/school"
)

var errDepartmentExists = errors.New("a department with this name already exists")

func (cli *commandLine) addDepartment(name string) error {
	_, err := cli.schoolRepo.CreateDepartment(context.Background(), school.Department{Name: core.CleanString(name)})
	if errors.Cause(err) == core.ErrDuplicate {
		return errDepartmentExists
	}
	return err
}
